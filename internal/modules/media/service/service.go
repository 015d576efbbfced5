package media

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	mediaRepo "liftly.app/liftly/internal/modules/media/repository"
	"liftly.app/liftly/internal/model"
	"liftly.app/liftly/pkg/apperror"
	commonDto "liftly.app/liftly/pkg/dto"
	"liftly.app/liftly/pkg/storage"
)

const maxUploadBytes = 10 << 20

var allowedExtensions = map[string]string{
	".jpg":  "image",
	".jpeg": "image",
	".png":  "image",
	".webp": "image",
	".gif":  "image",
	".mp4":  "video",
	".mov":  "video",
}

type MediaService interface {
	// UploadMedia stores the file and returns an unattached media row; the
	// id is later claimed by a post create request.
	UploadMedia(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*commonDto.MediaResponse, error)
	// CleanupOrphans removes uploads that were never attached to a post.
	CleanupOrphans(ctx context.Context, olderThan time.Duration) (int, error)
}

type mediaService struct {
	repo    mediaRepo.MediaRepository
	storage storage.MediaStorage
}

func NewMediaService(repo mediaRepo.MediaRepository, storage storage.MediaStorage) MediaService {
	return &mediaService{repo: repo, storage: storage}
}

func (s *mediaService) UploadMedia(ctx context.Context, userID uuid.UUID, file *multipart.FileHeader) (*commonDto.MediaResponse, error) {
	if file.Size > maxUploadBytes {
		return nil, fmt.Errorf("%w: file exceeds 10MB", apperror.ErrBadRequest)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	fileType, ok := allowedExtensions[ext]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported file type %s", apperror.ErrBadRequest, ext)
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	fileName := fmt.Sprintf("%s-%s", userID, uuid.NewString())
	fileURL, err := s.storage.UploadMedia(ctx, src, "posts", fileName)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	media := &model.PostMedia{
		UserID:   userID,
		FileURL:  fileURL,
		FileType: fileType,
	}
	if err := s.repo.Create(ctx, media); err != nil {
		if delErr := s.storage.DeleteMedia(context.Background(), fileURL); delErr != nil {
			log.Printf("[media] failed to roll back upload %s: %v", fileURL, delErr)
		}
		return nil, err
	}

	return &commonDto.MediaResponse{
		ID:       media.ID,
		FileURL:  media.FileURL,
		FileType: media.FileType,
		Position: media.Position,
	}, nil
}

func (s *mediaService) CleanupOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	orphans, err := s.repo.FindOrphansBefore(ctx, time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, m := range orphans {
		if err := s.storage.DeleteMedia(ctx, m.FileURL); err != nil {
			log.Printf("[media] failed to delete orphan %d from storage: %v", m.ID, err)
			continue
		}
		if err := s.repo.Delete(ctx, m.ID); err != nil {
			log.Printf("[media] failed to delete orphan row %d: %v", m.ID, err)
			continue
		}
		removed++
	}
	return removed, nil
}
