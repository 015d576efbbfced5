package post

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"liftly.app/liftly/internal/model"
	account "liftly.app/liftly/internal/modules/account/service"
	mediaRepo "liftly.app/liftly/internal/modules/media/repository"
	mention "liftly.app/liftly/internal/modules/mention/service"
	notifService "liftly.app/liftly/internal/modules/notification/service"
	postDto "liftly.app/liftly/internal/modules/post/dto"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
	search "liftly.app/liftly/internal/modules/search/service"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/pkg/apperror"
)

// Summoner starts the coach reply pipeline for a post that mentioned the
// bot. Implementations detach immediately; a summon never fails the post.
type Summoner interface {
	Summon(postID uuid.UUID)
}

type PostService interface {
	CreatePost(ctx context.Context, authorID uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error)
	Repost(ctx context.Context, userID uuid.UUID, postID uuid.UUID, req postDto.RepostRequest) (*postDto.PostResponse, error)
	DeletePost(ctx context.Context, requesterID uuid.UUID, postID uuid.UUID) error
	GetThread(ctx context.Context, postID uuid.UUID) (*postDto.ThreadResponse, error)
	// SetSummoner is wired after construction; the coach pipeline itself
	// posts through this service.
	SetSummoner(s Summoner)
}

type postService struct {
	postRepo            postRepo.PostRepository
	userRepo            userRepo.UserRepository
	mediaRepo           mediaRepo.MediaRepository
	gate                account.GateService
	mentionService      mention.MentionService
	notificationService notifService.NotificationService
	searchService       search.SearchService
	redisClient         *redis.Client
	summoner            Summoner
}

func NewPostService(
	postRepo postRepo.PostRepository,
	userRepo userRepo.UserRepository,
	mediaRepo mediaRepo.MediaRepository,
	gate account.GateService,
	mentionService mention.MentionService,
	notificationService notifService.NotificationService,
	searchService search.SearchService,
	redisClient *redis.Client,
) PostService {
	return &postService{
		postRepo:            postRepo,
		userRepo:            userRepo,
		mediaRepo:           mediaRepo,
		gate:                gate,
		mentionService:      mentionService,
		notificationService: notificationService,
		searchService:       searchService,
		redisClient:         redisClient,
	}
}

func (s *postService) SetSummoner(summoner Summoner) {
	s.summoner = summoner
}

func (s *postService) CreatePost(ctx context.Context, authorID uuid.UUID, req postDto.CreatePostRequest) (*postDto.PostResponse, error) {
	author, err := s.userRepo.FindByID(ctx, authorID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: author", apperror.ErrNotFound)
	}

	if err := s.gate.CheckWrite(ctx, authorID); err != nil {
		return nil, err
	}

	// The coach's own writes are system generated and skip the cooldowns.
	rollbackRateLimit := func() {}
	if author.Role != model.RoleBot {
		cleanup, err := s.checkCreateRateLimit(ctx, authorID)
		if err != nil {
			return nil, err
		}
		rollbackRateLimit = cleanup
	}

	creationFailed := true
	defer func() {
		if creationFailed {
			rollbackRateLimit()
		}
	}()

	kind := req.Kind
	if kind == "" {
		kind = model.KindNote
	}
	audience := req.Audience
	if audience == "" {
		audience = model.AudienceEveryone
	}

	// Thread resolution: a reply inherits the parent's root, or the parent
	// itself when the parent is a root. Deleted parents still anchor
	// replies; only unknown ids fail.
	var parent *model.Post
	var parentID, threadRootID *uuid.UUID
	if req.ParentID != "" {
		pid, err := uuid.Parse(req.ParentID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid parent id", apperror.ErrBadRequest)
		}
		parent, err = s.postRepo.FindByIDAny(ctx, pid)
		if err != nil {
			return nil, fmt.Errorf("%w: parent post", apperror.ErrNotFound)
		}
		parentID = &pid
		root := parent.ThreadRoot()
		threadRootID = &root
	}

	post := &model.Post{
		AuthorID:     authorID,
		Body:         req.Body,
		Kind:         kind,
		ImageURL:     req.ImageURL,
		Meta:         req.Meta,
		Audience:     audience,
		ParentID:     parentID,
		ThreadRootID: threadRootID,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	creationFailed = false

	if len(req.MediaIDs) > 0 {
		if err := s.mediaRepo.AttachToPost(ctx, req.MediaIDs, post.ID, authorID); err != nil {
			log.Printf("[post] failed to attach media to %s: %v", post.ID, err)
		}
		if reloaded, err := s.postRepo.FindByID(ctx, post.ID); err == nil {
			post = reloaded
		}
	}
	post.Author = *author

	// Notification rows are part of the synchronous write path; each
	// recipient is an isolated unit of work and a failure only logs.
	summoned := s.fanOut(ctx, author, post, parent)

	if s.searchService != nil {
		if err := s.searchService.IndexPost(post); err != nil {
			log.Printf("[post] failed to index %s: %v", post.ID, err)
		}
	}

	// Detached: the coach pipeline runs with its own error boundary and is
	// never awaited by this request.
	if summoned && s.summoner != nil && author.Role != model.RoleBot {
		s.summoner.Summon(post.ID)
	}

	return postDto.NewPostResponse(post), nil
}

// fanOut resolves mentions, writes the notification rows and reports
// whether the coach was summoned.
func (s *postService) fanOut(ctx context.Context, author *model.User, post *model.Post, parent *model.Post) bool {
	summoned := false

	handles := s.mentionService.ExtractHandles(post.Body, author.Handle)
	mentioned, err := s.mentionService.Resolve(ctx, handles)
	if err != nil {
		log.Printf("[post] mention resolution failed for %s: %v", post.ID, err)
		mentioned = nil
	}

	for _, u := range mentioned {
		if strings.EqualFold(u.Handle, model.BotHandle) {
			summoned = true
		}
		if u.ID == author.ID {
			continue
		}
		if err := s.notificationService.Notify(ctx, u.ID, model.NotifMention, author, post); err != nil {
			log.Printf("[post] mention notification to %s failed: %v", u.ID, err)
		}
	}

	if parent != nil && !parent.IsDeleted() && parent.AuthorID != author.ID {
		if err := s.notificationService.Notify(ctx, parent.AuthorID, model.NotifReply, author, post); err != nil {
			log.Printf("[post] reply notification to %s failed: %v", parent.AuthorID, err)
		}
	}

	return summoned
}

func (s *postService) Repost(ctx context.Context, userID uuid.UUID, postID uuid.UUID, req postDto.RepostRequest) (*postDto.PostResponse, error) {
	author, err := s.userRepo.FindByID(ctx, userID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: user", apperror.ErrNotFound)
	}

	if err := s.gate.CheckWrite(ctx, userID); err != nil {
		return nil, err
	}

	target, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%w: post", apperror.ErrNotFound)
	}

	post := &model.Post{
		AuthorID:   userID,
		Body:       req.Quote,
		Kind:       model.KindNote,
		Audience:   model.AudienceEveryone,
		RepostOfID: &target.ID,
		IsQuote:    req.Quote != "",
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = *author

	if target.AuthorID != userID {
		notifType := model.NotifRepost
		if post.IsQuote {
			notifType = model.NotifQuote
		}
		if err := s.notificationService.Notify(ctx, target.AuthorID, notifType, author, target); err != nil {
			log.Printf("[post] repost notification to %s failed: %v", target.AuthorID, err)
		}
	}

	if post.IsQuote && s.searchService != nil {
		if err := s.searchService.IndexPost(post); err != nil {
			log.Printf("[post] failed to index quote %s: %v", post.ID, err)
		}
	}

	return postDto.NewPostResponse(post), nil
}

func (s *postService) DeletePost(ctx context.Context, requesterID uuid.UUID, postID uuid.UUID) error {
	requester, err := s.userRepo.FindByID(ctx, requesterID.String())
	if err != nil {
		return fmt.Errorf("%w: user", apperror.ErrNotFound)
	}

	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("%w: post", apperror.ErrNotFound)
	}

	if post.AuthorID != requesterID && !requester.IsElevated() {
		return fmt.Errorf("%w: you can only delete your own post", apperror.ErrForbidden)
	}

	if err := s.postRepo.SoftDelete(ctx, post); err != nil {
		return err
	}

	if s.searchService != nil {
		if err := s.searchService.RemovePost(postID.String()); err != nil {
			log.Printf("[post] failed to deindex %s: %v", postID, err)
		}
	}

	return nil
}

func (s *postService) GetThread(ctx context.Context, postID uuid.UUID) (*postDto.ThreadResponse, error) {
	anchor, err := s.postRepo.FindByIDAny(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("%w: post", apperror.ErrNotFound)
	}

	rootID := anchor.ThreadRoot()
	posts, err := s.postRepo.FindThread(ctx, rootID)
	if err != nil {
		return nil, err
	}

	resp := &postDto.ThreadResponse{RootID: rootID}
	for _, p := range posts {
		resp.Posts = append(resp.Posts, postDto.NewPostResponse(p))
	}

	return resp, nil
}
