package feed

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"liftly.app/liftly/internal/model"
	feedDto "liftly.app/liftly/internal/modules/feed/dto"
	feedRepo "liftly.app/liftly/internal/modules/feed/repository"
	likeRepo "liftly.app/liftly/internal/modules/like/repository"
	postDto "liftly.app/liftly/internal/modules/post/dto"
	postRepo "liftly.app/liftly/internal/modules/post/repository"
	userRepo "liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/pkg/apperror"
	commonDto "liftly.app/liftly/pkg/dto"
)

const defaultPageSize = 20

type FeedService interface {
	GetFeed(ctx context.Context, viewerID *uuid.UUID, q feedDto.FeedQuery) (*feedDto.FeedResponse, error)
	GetBookmarks(ctx context.Context, viewerID uuid.UUID, q feedDto.FeedQuery) (*feedDto.FeedResponse, error)
}

type feedService struct {
	repo     feedRepo.FeedRepository
	postRepo postRepo.PostRepository
	userRepo userRepo.UserRepository
	likeRepo likeRepo.LikeRepository
}

func NewFeedService(
	repo feedRepo.FeedRepository,
	postRepo postRepo.PostRepository,
	userRepo userRepo.UserRepository,
	likeRepo likeRepo.LikeRepository,
) FeedService {
	return &feedService{repo: repo, postRepo: postRepo, userRepo: userRepo, likeRepo: likeRepo}
}

func (s *feedService) GetFeed(ctx context.Context, viewerID *uuid.UUID, q feedDto.FeedQuery) (*feedDto.FeedResponse, error) {
	page, err := s.buildPage(ctx, viewerID, q)
	if err != nil {
		return nil, err
	}

	posts, err := s.repo.List(ctx, page)
	if err != nil {
		return nil, err
	}

	return s.assemble(ctx, viewerID, posts, page.Limit, q.Filter != feedDto.FilterReplies)
}

func (s *feedService) GetBookmarks(ctx context.Context, viewerID uuid.UUID, q feedDto.FeedQuery) (*feedDto.FeedResponse, error) {
	page, err := s.buildPage(ctx, &viewerID, q)
	if err != nil {
		return nil, err
	}

	posts, err := s.repo.ListBookmarked(ctx, viewerID, page)
	if err != nil {
		return nil, err
	}

	return s.assemble(ctx, &viewerID, posts, page.Limit, false)
}

func (s *feedService) buildPage(ctx context.Context, viewerID *uuid.UUID, q feedDto.FeedQuery) (feedRepo.Page, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	page := feedRepo.Page{Limit: limit, Filter: q.Filter, ViewerID: viewerID}

	if q.Cursor != "" {
		cursorID, err := uuid.Parse(q.Cursor)
		if err != nil {
			return page, fmt.Errorf("%w: invalid cursor", apperror.ErrBadRequest)
		}
		// The cursor post may have been deleted since the previous page;
		// its timestamp still anchors the window.
		anchor, err := s.postRepo.FindByIDAny(ctx, cursorID)
		if err != nil {
			return page, fmt.Errorf("%w: unknown cursor", apperror.ErrBadRequest)
		}
		page.CursorCreatedAt = &anchor.CreatedAt
		page.CursorID = &anchor.ID
	}

	exclude, err := s.shadowExclusions(ctx, viewerID)
	if err != nil {
		log.Printf("[feed] shadow restriction lookup failed: %v", err)
	} else {
		page.ExcludeAuthors = exclude
	}

	return page, nil
}

// shadowExclusions returns the author ids silently hidden from this viewer.
// Restricted users still see their own posts, and moderators see everything.
func (s *feedService) shadowExclusions(ctx context.Context, viewerID *uuid.UUID) ([]uuid.UUID, error) {
	if viewerID != nil {
		viewer, err := s.userRepo.FindByID(ctx, viewerID.String())
		if err == nil && viewer.IsElevated() {
			return nil, nil
		}
	}

	ids, err := s.userRepo.ShadowRestrictedIDs(ctx)
	if err != nil {
		return nil, err
	}

	var exclude []uuid.UUID
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if viewerID != nil && id == *viewerID {
			continue
		}
		exclude = append(exclude, id)
	}
	return exclude, nil
}

func (s *feedService) assemble(ctx context.Context, viewerID *uuid.UUID, posts []*model.Post, limit int, withTopReply bool) (*feedDto.FeedResponse, error) {
	hasMore := len(posts) > limit
	if hasMore {
		posts = posts[:limit]
	}

	resp := &feedDto.FeedResponse{
		Posts: make([]*postDto.PostResponse, 0, len(posts)),
		Meta:  commonDto.CursorMeta{HasMore: hasMore, Limit: limit},
	}

	marks := map[uuid.UUID]map[string]bool{}
	if viewerID != nil && len(posts) > 0 {
		ids := make([]uuid.UUID, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		m, err := s.likeRepo.KindsForPosts(ctx, *viewerID, ids)
		if err != nil {
			log.Printf("[feed] viewer marks lookup failed: %v", err)
		} else {
			marks = m
		}
	}

	for _, p := range posts {
		item := postDto.NewPostResponse(p)
		if pm := marks[p.ID]; pm != nil {
			item.Liked = pm[model.LikeKindLike]
			item.Bookmarked = pm[model.LikeKindBookmark]
		}
		if withTopReply && p.ReplyCount > 0 {
			top, err := s.postRepo.TopReply(ctx, p.ID)
			if err != nil {
				log.Printf("[feed] top reply lookup for %s failed: %v", p.ID, err)
			} else if top != nil {
				item.TopReply = postDto.NewPostResponse(top)
			}
		}
		resp.Posts = append(resp.Posts, item)
	}

	if len(posts) > 0 {
		resp.Meta.NextCursor = posts[len(posts)-1].ID.String()
	}

	return resp, nil
}
