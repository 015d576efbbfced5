package dto

import (
	"github.com/google/uuid"
	"liftly.app/liftly/internal/model"
	commonDto "liftly.app/liftly/pkg/dto"
)

type CreatePostRequest struct {
	Body     string             `json:"body" binding:"required,max=5000"`
	Kind     string             `json:"kind" binding:"omitempty,oneof=note workout progress record meal"`
	Audience string             `json:"audience" binding:"omitempty,oneof=everyone followers"`
	ParentID string             `json:"parent_id"` // Optional, for replies
	ImageURL *string            `json:"image_url"`
	MediaIDs []uint             `json:"media_ids"`
	Meta     *model.WorkoutMeta `json:"meta"`
}

type RepostRequest struct {
	// Non-empty quote turns the repost into a quote post.
	Quote string `json:"quote" binding:"max=5000"`
}

type PostResponse struct {
	ID           uuid.UUID                  `json:"id"`
	Author       commonDto.AuthorResponse   `json:"author"`
	Body         string                     `json:"body"`
	Kind         string                     `json:"kind"`
	ImageURL     *string                    `json:"image_url,omitempty"`
	Media        []commonDto.MediaResponse  `json:"media,omitempty"`
	Meta         *model.WorkoutMeta         `json:"meta,omitempty"`
	Audience     string                     `json:"audience"`
	ParentID     *uuid.UUID                 `json:"parent_id,omitempty"`
	ThreadRootID *uuid.UUID                 `json:"thread_root_id,omitempty"`
	RepostOfID   *uuid.UUID                 `json:"repost_of_id,omitempty"`
	IsQuote      bool                       `json:"is_quote"`
	LikeCount    int                        `json:"like_count"`
	ReplyCount   int                        `json:"reply_count"`
	RepostCount  int                        `json:"repost_count"`
	Liked        bool                       `json:"liked"`
	Bookmarked   bool                       `json:"bookmarked"`
	TopReply     *PostResponse              `json:"top_reply,omitempty"`
	CreatedAt    string                     `json:"created_at"`
}

// NewPostResponse maps a post row (with preloaded Author and Media) into the
// wire shape. Viewer-relative flags default to false; callers with a viewer
// fill them in.
func NewPostResponse(p *model.Post) *PostResponse {
	author := commonDto.AuthorResponse{
		Handle:      "unknown",
		DisplayName: "Unknown",
	}
	if p.Author.Handle != "" {
		author.Handle = p.Author.Handle
		author.DisplayName = p.Author.DisplayName
		author.AvatarURL = p.Author.AvatarURL
	}

	var media []commonDto.MediaResponse
	for _, m := range p.Media {
		media = append(media, commonDto.MediaResponse{
			ID:       m.ID,
			FileURL:  m.FileURL,
			FileType: m.FileType,
			Position: m.Position,
		})
	}

	return &PostResponse{
		ID:           p.ID,
		Author:       author,
		Body:         p.Body,
		Kind:         p.Kind,
		ImageURL:     p.ImageURL,
		Media:        media,
		Meta:         p.Meta,
		Audience:     p.Audience,
		ParentID:     p.ParentID,
		ThreadRootID: p.ThreadRootID,
		RepostOfID:   p.RepostOfID,
		IsQuote:      p.IsQuote,
		LikeCount:    p.LikeCount,
		ReplyCount:   p.ReplyCount,
		RepostCount:  p.RepostCount,
		CreatedAt:    p.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

type ThreadResponse struct {
	RootID uuid.UUID       `json:"root_id"`
	Posts  []*PostResponse `json:"posts"`
}
