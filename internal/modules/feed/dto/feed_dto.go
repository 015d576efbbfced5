package dto

import (
	postDto "liftly.app/liftly/internal/modules/post/dto"
	commonDto "liftly.app/liftly/pkg/dto"
)

const (
	FilterRoots   = "roots"
	FilterReplies = "replies"
	FilterMedia   = "media"
)

type FeedQuery struct {
	Cursor string `form:"cursor" binding:"omitempty,uuid"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=50"`
	Filter string `form:"filter" binding:"omitempty,oneof=roots replies media"`
}

type FeedResponse struct {
	Posts []*postDto.PostResponse `json:"posts"`
	Meta  commonDto.CursorMeta    `json:"meta"`
}
