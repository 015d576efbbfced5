package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	like "liftly.app/liftly/internal/modules/like/service"
	"liftly.app/liftly/pkg/response"
)

type LikeHandler struct {
	service like.LikeService
}

func NewLikeHandler(service like.LikeService) *LikeHandler {
	return &LikeHandler{service: service}
}

func (h *LikeHandler) ToggleLike(c *gin.Context) {
	h.toggle(c, h.service.ToggleLike, "liked")
}

func (h *LikeHandler) ToggleBookmark(c *gin.Context) {
	h.toggle(c, h.service.ToggleBookmark, "bookmarked")
}

func (h *LikeHandler) toggle(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID) (bool, error), field string) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	active, err := fn(c.Request.Context(), userID, postID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{field: active})
}
