package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	feedDto "liftly.app/liftly/internal/modules/feed/dto"
	feed "liftly.app/liftly/internal/modules/feed/service"
	"liftly.app/liftly/pkg/response"
	"liftly.app/liftly/pkg/validator"
)

type FeedHandler struct {
	service feed.FeedService
}

func NewFeedHandler(service feed.FeedService) *FeedHandler {
	return &FeedHandler{service: service}
}

func (h *FeedHandler) GetFeed(c *gin.Context) {
	var q feedDto.FeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	viewerID := response.GetOptionalUserID(c)

	resp, err := h.service.GetFeed(c.Request.Context(), viewerID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *FeedHandler) GetBookmarks(c *gin.Context) {
	var q feedDto.FeedQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	resp, err := h.service.GetBookmarks(c.Request.Context(), userID, q)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
