package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	search "liftly.app/liftly/internal/modules/search/service"
	"liftly.app/liftly/internal/modules/user/repository"
	"liftly.app/liftly/pkg/response"
)

type SearchHandler struct {
	service  search.SearchService
	userRepo repository.UserRepository
}

func NewSearchHandler(service search.SearchService, userRepo repository.UserRepository) *SearchHandler {
	return &SearchHandler{service: service, userRepo: userRepo}
}

// GetSearchToken mints a scoped tenant token so clients query the search
// index directly without seeing restricted authors.
func (h *SearchHandler) GetSearchToken(c *gin.Context) {
	if h.service == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	userID, err := response.GetUserID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	elevated := false
	if user, err := h.userRepo.FindByID(c.Request.Context(), userID.String()); err == nil {
		elevated = user.IsElevated()
	}

	token, err := h.service.GenerateSearchToken(userID.String(), elevated)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
