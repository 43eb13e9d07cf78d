package handler

import (
	"net/http"

	"lifeflow-server/internal/domain/social"
	"lifeflow-server/internal/services"
	"lifeflow-server/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FollowHandler struct {
	service *services.FollowService
}

func NewFollowHandler(service *services.FollowService) *FollowHandler {
	return &FollowHandler{service: service}
}

func (h *FollowHandler) Follow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	f, err := h.service.Follow(c.Request.Context(), userID, targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToFollowResponse(f)))
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	if err := h.service.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"following": false}))
}

func (h *FollowHandler) Mute(c *gin.Context) {
	h.setMuted(c, true)
}

func (h *FollowHandler) Unmute(c *gin.Context) {
	h.setMuted(c, false)
}

func (h *FollowHandler) setMuted(c *gin.Context, muted bool) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	var follow social.Follow
	if muted {
		follow, err = h.service.Mute(c.Request.Context(), userID, targetID)
	} else {
		follow, err = h.service.Unmute(c.Request.Context(), userID, targetID)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToFollowResponse(follow)))
}

func (h *FollowHandler) Followers(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	entries, total, err := h.service.Followers(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]httpdto.FollowEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, httpdto.ToFollowEntryResponse(e))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPaginated(items, total, page, limit)))
}

func (h *FollowHandler) Following(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	page, limit := pageParams(c)
	entries, total, err := h.service.Following(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	items := make([]httpdto.FollowEntryResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, httpdto.ToFollowEntryResponse(e))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPaginated(items, total, page, limit)))
}
