package handler

import (
	"net/http"

	"lifeflow-server/internal/services"
	"lifeflow-server/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserHandler struct {
	service *services.UserService
	follows *services.FollowService
}

func NewUserHandler(service *services.UserService, follows *services.FollowService) *UserHandler {
	return &UserHandler{service: service, follows: follows}
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(profile))
}

func (h *UserHandler) GetByID(c *gin.Context) {
	viewerID, ok := currentUser(c)
	if !ok {
		return
	}

	targetID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid user id", "INVALID_REQUEST"))
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	following := false
	if h.follows != nil && viewerID != targetID {
		if f, err := h.follows.IsFollowing(c.Request.Context(), viewerID, targetID); err == nil {
			following = f
		}
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"profile":      profile,
		"is_following": following,
	}))
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req httpdto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "INVALID_REQUEST"))
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, services.UpdateProfileInput{
		Name:   req.Name,
		Avatar: req.Avatar,
		Bio:    req.Bio,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(profile))
}

func (h *UserHandler) Search(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	page, limit := pageParams(c)
	profiles, total, err := h.service.Search(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewPaginated(profiles, total, page, limit)))
}
