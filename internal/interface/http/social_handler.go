package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/response"
)

type SocialHandler struct {
	Svc    *application.SocialService
	Logger *logrus.Logger
}

func NewSocialHandler(svc *application.SocialService, logger *logrus.Logger) *SocialHandler {
	return &SocialHandler{Svc: svc, Logger: logger}
}

type directoryEntry struct {
	publicUserResponse
	IsFollowed bool `json:"is_followed"`
}

type followResponse struct {
	UserID    string `json:"user_id"`
	Following bool   `json:"following"`
	Followers int    `json:"followers"`
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *SocialHandler) ListUsers(c *gin.Context) {
	users, err := h.Svc.ListUsers(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]directoryEntry, 0, len(users))
	for _, u := range users {
		out = append(out, directoryEntry{publicUserResponse: toPublicUser(u.User), IsFollowed: u.IsFollowed})
	}
	response.Success(c, http.StatusOK, out, "users", map[string]any{"count": len(out)})
}

func (h *SocialHandler) Follow(c *gin.Context) {
	st, err := h.Svc.Follow(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, followResponse{UserID: st.UserID, Following: st.Following, Followers: st.Followers}, "followed", nil)
}

func (h *SocialHandler) Unfollow(c *gin.Context) {
	st, err := h.Svc.Unfollow(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, followResponse{UserID: st.UserID, Following: st.Following, Followers: st.Followers}, "unfollowed", nil)
}

func (h *SocialHandler) Followers(c *gin.Context) {
	h.relations(c, h.Svc.Followers, "followers")
}

func (h *SocialHandler) Following(c *gin.Context) {
	h.relations(c, h.Svc.Following, "following")
}

func (h *SocialHandler) relations(c *gin.Context, list func(context.Context, *rbac.Actor, string) ([]*entity.User, error), msg string) {
	users, err := list(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toPublicUsers(users), msg, map[string]any{"count": len(users)})
}

func (h *SocialHandler) AssignRole(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionUpdate, rbac.ResourceUser) {
		return
	}
	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.Svc.AssignRole(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req.Role)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toPublicUser(u), "role updated", nil)
}
