package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/response"
)

type LibraryHandler struct {
	Svc    *application.LibraryService
	Logger *logrus.Logger
}

func NewLibraryHandler(svc *application.LibraryService, logger *logrus.Logger) *LibraryHandler {
	return &LibraryHandler{Svc: svc, Logger: logger}
}

func (h *LibraryHandler) List(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	libs, err := h.Svc.ListLibraries(c.Request.Context(), actor)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]libraryResponse, 0, len(libs))
	for _, l := range libs {
		out = append(out, toLibrary(l))
	}
	response.Success(c, http.StatusOK, out, "libraries", map[string]any{
		"count":       len(out),
		"permissions": h.Svc.Guard.Permissions(actor, rbac.ResourceLibrary),
	})
}

func (h *LibraryHandler) Get(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	d, err := h.Svc.GetLibrary(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLibraryDetail(d), "library", map[string]any{
		"permissions": h.Svc.Guard.Permissions(actor, rbac.ResourceLibrary),
	})
}

func (h *LibraryHandler) Create(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionCreate, rbac.ResourceLibrary) {
		return
	}
	var req application.LibraryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	l, err := h.Svc.CreateLibrary(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toLibrary(l), "library created", nil)
}

func (h *LibraryHandler) Update(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionUpdate, rbac.ResourceLibrary) {
		return
	}
	var req application.LibraryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	l, err := h.Svc.UpdateLibrary(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLibrary(l), "library updated", nil)
}

func (h *LibraryHandler) Delete(c *gin.Context) {
	if err := h.Svc.DeleteLibrary(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

func (h *LibraryHandler) AddBook(c *gin.Context) {
	d, err := h.Svc.AddBook(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), c.Param("book_id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLibraryDetail(d), "book added", nil)
}

func (h *LibraryHandler) RemoveBook(c *gin.Context) {
	d, err := h.Svc.RemoveBook(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), c.Param("book_id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toLibraryDetail(d), "book removed", nil)
}
