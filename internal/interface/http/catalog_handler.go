package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	repo "github.com/oksasatya/go-bookshelf-rbac/internal/domain/repository"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/response"
)

type CatalogHandler struct {
	Svc    *application.CatalogService
	Logger *logrus.Logger
}

func NewCatalogHandler(svc *application.CatalogService, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{Svc: svc, Logger: logger}
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, key string) (int, bool) {
	v := c.Query(key)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query parameter", response.ErrorBody{
			Code:    "validation_error",
			Details: map[string]string{key: "must be an integer"},
		})
		return 0, false
	}
	return n, true
}

func (h *CatalogHandler) ListBooks(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	f := repo.BookFilter{
		Title:    c.Query("title"),
		AuthorID: c.Query("author_id"),
		Search:   c.Query("search"),
		Ordering: c.Query("ordering"),
		Limit:    limit,
		Offset:   offset,
	}
	actor := middleware.ActorFrom(c)
	books, err := h.Svc.ListBooks(c.Request.Context(), actor, f)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBooks(books), "books", map[string]any{
		"count":       len(books),
		"offset":      offset,
		"permissions": h.Svc.Guard.Permissions(actor, rbac.ResourceBook),
	})
}

func (h *CatalogHandler) SearchBooks(c *gin.Context) {
	size, ok := queryInt(c, "size")
	if !ok {
		return
	}
	books, err := h.Svc.SearchBooks(c.Request.Context(), middleware.ActorFrom(c), c.Query("q"), size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBooks(books), "books", map[string]any{"count": len(books)})
}

func (h *CatalogHandler) GetBook(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	b, err := h.Svc.GetBook(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBook(b), "book", map[string]any{
		"permissions": h.Svc.Guard.Permissions(actor, rbac.ResourceBook),
	})
}

func (h *CatalogHandler) CreateBook(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionCreate, rbac.ResourceBook) {
		return
	}
	var req application.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.Svc.CreateBook(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toBook(b), "book created", nil)
}

func (h *CatalogHandler) UpdateBook(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionUpdate, rbac.ResourceBook) {
		return
	}
	var req application.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	b, err := h.Svc.UpdateBook(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toBook(b), "book updated", nil)
}

func (h *CatalogHandler) DeleteBook(c *gin.Context) {
	if err := h.Svc.DeleteBook(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}

type authorDetailResponse struct {
	authorResponse
	Books []bookResponse `json:"books"`
}

func (h *CatalogHandler) ListAuthors(c *gin.Context) {
	actor := middleware.ActorFrom(c)
	authors, err := h.Svc.ListAuthors(c.Request.Context(), actor)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := make([]authorResponse, 0, len(authors))
	for _, a := range authors {
		out = append(out, toAuthor(a))
	}
	response.Success(c, http.StatusOK, out, "authors", map[string]any{
		"count":       len(out),
		"permissions": h.Svc.Guard.Permissions(actor, rbac.ResourceAuthor),
	})
}

func (h *CatalogHandler) GetAuthor(c *gin.Context) {
	d, err := h.Svc.GetAuthor(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, authorDetailResponse{authorResponse: toAuthor(d.Author), Books: toBooks(d.Books)}, "author", nil)
}

func (h *CatalogHandler) CreateAuthor(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionCreate, rbac.ResourceAuthor) {
		return
	}
	var req application.AuthorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Svc.CreateAuthor(c.Request.Context(), middleware.ActorFrom(c), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toAuthor(a), "author created", nil)
}

func (h *CatalogHandler) UpdateAuthor(c *gin.Context) {
	if !authorize(c, h.Logger, h.Svc.Guard, rbac.ActionUpdate, rbac.ResourceAuthor) {
		return
	}
	var req application.AuthorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	a, err := h.Svc.UpdateAuthor(c.Request.Context(), middleware.ActorFrom(c), c.Param("id"), req)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toAuthor(a), "author updated", nil)
}

func (h *CatalogHandler) DeleteAuthor(c *gin.Context) {
	if err := h.Svc.DeleteAuthor(c.Request.Context(), middleware.ActorFrom(c), c.Param("id")); err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.NoContent(c)
}
