package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/response"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/validation"
)

type errorClass struct {
	sentinel error
	status   int
	code     string
	fallback string
}

// Order matters: ErrInvalidCredentials also matches ErrUnauthenticated.
var errorClasses = []errorClass{
	{apperror.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated", "authentication required"},
	{apperror.ErrUnauthorized, http.StatusForbidden, "unauthorized", "permission denied"},
	{apperror.ErrNotFound, http.StatusNotFound, "not_found", "not found"},
	{apperror.ErrValidation, http.StatusBadRequest, "validation_error", "invalid input"},
	{apperror.ErrConflict, http.StatusConflict, "conflict", "already exists"},
}

// writeError maps domain errors to a status and a curated message. Anything
// unclassified is logged and answered with a bare 500.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, ec := range errorClasses {
		if errors.Is(err, ec.sentinel) {
			response.Error[any](c, ec.status, apperror.PublicMessage(err, ec.fallback), response.ErrorBody{
				Code:    ec.code,
				Details: apperror.FieldsOf(err),
			})
			return
		}
	}
	if logger != nil {
		helpers.LogError(logger, "request failed", err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
			"method":     c.Request.Method,
		})
	}
	response.Error[any](c, http.StatusInternalServerError, "internal server error", response.ErrorBody{Code: "internal"})
}

// bindError answers a malformed request body.
func bindError(c *gin.Context, err error) {
	response.Error[any](c, http.StatusBadRequest, "invalid payload", response.ErrorBody{
		Code:    "validation_error",
		Details: validation.ToDetails(err),
	})
}

// authorize runs the permission gate before the body is bound, so a caller
// without the capability gets 403 whatever the payload looks like.
func authorize(c *gin.Context, logger *logrus.Logger, g *application.Guard, act rbac.Action, res rbac.Resource) bool {
	if err := g.Authorize(middleware.ActorFrom(c), act, res); err != nil {
		writeError(c, logger, err)
		return false
	}
	return true
}
