package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/apperror"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/response"
)

// ActorKey is the gin context key holding the *rbac.Actor.
const ActorKey = "actor"

// Authenticator resolves an access token into the calling actor.
// application.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*rbac.Actor, error)
}

// Auth requires a valid access token backed by a live session. The token is
// read from the access_token cookie, or from an Authorization: Bearer header.
// On success the actor is stored in the gin context and the request context.
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		actor, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			status, msg := http.StatusUnauthorized, "authentication required"
			if !isAuthError(err) {
				status, msg = http.StatusInternalServerError, "internal server error"
				_ = c.Error(err)
			}
			response.Error[any](c, status, msg, response.ErrorBody{Code: "unauthenticated"})
			return
		}
		actor.RequestID = c.GetString("request_id")

		c.Set(ActorKey, actor)
		c.Set("userID", actor.UserID)
		c.Request = c.Request.WithContext(rbac.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

func isAuthError(err error) bool {
	return errors.Is(err, apperror.ErrUnauthenticated)
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, tok, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
	}
	if tok, err := c.Cookie(helpers.AccessCookie); err == nil {
		return tok
	}
	return ""
}

// ActorFrom returns the actor set by Auth, or nil on public routes.
func ActorFrom(c *gin.Context) *rbac.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if a, ok := v.(*rbac.Actor); ok {
			return a
		}
	}
	return nil
}
