package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-bookshelf-rbac/internal/interface/http"
)

type SocialModule struct {
	Handler   *handlers.SocialHandler
	Protected []gin.HandlerFunc
}

func NewSocialModule(h *handlers.SocialHandler, protected []gin.HandlerFunc) *SocialModule {
	return &SocialModule{Handler: h, Protected: protected}
}

func (m *SocialModule) Name() string { return "social" }

func (m *SocialModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users", m.Protected...)
	{
		users.GET("", m.Handler.ListUsers)
		users.PUT("/:id/role", m.Handler.AssignRole)
		users.POST("/:id/follow", m.Handler.Follow)
		users.POST("/:id/unfollow", m.Handler.Unfollow)
		users.GET("/:id/followers", m.Handler.Followers)
		users.GET("/:id/following", m.Handler.Following)
	}
}
