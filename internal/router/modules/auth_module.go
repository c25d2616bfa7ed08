package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-bookshelf-rbac/internal/interface/http"
)

// AuthModule wires account routes.
// Public: POST /api/register, /api/login, /api/refresh
// Protected: logout, password, profile, avatar, dashboard
type AuthModule struct {
	Handler   *handlers.AuthHandler
	Dashboard *handlers.DashboardHandler
	Protected []gin.HandlerFunc
	Limiter   gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, d *handlers.DashboardHandler, protected []gin.HandlerFunc, limiter gin.HandlerFunc) *AuthModule {
	return &AuthModule{Handler: h, Dashboard: d, Protected: protected, Limiter: limiter}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", m.Limiter, m.Handler.Register)
	rg.POST("/login", m.Limiter, m.Handler.Login)
	rg.POST("/refresh", m.Limiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(m.Protected...)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/password", m.Handler.ChangePassword)
		auth.GET("/profile", m.Handler.GetProfile)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.POST("/profile/avatar", m.Handler.UploadAvatar)
		auth.GET("/dashboard", m.Dashboard.Get)
	}
}
