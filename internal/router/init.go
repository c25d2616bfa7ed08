package router

import (
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/container"
	"github.com/oksasatya/go-bookshelf-rbac/internal/infrastructure/search"
	handlers "github.com/oksasatya/go-bookshelf-rbac/internal/interface/http"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/internal/router/modules"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/helpers"
)

// Services is every application service built from the container.
type Services struct {
	Auth      *application.AuthService
	Catalog   *application.CatalogService
	Library   *application.LibraryService
	Social    *application.SocialService
	Dashboard *application.DashboardService
}

func buildServices() Services {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	repos := container.GetRepositories()
	guard := application.NewGuard(container.GetPolicy(), logger)

	var notifier *application.Notifier
	if pub := container.GetRabbitPub(); pub != nil {
		notifier = application.NewNotifier(pub, cfg, logger)
	}
	var uploader application.ObjectUploader
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		uploader = helpers.NewGCSUploader(gcs, cfg.GCSBucket)
	}
	var searcher application.BookSearcher
	if es := container.GetES(); es != nil && cfg.ESBooksIndex != "" {
		searcher = search.NewBookIndex(es, cfg.ESBooksIndex, logger)
	}

	return Services{
		Auth:      application.NewAuthService(repos.Users, repos.Sessions, container.GetJWT(), cfg.SessionTTL, uploader, notifier, logger),
		Catalog:   application.NewCatalogService(repos.Authors, repos.Books, guard, searcher, logger),
		Library:   application.NewLibraryService(repos.Libraries, repos.Users, guard, logger),
		Social:    application.NewSocialService(repos.Users, repos.Follows, guard, notifier, logger),
		Dashboard: application.NewDashboardService(repos.Users, repos.Books, repos.Libraries, guard),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	svc := buildServices()

	protected := []gin.HandlerFunc{
		middleware.Auth(svc.Auth),
		middleware.RateLimit(container.GetRedis(), cfg.APIRateLimit, cfg.RateLimitWindow, middleware.KeyByUserID(), nil),
	}

	r.Add(modules.NewAuthModule(
		handlers.NewAuthHandler(svc.Auth, logger, cfg.CookieDomain, cfg.CookieSecure, cfg.MaxAvatarBytes),
		handlers.NewDashboardHandler(svc.Dashboard, logger),
		protected,
		middleware.RateLimit(container.GetRedis(), cfg.AuthRateLimit, cfg.RateLimitWindow, middleware.KeyByIPAndPath(), nil),
	))
	r.Add(modules.NewCatalogModule(handlers.NewCatalogHandler(svc.Catalog, logger), protected))
	r.Add(modules.NewLibraryModule(handlers.NewLibraryHandler(svc.Library, logger), protected))
	r.Add(modules.NewSocialModule(handlers.NewSocialHandler(svc.Social, logger), protected))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetRedis()))
	}
}
