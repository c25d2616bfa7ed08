package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-bookshelf-rbac/internal/interface/http"
)

type LibraryModule struct {
	Handler   *handlers.LibraryHandler
	Protected []gin.HandlerFunc
}

func NewLibraryModule(h *handlers.LibraryHandler, protected []gin.HandlerFunc) *LibraryModule {
	return &LibraryModule{Handler: h, Protected: protected}
}

func (m *LibraryModule) Name() string { return "library" }

func (m *LibraryModule) Register(rg *gin.RouterGroup) {
	libs := rg.Group("/libraries", m.Protected...)
	{
		libs.GET("", m.Handler.List)
		libs.GET("/:id", m.Handler.Get)
		libs.POST("", m.Handler.Create)
		libs.PUT("/:id", m.Handler.Update)
		libs.DELETE("/:id", m.Handler.Delete)
		libs.PUT("/:id/books/:book_id", m.Handler.AddBook)
		libs.DELETE("/:id/books/:book_id", m.Handler.RemoveBook)
	}
}
