package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-bookshelf-rbac/internal/interface/http"
)

// CatalogModule wires /api/books and /api/authors. Every route needs a
// session; capabilities are checked by the service.
type CatalogModule struct {
	Handler   *handlers.CatalogHandler
	Protected []gin.HandlerFunc
}

func NewCatalogModule(h *handlers.CatalogHandler, protected []gin.HandlerFunc) *CatalogModule {
	return &CatalogModule{Handler: h, Protected: protected}
}

func (m *CatalogModule) Name() string { return "catalog" }

func (m *CatalogModule) Register(rg *gin.RouterGroup) {
	books := rg.Group("/books", m.Protected...)
	{
		books.GET("", m.Handler.ListBooks)
		books.GET("/search", m.Handler.SearchBooks)
		books.GET("/:id", m.Handler.GetBook)
		books.POST("", m.Handler.CreateBook)
		books.PUT("/:id", m.Handler.UpdateBook)
		books.DELETE("/:id", m.Handler.DeleteBook)
	}

	authors := rg.Group("/authors", m.Protected...)
	{
		authors.GET("", m.Handler.ListAuthors)
		authors.GET("/:id", m.Handler.GetAuthor)
		authors.POST("", m.Handler.CreateAuthor)
		authors.PUT("/:id", m.Handler.UpdateAuthor)
		authors.DELETE("/:id", m.Handler.DeleteAuthor)
	}
}
