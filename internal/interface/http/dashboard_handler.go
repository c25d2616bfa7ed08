package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-bookshelf-rbac/internal/application"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/entity"
	"github.com/oksasatya/go-bookshelf-rbac/internal/domain/rbac"
	"github.com/oksasatya/go-bookshelf-rbac/internal/interface/middleware"
	"github.com/oksasatya/go-bookshelf-rbac/pkg/response"
)

type DashboardHandler struct {
	Svc    *application.DashboardService
	Logger *logrus.Logger
}

func NewDashboardHandler(svc *application.DashboardService, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{Svc: svc, Logger: logger}
}

type shelfResponse struct {
	libraryResponse
	Books []bookResponse `json:"books"`
}

type dashboardResponse struct {
	Role         entity.Role        `json:"role"`
	Capabilities []rbac.Capability  `json:"capabilities"`
	Stats        *application.Stats `json:"stats,omitempty"`
	Libraries    *[]shelfResponse   `json:"libraries,omitempty"`
	Books        *[]bookResponse    `json:"books,omitempty"`
}

func (h *DashboardHandler) Get(c *gin.Context) {
	d, err := h.Svc.Dashboard(c.Request.Context(), middleware.ActorFrom(c))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	out := dashboardResponse{Role: d.Role, Capabilities: d.Capabilities, Stats: d.Stats}
	// nil sections are hidden; empty ones still render as []
	if d.Libraries != nil {
		shelves := make([]shelfResponse, 0, len(d.Libraries))
		for _, s := range d.Libraries {
			shelves = append(shelves, shelfResponse{libraryResponse: toLibrary(s.Library), Books: toBooks(s.Books)})
		}
		out.Libraries = &shelves
	}
	if d.Books != nil {
		books := toBooks(d.Books)
		out.Books = &books
	}
	response.Success(c, http.StatusOK, out, "dashboard", nil)
}
