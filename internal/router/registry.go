package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// Registry collects modules and mounts them on the /api group in the order
// they were added.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Use adds middleware shared by every module; it must run before RegisterAll.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}

// Modules names every added module, for the startup log.
func (r *Registry) Modules() []string {
	out := make([]string, 0, len(r.modules))
	for _, m := range r.modules {
		out = append(out, m.Name())
	}
	return out
}

// Routes lists "METHOD path" for everything mounted on the engine, sorted.
func (r *Registry) Routes() []string {
	infos := r.Engine.Routes()
	out := make([]string, 0, len(infos))
	for _, ri := range infos {
		out = append(out, ri.Method+" "+ri.Path)
	}
	sort.Strings(out)
	return out
}
