package gateway

import (
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// preflightRoute is shared by every route registered on one path. It is only
// written during registration.
type preflightRoute struct {
	cors bool
}

// Registrar registers gateway routes on a gin router group and adds one OPTIONS
// route per path so preflight requests never reach authentication.
type Registrar struct {
	group     *gin.RouterGroup
	pipeline  *Pipeline
	preflight map[string]*preflightRoute
}

// NewRegistrar creates a Registrar for group.
func NewRegistrar(group *gin.RouterGroup, pipeline *Pipeline) *Registrar {
	return &Registrar{
		group:     group,
		pipeline:  pipeline,
		preflight: make(map[string]*preflightRoute),
	}
}

// Group returns a Registrar for a sub-group. Preflight routes stay deduplicated
// across the parent and its groups.
func (r *Registrar) Group(relativePath string) *Registrar {
	return &Registrar{
		group:     r.group.Group(relativePath),
		pipeline:  r.pipeline,
		preflight: r.preflight,
	}
}

// Handle registers handler for method and relativePath behind the pipeline.
func (r *Registrar) Handle(method, relativePath string, policy RoutePolicy, handler HandlerFunc) {
	fullPath := joinPaths(r.group.BasePath(), relativePath)
	if policy.Name == "" {
		policy.Name = method + " " + fullPath
	}

	r.group.Handle(method, relativePath, r.pipeline.Wrap(policy, handler))

	route, registered := r.preflight[fullPath]
	if !registered {
		route = &preflightRoute{}
		r.preflight[fullPath] = route
		if method != http.MethodOptions {
			r.group.OPTIONS(relativePath, func(c *gin.Context) {
				r.pipeline.preflight(c, route.cors)
			})
		}
	}
	route.cors = route.cors || policy.CORS
}

// GET registers a GET route.
func (r *Registrar) GET(relativePath string, policy RoutePolicy, handler HandlerFunc) {
	r.Handle(http.MethodGet, relativePath, policy, handler)
}

// POST registers a POST route.
func (r *Registrar) POST(relativePath string, policy RoutePolicy, handler HandlerFunc) {
	r.Handle(http.MethodPost, relativePath, policy, handler)
}

// PUT registers a PUT route.
func (r *Registrar) PUT(relativePath string, policy RoutePolicy, handler HandlerFunc) {
	r.Handle(http.MethodPut, relativePath, policy, handler)
}

// PATCH registers a PATCH route.
func (r *Registrar) PATCH(relativePath string, policy RoutePolicy, handler HandlerFunc) {
	r.Handle(http.MethodPatch, relativePath, policy, handler)
}

// DELETE registers a DELETE route.
func (r *Registrar) DELETE(relativePath string, policy RoutePolicy, handler HandlerFunc) {
	r.Handle(http.MethodDelete, relativePath, policy, handler)
}

func joinPaths(base, relative string) string {
	if relative == "" {
		return base
	}
	joined := path.Join(base, relative)
	if strings.HasSuffix(relative, "/") && !strings.HasSuffix(joined, "/") {
		return joined + "/"
	}
	return joined
}
