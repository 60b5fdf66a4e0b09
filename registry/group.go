package registry

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Group wraps an echo group so every route mounted through it is also
// recorded in the registry with its documentation metadata.
type Group struct {
	group        *echo.Group
	prefix       string
	registry     *Registry
	moduleName   string
	moduleTags   []string
	skipEnvelope bool
}

// GET registers a GET route and records its descriptor.
func (g *Group) GET(path string, h echo.HandlerFunc, opts ...RouteOption) {
	g.add(http.MethodGet, path, h, opts...)
}

// POST registers a POST route and records its descriptor.
func (g *Group) POST(path string, h echo.HandlerFunc, opts ...RouteOption) {
	g.add(http.MethodPost, path, h, opts...)
}

// PUT registers a PUT route and records its descriptor.
func (g *Group) PUT(path string, h echo.HandlerFunc, opts ...RouteOption) {
	g.add(http.MethodPut, path, h, opts...)
}

// PATCH registers a PATCH route and records its descriptor.
func (g *Group) PATCH(path string, h echo.HandlerFunc, opts ...RouteOption) {
	g.add(http.MethodPatch, path, h, opts...)
}

// DELETE registers a DELETE route and records its descriptor.
func (g *Group) DELETE(path string, h echo.HandlerFunc, opts ...RouteOption) {
	g.add(http.MethodDelete, path, h, opts...)
}

// Group creates a nested group; descriptors keep the combined prefix.
func (g *Group) Group(prefix string, middleware ...echo.MiddlewareFunc) *Group {
	normalized := normalizePrefix(prefix)
	return &Group{
		group:        g.group.Group(normalized, middleware...),
		prefix:       g.prefix + normalized,
		registry:     g.registry,
		moduleName:   g.moduleName,
		moduleTags:   g.moduleTags,
		skipEnvelope: g.skipEnvelope,
	}
}

// Use applies middleware to the underlying echo group.
func (g *Group) Use(middleware ...echo.MiddlewareFunc) {
	g.group.Use(middleware...)
}

func (g *Group) add(method, path string, h echo.HandlerFunc, opts ...RouteOption) {
	normalized := ensureLeadingSlash(path)
	g.group.Add(method, normalized, h)

	d := RouteDescriptor{
		Method:       method,
		Path:         g.fullPath(normalized),
		HandlerName:  handlerName(h),
		ModuleName:   g.moduleName,
		Package:      callerPackage(3),
		Tags:         append([]string(nil), g.moduleTags...),
		SkipEnvelope: g.skipEnvelope,
	}
	for _, opt := range opts {
		opt(&d)
	}
	g.registry.Register(&d)
}

func (g *Group) fullPath(path string) string {
	if path == "/" {
		if g.prefix == "" {
			return "/"
		}
		return g.prefix
	}
	return g.prefix + path
}

func ensureLeadingSlash(path string) string {
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func normalizePrefix(prefix string) string {
	if prefix == "" || prefix == "/" {
		return ""
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}
