// Package registry captures metadata about the routes and modules of a
// running application so the documentation pipeline can merge introspected
// comment metadata onto them.
package registry

import (
	"reflect"
	"sync"
)

// RouteDescriptor captures metadata about a registered route
type RouteDescriptor struct {
	Method       string       // HTTP method (GET, POST, etc.)
	Path         string       // Route path pattern (/users/:id)
	HandlerName  string       // Function name (e.g., "getUser")
	ModuleName   string       // Module that registered this route
	Package      string       // Go package path
	RequestType  reflect.Type // Declared request payload type, if any
	ResponseType reflect.Type // Declared response payload type, if any
	Tags         []string     // Optional grouping tags
	Summary      string       // Optional summary, normally derived from comments
	Description  string       // Optional description, normally derived from comments
	SkipEnvelope bool         // Suppresses common-response wrapping for this route
}

// Registry maintains discovered routes for introspection
type Registry struct {
	mu     sync.RWMutex
	routes []RouteDescriptor
}

// NewRegistry creates an empty route registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a route descriptor to the registry
func (r *Registry) Register(descriptor *RouteDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, cloneDescriptor(descriptor))
}

// Routes returns a copy of all registered routes
func (r *Registry) Routes() []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]RouteDescriptor, len(r.routes))
	for i := range r.routes {
		result[i] = cloneDescriptor(&r.routes[i])
	}
	return result
}

// ByModule returns routes for a specific module
func (r *Registry) ByModule(moduleName string) []RouteDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []RouteDescriptor
	for i := range r.routes {
		if r.routes[i].ModuleName == moduleName {
			result = append(result, cloneDescriptor(&r.routes[i]))
		}
	}
	return result
}

// Clear removes all registered routes (useful for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = nil
}

// Count returns the number of registered routes
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.routes)
}

// cloneDescriptor copies a descriptor so callers cannot mutate registry state
// through shared slices.
func cloneDescriptor(d *RouteDescriptor) RouteDescriptor {
	clone := *d
	if d.Tags != nil {
		clone.Tags = append([]string(nil), d.Tags...)
	}
	return clone
}

// RouteOption configures route descriptors during registration
type RouteOption func(*RouteDescriptor)

// WithModule sets the module name for a route
func WithModule(name string) RouteOption {
	return func(d *RouteDescriptor) {
		d.ModuleName = name
	}
}

// WithTags adds tags to a route for grouping and organization
func WithTags(tags ...string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Tags = append(d.Tags, tags...)
	}
}

// WithSummary sets a summary description for the route
func WithSummary(summary string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Summary = summary
	}
}

// WithDescription sets a detailed description for the route
func WithDescription(description string) RouteOption {
	return func(d *RouteDescriptor) {
		d.Description = description
	}
}

// WithRequest records the declared request payload type for documentation.
func WithRequest(prototype any) RouteOption {
	return func(d *RouteDescriptor) {
		d.RequestType = reflect.TypeOf(prototype)
	}
}

// WithResponse records the declared response payload type for documentation.
func WithResponse(prototype any) RouteOption {
	return func(d *RouteDescriptor) {
		d.ResponseType = reflect.TypeOf(prototype)
	}
}

// WithSkipEnvelope marks the route so the common response envelope is not
// applied to it. This is the method-level skip marker.
func WithSkipEnvelope() RouteOption {
	return func(d *RouteDescriptor) {
		d.SkipEnvelope = true
	}
}
