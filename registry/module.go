package registry

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// Module is the contract application modules implement so their routes can be
// discovered and documented.
type Module interface {
	Name() string
	RegisterRoutes(g *Group)
}

// Describer is an optional interface modules can implement to provide
// additional metadata for documentation generation.
type Describer interface {
	DescribeModule() ModuleDescriptor
}

// EnvelopeSkipper is the module-level skip marker: a module returning true
// suppresses common-response wrapping for every route it registers.
type EnvelopeSkipper interface {
	SkipEnvelope() bool
}

// ModuleDescriptor captures module-level metadata
type ModuleDescriptor struct {
	Name        string   // Module name
	Description string   // Module description
	Tags        []string // Module tags for grouping
	BasePath    string   // Base path for all module routes
}

// ModuleInfo pairs a registered module instance with its metadata.
type ModuleInfo struct {
	Module     Module
	Descriptor ModuleDescriptor
}

// App ties an echo instance to the route registry and the set of registered
// modules. The documentation pipeline walks it to reach every route.
type App struct {
	echo    *echo.Echo
	routes  *Registry
	modules []ModuleInfo
	seen    map[string]bool
}

// NewApp wraps an echo instance with route discovery.
func NewApp(e *echo.Echo) *App {
	return &App{
		echo:   e,
		routes: NewRegistry(),
		seen:   make(map[string]bool),
	}
}

// Register mounts a module's routes under its base path and records its
// descriptors. Registering the same module name twice is an error.
func (a *App) Register(m Module) error {
	name := m.Name()
	if a.seen[name] {
		return fmt.Errorf("module %s is already registered", name)
	}

	desc := ModuleDescriptor{Name: name}
	if d, ok := m.(Describer); ok {
		desc = d.DescribeModule()
		if desc.Name == "" {
			desc.Name = name
		}
	}

	skip := false
	if s, ok := m.(EnvelopeSkipper); ok {
		skip = s.SkipEnvelope()
	}

	group := &Group{
		group:        a.echo.Group(desc.BasePath),
		prefix:       normalizePrefix(desc.BasePath),
		registry:     a.routes,
		moduleName:   name,
		moduleTags:   desc.Tags,
		skipEnvelope: skip,
	}
	m.RegisterRoutes(group)

	a.modules = append(a.modules, ModuleInfo{Module: m, Descriptor: desc})
	a.seen[name] = true
	return nil
}

// Echo returns the wrapped echo instance.
func (a *App) Echo() *echo.Echo {
	return a.echo
}

// Routes returns descriptors for every route registered through this app.
func (a *App) Routes() []RouteDescriptor {
	return a.routes.Routes()
}

// Modules returns metadata for every registered module.
func (a *App) Modules() []ModuleInfo {
	result := make([]ModuleInfo, len(a.modules))
	copy(result, a.modules)
	return result
}

// Registry exposes the underlying route registry.
func (a *App) Registry() *Registry {
	return a.routes
}
