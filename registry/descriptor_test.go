package registry

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UserDto struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type userModule struct{}

func (m *userModule) Name() string { return "users" }

func (m *userModule) RegisterRoutes(g *Group) {
	g.GET("/users", m.listUsers,
		WithSummary("List users"),
		WithResponse([]UserDto{}))
	g.POST("/users", m.createUser,
		WithRequest(UserDto{}),
		WithResponse(UserDto{}),
		WithTags("admin"))
}

func (m *userModule) DescribeModule() ModuleDescriptor {
	return ModuleDescriptor{
		Name:     "users",
		BasePath: "/api",
		Tags:     []string{"users"},
	}
}

func (m *userModule) listUsers(c echo.Context) error {
	return c.JSON(http.StatusOK, []UserDto{})
}

func (m *userModule) createUser(c echo.Context) error {
	return c.JSON(http.StatusCreated, UserDto{})
}

type legacyModule struct{}

func (m *legacyModule) Name() string       { return "legacy" }
func (m *legacyModule) SkipEnvelope() bool { return true }
func (m *legacyModule) RegisterRoutes(g *Group) {
	g.GET("/legacy", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
}

func TestRouteMetadataCapture(t *testing.T) {
	app := NewApp(echo.New())
	require.NoError(t, app.Register(&userModule{}))

	routes := app.Routes()
	require.Len(t, routes, 2)

	get := routes[0]
	assert.Equal(t, http.MethodGet, get.Method)
	assert.Equal(t, "/api/users", get.Path)
	assert.Equal(t, "users", get.ModuleName)
	assert.Equal(t, "listUsers", get.HandlerName)
	assert.Equal(t, "List users", get.Summary)
	assert.Equal(t, []string{"users"}, get.Tags)
	assert.Equal(t, reflect.Slice, get.ResponseType.Kind())
	assert.False(t, get.SkipEnvelope)

	post := routes[1]
	assert.Equal(t, http.MethodPost, post.Method)
	assert.Equal(t, "UserDto", post.RequestType.Name())
	assert.Equal(t, []string{"users", "admin"}, post.Tags)
}

func TestModuleLevelSkipMarker(t *testing.T) {
	app := NewApp(echo.New())
	require.NoError(t, app.Register(&legacyModule{}))

	routes := app.Routes()
	require.Len(t, routes, 1)
	assert.True(t, routes[0].SkipEnvelope)
}

func TestRouteLevelSkipMarker(t *testing.T) {
	app := NewApp(echo.New())
	reg := app.Registry()

	d := &RouteDescriptor{Method: http.MethodGet, Path: "/raw"}
	WithSkipEnvelope()(d)
	reg.Register(d)

	routes := reg.Routes()
	require.Len(t, routes, 1)
	assert.True(t, routes[0].SkipEnvelope)
}

func TestDuplicateModuleRejected(t *testing.T) {
	app := NewApp(echo.New())
	require.NoError(t, app.Register(&userModule{}))
	assert.Error(t, app.Register(&userModule{}))
}

func TestNestedGroupPrefix(t *testing.T) {
	app := NewApp(echo.New())
	group := &Group{
		group:    app.Echo().Group("/api"),
		prefix:   "/api",
		registry: app.Registry(),
	}

	v1 := group.Group("/v1")
	v1.GET("/things", func(c echo.Context) error { return nil })

	routes := app.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, "/api/v1/things", routes[0].Path)
}

func TestRegistryCopySemantics(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&RouteDescriptor{Method: http.MethodGet, Path: "/a", Tags: []string{"x"}})

	routes := reg.Routes()
	routes[0].Tags[0] = "mutated"
	routes[0].Path = "/changed"

	fresh := reg.Routes()
	assert.Equal(t, "x", fresh[0].Tags[0])
	assert.Equal(t, "/a", fresh[0].Path)

	reg.Clear()
	assert.Zero(t, reg.Count())
}
