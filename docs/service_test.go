package docs

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborstack/apidocs/config"
	"github.com/harborstack/apidocs/logger"
	"github.com/harborstack/apidocs/registry"
)

const sampleArtifact = `{
  "module": "example.com/demo",
  "generatedAt": "2026-01-01T00:00:00Z",
  "controllers": [
    {
      "name": "orders",
      "package": "orders",
      "methods": [
        {
          "name": "getOrder",
          "httpMethod": "GET",
          "path": "/orders/:id",
          "comment": "Get order === Retrieves a single order by id.",
          "returnType": {"name": "OrderDto"}
        }
      ]
    }
  ],
  "models": [
    {
      "name": "OrderDto",
      "package": "orders",
      "properties": [
        {"name": "ID", "jsonName": "id", "type": "string", "required": true}
      ]
    }
  ]
}`

const cachedDocument = `{"openapi":"3.0.3","info":{"title":"Cached","version":"0.9.0"},"paths":{}}`

// writeGenerator drops a shell script acting as the generator binary.
func writeGenerator(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "fake-gen")
	script := "#!/bin/sh\nout=\"\"\nwhile [ $# -gt 0 ]; do\n  case \"$1\" in\n    --output) out=\"$2\"; shift 2 ;;\n    *) shift ;;\n  esac\ndone\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func validOptions(root, binary string) *config.Options {
	return &config.Options{
		Response: config.ResponseOptions{Name: "CommonResponse", PayloadProperty: "data"},
		Builder:  config.BuilderOptions{Title: "Demo API", Version: "1.0.0"},
		Output: config.OutputOptions{
			ProjectRoot:     root,
			ArtifactPath:    "metadata.json",
			DocumentPath:    "openapi.json",
			GeneratorBinary: binary,
			WorkerTimeout:   5 * time.Second,
		},
		Log: config.LogOptions{Level: "error"},
	}
}

func newReadyService(t *testing.T) *Service {
	root := t.TempDir()
	bin := writeGenerator(t, root, fmt.Sprintf("cat > \"$out\" << 'EOF'\n%s\nEOF", sampleArtifact))

	s, err := New(validOptions(root, bin), logger.New("error", false))
	require.NoError(t, err)

	s.Initialize(context.Background(), nil, nil)

	select {
	case <-s.Updated():
	case <-time.After(10 * time.Second):
		t.Fatal("document was not generated in time")
	}
	return s
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := New(&config.Options{}, logger.New("error", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid options")

	_, err = New(nil, logger.New("error", false))
	require.Error(t, err)
}

func TestNewWithOptionsFactory(t *testing.T) {
	_, err := NewWithOptionsFactory(context.Background(), func(context.Context) (*config.Options, error) {
		return nil, fmt.Errorf("remote config unavailable")
	}, logger.New("error", false))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "options factory failed")

	s, err := NewWithOptionsFactory(context.Background(), func(context.Context) (*config.Options, error) {
		return validOptions(t.TempDir(), "gen"), nil
	}, logger.New("error", false))
	require.NoError(t, err)
	assert.Equal(t, StateUninitialized, s.State())
}

func TestInitializeGeneratesAndPersists(t *testing.T) {
	s := newReadyService(t)

	assert.Equal(t, StateReady, s.State())

	doc := s.Document()
	require.NotNil(t, doc)
	assert.Equal(t, "Demo API", doc.Info.Title)
	assert.NotNil(t, doc.Paths.Value("/orders/{id}"))
	assert.Contains(t, doc.Components.Schemas, "OrderDto")
	assert.Contains(t, doc.Components.Schemas, "CommonResponse")

	persisted := filepath.Join(s.opts.Output.ProjectRoot, "openapi.json")
	data, err := os.ReadFile(persisted)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Demo API")
}

type ordersModule struct{}

func (ordersModule) Name() string { return "orders" }

func (ordersModule) RegisterRoutes(g *registry.Group) {
	g.GET("/orders/:id", getOrder, registry.WithTags("orders"))
	g.DELETE("/orders/:id", deleteOrder)
}

func getOrder(echo.Context) error    { return nil }
func deleteOrder(echo.Context) error { return nil }

func TestInitializeMergesLiveAndArtifactRoutes(t *testing.T) {
	root := t.TempDir()
	bin := writeGenerator(t, root, fmt.Sprintf("cat > \"$out\" << 'EOF'\n%s\nEOF", sampleArtifact))

	s, err := New(validOptions(root, bin), logger.New("error", false))
	require.NoError(t, err)

	app := registry.NewApp(echo.New())
	require.NoError(t, app.Register(ordersModule{}))

	s.Initialize(context.Background(), app, nil)

	select {
	case <-s.Updated():
	case <-time.After(10 * time.Second):
		t.Fatal("document was not generated in time")
	}

	item := s.Document().Paths.Value("/orders/{id}")
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	require.NotNil(t, item.Delete)

	// artifact comment metadata lands on the live route
	assert.Equal(t, "Get order", item.Get.Summary)
	assert.Equal(t, []string{"orders"}, item.Get.Tags)
}

func TestUpdatedSignalFollowsPersistedDocument(t *testing.T) {
	root := t.TempDir()
	bin := writeGenerator(t, root, fmt.Sprintf("cat > \"$out\" << 'EOF'\n%s\nEOF", sampleArtifact))

	s, err := New(validOptions(root, bin), logger.New("error", false))
	require.NoError(t, err)

	s.Initialize(context.Background(), nil, nil)

	select {
	case <-s.Updated():
	case <-time.After(10 * time.Second):
		t.Fatal("document was not generated in time")
	}

	// the signal fires only after the document file is in place
	data, err := os.ReadFile(filepath.Join(root, "openapi.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Demo API")
}

func TestInitializeDegradesOnWorkerFailure(t *testing.T) {
	root := t.TempDir()
	bin := writeGenerator(t, root, `exit 2`)

	s, err := New(validOptions(root, bin), logger.New("error", false))
	require.NoError(t, err)

	s.Initialize(context.Background(), nil, nil)

	require.Eventually(t, func() bool {
		return s.State() == StateDegraded
	}, 10*time.Second, 20*time.Millisecond)
	assert.Nil(t, s.Document())
}

func TestInitializeServesCachedDocumentDuringFailure(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "openapi.json"), []byte(cachedDocument), 0o600))
	bin := writeGenerator(t, root, `exit 2`)

	s, err := New(validOptions(root, bin), logger.New("error", false))
	require.NoError(t, err)

	s.Initialize(context.Background(), nil, nil)

	// cached load is synchronous
	doc := s.Document()
	require.NotNil(t, doc)
	assert.Equal(t, "Cached", doc.Info.Title)

	require.Eventually(t, func() bool {
		return s.State() == StateDegraded
	}, 10*time.Second, 20*time.Millisecond)

	// previous document keeps being served
	require.NotNil(t, s.Document())
	assert.Equal(t, "Cached", s.Document().Info.Title)
}

func TestCompletionHookRunsAndPanicsAreContained(t *testing.T) {
	root := t.TempDir()
	bin := writeGenerator(t, root, fmt.Sprintf("cat > \"$out\" << 'EOF'\n%s\nEOF", sampleArtifact))

	s, err := New(validOptions(root, bin), logger.New("error", false))
	require.NoError(t, err)

	done := make(chan struct{})
	s.Initialize(context.Background(), nil, func(doc *openapi3.T) {
		defer close(done)
		panic("hook exploded")
	})

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("completion hook did not run")
	}

	require.Eventually(t, func() bool {
		return s.State() == StateReady
	}, 10*time.Second, 20*time.Millisecond)
}

func TestHandler(t *testing.T) {
	root := t.TempDir()
	s, err := New(validOptions(root, "gen"), logger.New("error", false))
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, s.Handler()(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"generating"}`, rec.Body.String())

	ready := newReadyService(t)
	rec = httptest.NewRecorder()
	require.NoError(t, ready.Handler()(e.NewContext(httptest.NewRequest(http.MethodGet, "/openapi.json", nil), rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Demo API")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "generating", StateGenerating.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "degraded", StateDegraded.String())
	assert.Equal(t, "unknown", State(99).String())
}
