// Package docs orchestrates document generation for a running application:
// it loads a previously persisted document for immediate availability, runs
// the out-of-process generation worker, assembles the final document and
// serves it over HTTP.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/getkin/kin-openapi/openapi3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/harborstack/apidocs/config"
	"github.com/harborstack/apidocs/document"
	"github.com/harborstack/apidocs/logger"
	"github.com/harborstack/apidocs/metadata"
	"github.com/harborstack/apidocs/registry"
	"github.com/harborstack/apidocs/worker"
)

const tracerName = "github.com/harborstack/apidocs/docs"

// OptionsFactory produces the service options asynchronously, for hosts that
// resolve configuration at startup (remote config, secret stores).
type OptionsFactory func(ctx context.Context) (*config.Options, error)

// CompletionHook runs after a successful generation with the new document.
// Panics inside the hook are recovered and logged; they never affect the
// pipeline or the served document.
type CompletionHook func(doc *openapi3.T)

// Service owns the document lifecycle. The served document is swapped as a
// whole: readers either see the previous complete document or the new one,
// never a partially assembled value.
type Service struct {
	opts *config.Options
	log  logger.Logger

	state   atomic.Int32
	doc     atomic.Pointer[openapi3.T]
	sfg     singleflight.Group
	updated chan struct{}
}

// New creates a service from already-loaded options.
func New(opts *config.Options, log logger.Logger) (*Service, error) {
	if opts == nil {
		return nil, fmt.Errorf("options are required")
	}
	if err := config.Validate(opts); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	s := &Service{
		opts:    opts,
		log:     log,
		updated: make(chan struct{}, 1),
	}
	s.state.Store(int32(StateUninitialized))
	return s, nil
}

// NewWithOptionsFactory resolves options through the factory first. A factory
// error fails construction; no generation is attempted.
func NewWithOptionsFactory(ctx context.Context, factory OptionsFactory, log logger.Logger) (*Service, error) {
	opts, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("options factory failed: %w", err)
	}
	return New(opts, log)
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Document returns the currently served document, nil until the first
// successful load or generation.
func (s *Service) Document() *openapi3.T {
	return s.doc.Load()
}

// Updated signals each document swap. The channel is never closed and holds
// at most one pending signal.
func (s *Service) Updated() <-chan struct{} {
	return s.updated
}

// Initialize makes the service live: it synchronously loads a previously
// persisted document when one exists, then starts the generation pipeline in
// the background and returns. Overlapping calls share a single in-flight
// generation. Pipeline failures are logged and reflected in State, never
// returned to the caller.
func (s *Service) Initialize(ctx context.Context, app *registry.App, onComplete CompletionHook) {
	s.loadCached()

	go func() {
		_, _, _ = s.sfg.Do("generate", func() (any, error) {
			s.runGeneration(ctx, app, onComplete)
			return nil, nil
		})
	}()
}

// loadCached serves last run's persisted document while generation is in
// flight. A missing or unreadable file is normal on first deploy.
func (s *Service) loadCached() {
	s.state.Store(int32(StateLoadingCached))

	path := s.documentPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("Failed to read cached document")
		}
		return
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		s.log.Warn().Err(err).Str("path", path).Msg("Cached document is not loadable")
		return
	}

	s.doc.Store(doc)
	s.notify()
	s.log.Info().Str("path", path).Msg("Serving cached document while generating")
}

func (s *Service) runGeneration(ctx context.Context, app *registry.App, onComplete CompletionHook) {
	s.state.Store(int32(StateGenerating))

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "apidocs.generate")
	defer span.End()

	res := <-worker.Spawn(ctx, s.opts, s.log)
	span.SetAttributes(
		attribute.String("apidocs.run_id", res.RunID),
		attribute.Bool("apidocs.stale", res.Stale),
	)
	if res.Err != nil {
		s.degrade(span, res.Err, "Generation worker failed")
		return
	}

	artifact, err := metadata.Load(res.ArtifactPath)
	if err != nil {
		s.degrade(span, err, "Generated artifact is not loadable")
		return
	}

	var routes []registry.RouteDescriptor
	if app != nil {
		routes = app.Routes()
	}

	doc := document.Assemble(s.opts, routes, artifact, s.log)

	s.doc.Store(doc)
	s.state.Store(int32(StateReady))

	// Persist before signalling so a consumer woken by Updated can rely on
	// the file being in place.
	if err := s.persist(doc); err != nil {
		// The in-memory document is already live; the next successful run
		// will overwrite the stale file.
		s.log.Warn().Err(err).Msg("Failed to persist document")
	}
	s.notify()

	s.log.Info().
		Str("run_id", res.RunID).
		Dur("duration", res.Duration).
		Bool("stale", res.Stale).
		Int("paths", doc.Paths.Len()).
		Msg("Document generation completed")

	s.runHook(onComplete, doc)
}

func (s *Service) degrade(span trace.Span, err error, msg string) {
	s.state.Store(int32(StateDegraded))
	span.SetStatus(codes.Error, err.Error())
	s.log.Error().Err(err).Msg(msg)
}

func (s *Service) runHook(hook CompletionHook, doc *openapi3.T) {
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("Completion hook panicked")
		}
	}()
	hook(doc)
}

func (s *Service) notify() {
	select {
	case s.updated <- struct{}{}:
	default:
	}
}

// persist writes the document next to the project so the next startup can
// serve it before generation finishes. Temp file plus rename keeps a reader
// of the old file from ever seeing a partial write.
func (s *Service) persist(doc *openapi3.T) error {
	path := s.documentPath()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create document directory: %w", err)
		}
	}

	data, err := document.Encode(doc, path)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace document: %w", err)
	}
	return nil
}

func (s *Service) documentPath() string {
	path := s.opts.Output.DocumentPath
	if !filepath.IsAbs(path) && s.opts.Output.ProjectRoot != "" {
		path = filepath.Join(s.opts.Output.ProjectRoot, path)
	}
	return path
}
