// Package worker runs the out-of-process metadata generator and hands the
// resulting artifact back to the caller. A run is one-shot: Spawn returns a
// channel that delivers exactly one Result and is then closed.
package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harborstack/apidocs/config"
	"github.com/harborstack/apidocs/introspect"
	"github.com/harborstack/apidocs/logger"
	"github.com/harborstack/apidocs/metadata"
)

// Result is the outcome of a single generation run.
type Result struct {
	// ArtifactPath is the metadata artifact produced by the generator.
	ArtifactPath string
	// RunID correlates generator log lines with this run.
	RunID string
	// Stale is set when the generator exited non-zero but still produced an
	// artifact, typically because the analyzed project has type errors.
	Stale    bool
	Duration time.Duration
	Err      error
}

// Spawn launches the generator binary against the configured project and
// returns a channel carrying the single Result of the run. The run is bounded
// by the worker timeout from opts; cancel ctx to abort earlier.
//
// Generation failures never propagate as panics: any panic inside the run is
// recovered into Result.Err so the host process keeps serving.
func Spawn(ctx context.Context, opts *config.Options, log logger.Logger) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)

		runID := uuid.NewString()
		start := time.Now()

		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("run_id", runID).Interface("panic", r).Msg("Generation run panicked")
				out <- Result{RunID: runID, Duration: time.Since(start), Err: fmt.Errorf("generation panicked: %v", r)}
			}
		}()

		res := run(ctx, opts, log, runID)
		res.Duration = time.Since(start)
		out <- res
	}()

	return out
}

func run(ctx context.Context, opts *config.Options, log logger.Logger, runID string) Result {
	artifactPath := opts.Output.ArtifactPath
	if !filepath.IsAbs(artifactPath) {
		artifactPath = filepath.Join(opts.Output.ProjectRoot, artifactPath)
	}

	// A leftover artifact from a previous run must not be mistaken for this
	// run's output when the generator fails before writing anything.
	if err := os.Remove(artifactPath); err != nil && !os.IsNotExist(err) {
		return Result{RunID: runID, Err: fmt.Errorf("failed to remove stale artifact: %w", err)}
	}

	timeout := opts.Output.WorkerTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	binary := opts.Output.GeneratorBinary
	if err := validateBinaryPath(binary); err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("invalid generator binary: %w", err)}
	}

	args := generateArgs(opts, artifactPath, runID)

	// #nosec G204 -- binary is validated by validateBinaryPath
	cmd := exec.CommandContext(runCtx, binary, args...)
	cmd.Dir = opts.Output.ProjectRoot
	cmd.Env = os.Environ()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("failed to open generator stderr: %w", err)}
	}

	log.Info().
		Str("run_id", runID).
		Str("binary", binary).
		Str("project", opts.Output.ProjectRoot).
		Msg("Starting metadata generation")

	if err := cmd.Start(); err != nil {
		return Result{RunID: runID, Err: fmt.Errorf("failed to start generator: %w", err)}
	}

	forwardOutput(stderr, log, runID)

	runErr := cmd.Wait()

	stale := false
	if runErr != nil {
		if runCtx.Err() != nil {
			return Result{RunID: runID, Err: fmt.Errorf("generation timed out after %s: %w", timeout, runCtx.Err())}
		}
		// The generator writes the artifact before exiting non-zero when the
		// project has analysis errors. A present artifact is still usable.
		if !metadata.Exists(artifactPath) {
			return Result{RunID: runID, Err: fmt.Errorf("generator failed without producing artifact: %w", runErr)}
		}
		log.Warn().Str("run_id", runID).Err(runErr).Msg("Generator exited non-zero but produced an artifact")
		stale = true
	}

	if !metadata.Exists(artifactPath) {
		return Result{RunID: runID, Err: fmt.Errorf("generator completed without artifact at %s", artifactPath)}
	}

	srcRoot, outRoot := introspect.ResolveRewriteRoots(opts.Output.ProjectRoot, opts.Output.SourceRoot, opts.Output.OutputRoot)
	if err := introspect.RewritePaths(artifactPath, srcRoot, outRoot); err != nil {
		// The artifact is still loadable with unrewritten paths; file
		// references just fall back to the source tree.
		log.Warn().Str("run_id", runID).Err(err).Msg("Artifact path rewrite failed")
	}

	return Result{ArtifactPath: artifactPath, RunID: runID, Stale: stale}
}

// generateArgs builds the CLI invocation for the generator from the loaded
// options so the out-of-process run sees the same configuration.
func generateArgs(opts *config.Options, artifactPath, runID string) []string {
	args := []string{
		"generate",
		"--project", opts.Output.ProjectRoot,
		"--output", artifactPath,
		"--run-id", runID,
		"--comments=" + strconv.FormatBool(opts.Plugin.IntrospectComments),
		"--constraints=" + strconv.FormatBool(opts.Plugin.ValidateTagConstraints),
	}
	for _, s := range opts.Plugin.DTOFileSuffixes {
		args = append(args, "--dto-suffix", s)
	}
	for _, s := range opts.Plugin.ControllerFileSuffixes {
		args = append(args, "--controller-suffix", s)
	}
	if opts.Plugin.Debug || opts.Debug {
		args = append(args, "--debug")
	}
	return args
}

// forwardOutput relays generator stderr lines into the host logger so a
// failing run is diagnosable without rerunning it by hand.
func forwardOutput(r io.Reader, log logger.Logger, runID string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		log.Debug().Str("run_id", runID).Msg(line)
	}
}

func validateBinaryPath(path string) error {
	if path == "" {
		return fmt.Errorf("generator binary cannot be empty")
	}
	if strings.ContainsAny(path, ";&|") {
		return fmt.Errorf("generator binary contains dangerous characters")
	}
	return nil
}
