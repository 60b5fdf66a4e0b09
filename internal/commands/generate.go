// Package commands implements the apidocs-gen CLI commands.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harborstack/apidocs/introspect"
	"github.com/harborstack/apidocs/logger"
	"github.com/harborstack/apidocs/metadata"
)

// GenerateOptions holds options for the generate command
type GenerateOptions struct {
	ProjectRoot        string
	OutputFile         string
	RunID              string
	DTOSuffixes        []string
	ControllerSuffixes []string
	Comments           bool
	Constraints        bool
	Debug              bool
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the metadata artifact for a project",
		Long: `Analyzes a project's Go source and emits the metadata artifact.

The tool discovers module structs, their route registrations, handler doc
comments and model definitions, and writes everything as a single JSON
artifact. When parts of the project fail to parse the artifact still carries
everything that was analyzable and the command exits non-zero.`,
		Example: `  # Generate the artifact for the current directory
  apidocs-gen generate

  # Generate for a specific project into a custom location
  apidocs-gen generate --project ./my-service --output docs/metadata.json`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runGenerate(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ProjectRoot, "project", "p", ".", "Project root directory")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "docs/metadata.json", "Output artifact path")
	cmd.Flags().StringVar(&opts.RunID, "run-id", "", "Run correlation id recorded in the artifact")
	cmd.Flags().StringArrayVar(&opts.DTOSuffixes, "dto-suffix", []string{"_dto.go", "_model.go"}, "File suffixes considered model sources (repeatable)")
	cmd.Flags().StringArrayVar(&opts.ControllerSuffixes, "controller-suffix", []string{"_module.go", "_handlers.go"}, "File suffixes considered handler sources (repeatable)")
	cmd.Flags().BoolVar(&opts.Comments, "comments", true, "Extract doc comments for handlers and fields")
	cmd.Flags().BoolVar(&opts.Constraints, "constraints", true, "Derive schema constraints from validate tags")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Verbose analysis logging")

	return cmd
}

func runGenerate(opts *GenerateOptions) error {
	if _, err := os.Stat(opts.ProjectRoot); os.IsNotExist(err) {
		return fmt.Errorf("project root does not exist: %s", opts.ProjectRoot)
	}

	level := "info"
	if opts.Debug {
		level = "debug"
	}
	log := logger.New(level, false)

	analyzer := introspect.New(introspect.Config{
		ProjectRoot:            opts.ProjectRoot,
		DTOFileSuffixes:        opts.DTOSuffixes,
		ControllerFileSuffixes: opts.ControllerSuffixes,
		IntrospectComments:     opts.Comments,
		ValidateTagConstraints: opts.Constraints,
	}, log)

	artifact, runErr := analyzer.Run()
	if artifact == nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}
	artifact.RunID = opts.RunID

	if err := writeArtifact(artifact, opts.OutputFile); err != nil {
		return err
	}

	log.Info().
		Str("output", opts.OutputFile).
		Int("controllers", len(artifact.Controllers)).
		Int("models", len(artifact.Models)).
		Msg("Metadata artifact written")

	// A partial artifact was still written; the exit code tells the caller
	// the analysis did not cover the whole project.
	if runErr != nil {
		return fmt.Errorf("analysis incomplete: %w", runErr)
	}
	return nil
}

func writeArtifact(artifact *metadata.Artifact, path string) error {
	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace artifact: %w", err)
	}
	return nil
}
