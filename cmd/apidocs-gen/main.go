package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborstack/apidocs/internal/commands"
)

var version = "dev" // Will be set during build

func main() {
	rootCmd := &cobra.Command{
		Use:   "apidocs-gen",
		Short: "Generate API metadata artifacts from Go source",
		Long: `Static analysis-based metadata generator for apidocs-instrumented services.

This tool parses a project's Go source, discovers module route registrations,
handler doc comments and model definitions, and emits the metadata artifact
the document service merges onto the live route registry.`,
		Version: version,
	}

	rootCmd.AddCommand(
		commands.NewGenerateCommand(),
		commands.NewDoctorCommand(),
		commands.NewVersionCommand(version),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
