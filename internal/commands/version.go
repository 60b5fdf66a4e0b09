package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version information for the apidocs-gen tool",
		Run: func(_ *cobra.Command, _ []string) {
			printVersion(version)
		},
	}
}

func printVersion(version string) {
	fmt.Printf("apidocs-gen version %s\n", version)
	fmt.Printf("Built with %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
