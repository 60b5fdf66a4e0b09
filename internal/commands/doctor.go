package commands

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"
)

const minGoVersion = "v1.22"

// DoctorOptions holds options for the doctor command
type DoctorOptions struct {
	ProjectRoot string
	Verbose     bool
}

// NewDoctorCommand creates the doctor command
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and project compatibility",
		Long: `Performs health checks on the environment and project to ensure
the metadata generator can run successfully.

Checks include:
- Go version compatibility
- go.mod presence and module path
- Parseability of the project source`,
		Example: `  # Check current directory
  apidocs-gen doctor

  # Check specific project
  apidocs-gen doctor --project ./my-service`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDoctor(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ProjectRoot, "project", "p", ".", "Project root directory")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Verbose output")

	return cmd
}

func runDoctor(opts *DoctorOptions) error {
	fmt.Println("Running apidocs-gen health check...")
	fmt.Println()

	var hasErrors bool

	goVersion := runtime.Version()
	fmt.Printf("Go version: %s\n", goVersion)
	if !isGoVersionSupported(goVersion) {
		fmt.Printf("  FAIL: Go %s+ required\n", strings.TrimPrefix(minGoVersion, "v"))
		hasErrors = true
	} else {
		fmt.Println("  OK: Go version compatible")
	}

	fmt.Printf("Project root: %s\n", opts.ProjectRoot)
	modulePath, err := checkGoMod(opts.ProjectRoot)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		hasErrors = true
	} else {
		fmt.Printf("  OK: module %s\n", modulePath)
	}

	if err := checkParseable(opts.ProjectRoot, opts.Verbose); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		hasErrors = true
	} else {
		fmt.Println("  OK: source parses")
	}

	fmt.Println()
	if hasErrors {
		return fmt.Errorf("health check failed")
	}
	fmt.Println("All checks passed")
	return nil
}

func isGoVersionSupported(version string) bool {
	if !strings.HasPrefix(version, "go") {
		return false
	}
	v := "v" + strings.TrimPrefix(version, "go")
	if !semver.IsValid(v) {
		return false
	}
	return semver.Compare(semver.MajorMinor(v), minGoVersion) >= 0
}

func checkGoMod(projectRoot string) (string, error) {
	path := filepath.Join(projectRoot, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("no go.mod found: %w", err)
	}
	mod, err := modfile.Parse(path, data, nil)
	if err != nil {
		return "", fmt.Errorf("go.mod is not parseable: %w", err)
	}
	if mod.Module == nil || mod.Module.Mod.Path == "" {
		return "", fmt.Errorf("go.mod declares no module path")
	}
	return mod.Module.Mod.Path, nil
}

// checkParseable walks the project's top-level packages and reports the
// first file that fails to parse.
func checkParseable(projectRoot string, verbose bool) error {
	fset := token.NewFileSet()
	return filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != projectRoot && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		if verbose {
			fmt.Printf("  parsing %s\n", path)
		}
		if _, err := parser.ParseFile(fset, path, nil, parser.PackageClauseOnly); err != nil {
			return fmt.Errorf("%s does not parse: %w", path, err)
		}
		return nil
	})
}
