package introspect

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// RewritePaths replaces source-root path literals embedded in the artifact
// with the output root, so file references resolve from the compiled process
// rather than the source tree. A no-op when no rewrite rule is configured.
//
// The rewrite is textual on purpose: the artifact is treated as an opaque
// generated file and only its path literals change.
func RewritePaths(artifactPath, sourceRoot, outputRoot string) error {
	if sourceRoot == "" || sourceRoot == outputRoot {
		return nil
	}

	raw, err := os.ReadFile(artifactPath)
	if err != nil {
		return fmt.Errorf("failed to read artifact for rewrite: %w", err)
	}

	rewritten := bytes.ReplaceAll(raw, []byte(sourceRoot), []byte(outputRoot))
	if bytes.Equal(raw, rewritten) {
		return nil
	}

	tmp := artifactPath + ".tmp"
	if err := os.WriteFile(tmp, rewritten, 0o600); err != nil {
		return fmt.Errorf("failed to write rewritten artifact: %w", err)
	}
	if err := os.Rename(tmp, artifactPath); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace artifact: %w", err)
	}
	return nil
}

// ResolveRewriteRoots derives the source/output rewrite rule from explicit
// options, defaulting both sides to the project root (no-op) when unset.
func ResolveRewriteRoots(projectRoot, sourceRoot, outputRoot string) (src, out string) {
	if sourceRoot == "" {
		return "", ""
	}
	if !filepath.IsAbs(sourceRoot) {
		sourceRoot = filepath.Join(projectRoot, sourceRoot)
	}
	if !filepath.IsAbs(outputRoot) {
		outputRoot = filepath.Join(projectRoot, outputRoot)
	}
	return sourceRoot, outputRoot
}
