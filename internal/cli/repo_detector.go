package cli

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// GetRepoRoot returns the root directory of the git repository containing dir
func GetRepoRoot(ctx context.Context, dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%s is not inside a git repository: %w", dir, err)
	}

	root := strings.TrimSpace(string(output))
	if root == "" {
		return "", fmt.Errorf("git returned an empty repository root for %s", dir)
	}
	return filepath.Clean(root), nil
}

// ResolveRepoPath picks the repository a command acts on: the explicit path
// when given, else the enclosing repository of the working directory, else
// the working directory itself.
func ResolveRepoPath(ctx context.Context, explicit string) string {
	if explicit != "" {
		if root, err := GetRepoRoot(ctx, explicit); err == nil {
			return root
		}
		return explicit
	}
	if root, err := GetRepoRoot(ctx, "."); err == nil {
		return root
	}
	return "."
}
