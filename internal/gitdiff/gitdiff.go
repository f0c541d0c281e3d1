// Package gitdiff is a thin convenience layer for pulling unified diff text
// out of a local git checkout. The scan service itself only ever sees raw
// diff text; this package exists so the CLI can be pointed at a working
// tree instead of a patch file.
package gitdiff

import (
	"fmt"
	"os/exec"
	"strings"
)

// Staged returns the diff of index vs HEAD.
func Staged() (string, error) {
	out, err := gitOutput("diff", "--cached")
	if err != nil {
		return "", fmt.Errorf("git diff --cached: %w", err)
	}
	return out, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged() (string, error) {
	out, err := gitOutput("diff")
	if err != nil {
		return "", fmt.Errorf("git diff: %w", err)
	}
	return out, nil
}

// Range returns the combined diff for a revision range such as
// "origin/main..HEAD". A two-dot range is widened to the merge-base form so
// branch comparisons ignore unrelated mainline changes.
func Range(revRange string) (string, error) {
	diffRange := revRange
	if strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	out, err := gitOutput("diff", diffRange)
	if err != nil {
		return "", fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return out, nil
}

func gitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return string(out), fmt.Errorf("%s: %s", err, string(exitErr.Stderr))
		}
		return "", err
	}
	return string(out), nil
}
