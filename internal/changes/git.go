// Package changes finds the data files touched between two commits.
package changes

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DiffProvider lists the paths changed between two revisions.
type DiffProvider interface {
	ChangedFiles(ctx context.Context, before, after string) ([]string, error)
}

// GitDiff lists changed paths with `git diff --name-only`.
type GitDiff struct {
	Dir    string // Repository working tree; empty means the current directory
	Binary string // Defaults to "git"
}

// ChangedFiles runs git diff between before and after and returns one path per line.
func (g *GitDiff) ChangedFiles(ctx context.Context, before, after string) ([]string, error) {
	binary := g.Binary
	if binary == "" {
		binary = "git"
	}
	args := []string{"diff", "--name-only", before, after}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Dir = g.Dir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s %s: %w: %s", binary, strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}

	return parseNameOnly(output)
}

// parseNameOnly splits newline-delimited diff output, skipping empty lines.
func parseNameOnly(output []byte) ([]string, error) {
	var files []string
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading diff output: %w", err)
	}
	return files, nil
}
