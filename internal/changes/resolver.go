package changes

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

const (
	DefaultPrefix = "data/"
	DefaultSuffix = ".json"
)

// Filter keeps paths that start with prefix and end with suffix, preserving order.
func Filter(paths []string, prefix, suffix string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if strings.HasPrefix(p, prefix) && strings.HasSuffix(p, suffix) {
			kept = append(kept, p)
		}
	}
	return kept
}

// Resolver turns a before/after pair into the list of changed data files.
type Resolver struct {
	Diff   DiffProvider
	Prefix string
	Suffix string
	Logger *zap.Logger
}

// NewResolver returns a Resolver using the default data/ and .json filters.
func NewResolver(diff DiffProvider, logger *zap.Logger) *Resolver {
	return &Resolver{
		Diff:   diff,
		Prefix: DefaultPrefix,
		Suffix: DefaultSuffix,
		Logger: logger,
	}
}

// Resolve returns the changed data files between before and after.
// It returns an empty list without diffing when either revision is empty,
// and logs and returns an empty list when the diff itself fails.
func (r *Resolver) Resolve(ctx context.Context, before, after string) []string {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if before == "" || after == "" {
		logger.Debug("No revision range, skipping diff",
			zap.String("before", before),
			zap.String("after", after))
		return []string{}
	}

	paths, err := r.Diff.ChangedFiles(ctx, before, after)
	if err != nil {
		logger.Error("Error getting git diff",
			zap.String("before", before),
			zap.String("after", after),
			zap.Error(err))
		return []string{}
	}

	files := Filter(paths, r.Prefix, r.Suffix)
	logger.Debug("Resolved changed files",
		zap.Int("diff_paths", len(paths)),
		zap.Int("data_files", len(files)))
	return files
}
