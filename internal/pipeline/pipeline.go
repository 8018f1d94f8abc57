// Package pipeline runs the resolve, build and send steps of one purge.
package pipeline

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/eldritchtools/datapurge/internal/cdn"
	"github.com/eldritchtools/datapurge/internal/changes"
	"github.com/eldritchtools/datapurge/internal/purge"
)

// Pipeline purges the data files changed between two revisions.
type Pipeline struct {
	Resolver *changes.Resolver
	Purger   cdn.Purger
	Domain   string
	Origins  []string
	Logger   *zap.Logger
	Out      io.Writer // Plan and success output
	ErrOut   io.Writer // Failure output
}

// Plan resolves changed files and builds the payload, printing the files to purge.
func (p *Pipeline) Plan(ctx context.Context, before, after string) *purge.Payload {
	changed := p.Resolver.Resolve(ctx, before, after)
	payload := purge.Build(p.Domain, changed, p.Origins)

	fmt.Fprintln(p.Out, "Purging the following files:")
	for _, f := range payload.Paths {
		fmt.Fprintf(p.Out, " - %s\n", purge.URL(p.Domain, f))
	}

	logger := p.logger()
	logger.Info("Built purge payload",
		zap.Int("changed_files", len(changed)),
		zap.Int("origins", len(payload.Origins)),
		zap.Int("entries", len(payload.Entries)))
	if stats := payload.Stats(); stats.OverLimit() {
		logger.Warn("Purge request exceeds per-request file limit",
			zap.Int("entries", stats.NumEntries),
			zap.Int("limit", purge.MaxFilesPerRequest))
	}
	return payload
}

// Send issues the single purge call for payload and reports the outcome.
func (p *Pipeline) Send(ctx context.Context, payload *purge.Payload) cdn.Outcome {
	out := p.Purger.Purge(ctx, payload)
	logger := p.logger()

	if out.Success {
		if out.Err != nil {
			logger.Warn("Purge accepted but response could not be read", zap.Error(out.Err))
		}
		logger.Info("Purge succeeded",
			zap.Int("files", out.Files),
			zap.Int("origins", out.Origins),
			zap.Int("status", out.StatusCode))
		fmt.Fprintf(p.Out, "Successfully purged %d file(s) for %d origin(s).\n", out.Files, out.Origins)
		return out
	}

	logger.Error("Purge failed",
		zap.Int("status", out.StatusCode),
		zap.String("body", out.Body),
		zap.Error(out.Err))
	fmt.Fprintln(p.ErrOut, "Failed to purge cache.")
	fmt.Fprintln(p.ErrOut, out.StatusCode, out.Body)
	return out
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Run plans and sends one purge.
func (p *Pipeline) Run(ctx context.Context, before, after string) cdn.Outcome {
	return p.Send(ctx, p.Plan(ctx, before, after))
}
