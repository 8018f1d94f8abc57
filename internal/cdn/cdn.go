// Package cdn sends purge payloads to a CDN provider.
package cdn

import (
	"context"
	"fmt"

	"github.com/eldritchtools/datapurge/internal/purge"
)

// Purger sends one purge request for the whole payload.
type Purger interface {
	Purge(ctx context.Context, payload *purge.Payload) Outcome
}

// Outcome is the result of a single purge call.
type Outcome struct {
	Success    bool
	StatusCode int    // 0 when no HTTP response was received
	Body       string // Raw response body, or the error text when there was no response
	Files      int
	Origins    int
	Err        error
}

func (o Outcome) String() string {
	if o.Success {
		return fmt.Sprintf("purged %d file(s) for %d origin(s)", o.Files, o.Origins)
	}
	return fmt.Sprintf("%d %s", o.StatusCode, o.Body)
}

func newOutcome(payload *purge.Payload) Outcome {
	return Outcome{
		Files:   len(payload.Paths),
		Origins: len(payload.Origins),
	}
}
