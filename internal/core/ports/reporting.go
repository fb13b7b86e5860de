package ports

import (
	"context"

	"github.com/komodo-ops/change-detector/internal/core/domain"
)

// Reporter renders a human-readable view of the run.
type Reporter interface {
	Report(ctx context.Context, report domain.Report) error
}

// OutputSink publishes the run's results to the calling automation
// environment as named key/value pairs.
type OutputSink interface {
	Write(ctx context.Context, report domain.Report) error
}
