// Package output publishes run results to the calling automation
// environment as key=value lines, following the GitHub Actions output-file
// contract.
package output

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
	apperrors "github.com/komodo-ops/change-detector/internal/errors"
)

// nameSeparator joins name lists with a literal backslash-n, the
// two-character escape the downstream workflow splits on.
const nameSeparator = `\n`

type Sink struct {
	// filePath is the output file to append to; empty means echo to stdout.
	filePath string
	logger   ports.Logger
}

var _ ports.OutputSink = (*Sink)(nil)

// NewSink writes to the file named by filePath (typically taken from
// GITHUB_OUTPUT). When filePath is empty the pairs are printed instead,
// which keeps local runs inspectable.
func NewSink(filePath string, logger ports.Logger) *Sink {
	return &Sink{filePath: filePath, logger: logger}
}

func (s *Sink) Write(ctx context.Context, report domain.Report) error {
	pairs := Pairs(report)

	if s.filePath == "" {
		for _, pair := range pairs {
			fmt.Printf("  OUTPUT: %s\n", pair)
		}
		return nil
	}

	f, err := os.OpenFile(s.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeOutputWriteError, "failed to open output file "+s.filePath)
	}
	defer f.Close()

	for _, pair := range pairs {
		if _, err := fmt.Fprintln(f, pair); err != nil {
			return apperrors.Wrap(err, apperrors.CodeOutputWriteError, "failed to write output pair")
		}
	}

	s.logger.Debugf(ctx, "Wrote %d output pairs to %s", len(pairs), s.filePath)
	return nil
}

// Pairs renders the report as ordered key=value lines: the aggregate
// changes_detected flag first, then five name-set keys per resource kind.
func Pairs(report domain.Report) []string {
	pairs := []string{
		fmt.Sprintf("changes_detected=%t", report.ChangesDetected),
	}

	for _, kind := range domain.AllKinds {
		result, ok := report.ResultFor(kind)
		if !ok {
			continue
		}
		plural := kind.Plural()
		pairs = append(pairs,
			pair(plural+"_added", result.Added),
			pair(plural+"_removed", result.Removed),
			pair(plural+"_modified", result.Modified),
			pair(plural+"_current", result.Current),
			pair(plural+"_desired", result.Desired),
		)
	}
	return pairs
}

func pair(key string, names []string) string {
	return key + "=" + strings.Join(names, nameSeparator)
}
