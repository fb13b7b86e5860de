package output

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/log"
)

func sampleReport() domain.Report {
	return domain.Report{
		ChangesDetected: true,
		Results: []domain.ReconciliationResult{
			{
				Kind:     domain.KindStack,
				Added:    []string{"svc-new"},
				Removed:  []string{},
				Modified: []string{"svc-a", "svc-b"},
				Current:  []string{"svc-a", "svc-b"},
				Desired:  []string{"svc-a", "svc-b", "svc-new"},
			},
			{
				Kind:     domain.KindRepo,
				Added:    []string{},
				Removed:  []string{},
				Modified: []string{},
				Current:  []string{},
				Desired:  []string{},
			},
			{
				Kind:     domain.KindServer,
				Added:    []string{},
				Removed:  []string{"old-node"},
				Modified: []string{},
				Current:  []string{"old-node"},
				Desired:  []string{},
			},
		},
	}
}

func TestPairs(t *testing.T) {
	pairs := Pairs(sampleReport())

	require.Equal(t, 16, len(pairs), "one flag plus five keys per kind")
	assert.Equal(t, "changes_detected=true", pairs[0])
	assert.Contains(t, pairs, "stacks_added=svc-new")
	assert.Contains(t, pairs, `stacks_modified=svc-a\nsvc-b`)
	assert.Contains(t, pairs, "stacks_removed=")
	assert.Contains(t, pairs, "repos_added=")
	assert.Contains(t, pairs, "servers_removed=old-node")
}

func TestPairs_NoChanges(t *testing.T) {
	report := domain.Report{Results: []domain.ReconciliationResult{{Kind: domain.KindStack}}}
	pairs := Pairs(report)
	assert.Equal(t, "changes_detected=false", pairs[0])
}

func TestSink_WriteAppendsToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "github_output")
	require.NoError(t, os.WriteFile(outPath, []byte("existing=1\n"), 0o644))

	sink := NewSink(outPath, log.NewWriterLogger(io.Discard, log.Config{}))
	require.NoError(t, sink.Write(context.Background(), sampleReport()))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "existing=1", lines[0], "appends, never truncates")
	assert.Contains(t, lines, "changes_detected=true")
	assert.Contains(t, lines, `stacks_modified=svc-a\nsvc-b`)
}

func TestSink_WriteUnwritablePath(t *testing.T) {
	sink := NewSink(filepath.Join(t.TempDir(), "missing-dir", "out"), log.NewWriterLogger(io.Discard, log.Config{}))
	err := sink.Write(context.Background(), sampleReport())
	assert.Error(t, err)
}
