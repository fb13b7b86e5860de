package service

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
	apperrors "github.com/komodo-ops/change-detector/internal/errors"
)

const (
	defaultFetchConcurrency = 5
	progressInterval        = 5
)

// fetchOutcome carries one resource's detail with an explicit
// success/fallback discriminant instead of letting failures cross task
// boundaries.
type fetchOutcome struct {
	name     string
	detail   domain.Detail
	fallback bool
	err      error
}

// Fetcher retrieves the live state for one resource kind: a tag-filtered
// listing followed by a bounded-concurrency fetch of full per-resource
// detail. Per-item failure falls back to the summary data and never aborts
// the batch.
type Fetcher struct {
	client      ports.ReadClient
	logger      ports.Logger
	concurrency int
}

var _ ports.CurrentStateProvider = (*Fetcher)(nil)

func NewFetcher(client ports.ReadClient, logger ports.Logger, concurrency int) *Fetcher {
	if concurrency <= 0 {
		concurrency = defaultFetchConcurrency
	}
	return &Fetcher{client: client, logger: logger, concurrency: concurrency}
}

// Fetch returns the current resources of the kind keyed by name. The result
// has exactly one entry per listed name: a resource whose detail could not
// be retrieved keeps its summary mapping instead of being dropped.
func (f *Fetcher) Fetch(ctx context.Context, kind domain.ResourceKind, tagFilter []any, desiredNames map[string]struct{}) map[string]domain.Detail {
	listed := f.client.Query(ctx, kind.ListRequest(), map[string]any{"query": map[string]any{"tags": tagFilter}})

	if kind == domain.KindServer && len(desiredNames) > 0 {
		listed = f.recoverUntaggedServers(ctx, listed, desiredNames)
	}

	summaries := make(map[string]domain.ResourceSummary, len(listed))
	for _, item := range listed {
		summary, err := domain.DecodeSummary(item)
		if err != nil {
			f.logger.Warnf(ctx, "Skipping undecodable %s list entry: %v", kind, err)
			continue
		}
		if summary.Name == "" {
			continue
		}
		summaries[summary.Name] = summary
	}

	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Strings(names)

	detailed := make(map[string]domain.Detail, len(names))
	if len(names) == 0 {
		return detailed
	}

	f.logger.Infof(ctx, "Fetching details for %d %s in parallel...", len(names), kind.Plural())

	var mu sync.Mutex
	completed := 0
	fallbacks := 0

	g, fetchCtx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for _, name := range names {
		name := name
		g.Go(func() error {
			outcome := f.fetchOne(fetchCtx, kind, name, summaries[name])

			mu.Lock()
			detailed[outcome.name] = outcome.detail
			completed++
			if outcome.fallback {
				fallbacks++
			}
			done := completed
			mu.Unlock()

			if outcome.err != nil {
				f.logger.Warnf(fetchCtx, "%s: %v", outcome.name, outcome.err)
			}
			if done%progressInterval == 0 || done == len(names) {
				f.logger.Infof(fetchCtx, "Progress: %d/%d completed", done, len(names))
			}
			return nil
		})
	}
	g.Wait()

	if fallbacks > 0 {
		f.logger.Warnf(ctx, "%d of %d %s fell back to summary data; they will be treated as unchanged", fallbacks, len(names), kind.Plural())
	}
	return detailed
}

// fetchOne resolves a single resource's full detail: by name first, by
// identifier second, summary data last. Panics are converted to the same
// fallback outcome so one item can never abort the batch.
func (f *Fetcher) fetchOne(ctx context.Context, kind domain.ResourceKind, name string, summary domain.ResourceSummary) (outcome fetchOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = fallbackOutcome(name, summary, apperrors.Newf(apperrors.CodeDetailFetchError, "detail fetch panicked: %v", r))
		}
	}()

	detail := firstDetail(f.client.Query(ctx, kind.GetRequest(), map[string]any{kind.ParamKey(): name}))

	if detail.Name() == "" {
		if id, ok := domain.ExtractIDString(summary.RawID()); ok {
			detail = firstDetail(f.client.Query(ctx, kind.GetRequest(), map[string]any{"id": id}))
		}
	}

	if detail.Name() != "" {
		return fetchOutcome{name: name, detail: detail}
	}
	return fallbackOutcome(name, summary, apperrors.New(apperrors.CodeDetailFetchError, "could not fetch full details"))
}

func fallbackOutcome(name string, summary domain.ResourceSummary, err error) fetchOutcome {
	detail := summary.Raw
	if detail == nil {
		detail = domain.Detail{"name": name}
	}
	return fetchOutcome{name: name, detail: detail, fallback: true, err: err}
}

func firstDetail(results []map[string]any) domain.Detail {
	if len(results) == 0 {
		return nil
	}
	return domain.Detail(results[0])
}

// recoverUntaggedServers appends servers from the unfiltered list whose name
// is desired but missing from the tag-filtered result. This picks up servers
// that match by name but are not (yet) tagged for the environment.
func (f *Fetcher) recoverUntaggedServers(ctx context.Context, listed []map[string]any, desiredNames map[string]struct{}) []map[string]any {
	taggedNames := make(map[string]struct{}, len(listed))
	for _, item := range listed {
		if name, _ := item["name"].(string); name != "" {
			taggedNames[name] = struct{}{}
		}
	}

	for _, srv := range f.client.Query(ctx, domain.KindServer.ListRequest(), nil) {
		name, _ := srv["name"].(string)
		if name == "" {
			continue
		}
		if _, wanted := desiredNames[name]; !wanted {
			continue
		}
		if _, tagged := taggedNames[name]; tagged {
			continue
		}
		f.logger.Debugf(ctx, "Recovered untagged server %q present in desired set", name)
		listed = append(listed, srv)
	}
	return listed
}
