package service

import (
	"context"
	"sort"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
	"github.com/komodo-ops/change-detector/internal/errors"
)

// ReconciliationEngine drives a full run: it builds the identifier maps
// once, then reconciles each resource kind in sequence, computing the
// added, removed, and modified sets per kind.
type ReconciliationEngine struct {
	desired     ports.DesiredStateProvider
	current     ports.CurrentStateProvider
	resolver    ports.IdentifierResolver
	reporter    ports.Reporter
	sink        ports.OutputSink
	logger      ports.Logger
	environment string
}

var _ ports.ReconciliationEngine = (*ReconciliationEngine)(nil)

func NewReconciliationEngine(
	desired ports.DesiredStateProvider,
	current ports.CurrentStateProvider,
	resolver ports.IdentifierResolver,
	reporter ports.Reporter,
	sink ports.OutputSink,
	logger ports.Logger,
	environment string,
) (*ReconciliationEngine, error) {
	if desired == nil {
		return nil, errors.New(errors.CodeConfigValidation, "desired state provider cannot be nil")
	}
	if current == nil {
		return nil, errors.New(errors.CodeConfigValidation, "current state provider cannot be nil")
	}
	if resolver == nil {
		return nil, errors.New(errors.CodeConfigValidation, "identifier resolver cannot be nil")
	}
	if environment == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "no environment tag configured", "Set the ENVIRONMENT variable or the environment config key.")
	}

	return &ReconciliationEngine{
		desired:     desired,
		current:     current,
		resolver:    resolver,
		reporter:    reporter,
		sink:        sink,
		logger:      logger,
		environment: environment,
	}, nil
}

func (e *ReconciliationEngine) Run(ctx context.Context) (domain.Report, error) {
	e.logger.Infof(ctx, "Building ID mappings...")
	idMaps := e.resolver.BuildIdentifierMaps(ctx)
	comparer := NewComparer(idMaps, e.logger)

	// Resources are listed by tag identifier when the environment tag
	// resolves, by raw tag name otherwise.
	tagFilter := []any{e.environment}
	if tagID, ok := e.resolver.ResolveEnvironmentTagID(ctx, e.environment); ok {
		tagFilter = []any{tagID}
	} else {
		e.logger.Warnf(ctx, "Environment tag %q did not resolve to an identifier, filtering by raw tag name", e.environment)
	}

	report := domain.Report{}
	for _, kind := range domain.AllKinds {
		result := e.reconcileKind(ctx, kind, tagFilter, comparer)
		report.Results = append(report.Results, result)
		if result.HasChanges() {
			report.ChangesDetected = true
		}
	}

	if e.reporter != nil {
		if err := e.reporter.Report(ctx, report); err != nil {
			return report, errors.Wrap(err, errors.CodeInternal, "failed to render report")
		}
	}
	if e.sink != nil {
		if err := e.sink.Write(ctx, report); err != nil {
			return report, errors.Wrap(err, errors.CodeOutputWriteError, "failed to write run outputs")
		}
	}

	e.logger.Infof(ctx, "Change detection run finished (changes detected: %t)", report.ChangesDetected)
	return report, nil
}

// reconcileKind computes the per-kind result. A missing or unreadable
// desired-state file is recovered as zero desired resources.
func (e *ReconciliationEngine) reconcileKind(ctx context.Context, kind domain.ResourceKind, tagFilter []any, comparer *Comparer) domain.ReconciliationResult {
	log := e.logger.WithFields(map[string]any{"kind": kind.String()})
	log.Infof(ctx, "Reconciling %s", kind.Plural())

	desired, err := e.desired.Load(ctx, kind)
	if err != nil {
		log.Errorf(ctx, err, "Error loading desired %s, treating as empty", kind.Plural())
		desired = map[string]domain.DesiredResource{}
	}

	var desiredNameHint map[string]struct{}
	if kind == domain.KindServer {
		desiredNameHint = make(map[string]struct{}, len(desired))
		for name := range desired {
			desiredNameHint[name] = struct{}{}
		}
	}

	current := e.current.Fetch(ctx, kind, tagFilter, desiredNameHint)

	result := domain.ReconciliationResult{
		Kind:        kind,
		Added:       []string{},
		Removed:     []string{},
		Modified:    []string{},
		Current:     sortedKeysOfDetails(current),
		Desired:     sortedKeysOfDesired(desired),
		Differences: make(map[string][]domain.Difference),
	}

	for name := range desired {
		if _, exists := current[name]; !exists {
			result.Added = append(result.Added, name)
		}
	}
	for name := range current {
		if _, exists := desired[name]; !exists {
			result.Removed = append(result.Removed, name)
		}
	}
	for name, desiredRes := range desired {
		currentRes, exists := current[name]
		if !exists {
			continue
		}
		if modified, diffs := comparer.Compare(ctx, kind, desiredRes, currentRes); modified {
			result.Modified = append(result.Modified, name)
			result.Differences[name] = diffs
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.Removed)
	sort.Strings(result.Modified)

	log.Infof(ctx, "%s: %d added, %d removed, %d modified (%d desired, %d current)",
		kind.Plural(), len(result.Added), len(result.Removed), len(result.Modified),
		len(result.Desired), len(result.Current))
	return result
}

func sortedKeysOfDetails(m map[string]domain.Detail) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysOfDesired(m map[string]domain.DesiredResource) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
