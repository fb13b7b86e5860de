package app

import (
	"context"

	"github.com/komodo-ops/change-detector/internal/core/domain"
	"github.com/komodo-ops/change-detector/internal/core/ports"
)

// Application runs the reconciliation engine and reports the outcome.
type Application struct {
	Engine ports.ReconciliationEngine
	Logger ports.Logger
}

func NewApplication(engine ports.ReconciliationEngine, logger ports.Logger) *Application {
	return &Application{
		Engine: engine,
		Logger: logger,
	}
}

// Run executes the change detection process. A completed run is a success
// whether or not changes were detected.
func (a *Application) Run(ctx context.Context) (domain.Report, error) {
	a.Logger.Infof(ctx, "Starting change detection...")

	report, err := a.Engine.Run(ctx)
	if err != nil {
		a.Logger.Errorf(ctx, err, "Change detection failed")
		return report, err
	}

	a.Logger.Infof(ctx, "Change detection completed successfully")
	return report, nil
}
