package ports

import (
	"context"

	"github.com/komodo-ops/change-detector/internal/core/domain"
)

type ReconciliationEngine interface {
	Run(ctx context.Context) (domain.Report, error)
}
