package export

import (
	"context"

	"liquidityBreakdown/internal/model"
)

// Exporter persists a validated tree and reports where it went.
type Exporter interface {
	Export(ctx context.Context, tree *model.AttributionTree) (string, error)
}
