package lifecycle

import (
	"context"

	"github.com/sparkify/sparkdl/pkg/config"
)

// Optimizer prepares loaded star schema tables for analytical queries.
// It creates missing indexes on join and filter columns and refreshes
// planner statistics. Running it again is safe.
type Optimizer interface {
	Optimize(ctx context.Context, cfg *config.Config) error
}
