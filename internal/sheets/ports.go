package sheets

import (
	"context"

	"budgetsync/internal/core"
)

// Ports for outbound adapters.
type (
	// TabWriter replaces the whole contents of a named tab, creating the
	// tab when it does not exist yet.
	TabWriter interface {
		ReplaceTab(ctx context.Context, name string, grid core.Grid) error
	}
)
