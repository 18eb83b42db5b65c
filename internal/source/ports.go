// Package source defines the read-only data access port of the dashboard and
// the row shaping shared by every backend.
package source

import (
	"context"

	"donations/internal/core"
)

// Ports for outbound adapters.
type (
	// DonationSource exposes the three derived views the dashboard renders.
	// Implementations must be safe for concurrent use; every call is an
	// independent read. A school with no rows yields an empty slice, not an error.
	DonationSource interface {
		// AggregateTotals returns one row per school, descending by total.
		AggregateTotals(ctx context.Context) ([]core.AggregateRow, error)
		// Timeseries returns the school's donations ordered by date ascending.
		Timeseries(ctx context.Context, school string) ([]core.DonationRecord, error)
		// Geo returns the school's donations that carry valid coordinates.
		Geo(ctx context.Context, school string) ([]core.DonationRecord, error)
	}

	// Pinger is implemented by sources backed by a remote or on-disk database.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
