// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/hearthchat/hearth/domain/ratelimit"
	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/domain/usage"
)

// -----------------------------------------------------------------------------
// Sentinel errors
// -----------------------------------------------------------------------------

var (
	// ErrValidation indicates a request missing required fields.
	ErrValidation = errors.New("validation failed")

	// ErrRateLimited indicates the caller exceeded an admission limit.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized indicates an admin gate failure.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotFound indicates a missing resource or unroutable partner code.
	ErrNotFound = errors.New("not found")

	// ErrStorage indicates the store is unreachable or a query failed.
	ErrStorage = errors.New("storage error")
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// EventStore persists usage events and serves the aggregation queries.
// The event table is append-only: events are never mutated or deleted.
type EventStore interface {
	// RecordMessageSent appends one event row.
	RecordMessageSent(ctx context.Context, e usage.Event) error

	// Summary returns headline cards and per-group rows under a filter.
	// DAU/WAU are anchored to the filter's anchor date derived from now.
	Summary(ctx context.Context, f report.Filter, now time.Time) (report.Summary, error)

	// Timeseries returns one point per distinct calendar date in range,
	// ascending. Dates with zero events are not gap-filled.
	Timeseries(ctx context.Context, f report.Filter) ([]report.TimeseriesPoint, error)

	// Users returns per-user drilldown rows, capped, last seen first.
	Users(ctx context.Context, f report.Filter) ([]report.UserActivity, error)

	// ExportGroups returns the per-group rows used for CSV export.
	ExportGroups(ctx context.Context, f report.Filter) ([]report.Group, error)
}

// RateLimitStore owns the mutable token bucket table.
type RateLimitStore interface {
	// Get retrieves the current bucket for a key.
	Get(ctx context.Context, key string) (ratelimit.Bucket, error)

	// Set updates the bucket for a key.
	Set(ctx context.Context, key string, b ratelimit.Bucket) error
}

// -----------------------------------------------------------------------------
// Upstream Ports
// -----------------------------------------------------------------------------

// Completer produces an assistant reply for a user message.
type Completer interface {
	Complete(ctx context.Context, message string) (string, error)
}
