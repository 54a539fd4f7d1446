// Package report provides the aggregation filter model and the pure
// presentation helpers (CSV export, pagination, chart rendering) used by
// the admin reporting surfaces.
package report

import (
	"time"

	"github.com/hearthchat/hearth/domain/usage"
)

// DateFormat is the wire format for filter dates (calendar dates, not instants).
const DateFormat = "2006-01-02"

// Filter is the query-time value object shared by every aggregation
// operation. A zero field means "no constraint", not "match empty".
type Filter struct {
	PartnerCode string
	AccessType  string // Passed through as an exact-match string, unvalidated
	DateFrom    time.Time
	DateTo      time.Time
}

// HasDateFrom reports whether the lower date bound is set.
func (f Filter) HasDateFrom() bool { return !f.DateFrom.IsZero() }

// HasDateTo reports whether the upper date bound is set.
func (f Filter) HasDateTo() bool { return !f.DateTo.IsZero() }

// AnchorDate returns the reference date for DAU/WAU: the filter's
// DateTo when present, else "today" at query time. The anchor deliberately
// re-applies only the partner/access constraints, not the date range, so an
// operator can view all-time totals with activity "as of" a chosen date.
func (f Filter) AnchorDate(now time.Time) time.Time {
	if f.HasDateTo() {
		return f.DateTo
	}
	return now
}

// Cards holds the four headline aggregates computed over the entire
// filtered set. They are recomputed directly, never summed across groups,
// so a user shared between two partners counts once.
type Cards struct {
	TotalUsers    int64 `json:"total_users"`
	DAU           int64 `json:"dau"`
	WAU           int64 `json:"wau"`
	MessageVolume int64 `json:"message_volume"`
}

// Group is one summary row per distinct (partner_code, access_type) pair.
type Group struct {
	PartnerCode   string           `json:"partner"`
	AccessType    usage.AccessType `json:"access_type"`
	TotalUsers    int64            `json:"total_users"`
	DAU           int64            `json:"dau"`
	WAU           int64            `json:"wau"`
	MessageVolume int64            `json:"message_volume"`
	LastEvent     time.Time        `json:"last_event"`
}

// Summary is the full dashboard payload: headline cards plus per-group rows
// ordered by last event descending.
type Summary struct {
	Cards  Cards   `json:"cards"`
	Groups []Group `json:"summary"`
}

// TimeseriesPoint is one row per distinct calendar date with events.
// Dates with zero events are not gap-filled.
type TimeseriesPoint struct {
	Date     time.Time `json:"-"`
	Day      string    `json:"day"` // Short month-day label, e.g. "Jan 2"
	Messages int64     `json:"messages"`
	DAU      int64     `json:"dau"` // Distinct users that day, not cumulative
}

// DayLabel renders the short month-day label used on chart axes.
func DayLabel(d time.Time) string {
	return d.Format("Jan 2")
}

// UserActivity is one drilldown row per distinct (user, partner, access) triple.
type UserActivity struct {
	AnonymousUserID string           `json:"anonymous_user_id"`
	PartnerCode     string           `json:"partner_code"`
	AccessType      usage.AccessType `json:"access_type"`
	MessagesSent    int64            `json:"messages_sent"`
	FirstSeen       time.Time        `json:"first_seen"`
	LastSeen        time.Time        `json:"last_seen"`
	ActiveDays      int64            `json:"active_days"`
}

// UserRowCap bounds the users drilldown result.
const UserRowCap = 200
