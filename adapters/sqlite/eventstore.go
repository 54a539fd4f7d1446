package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/domain/usage"
	"github.com/hearthchat/hearth/ports"
)

// Timestamps are stored as UTC strings in this format so that sqlite's
// date() yields calendar dates in the reporting timezone (UTC) and MAX()
// orders chronologically.
const timeFormat = "2006-01-02 15:04:05"

// EventStore implements ports.EventStore using SQLite.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new SQLite event store.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

// RecordMessageSent appends one event row. Events are never updated or
// deleted afterwards.
func (s *EventStore) RecordMessageSent(ctx context.Context, e usage.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (
			id, event_type, partner_code, access_type,
			anonymous_user_id, session_id, timestamp, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Type, e.PartnerCode, string(e.AccessType),
		e.AnonymousUserID, e.SessionID,
		e.Timestamp.UTC().Format(timeFormat), e.CreatedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Filter builder
// -----------------------------------------------------------------------------

// predicate accumulates a conjunctive WHERE clause with bound parameters.
// Filters never reach the SQL text directly.
type predicate struct {
	clauses []string
	args    []any
}

func (p *predicate) add(clause string, args ...any) {
	p.clauses = append(p.clauses, clause)
	p.args = append(p.args, args...)
}

func (p *predicate) where() string {
	return " WHERE " + strings.Join(p.clauses, " AND ")
}

// buildPredicate translates a filter into parameterized clauses. Every
// query constrains the event type; partner and access type are optional
// exact matches. withDates controls whether the explicit calendar-date
// range applies (DAU/WAU queries re-apply only the identity constraints).
func buildPredicate(f report.Filter, withDates bool) *predicate {
	p := &predicate{}
	p.add("event_type = ?", usage.EventMessageSent)
	if f.PartnerCode != "" {
		p.add("partner_code = ?", f.PartnerCode)
	}
	if f.AccessType != "" {
		p.add("access_type = ?", f.AccessType)
	}
	if withDates {
		if f.HasDateFrom() {
			p.add("date(timestamp) >= ?", f.DateFrom.UTC().Format(report.DateFormat))
		}
		if f.HasDateTo() {
			p.add("date(timestamp) <= ?", f.DateTo.UTC().Format(report.DateFormat))
		}
	}
	return p
}

// -----------------------------------------------------------------------------
// Aggregation queries
// -----------------------------------------------------------------------------

// Summary returns the headline cards plus one row per distinct
// (partner_code, access_type) pair, ordered by last event descending.
// The cards are recomputed over the whole filtered set rather than summed
// across groups, so a user shared between partners counts once.
func (s *EventStore) Summary(ctx context.Context, f report.Filter, now time.Time) (report.Summary, error) {
	groups, err := s.queryGroups(ctx, f)
	if err != nil {
		return report.Summary{}, err
	}

	anchor := f.AnchorDate(now)
	if err := s.mergeGroupActivity(ctx, f, anchor, groups); err != nil {
		return report.Summary{}, err
	}

	cards, err := s.queryCards(ctx, f, anchor)
	if err != nil {
		return report.Summary{}, err
	}

	return report.Summary{Cards: cards, Groups: groups}, nil
}

// ExportGroups returns the per-group rows used for CSV export. The export
// omits DAU/WAU, so only the volume query runs.
func (s *EventStore) ExportGroups(ctx context.Context, f report.Filter) ([]report.Group, error) {
	return s.queryGroups(ctx, f)
}

func (s *EventStore) queryGroups(ctx context.Context, f report.Filter) ([]report.Group, error) {
	p := buildPredicate(f, true)
	rows, err := s.db.QueryContext(ctx, `
		SELECT partner_code, access_type,
		       COUNT(DISTINCT anonymous_user_id) AS total_users,
		       COUNT(*) AS message_volume,
		       MAX(timestamp) AS last_event
		FROM events`+p.where()+`
		GROUP BY partner_code, access_type
		ORDER BY last_event DESC
	`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	groups := []report.Group{}
	for rows.Next() {
		var g report.Group
		var access, lastEvent string
		if err := rows.Scan(&g.PartnerCode, &access, &g.TotalUsers, &g.MessageVolume, &lastEvent); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		g.AccessType = usage.AccessType(access)
		g.LastEvent, err = parseStoredTime(lastEvent)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// mergeGroupActivity fills DAU/WAU into the group rows. Both metrics are
// anchored to the report's "as of" date: DAU counts distinct users active
// on the anchor date, WAU over the trailing 7 days ending at the anchor.
// The identity constraints from the filter re-apply; the explicit date
// range does not.
func (s *EventStore) mergeGroupActivity(ctx context.Context, f report.Filter, anchor time.Time, groups []report.Group) error {
	if len(groups) == 0 {
		return nil
	}

	anchorDay := anchor.UTC().Format(report.DateFormat)
	weekStart := anchor.UTC().AddDate(0, 0, -6).Format(report.DateFormat)

	p := buildPredicate(f, false)
	p.add("date(timestamp) >= ?", weekStart)
	p.add("date(timestamp) <= ?", anchorDay)

	rows, err := s.db.QueryContext(ctx, `
		SELECT partner_code, access_type,
		       COUNT(DISTINCT CASE WHEN date(timestamp) = ? THEN anonymous_user_id END) AS dau,
		       COUNT(DISTINCT anonymous_user_id) AS wau
		FROM events`+p.where()+`
		GROUP BY partner_code, access_type
	`, append([]any{anchorDay}, p.args...)...)
	if err != nil {
		return fmt.Errorf("query group activity: %w", err)
	}
	defer rows.Close()

	type activity struct{ dau, wau int64 }
	byGroup := make(map[string]activity)
	for rows.Next() {
		var code, access string
		var a activity
		if err := rows.Scan(&code, &access, &a.dau, &a.wau); err != nil {
			return fmt.Errorf("scan group activity: %w", err)
		}
		byGroup[code+"\x00"+access] = a
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range groups {
		a := byGroup[groups[i].PartnerCode+"\x00"+string(groups[i].AccessType)]
		groups[i].DAU = a.dau
		groups[i].WAU = a.wau
	}
	return nil
}

func (s *EventStore) queryCards(ctx context.Context, f report.Filter, anchor time.Time) (report.Cards, error) {
	var cards report.Cards

	p := buildPredicate(f, true)
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT anonymous_user_id), COUNT(*)
		FROM events`+p.where(), p.args...)
	if err := row.Scan(&cards.TotalUsers, &cards.MessageVolume); err != nil {
		return report.Cards{}, fmt.Errorf("query cards: %w", err)
	}

	anchorDay := anchor.UTC().Format(report.DateFormat)
	weekStart := anchor.UTC().AddDate(0, 0, -6).Format(report.DateFormat)

	pa := buildPredicate(f, false)
	pa.add("date(timestamp) >= ?", weekStart)
	pa.add("date(timestamp) <= ?", anchorDay)

	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT CASE WHEN date(timestamp) = ? THEN anonymous_user_id END),
		       COUNT(DISTINCT anonymous_user_id)
		FROM events`+pa.where(), append([]any{anchorDay}, pa.args...)...)
	if err := row.Scan(&cards.DAU, &cards.WAU); err != nil {
		return report.Cards{}, fmt.Errorf("query card activity: %w", err)
	}

	return cards, nil
}

// Timeseries returns one point per distinct calendar date with events,
// ascending. Dates with zero events are absent, not zero-filled.
func (s *EventStore) Timeseries(ctx context.Context, f report.Filter) ([]report.TimeseriesPoint, error) {
	p := buildPredicate(f, true)
	rows, err := s.db.QueryContext(ctx, `
		SELECT date(timestamp) AS day,
		       COUNT(*) AS messages,
		       COUNT(DISTINCT anonymous_user_id) AS dau
		FROM events`+p.where()+`
		GROUP BY day
		ORDER BY day ASC
	`, p.args...)
	if err != nil {
		return nil, fmt.Errorf("query timeseries: %w", err)
	}
	defer rows.Close()

	points := []report.TimeseriesPoint{}
	for rows.Next() {
		var pt report.TimeseriesPoint
		var day string
		if err := rows.Scan(&day, &pt.Messages, &pt.DAU); err != nil {
			return nil, fmt.Errorf("scan timeseries: %w", err)
		}
		pt.Date, err = time.Parse(report.DateFormat, day)
		if err != nil {
			return nil, fmt.Errorf("parse day %q: %w", day, err)
		}
		pt.Day = report.DayLabel(pt.Date)
		points = append(points, pt)
	}
	return points, rows.Err()
}

// Users returns the per-user drilldown: one row per distinct
// (user, partner_code, access_type) triple, most recently seen first.
func (s *EventStore) Users(ctx context.Context, f report.Filter) ([]report.UserActivity, error) {
	p := buildPredicate(f, true)
	rows, err := s.db.QueryContext(ctx, `
		SELECT anonymous_user_id, partner_code, access_type,
		       COUNT(*) AS messages_sent,
		       MIN(timestamp) AS first_seen,
		       MAX(timestamp) AS last_seen,
		       COUNT(DISTINCT date(timestamp)) AS active_days
		FROM events`+p.where()+`
		GROUP BY anonymous_user_id, partner_code, access_type
		ORDER BY last_seen DESC
		LIMIT ?
	`, append(p.args, report.UserRowCap)...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	users := []report.UserActivity{}
	for rows.Next() {
		var u report.UserActivity
		var access, firstSeen, lastSeen string
		if err := rows.Scan(&u.AnonymousUserID, &u.PartnerCode, &access,
			&u.MessagesSent, &firstSeen, &lastSeen, &u.ActiveDays); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.AccessType = usage.AccessType(access)
		if u.FirstSeen, err = parseStoredTime(firstSeen); err != nil {
			return nil, err
		}
		if u.LastSeen, err = parseStoredTime(lastSeen); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func parseStoredTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timeFormat, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// Ensure interface compliance.
var _ ports.EventStore = (*EventStore)(nil)
