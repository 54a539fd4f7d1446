package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/adapters/metrics"
	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/ports"
)

// ReportService orchestrates the aggregation queries for the admin API
// and the dashboard.
type ReportService struct {
	events  ports.EventStore
	clock   ports.Clock
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// ReportDeps contains dependencies for the report service.
type ReportDeps struct {
	Events  ports.EventStore
	Clock   ports.Clock
	Logger  zerolog.Logger
	Metrics *metrics.Collector
}

// NewReportService creates a new report service.
func NewReportService(deps ReportDeps) *ReportService {
	return &ReportService{
		events:  deps.Events,
		clock:   deps.Clock,
		logger:  deps.Logger,
		metrics: deps.Metrics,
	}
}

// ParseFilter builds a filter from admin query parameters. Unknown
// access_type values pass through as exact-match strings; malformed dates
// are rejected.
func ParseFilter(q url.Values) (report.Filter, error) {
	f := report.Filter{
		PartnerCode: q.Get("partner_code"),
		AccessType:  q.Get("access_type"),
	}

	if v := q.Get("date_from"); v != "" {
		t, err := time.ParseInLocation(report.DateFormat, v, time.UTC)
		if err != nil {
			return report.Filter{}, fmt.Errorf("%w: invalid date_from %q", ports.ErrValidation, v)
		}
		f.DateFrom = t
	}
	if v := q.Get("date_to"); v != "" {
		t, err := time.ParseInLocation(report.DateFormat, v, time.UTC)
		if err != nil {
			return report.Filter{}, fmt.Errorf("%w: invalid date_to %q", ports.ErrValidation, v)
		}
		f.DateTo = t
	}

	return f, nil
}

// Summary returns headline cards and per-group rows under the filter.
func (s *ReportService) Summary(ctx context.Context, f report.Filter) (report.Summary, error) {
	defer s.observe("summary", s.clock.Now())
	sum, err := s.events.Summary(ctx, f, s.clock.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("summary query failed")
		return report.Summary{}, fmt.Errorf("%w: summary", ports.ErrStorage)
	}
	return sum, nil
}

// Timeseries returns the daily activity series under the filter.
func (s *ReportService) Timeseries(ctx context.Context, f report.Filter) ([]report.TimeseriesPoint, error) {
	defer s.observe("timeseries", s.clock.Now())
	points, err := s.events.Timeseries(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("timeseries query failed")
		return nil, fmt.Errorf("%w: timeseries", ports.ErrStorage)
	}
	return points, nil
}

// Users returns the per-user drilldown under the filter.
func (s *ReportService) Users(ctx context.Context, f report.Filter) ([]report.UserActivity, error) {
	defer s.observe("users", s.clock.Now())
	users, err := s.events.Users(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("users query failed")
		return nil, fmt.Errorf("%w: users", ports.ErrStorage)
	}
	return users, nil
}

// ExportCSV renders the group summary as CSV bytes. A query failure
// aborts the whole export; there is no partial output.
func (s *ReportService) ExportCSV(ctx context.Context, f report.Filter) ([]byte, error) {
	defer s.observe("export", s.clock.Now())
	groups, err := s.events.ExportGroups(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).Msg("export query failed")
		return nil, fmt.Errorf("%w: export", ports.ErrStorage)
	}
	return report.ExportCSV(groups), nil
}

func (s *ReportService) observe(endpoint string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.AdminQueries.WithLabelValues(endpoint).Inc()
	s.metrics.AdminQueryLatency.WithLabelValues(endpoint).Observe(s.clock.Now().Sub(start).Seconds())
}
