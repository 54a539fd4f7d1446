package web_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/adapters/clock"
	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/domain/auth"
	"github.com/hearthchat/hearth/domain/partner"
	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/domain/usage"
	"github.com/hearthchat/hearth/web"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// cannedEvents serves a fixed number of groups and users.
type cannedEvents struct {
	groups int
	users  int
}

func (s *cannedEvents) RecordMessageSent(ctx context.Context, e usage.Event) error {
	return nil
}

func (s *cannedEvents) Summary(ctx context.Context, f report.Filter, now time.Time) (report.Summary, error) {
	groups := make([]report.Group, s.groups)
	for i := range groups {
		groups[i] = report.Group{
			PartnerCode: fmt.Sprintf("PARTNER_%02d", i),
			AccessType:  usage.AccessPartner,
			TotalUsers:  1,
			LastEvent:   baseTime,
		}
	}
	return report.Summary{Cards: report.Cards{TotalUsers: 2}, Groups: groups}, nil
}

func (s *cannedEvents) Timeseries(ctx context.Context, f report.Filter) ([]report.TimeseriesPoint, error) {
	return []report.TimeseriesPoint{
		{Date: baseTime, Day: "Jan 15", Messages: 5, DAU: 1},
	}, nil
}

func (s *cannedEvents) Users(ctx context.Context, f report.Filter) ([]report.UserActivity, error) {
	users := make([]report.UserActivity, s.users)
	for i := range users {
		users[i] = report.UserActivity{
			AnonymousUserID: fmt.Sprintf("anon-user-%08d", i),
			PartnerCode:     "ACME",
			AccessType:      usage.AccessPartner,
			FirstSeen:       baseTime,
			LastSeen:        baseTime,
		}
	}
	return users, nil
}

func (s *cannedEvents) ExportGroups(ctx context.Context, f report.Filter) ([]report.Group, error) {
	return nil, nil
}

func newWebServer(t *testing.T, gate auth.Gate, allow partner.Allowlist, events *cannedEvents) *httptest.Server {
	t.Helper()

	reports := app.NewReportService(app.ReportDeps{
		Events: events,
		Clock:  clock.NewFake(baseTime),
		Logger: zerolog.Nop(),
	})

	handler, err := web.NewHandler(web.Deps{
		Reports:   reports,
		Gate:      gate,
		Allowlist: allow,
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	srv := httptest.NewServer(handler.Router())
	t.Cleanup(srv.Close)
	return srv
}

func fetch(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestChatUI(t *testing.T) {
	srv := newWebServer(t, auth.NewGate(auth.ModeDisabled, ""), partner.NewAllowlist(nil), &cannedEvents{})

	status, body := fetch(t, srv.URL+"/")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "Hearth Support") {
		t.Error("expected chat page content")
	}
}

func TestPartnerLanding(t *testing.T) {
	allow := partner.NewAllowlist([]string{"ACME"})
	srv := newWebServer(t, auth.NewGate(auth.ModeDisabled, ""), allow, &cannedEvents{})

	status, _ := fetch(t, srv.URL+"/p/ACME")
	if status != http.StatusOK {
		t.Errorf("allowlisted code status = %d, want 200", status)
	}

	status, _ = fetch(t, srv.URL+"/p/UNKNOWN_CO")
	if status != http.StatusNotFound {
		t.Errorf("unknown code status = %d, want 404", status)
	}

	status, _ = fetch(t, srv.URL+"/p/DIRECT")
	if status != http.StatusNotFound {
		t.Errorf("DIRECT status = %d, want 404", status)
	}
}

func TestPartnerLanding_PermissiveModeNeverRoutes(t *testing.T) {
	srv := newWebServer(t, auth.NewGate(auth.ModeDisabled, ""), partner.NewAllowlist(nil), &cannedEvents{})

	status, _ := fetch(t, srv.URL+"/p/ANY_CODE")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404 in permissive mode", status)
	}
}

func TestDashboard_RequiresToken(t *testing.T) {
	srv := newWebServer(t, auth.NewGate(auth.ModeSharedSecret, "tok"), partner.NewAllowlist(nil), &cannedEvents{})

	status, body := fetch(t, srv.URL+"/admin")
	if status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", status)
	}
	if !strings.Contains(body, "Admin token") {
		t.Error("expected the token prompt")
	}

	status, body = fetch(t, srv.URL+"/admin?token=tok")
	if status != http.StatusOK {
		t.Errorf("with token status = %d, want 200", status)
	}
	if !strings.Contains(body, "Usage dashboard") {
		t.Error("expected the dashboard page")
	}
}

func TestDashboard_MasksUserIDs(t *testing.T) {
	srv := newWebServer(t, auth.NewGate(auth.ModeDisabled, ""), partner.NewAllowlist(nil), &cannedEvents{users: 1})

	_, body := fetch(t, srv.URL+"/admin")
	if strings.Contains(body, "anon-user-00000000") {
		t.Error("full user ID must not render")
	}
	if !strings.Contains(body, "anon-user-") {
		t.Error("expected masked prefix to render")
	}
}

func TestDashboard_PaginationClamps(t *testing.T) {
	events := &cannedEvents{groups: 25, users: 25}
	srv := newWebServer(t, auth.NewGate(auth.ModeDisabled, ""), partner.NewAllowlist(nil), events)

	// Page 4 of 3 clamps to the last page for the users table only.
	_, body := fetch(t, srv.URL+"/admin?users_page=4")
	if !strings.Contains(body, "Page 3 of 3") {
		t.Error("expected users table clamped to page 3")
	}
	if !strings.Contains(body, "Page 1 of 3") {
		t.Error("expected groups table to stay on page 1")
	}
}

func TestDashboard_BadDateShowsError(t *testing.T) {
	srv := newWebServer(t, auth.NewGate(auth.ModeDisabled, ""), partner.NewAllowlist(nil), &cannedEvents{})

	_, body := fetch(t, srv.URL+"/admin?date_from=garbage")
	if !strings.Contains(body, "Invalid date filter") {
		t.Error("expected an inline error message")
	}
}
