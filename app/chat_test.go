package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/adapters/clock"
	"github.com/hearthchat/hearth/adapters/idgen"
	"github.com/hearthchat/hearth/adapters/memory"
	"github.com/hearthchat/hearth/app"
	"github.com/hearthchat/hearth/domain/partner"
	"github.com/hearthchat/hearth/domain/report"
	"github.com/hearthchat/hearth/domain/usage"
	"github.com/hearthchat/hearth/ports"
)

var baseTime = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

// fakeEventStore records events in memory and can be told to fail writes.
type fakeEventStore struct {
	events  []usage.Event
	failAll bool
}

func (s *fakeEventStore) RecordMessageSent(ctx context.Context, e usage.Event) error {
	if s.failAll {
		return errors.New("disk full")
	}
	s.events = append(s.events, e)
	return nil
}

func (s *fakeEventStore) Summary(ctx context.Context, f report.Filter, now time.Time) (report.Summary, error) {
	return report.Summary{}, nil
}

func (s *fakeEventStore) Timeseries(ctx context.Context, f report.Filter) ([]report.TimeseriesPoint, error) {
	return nil, nil
}

func (s *fakeEventStore) Users(ctx context.Context, f report.Filter) ([]report.UserActivity, error) {
	return nil, nil
}

func (s *fakeEventStore) ExportGroups(ctx context.Context, f report.Filter) ([]report.Group, error) {
	return nil, nil
}

// fakeCompleter returns a canned reply or a canned error.
type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (c *fakeCompleter) Complete(ctx context.Context, message string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func newChatService(events ports.EventStore, completer ports.Completer, allow partner.Allowlist) *app.ChatService {
	return app.NewChatService(app.ChatDeps{
		Allowlist: allow,
		Limits:    memory.NewRateLimitStore(100, time.Minute),
		Events:    events,
		Completer: completer,
		Clock:     clock.NewFake(baseTime),
		IDs:       idgen.NewSequential("ev_"),
		Logger:    zerolog.Nop(),
	}, app.ChatConfig{
		PerIPLimit:   30,
		PerUserLimit: 20,
		Window:       time.Minute,
	})
}

func validRequest() app.ChatRequest {
	return app.ChatRequest{
		Message:         "hello",
		AnonymousUserID: "anon-1",
		SessionID:       "sess-1",
		RemoteIP:        "1.2.3.4",
	}
}

func TestChat_HappyPath(t *testing.T) {
	events := &fakeEventStore{}
	completer := &fakeCompleter{reply: "Hi! How can I help?"}
	svc := newChatService(events, completer, partner.NewAllowlist(nil))

	result, err := svc.Handle(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Reply != "Hi! How can I help?" {
		t.Errorf("reply = %q", result.Reply)
	}

	if len(events.events) != 1 {
		t.Fatalf("got %d events, want 1", len(events.events))
	}
	e := events.events[0]
	if e.PartnerCode != partner.CodeDirect {
		t.Errorf("partner = %q, want DIRECT", e.PartnerCode)
	}
	if e.AccessType != usage.AccessDirect {
		t.Errorf("access = %q, want direct", e.AccessType)
	}
	if e.AnonymousUserID != "anon-1" || e.SessionID != "sess-1" {
		t.Errorf("identity fields wrong: %+v", e)
	}
}

func TestChat_ValidationRejectsMissingFields(t *testing.T) {
	events := &fakeEventStore{}
	completer := &fakeCompleter{reply: "x"}
	svc := newChatService(events, completer, partner.NewAllowlist(nil))

	tests := []struct {
		name   string
		mutate func(*app.ChatRequest)
	}{
		{"missing message", func(r *app.ChatRequest) { r.Message = "" }},
		{"missing user id", func(r *app.ChatRequest) { r.AnonymousUserID = "" }},
		{"missing session id", func(r *app.ChatRequest) { r.SessionID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.Handle(context.Background(), req)
			if !errors.Is(err, ports.ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}

	if len(events.events) != 0 {
		t.Errorf("no events should be recorded for rejected requests, got %d", len(events.events))
	}
	if completer.calls != 0 {
		t.Errorf("completer should not be called for rejected requests, got %d", completer.calls)
	}
}

func TestChat_PartnerAttribution(t *testing.T) {
	events := &fakeEventStore{}
	svc := newChatService(events, &fakeCompleter{reply: "x"}, partner.NewAllowlist([]string{"ACME"}))

	req := validRequest()
	req.PartnerCode = "ACME"
	if _, err := svc.Handle(context.Background(), req); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Unknown code downgrades silently to DIRECT; the reply is unaffected.
	req = validRequest()
	req.PartnerCode = "UNKNOWN_CO"
	if _, err := svc.Handle(context.Background(), req); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if events.events[0].PartnerCode != "ACME" || events.events[0].AccessType != usage.AccessPartner {
		t.Errorf("event 0 = %+v, want ACME/partner", events.events[0])
	}
	if events.events[1].PartnerCode != partner.CodeDirect {
		t.Errorf("event 1 partner = %q, want DIRECT", events.events[1].PartnerCode)
	}
}

func TestChat_PerUserRateLimit(t *testing.T) {
	events := &fakeEventStore{}
	completer := &fakeCompleter{reply: "x"}
	svc := newChatService(events, completer, partner.NewAllowlist(nil))
	ctx := context.Background()

	// The per-user tier (20/min) trips before the per-IP tier (30/min).
	for i := 0; i < 20; i++ {
		if _, err := svc.Handle(ctx, validRequest()); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	_, err := svc.Handle(ctx, validRequest())
	if !errors.Is(err, ports.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}

	// A different user from the same IP is still admitted.
	req := validRequest()
	req.AnonymousUserID = "anon-2"
	if _, err := svc.Handle(ctx, req); err != nil {
		t.Errorf("different user from same IP: %v", err)
	}

	if len(events.events) != 21 {
		t.Errorf("got %d events, want 21 (limited request records nothing)", len(events.events))
	}
}

func TestChat_PerIPRateLimit(t *testing.T) {
	events := &fakeEventStore{}
	svc := newChatService(events, &fakeCompleter{reply: "x"}, partner.NewAllowlist(nil))
	ctx := context.Background()

	// Rotate users so only the shared IP bucket fills.
	for i := 0; i < 30; i++ {
		req := validRequest()
		req.AnonymousUserID = "anon-" + string(rune('a'+i%26)) + string(rune('a'+i/26))
		if _, err := svc.Handle(ctx, req); err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
	}

	req := validRequest()
	req.AnonymousUserID = "anon-fresh"
	_, err := svc.Handle(ctx, req)
	if !errors.Is(err, ports.ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited from IP tier", err)
	}
}

func TestChat_EventWriteFailureDoesNotBlockReply(t *testing.T) {
	events := &fakeEventStore{failAll: true}
	completer := &fakeCompleter{reply: "still works"}
	svc := newChatService(events, completer, partner.NewAllowlist(nil))

	result, err := svc.Handle(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if result.Reply != "still works" {
		t.Errorf("reply = %q", result.Reply)
	}
}

func TestChat_CompletionFailureAfterEventWrite(t *testing.T) {
	events := &fakeEventStore{}
	completer := &fakeCompleter{err: errors.New("upstream down")}
	svc := newChatService(events, completer, partner.NewAllowlist(nil))

	_, err := svc.Handle(context.Background(), validRequest())
	if err == nil {
		t.Fatal("expected completion failure to surface")
	}

	// The usage event is recorded before the upstream call and stays.
	if len(events.events) != 1 {
		t.Errorf("got %d events, want 1", len(events.events))
	}
}
