// Package app provides the application services that sit between the HTTP
// edges and the domain logic.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hearthchat/hearth/adapters/metrics"
	"github.com/hearthchat/hearth/domain/partner"
	"github.com/hearthchat/hearth/domain/ratelimit"
	"github.com/hearthchat/hearth/domain/usage"
	"github.com/hearthchat/hearth/ports"
)

// Rate limit key prefixes. The coarse per-IP ceiling and the tighter
// per-identity ceiling are independent buckets; both must admit.
const (
	keyPrefixIP   = "chat_ip:"
	keyPrefixUser = "chat_user:"
)

// ChatRequest is one inbound chat message.
type ChatRequest struct {
	Message         string
	AnonymousUserID string
	SessionID       string
	PartnerCode     string
	RemoteIP        string
}

// ChatResult carries the assistant reply.
type ChatResult struct {
	Reply string
}

// ChatConfig holds chat intake configuration.
type ChatConfig struct {
	PerIPLimit   int           // Admissions per IP per window
	PerUserLimit int           // Admissions per anonymous user per window
	Window       time.Duration // Rate limit window
}

// ChatService handles the chat intake path: validation, rate limiting,
// usage recording, and the upstream completion call.
type ChatService struct {
	allowlist partner.Allowlist
	limits    ports.RateLimitStore
	events    ports.EventStore
	completer ports.Completer
	clock     ports.Clock
	ids       ports.IDGenerator
	cfg       ChatConfig
	logger    zerolog.Logger
	metrics   *metrics.Collector
}

// ChatDeps contains dependencies for the chat service.
type ChatDeps struct {
	Allowlist partner.Allowlist
	Limits    ports.RateLimitStore
	Events    ports.EventStore
	Completer ports.Completer
	Clock     ports.Clock
	IDs       ports.IDGenerator
	Logger    zerolog.Logger
	Metrics   *metrics.Collector
}

// NewChatService creates a new chat service.
func NewChatService(deps ChatDeps, cfg ChatConfig) *ChatService {
	if cfg.Window == 0 {
		cfg.Window = time.Minute
	}
	return &ChatService{
		allowlist: deps.Allowlist,
		limits:    deps.Limits,
		events:    deps.Events,
		completer: deps.Completer,
		clock:     deps.Clock,
		ids:       deps.IDs,
		cfg:       cfg,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
	}
}

// Handle processes one chat message.
//
// The usage event write is best-effort: a storage failure is logged and
// counted but never blocks or alters the user-visible reply. A completion
// failure does not roll back or skip the event write - the event is
// recorded first.
func (s *ChatService) Handle(ctx context.Context, req ChatRequest) (ChatResult, error) {
	if req.Message == "" || req.AnonymousUserID == "" || req.SessionID == "" {
		return ChatResult{}, fmt.Errorf("%w: message, anonymous_user_id and session_id are required", ports.ErrValidation)
	}

	now := s.clock.Now()
	if err := s.admit(ctx, req, now); err != nil {
		return ChatResult{}, err
	}

	code := partner.Normalize(req.PartnerCode, s.allowlist)
	if req.PartnerCode != "" && code == partner.CodeDirect && partner.Sanitize(req.PartnerCode) != partner.CodeDirect {
		// Unknown or malformed codes downgrade silently to DIRECT; the debug
		// line keeps typos observable without changing behavior.
		s.logger.Debug().Str("partner_code", req.PartnerCode).Msg("partner code downgraded to DIRECT")
	}

	s.recordEvent(ctx, code, req, now)

	reply, err := s.completer.Complete(ctx, req.Message)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ChatRequests.WithLabelValues("completion_error").Inc()
		}
		s.logger.Error().Err(err).Msg("completion upstream failed")
		return ChatResult{}, fmt.Errorf("complete message: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ChatRequests.WithLabelValues("ok").Inc()
	}
	return ChatResult{Reply: reply}, nil
}

// admit applies the two-tier rate limit. The coarse per-IP bucket is
// checked first, then the per-user bucket; both must pass.
func (s *ChatService) admit(ctx context.Context, req ChatRequest, now time.Time) error {
	tiers := []struct {
		tier  string
		key   string
		limit int
	}{
		{"ip", keyPrefixIP + req.RemoteIP, s.cfg.PerIPLimit},
		{"user", keyPrefixUser + req.AnonymousUserID, s.cfg.PerUserLimit},
	}

	for _, t := range tiers {
		bucket, err := s.limits.Get(ctx, t.key)
		if err != nil {
			return fmt.Errorf("rate limit lookup: %w", err)
		}

		result, next := ratelimit.Check(bucket, ratelimit.Config{Limit: t.limit, Window: s.cfg.Window}, now)
		if err := s.limits.Set(ctx, t.key, next); err != nil {
			return fmt.Errorf("rate limit update: %w", err)
		}

		if !result.Allowed {
			if s.metrics != nil {
				s.metrics.RateLimitHits.WithLabelValues(t.tier).Inc()
			}
			return fmt.Errorf("%w: retry in %s", ports.ErrRateLimited, ratelimit.RetryAfter(result, now).Round(time.Second))
		}
	}
	return nil
}

// recordEvent appends the usage event. Analytics is best-effort and must
// not degrade the primary user-facing function: failures are swallowed
// after logging.
func (s *ChatService) recordEvent(ctx context.Context, code string, req ChatRequest, now time.Time) {
	e := usage.NewMessageEvent(s.ids.New(), code, req.AnonymousUserID, req.SessionID, time.Time{}, now)
	if err := s.events.RecordMessageSent(ctx, e); err != nil {
		if s.metrics != nil {
			s.metrics.EventWriteErrs.Inc()
		}
		s.logger.Error().Err(err).Str("partner_code", code).Msg("usage event write failed")
	}
}
