// Package usage provides usage event types.
// All functions are pure - no side effects.
package usage

import (
	"time"

	"github.com/hearthchat/hearth/domain/partner"
)

// AccessType classifies traffic by attribution.
type AccessType string

const (
	AccessDirect  AccessType = "direct"  // Unattributed / organic traffic
	AccessPartner AccessType = "partner" // Traffic referred by a partner code
)

// EventMessageSent is the only event type the intake path records.
const EventMessageSent = "message_sent"

// Event represents a single usage event (immutable value type).
// AccessType is always derived from PartnerCode at construction time,
// never supplied independently.
type Event struct {
	ID              string
	Type            string
	PartnerCode     string
	AccessType      AccessType
	AnonymousUserID string
	SessionID       string
	Timestamp       time.Time
	CreatedAt       time.Time // Server-assigned at write time
}

// AccessTypeFor derives the access classification from a normalized
// partner code. This is a PURE function.
func AccessTypeFor(code string) AccessType {
	if code == partner.CodeDirect {
		return AccessDirect
	}
	return AccessPartner
}

// NewMessageEvent builds a message_sent event. The partner code must
// already be normalized; the access type is derived from it. A zero
// timestamp defaults to now.
func NewMessageEvent(id, partnerCode, anonymousUserID, sessionID string, timestamp, now time.Time) Event {
	if timestamp.IsZero() {
		timestamp = now
	}
	return Event{
		ID:              id,
		Type:            EventMessageSent,
		PartnerCode:     partnerCode,
		AccessType:      AccessTypeFor(partnerCode),
		AnonymousUserID: anonymousUserID,
		SessionID:       sessionID,
		Timestamp:       timestamp,
		CreatedAt:       now,
	}
}
