// Package store defines the Event & Payment Store (spec §4.3, C3): a
// canonical payments table keyed by (uetr, initiatedAt) and an
// append-only payment_events log, committed together per accepted
// message.
package store

import (
	"context"
	"time"

	"github.com/nexusgw/gateway/internal/model"
)

// Store is the persistence surface every C5 handler calls exactly once
// per accepted message (spec §4.3). Concrete implementations: the
// in-memory store (memory package, default/sandbox) and the
// Postgres+Mongo hybrid store (hybrid package, production) — see
// DESIGN.md for why the event log and the payment table live in
// different engines.
type Store interface {
	// CommitPayment upserts payment and appends event in one logical
	// transaction (spec §4.3: "(a) upserts payment state, (b) appends
	// the event row"). Re-committing the same (uetr, initiatedAt) with
	// identical payment fields is idempotent (I8) and still appends
	// exactly one event per distinct call — callers are responsible for
	// only calling once per accepted message.
	CommitPayment(ctx context.Context, payment model.Payment, event model.PaymentEvent) error

	// CommitEvent appends an event with no associated payment row, used
	// for schema-validation failures, proxy resolution, and other
	// message families that don't mutate payment state (spec §4.3, §4.8).
	CommitEvent(ctx context.Context, event model.PaymentEvent) error

	// GetPayment looks up a payment by its compound key.
	GetPayment(ctx context.Context, key model.PaymentKey) (model.Payment, bool, error)

	// GetLatestPaymentByUETR returns the most recently initiated payment
	// for a UETR, used by return/recall handlers that only have the UETR.
	GetLatestPaymentByUETR(ctx context.Context, uetr string) (model.Payment, bool, error)

	// EventsByUETR returns every event for uetr, ordered by OccurredAt
	// ascending with Sequence as the tiebreak (spec §4.3).
	EventsByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error)

	// EventsByCorrelationID returns the addressing conversation pair (or
	// more) for a proxy-resolution correlation id, in the same order.
	EventsByCorrelationID(ctx context.Context, correlationID string) ([]model.PaymentEvent, error)

	// MessagesByUETR returns the ordered raw-message envelopes for uetr
	// — the subset of EventsByUETR rows that carry a populated raw slot.
	MessagesByUETR(ctx context.Context, uetr string) ([]model.PaymentEvent, error)

	// LatestStatusByUETR returns the current status of the most recent
	// payment matching uetr.
	LatestStatusByUETR(ctx context.Context, uetr string) (model.PaymentStatus, bool, error)

	// ListPayments returns recent payments ordered by InitiatedAt
	// descending, optionally filtered by status, capped at limit (spec
	// §6's "/payments" audit view). An empty status lists every payment.
	ListPayments(ctx context.Context, status model.PaymentStatus, limit int) ([]model.Payment, error)
}

// PlaceholderUETR generates a stable placeholder key for audit rows
// whose document didn't carry an extractable UETR (spec §4.3).
func PlaceholderUETR(seed string, now time.Time) string {
	return "UNKNOWN-" + now.UTC().Format("20060102T150405.000000000") + "-" + shortHash(seed)
}

func shortHash(s string) string {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return hex8(h)
}

func hex8(v uint32) string {
	const digits = "0123456789abcdef"
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = digits[v&0xf]
		v >>= 4
	}
	return string(b)
}
