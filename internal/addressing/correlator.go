// Package addressing is the Addressing Correlator (spec §4.8, C8): it
// pairs a proxy-resolution request (acmt.023) with its response
// (acmt.024) by correlationId, a conversation identifier distinct from
// a payment's UETR. The durable pair lives in the event log (C3); this
// package layers a short-TTL in-flight index over it so a caller
// waiting on a response doesn't have to poll the store directly.
package addressing

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/iso20022"
	"github.com/nexusgw/gateway/internal/model"
)

// inFlightTTL bounds how long an open correlation is tracked before the
// in-flight index drops it; the durable record in the event log is
// unaffected (spec §4.8 only promises the event pair is retrievable by
// correlationId, not that it stays "in-flight" forever).
const inFlightTTL = 5 * time.Minute

// EventStore is the subset of store.Store the correlator reads.
type EventStore interface {
	EventsByCorrelationID(ctx context.Context, correlationID string) ([]model.PaymentEvent, error)
}

// Correlator answers "what happened to this proxy-resolution request"
// queries and tracks which correlationIds are still awaiting a response.
type Correlator struct {
	store    EventStore
	inFlight *cache.Cache
}

func New(store EventStore) *Correlator {
	return &Correlator{
		store:    store,
		inFlight: cache.New(inFlightTTL, inFlightTTL/2),
	}
}

// TrackRequest marks correlationId as awaiting a response, called right
// after the acmt.023 handler commits its event.
func (c *Correlator) TrackRequest(correlationID string) {
	c.inFlight.Set(correlationID, true, cache.DefaultExpiration)
}

// ResolveResponse clears correlationId's in-flight marker, called right
// after the acmt.024 handler commits its event.
func (c *Correlator) ResolveResponse(correlationID string) {
	c.inFlight.Delete(correlationID)
}

// Pending reports whether correlationId was tracked by TrackRequest and
// not yet resolved (best-effort; the index is TTL-bounded, not durable).
func (c *Correlator) Pending(correlationID string) bool {
	_, found := c.inFlight.Get(correlationID)
	return found
}

// Outcome is the resolved shape of a proxy-resolution conversation (spec §4.8).
type Outcome struct {
	CorrelationID string
	Resolved      bool
	AccountID     string
	MaskedName    string
	BIC           string
	ReasonCode    iso20022.ReasonCode // BE23 when unresolved
}

// Conversation retrieves the request/response pair for correlationId
// from the durable event log and derives the outcome a payment
// initiator needs (spec §4.8: "resolved -> {accountId, maskedName,
// bic} or unresolved -> BE23").
func (c *Correlator) Conversation(ctx context.Context, correlationID string) (Outcome, error) {
	events, err := c.store.EventsByCorrelationID(ctx, correlationID)
	if err != nil {
		return Outcome{}, err
	}
	if len(events) == 0 {
		return Outcome{}, errs.NotFound("correlation")
	}

	out := Outcome{CorrelationID: correlationID, ReasonCode: iso20022.ReasonInvalidProxy}
	for _, ev := range events {
		if ev.EventType != model.EventProxyResponse {
			continue
		}
		resolved, _ := ev.Data["resolved"].(bool)
		if !resolved {
			continue
		}
		out.Resolved = true
		out.ReasonCode = ""
		if v, ok := ev.Data["accountId"].(string); ok {
			out.AccountID = v
		}
		if resp, err := iso20022.ParseAcmt024([]byte(ev.RawMessage)); err == nil {
			out.MaskedName = resp.MaskedName
			out.BIC = resp.BIC
		}
	}
	return out, nil
}
