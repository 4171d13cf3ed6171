// Package iso20022 is the ISO 20022 Pipeline (spec §4.5, C5): one
// handler per message family, each following the common skeleton of
// validate (C1) -> parse -> bind/check against a quote (C4) ->
// persist (C3) -> synchronous ack -> scheduled callback (C6). The
// numeric invariants (C2) are asserted by the quote engine when the
// quote is created; the handlers here do not re-assert them.
package iso20022

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/callback"
	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/numeric"
	"github.com/nexusgw/gateway/internal/quote"
	"github.com/nexusgw/gateway/internal/schema"
	"github.com/nexusgw/gateway/internal/store"
)

// Ack is the synchronous response body for every /iso20022/* POST (spec §6).
type Ack struct {
	UETR             string    `json:"uetr"`
	Status           string    `json:"status"` // ACCEPTED or RECEIVED (spec §4.5 step 6); HandlePacs028 instead reports the payment's stored status
	CallbackEndpoint string    `json:"callbackEndpoint,omitempty"`
	ProcessedAt      time.Time `json:"processedAt"`
}

// Pipeline wires C1 (schema), C4 (quotes), C3 (store), and C6
// (dispatcher) into the per-message handlers.
type Pipeline struct {
	Schema     *schema.Validator
	Quotes     *quote.Engine
	Store      store.Store
	Dispatcher *callback.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time

	// ActorSecret resolves the HMAC signing secret for a destination
	// actor's callback. Wired to the Participant Registry (C7); a
	// function rather than a direct dependency to avoid an import cycle.
	ActorSecret func(ctx context.Context, bic string) string

	// TrackCorrelation and ResolveCorrelation notify the Addressing
	// Correlator's (C8) in-flight index when an acmt.023/acmt.024 pair
	// commits. Functions rather than a direct dependency, since the
	// correlator package imports iso20022 for ReasonCode.
	TrackCorrelation   func(correlationID string)
	ResolveCorrelation func(correlationID string)
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

// readResult bundles the outcome of steps 1-2 of the common skeleton
// (spec §4.5): read body, XSD-validate.
type readResult struct {
	result schema.Result
	uetr   string
}

// validateInbound runs steps 1-2 of the common skeleton: empty-body
// check, then XSD validation, extracting a UETR (real or placeholder)
// for the audit event either way (spec §4.3: "the audit log is
// complete even for malformed traffic").
func (p *Pipeline) validateInbound(ctx context.Context, body []byte, mt schema.MessageType) (readResult, *errs.Error) {
	if len(body) == 0 {
		return readResult{}, errs.ErrBadXML
	}

	uetr := schema.SafeExtractUetr(body)
	result := schema.Result{Valid: true, MessageType: mt}
	if p.Schema != nil {
		result = p.Schema.Validate(body, mt)
	}
	if uetr == "" {
		uetr = store.PlaceholderUETR(string(body), p.now())
	}

	if !result.Valid {
		p.commitValidationFailure(ctx, uetr, mt, result)
		return readResult{result: result, uetr: uetr}, errs.ErrXSDValidationFailed
	}
	return readResult{result: result, uetr: uetr}, nil
}

func (p *Pipeline) commitValidationFailure(ctx context.Context, uetr string, mt schema.MessageType, result schema.Result) {
	data := map[string]any{"messageType": string(mt)}
	if len(result.Errors) > 0 {
		data["firstError"] = result.Errors[0].Message
	}
	event := model.PaymentEvent{
		EventID:    fmt.Sprintf("%s-valfail-%d", uetr, p.now().UnixNano()),
		UETR:       uetr,
		EventType:  model.EventSchemaValidationFailed,
		Actor:      "gateway",
		Data:       data,
		OccurredAt: p.now(),
	}
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		p.Logger.Error("failed to commit validation-failure event", zap.Error(err), zap.String("uetr", uetr))
	}
}

// rejection describes a business-rule rejection discovered during
// quote binding or party validation (spec §4.5 step 4).
type rejection struct {
	Code   ReasonCode
	Detail string
}

// bindQuote implements spec §4.5 step 4 for payment instructions: look
// up the quote, and if live, check the instruction's interbank and
// instructed amounts against it within numeric.AmountTolerance (0.01),
// whatever the currency's scale. The exchange rate is not compared:
// PaymentInstruction carries no rate. Returns a non-nil *rejection instead
// of an error, since a binding failure is a business outcome (RJCT),
// not a structural one.
func (p *Pipeline) bindQuote(ctx context.Context, quoteID string, pi PaymentInstruction) (model.Quote, *rejection) {
	q, err := p.Quotes.Lookup(ctx, quoteID)
	if err != nil {
		return model.Quote{}, &rejection{Code: ReasonQuoteExpiredOrRate, Detail: err.Error()}
	}

	if pi.InterbankAmount.Sub(q.SourceInterbankAmount).Abs().GreaterThan(numeric.AmountTolerance) {
		return model.Quote{}, &rejection{Code: ReasonQuoteExpiredOrRate, Detail: "source amount does not match bound quote"}
	}
	if pi.InstructedAmount.Sub(q.DestinationInterbankAmount).Abs().GreaterThan(numeric.AmountTolerance) {
		return model.Quote{}, &rejection{Code: ReasonQuoteExpiredOrRate, Detail: "destination amount does not match bound quote"}
	}
	return q, nil
}

// checkParties implements the debtor/creditor checks named in spec
// §4.5 step 4 ("if the debtor/creditor data fails checks, reject with
// the appropriate code from §6").
func checkParties(pi PaymentInstruction) *rejection {
	if pi.CreditorAccount == "" {
		return &rejection{Code: ReasonIncorrectAccount, Detail: "creditor account missing"}
	}
	if pi.CreditorName == "" {
		return &rejection{Code: ReasonNotSpecified, Detail: "creditor name missing"}
	}
	if pi.DebtorAccount == "" {
		return &rejection{Code: ReasonIncorrectAccount, Detail: "debtor account missing"}
	}
	return nil
}

// scheduleStatusCallback builds and schedules delivery of the pacs.002
// status report for a completed decision (spec §4.5 step 7, §4.6).
func (p *Pipeline) scheduleStatusCallback(ctx context.Context, callbackURL string, uetr string, status TxStatus, reason ReasonCode, detail string, currency string, amount decimal.Decimal, destinationBIC string) {
	if p.Dispatcher == nil || callbackURL == "" {
		return
	}
	xmlDoc := BuildPacs002(uetr, status, reason, detail, currency, amount)
	secret := ""
	if p.ActorSecret != nil {
		secret = p.ActorSecret(ctx, destinationBIC)
	}
	p.Dispatcher.Schedule(ctx, callback.Job{
		CallbackURL: callbackURL,
		UETR:        uetr,
		StatusXML:   xmlDoc,
		TxStatus:    string(status),
		ActorSecret: secret,
	})
}

func newEvent(uetr string, eventType model.EventType, actor string, data map[string]any, slot model.RawMessageSlot, raw string, now time.Time) model.PaymentEvent {
	return model.PaymentEvent{
		EventID:    fmt.Sprintf("%s-%s-%d", uetr, eventType, now.UnixNano()),
		UETR:       uetr,
		EventType:  eventType,
		Actor:      actor,
		Data:       data,
		RawSlot:    slot,
		RawMessage: raw,
		OccurredAt: now,
	}
}

func newUETR() string {
	return uuid.NewString()
}
