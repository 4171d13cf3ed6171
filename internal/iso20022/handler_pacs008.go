package iso20022

import (
	"context"
	"time"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/schema"
)

// HandlePacs008 implements the inbound credit-transfer instruction
// handler, the central path of the pipeline (spec §4.5). quoteID is
// taken from the request's query parameter rather than the wire body:
// builders.py's build_pacs008 accepts a quote_id but never places it in
// the rendered XML, so binding happens the same way the existing
// /iso20022/pacs008?pacs002Endpoint=URL convention already passes the
// callback target — out of band.
func (p *Pipeline) HandlePacs008(ctx context.Context, body []byte, quoteID, callbackURL string) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Pacs00800113)
	if verr != nil {
		return Ack{}, verr
	}
	uetr := rr.uetr

	pi, err := ParsePacs008(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}
	if pi.UETR != "" {
		uetr = pi.UETR
	}

	now := p.now()

	// A pacs.008 whose remittance info names an earlier payment via the
	// NEXUSORIGINALUETR marker is a return, not a new instruction: the
	// state machine moves that payment ACCEPTED->RETURNED and this
	// message is logged against it rather than treated as its own
	// instruction (spec §4.5: returns in Release 1 travel as a fresh
	// pacs.008, not pacs.004).
	if originalUETR, ok := ExtractOriginalUetrFromReturn(pi.RemittanceInfo); ok {
		return p.handleReturnViaPacs008(ctx, originalUETR, body, now)
	}

	if existing, ok, err := p.Store.GetLatestPaymentByUETR(ctx, uetr); err == nil && ok {
		// Re-submission of an already-known UETR is idempotent (I8):
		// acknowledge with the decision already on record instead of
		// re-running the business rules or scheduling a second callback.
		return Ack{
			UETR:             uetr,
			Status:           string(ackStatusFor(existing.Status)),
			CallbackEndpoint: callbackURL,
			ProcessedAt:      existing.UpdatedAt,
		}, nil
	}

	payment := model.Payment{
		UETR:                uetr,
		InitiatedAt:         now,
		QuoteID:             quoteID,
		SourceCurrency:      pi.SourceCurrency,
		DestinationCurrency: pi.DestinationCurrency,
		SourceInterbankAmount:      pi.InterbankAmount,
		DestinationInterbankAmount: pi.InstructedAmount,
		DebtorName:      pi.DebtorName,
		DebtorAccount:   pi.DebtorAccount,
		CreditorName:    pi.CreditorName,
		CreditorAccount: pi.CreditorAccount,
		SourcePSPBic:      pi.SourceSapBIC,
		DestinationPSPBic: pi.DestinationSapBIC,
		CallbackURL:       callbackURL,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	reject := checkParties(pi)
	var q model.Quote
	if reject == nil {
		if quoteID == "" {
			reject = &rejection{Code: ReasonQuoteExpiredOrRate, Detail: "no quoteId bound to instruction"}
		} else {
			q, reject = p.bindQuote(ctx, quoteID, pi)
		}
	}

	if reject != nil {
		payment.Status = model.StatusRejected
		event := newEvent(uetr, model.EventPaymentRejected, "gateway", map[string]any{
			"reasonCode": string(reject.Code),
			"detail":     reject.Detail,
		}, SlotPaymentInstruction, string(body), now)
		if err := p.Store.CommitPayment(ctx, payment, event); err != nil {
			return Ack{}, errs.ErrDBUnavailable.With(err)
		}
		p.scheduleStatusCallback(ctx, callbackURL, uetr, TxStatusRejected, reject.Code, reject.Detail, pi.DestinationCurrency, pi.InstructedAmount, pi.DestinationSapBIC)
		return Ack{UETR: uetr, Status: string(model.StatusReceived), CallbackEndpoint: callbackURL, ProcessedAt: now}, nil
	}

	payment.FinalRate = q.FinalRate
	payment.CreditorAccountAmount = q.CreditorAccountAmount
	payment.DestinationPspFee = q.DestinationPspFee
	// This gateway is the final clearing authority modeled by this
	// system (no separate downstream confirmation is in scope, spec
	// Non-goals), so a bound instruction moves straight through
	// SUBMITTED to ACCEPTED in one commit rather than waiting on a
	// second message.
	payment.Status = model.StatusAccepted

	event := newEvent(uetr, model.EventPaymentAccepted, "gateway", map[string]any{
		"quoteId": quoteID,
	}, SlotPaymentInstruction, string(body), now)
	if err := p.Store.CommitPayment(ctx, payment, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	p.scheduleStatusCallback(ctx, callbackURL, uetr, TxStatusAccepted, "", "", pi.DestinationCurrency, pi.InstructedAmount, pi.DestinationSapBIC)

	return Ack{
		UETR:             uetr,
		Status:           string(model.StatusAccepted),
		CallbackEndpoint: callbackURL,
		ProcessedAt:      now,
	}, nil
}

// ackStatusFor maps a payment's current state machine status to the
// synchronous ack vocabulary of {ACCEPTED, RECEIVED} (spec §4.5 step 6).
func ackStatusFor(s model.PaymentStatus) model.PaymentStatus {
	if s == model.StatusAccepted {
		return model.StatusAccepted
	}
	return model.StatusReceived
}

// handleReturnViaPacs008 drives the ACCEPTED->RETURNED edge for the
// payment named by originalUETR (spec §4.5).
func (p *Pipeline) handleReturnViaPacs008(ctx context.Context, originalUETR string, body []byte, now time.Time) (Ack, *errs.Error) {
	payment, ok, err := p.Store.GetLatestPaymentByUETR(ctx, originalUETR)
	if err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}
	if !ok {
		return Ack{}, errs.NotFound("payment")
	}

	if CanTransition(payment.Status, model.StatusReturned) {
		payment.Status = model.StatusReturned
		payment.UpdatedAt = now
		event := newEvent(originalUETR, model.EventPaymentReturned, "counterparty", map[string]any{
			"via": "pacs.008",
		}, SlotPaymentInstruction, string(body), now)
		if err := p.Store.CommitPayment(ctx, payment, event); err != nil {
			return Ack{}, errs.ErrDBUnavailable.With(err)
		}
	}

	return Ack{UETR: originalUETR, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}
