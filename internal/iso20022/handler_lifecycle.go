package iso20022

import (
	"context"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/schema"
)

// HandlePacs004 accepts and logs a payment return. Release 1 does not
// let pacs.004 drive payment state (spec §4.5: "returns and recalls in
// Release 1 do not use pacs.004/camt.056 as operational channels") —
// the operational return path is a subsequent pacs.008 whose
// remittance info carries the NEXUSORIGINALUETR marker, handled in
// HandlePacs008. This endpoint exists for compatibility with senders
// that still emit a pacs.004.
func (p *Pipeline) HandlePacs004(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Pacs00400114)
	if verr != nil {
		return Ack{}, verr
	}

	ret, err := ParsePacs004(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	originalUETR := ret.OriginalUETR
	if originalUETR == "" {
		if uetr, ok := ExtractOriginalUetrFromReturn(string(body)); ok {
			originalUETR = uetr
		}
	}

	now := p.now()
	uetr := originalUETR
	if uetr == "" {
		uetr = rr.uetr
	}

	event := newEvent(uetr, model.EventReturnReceived, "counterparty", map[string]any{
		"returnId":     ret.ReturnID,
		"reasonCode":   string(ret.ReasonCode),
		"originalUetr": originalUETR,
	}, SlotReturn, string(body), now)
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	return Ack{UETR: uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}

// HandleCamt056 implements the cancellation-request intake: a
// standing case is opened against a payment but no state transition
// happens until the matching camt.029 resolution arrives (spec §4.5).
func (p *Pipeline) HandleCamt056(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Camt05600111)
	if verr != nil {
		return Ack{}, verr
	}

	req, err := ParseCamt056(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	uetr := req.OriginalUETR
	if uetr == "" {
		uetr = rr.uetr
	}
	event := newEvent(uetr, model.EventCancellationReceived, "counterparty", map[string]any{
		"caseId":     req.CaseID,
		"reasonCode": string(req.ReasonCode),
		"reasonDesc": req.ReasonDesc,
	}, SlotCancellationRequest, string(body), now)
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	return Ack{UETR: uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}

// HandleCamt029 implements the recall path: ACCEPTED->RECALLED when a
// resolution confirms ("CNCL") the investigation opened by a prior
// camt.056 (spec §4.5).
func (p *Pipeline) HandleCamt029(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Camt02900113)
	if verr != nil {
		return Ack{}, verr
	}

	res, err := ParseCamt029(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	uetr := res.OriginalUETR
	if uetr == "" {
		uetr = rr.uetr
	}

	event := newEvent(uetr, model.EventInvestigationResolved, "counterparty", map[string]any{
		"caseId":           res.CaseID,
		"confirmationCode": res.ConfirmationCode,
	}, SlotInvestigationResolved, string(body), now)

	if res.ConfirmationCode == "CNCL" && uetr != "" {
		if payment, ok, err := p.Store.GetLatestPaymentByUETR(ctx, uetr); err == nil && ok {
			if CanTransition(payment.Status, model.StatusRecalled) {
				payment.Status = model.StatusRecalled
				payment.UpdatedAt = now
				event.EventType = model.EventPaymentRecalled
				if err := p.Store.CommitPayment(ctx, payment, event); err != nil {
					return Ack{}, errs.ErrDBUnavailable.With(err)
				}
				return Ack{UETR: uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
			}
		}
	}

	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}
	return Ack{UETR: uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}

// HandlePacs028 implements the status-query path: a read-only lookup
// against the payment store, answered with the current status, not a
// state transition.
func (p *Pipeline) HandlePacs028(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Pacs02800106)
	if verr != nil {
		return Ack{}, verr
	}

	q, err := ParsePacs028(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	uetr := q.OriginalUETR
	if uetr == "" {
		uetr = rr.uetr
	}

	event := newEvent(uetr, model.EventStatusQueryReceived, "counterparty", map[string]any{
		"requestId": q.RequestID,
	}, SlotStatusQuery, string(body), now)
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	status, found, err := p.Store.LatestStatusByUETR(ctx, uetr)
	if err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}
	ackStatus := string(model.StatusReceived)
	if found {
		ackStatus = string(status)
	}
	return Ack{UETR: uetr, Status: ackStatus, ProcessedAt: now}, nil
}

// HandlePacs002 accepts an inbound status report from a counterparty
// (as opposed to the ones this gateway itself emits via the Callback
// Dispatcher), recording it for audit without driving a transition —
// the gateway is the clearing authority of record in this system, so
// an inbound pacs.002 is informational only.
func (p *Pipeline) HandlePacs002(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Pacs00200115)
	if verr != nil {
		return Ack{}, verr
	}

	report, err := ParsePacs002(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	uetr := report.OriginalUETR
	if uetr == "" {
		uetr = rr.uetr
	}
	event := newEvent(uetr, model.EventNotificationReceived, "counterparty", map[string]any{
		"txStatus":   string(report.TxStatus),
		"reasonCode": string(report.ReasonCode),
	}, SlotStatusReport, string(body), now)
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	return Ack{UETR: uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}
