package iso20022

import (
	"context"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/schema"
)

// HandleAcmt023 implements the Addressing Correlator's (C8) request
// side: a proxy-resolution request is recorded keyed by CorrelationID,
// the conversation id that pairs it with its eventual acmt.024 response
// (spec §4.8, distinct from UETR).
func (p *Pipeline) HandleAcmt023(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Acmt02300104)
	if verr != nil {
		return Ack{}, verr
	}

	req, err := ParseAcmt023(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	event := model.PaymentEvent{
		EventID:       rr.uetr + "-acmt023-" + now.Format("150405.000000000"),
		UETR:          rr.uetr,
		CorrelationID: req.CorrelationID,
		EventType:     model.EventProxyRequest,
		Actor:         req.RequestingBIC,
		Data: map[string]any{
			"proxyType":     req.ProxyType,
			"requestingBic": req.RequestingBIC,
		},
		RawSlot:    SlotProxyRequest,
		RawMessage: string(body),
		OccurredAt: now,
	}
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}
	if p.TrackCorrelation != nil {
		p.TrackCorrelation(req.CorrelationID)
	}

	return Ack{UETR: rr.uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}

// HandleAcmt024 implements the Addressing Correlator's response side:
// the resolution (or non-resolution) of a prior acmt.023, paired by the
// same CorrelationID (spec §4.8).
func (p *Pipeline) HandleAcmt024(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Acmt02400104)
	if verr != nil {
		return Ack{}, verr
	}

	resp, err := ParseAcmt024(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	event := model.PaymentEvent{
		EventID:       rr.uetr + "-acmt024-" + now.Format("150405.000000000"),
		UETR:          rr.uetr,
		CorrelationID: resp.CorrelationID,
		EventType:     model.EventProxyResponse,
		Actor:         resp.BIC,
		Data: map[string]any{
			"resolved":  resp.Resolved,
			"accountId": resp.AccountID,
		},
		RawSlot:    SlotProxyResponse,
		RawMessage: string(body),
		OccurredAt: now,
	}
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}
	if p.ResolveCorrelation != nil {
		p.ResolveCorrelation(resp.CorrelationID)
	}

	return Ack{UETR: rr.uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}
