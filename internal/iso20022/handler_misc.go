package iso20022

import (
	"context"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/schema"
)

// HandlePain001 records a customer credit-transfer initiation — the
// originating PSP's view of a payment before it becomes a pacs.008
// interbank instruction (spec §3).
func (p *Pipeline) HandlePain001(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Pain00100112)
	if verr != nil {
		return Ack{}, verr
	}

	ci, err := ParsePain001(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	event := newEvent(rr.uetr, model.EventCustomerInitiation, "psp", map[string]any{
		"endToEndId":      ci.EndToEndID,
		"amount":          ci.Amount.String(),
		"currency":        ci.Currency,
		"creditorAccount": ci.CreditorAccount,
	}, SlotCustomerInitiation, string(body), now)
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	return Ack{UETR: rr.uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}

// HandleCamt103 records a liquidity reservation request made ahead of a
// payment's interbank settlement leg.
func (p *Pipeline) HandleCamt103(ctx context.Context, body []byte) (Ack, *errs.Error) {
	rr, verr := p.validateInbound(ctx, body, schema.Camt10300103)
	if verr != nil {
		return Ack{}, verr
	}

	res, err := ParseCamt103(body)
	if err != nil {
		return Ack{}, errs.ErrBadXML.With(err)
	}

	now := p.now()
	event := newEvent(rr.uetr, model.EventReservationReceived, "ipso", map[string]any{
		"reservationId": res.ReservationID,
		"amount":        res.Amount.String(),
		"currency":      res.Currency,
	}, SlotReservation, string(body), now)
	if err := p.Store.CommitEvent(ctx, event); err != nil {
		return Ack{}, errs.ErrDBUnavailable.With(err)
	}

	return Ack{UETR: rr.uetr, Status: string(model.StatusReceived), ProcessedAt: now}, nil
}

// Validate implements the standalone /iso20022/validate endpoint: XSD
// validation with no side effects, for integrators to self-test
// message construction before sending live traffic.
func (p *Pipeline) Validate(body []byte, messageType schema.MessageType) schema.Result {
	return p.Schema.Validate(body, messageType)
}
