// Package quote is the Quote Engine (spec §4.4, C4): generates,
// persists, looks up, and expires FX quotes, and assembles the
// pre-transaction disclosure — always reading amounts from the stored
// quote, never recomputing them.
package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/numeric"
)

// Engine implements quote creation, lookup/expiry, and disclosure.
type Engine struct {
	store    Store
	routing  RoutingPolicy
	improve  ImprovementPolicy
	validity time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// Option customizes a newly built Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source, for deterministic tests
// of the 600-second expiry window (spec §3, §8 scenario 2).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store Store, routing RoutingPolicy, improve ImprovementPolicy, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		routing:  routing,
		improve:  improve,
		validity: 600 * time.Second,
		now:      time.Now,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateRequest is the input to Create (spec §4.4).
type CreateRequest struct {
	SourceCurrency      string
	DestinationCurrency string
	Amount              decimal.Decimal
	AmountType          model.AmountType
	FxpPreference       string
	PSPBic              string
}

// Create generates a new quote and persists it. It asserts I1, I4 and
// I5 before returning; I2 and I3 need the sender-side fees, which only
// Disclose computes and asserts (spec §4.4).
func (e *Engine) Create(ctx context.Context, req CreateRequest) (model.Quote, error) {
	offer, err := e.routing.SelectFXP(Request{
		SourceCurrency:      req.SourceCurrency,
		DestinationCurrency: req.DestinationCurrency,
		FxpPreference:       req.FxpPreference,
		PSPBic:              req.PSPBic,
	})
	if err != nil {
		return model.Quote{}, fmt.Errorf("select fxp: %w", err)
	}

	routingReq := Request{SourceCurrency: req.SourceCurrency, DestinationCurrency: req.DestinationCurrency, FxpPreference: req.FxpPreference, PSPBic: req.PSPBic}
	tierImprovement := e.improve.TierImprovementBps(routingReq)
	pspImprovement := e.improve.PSPImprovementBps(routingReq)

	appliedSpread := offer.BaseSpreadBps.Sub(tierImprovement).Sub(pspImprovement)
	if appliedSpread.LessThan(decimal.Zero) {
		appliedSpread = decimal.Zero
	}

	// finalRate = baseRate * (1 - appliedSpreadBps/10000), fixed to 4
	// decimal places before use (spec §8 scenario 1: baseRate=25.85,
	// appliedSpreadBps=50 -> finalRate=25.7207, not the unrounded
	// 25.72075...). Truncated, not half-even rounded, to match the
	// scenario's documented value exactly.
	spreadFactor := decimal.NewFromInt(1).Sub(appliedSpread.Div(decimal.NewFromInt(10000)))
	finalRate := offer.BaseRate.Mul(spreadFactor).Truncate(4)

	var sourceAmt, destAmt decimal.Decimal
	switch req.AmountType {
	case model.AmountTypeSourceFixed:
		sourceAmt = req.Amount
		destAmt = sourceAmt.Mul(finalRate)
	case model.AmountTypeDestinationFixed:
		destAmt = req.Amount
		sourceAmt = destAmt.Div(finalRate)
	default:
		return model.Quote{}, fmt.Errorf("unknown amount type %q", req.AmountType)
	}

	destAmt = numeric.Quantize(destAmt, req.DestinationCurrency)
	sourceAmt = numeric.Quantize(sourceAmt, req.SourceCurrency)

	destFee := numeric.DestinationFee(destAmt, req.DestinationCurrency)
	creditorAmt := numeric.Quantize(destAmt.Sub(destFee), req.DestinationCurrency)

	now := e.now()
	q := model.Quote{
		QuoteID:             uuid.NewString(),
		FxpID:               offer.FxpID,
		SourceCurrency:      req.SourceCurrency,
		DestinationCurrency: req.DestinationCurrency,
		RequestedAmount:     req.Amount,
		AmountType:          req.AmountType,
		BaseRate:            offer.BaseRate,
		FinalRate:           finalRate,
		BaseSpreadBps:       offer.BaseSpreadBps,
		TierImprovementBps:  tierImprovement,
		PSPImprovementBps:   pspImprovement,
		AppliedSpreadBps:    appliedSpread,
		SourceInterbankAmount:      sourceAmt,
		DestinationInterbankAmount: destAmt,
		CreditorAccountAmount:      creditorAmt,
		DestinationPspFee:          destFee,
		PSPBic:                     req.PSPBic,
		CreatedAt:                  now,
		ExpiresAt:                  now.Add(e.validity),
	}

	if violations := numeric.AssertInvariants(numeric.Inputs{
		PayoutGrossAmount:     q.DestinationInterbankAmount,
		CreditorAccountAmount: q.CreditorAccountAmount,
		DestinationPspFee:     q.DestinationPspFee,
		BaseRate:              q.BaseRate,
		FinalRate:             q.FinalRate,
		AppliedSpreadBps:      q.AppliedSpreadBps,
		PositiveAmounts: map[string]decimal.Decimal{
			"sourceInterbankAmount":      q.SourceInterbankAmount,
			"destinationInterbankAmount": q.DestinationInterbankAmount,
			"creditorAccountAmount":      q.CreditorAccountAmount,
		},
	}); len(violations) > 0 {
		e.logger.Error("quote creation violated invariants", zap.String("quote_id", q.QuoteID), zap.Any("violations", violations))
		return model.Quote{}, errs.ErrInvariantViolation.With(fmt.Errorf("quote %s: %v", q.QuoteID, violations))
	}

	if err := e.store.Save(ctx, q); err != nil {
		return model.Quote{}, err
	}
	return q, nil
}

// Lookup returns the live quote for quoteID, or ErrQuoteExpired /
// ErrQuoteNotFound (spec §4.4, I7). The record is never deleted on expiry.
func (e *Engine) Lookup(ctx context.Context, quoteID string) (model.Quote, error) {
	q, ok, err := e.store.Get(ctx, quoteID)
	if err != nil {
		return model.Quote{}, err
	}
	if !ok {
		return model.Quote{}, errs.ErrQuoteNotFound
	}
	if !q.IsLive(e.now()) {
		return model.Quote{}, errs.ErrQuoteExpired
	}
	return q, nil
}

// Get returns the quote regardless of liveness, for audit/disclosure
// views that need to show an expired quote's terms.
func (e *Engine) Get(ctx context.Context, quoteID string) (model.Quote, bool, error) {
	return e.store.Get(ctx, quoteID)
}
