package quote

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/metrics"
	"github.com/nexusgw/gateway/internal/model"
	"github.com/nexusgw/gateway/internal/numeric"
)

// Disclosure is the pre-transaction disclosure payload (spec §4.4): the
// full cost breakdown a PSP shows its customer before the customer
// commits to the payment. Every amount here is either read verbatim
// from the bound quote or computed from it, never recomputed against
// the FXP's rate a second time.
type Disclosure struct {
	Quote model.Quote

	SourcePspFee      decimal.Decimal
	SchemeFee         decimal.Decimal
	SenderPrincipal   decimal.Decimal
	SenderTotal       decimal.Decimal
	EffectiveRate     decimal.Decimal
	TotalCostPercent  decimal.Decimal
}

// Disclose builds the disclosure for quoteID. It fails closed on any
// invariant violation: the violation is logged and counted, never
// surfaced to the caller beyond the generic error (spec §7).
func (e *Engine) Disclose(ctx context.Context, quoteID string) (Disclosure, error) {
	q, err := e.Lookup(ctx, quoteID)
	if err != nil {
		return Disclosure{}, err
	}

	principal := q.SourceInterbankAmount
	sourcePspFee := numeric.SourcePspFee(principal, q.SourceCurrency)
	schemeFee := numeric.SchemeFee(principal, q.SourceCurrency)
	senderTotal := numeric.Quantize(principal.Add(sourcePspFee).Add(schemeFee), q.SourceCurrency)

	var effectiveRate decimal.Decimal
	if !senderTotal.IsZero() {
		effectiveRate = q.CreditorAccountAmount.Div(senderTotal)
	}

	var totalCostPercent decimal.Decimal
	if !principal.IsZero() {
		totalCost := senderTotal.Sub(principal)
		totalCostPercent = totalCost.Div(principal).Mul(decimal.NewFromInt(100))
	}

	d := Disclosure{
		Quote:            q,
		SourcePspFee:     sourcePspFee,
		SchemeFee:        schemeFee,
		SenderPrincipal:  principal,
		SenderTotal:       senderTotal,
		EffectiveRate:     effectiveRate,
		TotalCostPercent:  totalCostPercent,
	}

	if violations := numeric.AssertInvariants(numeric.Inputs{
		PayoutGrossAmount:     q.DestinationInterbankAmount,
		CreditorAccountAmount: q.CreditorAccountAmount,
		DestinationPspFee:     q.DestinationPspFee,
		SenderTotal:           senderTotal,
		SenderPrincipal:       principal,
		SourcePspFee:          sourcePspFee,
		SchemeFee:             schemeFee,
		EffectiveRate:         effectiveRate,
		BaseRate:              q.BaseRate,
		FinalRate:             q.FinalRate,
		AppliedSpreadBps:      q.AppliedSpreadBps,
		PositiveAmounts: map[string]decimal.Decimal{
			"senderTotal":           senderTotal,
			"senderPrincipal":       principal,
			"creditorAccountAmount": q.CreditorAccountAmount,
		},
	}); len(violations) > 0 {
		for _, v := range violations {
			metrics.InvariantViolations.WithLabelValues(v.Invariant).Inc()
		}
		e.logger.Error("disclosure violated invariants", zap.String("quote_id", quoteID), zap.Any("violations", violations))
		return Disclosure{}, errs.ErrInvariantViolation.With(fmt.Errorf("quote %s: %v", quoteID, violations))
	}

	return d, nil
}
