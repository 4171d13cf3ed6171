// Package numeric is the gateway's Numeric Kernel (spec §4.2, C2): all
// monetary arithmetic that touches invariants I1-I8 happens here, in
// arbitrary-precision decimal with half-even rounding. No float64 ever
// appears in a computation feeding a quote, disclosure, or payment.
package numeric

import (
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.DivisionPrecision = 32 // >= 28 significant digits, spec §4.2
}

// AmountTolerance is the absolute tolerance for I1/I2 (spec §4.2: "0.01 unit").
var AmountTolerance = decimal.NewFromFloat(0.01)

// RateTolerance is the absolute tolerance for rate invariants (spec §4.2: "0.0001").
var RateTolerance = decimal.NewFromFloat(0.0001)

// Quantize rounds amount to currency's scale using round-half-even
// (banker's rounding), the only rounding mode permitted on any path
// touching I1-I8 (spec §4.2).
func Quantize(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.RoundBank(Scale(currency))
}

// Violation names one invariant breach; AssertInvariants returns these
// instead of erroring so callers can log every breach found, not just
// the first.
type Violation struct {
	Invariant string
	Detail    string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Invariant, v.Detail)
}

// Inputs bundles every value the invariant checks in spec §3 read.
// Zero-value decimal.Decimal fields are treated as "not applicable" by
// callers that only assert a subset (e.g. quote creation doesn't yet
// know SenderTotal at the disclosure stage... though in practice
// disclosure always supplies everything it asserts over).
type Inputs struct {
	SourceCurrency      string
	DestinationCurrency string

	// I1: payout decomposition (destination currency)
	PayoutGrossAmount    decimal.Decimal
	CreditorAccountAmount decimal.Decimal
	DestinationPspFee    decimal.Decimal

	// I2: sender decomposition (source currency)
	SenderTotal     decimal.Decimal
	SenderPrincipal decimal.Decimal
	SourcePspFee    decimal.Decimal
	SchemeFee       decimal.Decimal

	// I3: effective rate
	EffectiveRate decimal.Decimal

	// I4: spread sign
	BaseRate         decimal.Decimal
	FinalRate        decimal.Decimal
	AppliedSpreadBps decimal.Decimal

	// I5: positivity — every amount listed here must be > 0
	PositiveAmounts map[string]decimal.Decimal
}

// AssertInvariants checks I1-I5 (I6-I8 are checked at their respective
// call sites — quote binding, quote lookup, and store uniqueness — since
// they need a payment or a clock, not just numbers) and returns every
// violation found. An empty slice means the inputs are acceptable.
func AssertInvariants(in Inputs) []Violation {
	var violations []Violation

	// I1: payoutGrossAmount = creditorAccountAmount + destinationPspFee
	if !in.PayoutGrossAmount.IsZero() || !in.CreditorAccountAmount.IsZero() || !in.DestinationPspFee.IsZero() {
		sum := in.CreditorAccountAmount.Add(in.DestinationPspFee)
		if in.PayoutGrossAmount.Sub(sum).Abs().GreaterThan(AmountTolerance) {
			violations = append(violations, Violation{
				Invariant: "I1",
				Detail:    fmt.Sprintf("payoutGrossAmount %s != creditorAccountAmount+destinationPspFee %s", in.PayoutGrossAmount, sum),
			})
		}
	}

	// I2: senderTotal = senderPrincipal + sourcePspFee + schemeFee
	if !in.SenderTotal.IsZero() || !in.SenderPrincipal.IsZero() {
		sum := in.SenderPrincipal.Add(in.SourcePspFee).Add(in.SchemeFee)
		if in.SenderTotal.Sub(sum).Abs().GreaterThan(AmountTolerance) {
			violations = append(violations, Violation{
				Invariant: "I2",
				Detail:    fmt.Sprintf("senderTotal %s != senderPrincipal+sourcePspFee+schemeFee %s", in.SenderTotal, sum),
			})
		}
	}

	// I3: effectiveRate = creditorAccountAmount / senderTotal
	if !in.SenderTotal.IsZero() && !in.EffectiveRate.IsZero() {
		expected := in.CreditorAccountAmount.Div(in.SenderTotal)
		if in.EffectiveRate.Sub(expected).Abs().GreaterThan(RateTolerance) {
			violations = append(violations, Violation{
				Invariant: "I3",
				Detail:    fmt.Sprintf("effectiveRate %s != creditorAccountAmount/senderTotal %s", in.EffectiveRate, expected),
			})
		}
	}

	// I4: finalRate <= baseRate whenever the applied spread is non-negative
	if !in.BaseRate.IsZero() && !in.FinalRate.IsZero() && in.AppliedSpreadBps.GreaterThanOrEqual(decimal.Zero) {
		if in.FinalRate.GreaterThan(in.BaseRate) {
			violations = append(violations, Violation{
				Invariant: "I4",
				Detail:    fmt.Sprintf("finalRate %s > baseRate %s with non-negative spread %s bps", in.FinalRate, in.BaseRate, in.AppliedSpreadBps),
			})
		}
	}

	// I5: positivity
	for name, amt := range in.PositiveAmounts {
		if !amt.IsPositive() {
			violations = append(violations, Violation{
				Invariant: "I5",
				Detail:    fmt.Sprintf("%s must be strictly positive, got %s", name, amt),
			})
		}
	}

	return violations
}
