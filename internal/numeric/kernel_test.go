package numeric

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestQuantize_HalfEven(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		currency string
		want     string
	}{
		{"rounds down to even", "2.125", "USD", "2.12"},
		{"rounds up to even", "2.135", "USD", "2.14"},
		{"JPY has zero scale", "101.5", "JPY", "102"}, // 101.5 -> nearest even is 102? 101 vs 102, 102 is even
		{"no rounding needed", "25.70", "SGD", "25.70"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantize(decimal.RequireFromString(tt.amount), tt.currency)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "Quantize(%s,%s) = %s, want %s", tt.amount, tt.currency, got, tt.want)
		})
	}
}

func TestAssertInvariants_I1Violation(t *testing.T) {
	v := AssertInvariants(Inputs{
		PayoutGrossAmount:     decimal.NewFromFloat(100),
		CreditorAccountAmount: decimal.NewFromFloat(90),
		DestinationPspFee:     decimal.NewFromFloat(5), // 90+5=95 != 100
	})
	assert.Len(t, v, 1)
	assert.Equal(t, "I1", v[0].Invariant)
}

func TestAssertInvariants_I1WithinTolerance(t *testing.T) {
	v := AssertInvariants(Inputs{
		PayoutGrossAmount:     decimal.NewFromFloat(100.005),
		CreditorAccountAmount: decimal.NewFromFloat(95),
		DestinationPspFee:     decimal.NewFromFloat(5),
	})
	assert.Empty(t, v)
}

func TestAssertInvariants_I4SpreadSign(t *testing.T) {
	v := AssertInvariants(Inputs{
		BaseRate:         decimal.NewFromFloat(25.85),
		FinalRate:        decimal.NewFromFloat(25.90), // worse than base with non-negative spread
		AppliedSpreadBps: decimal.NewFromFloat(10),
	})
	assert.Len(t, v, 1)
	assert.Equal(t, "I4", v[0].Invariant)
}

func TestAssertInvariants_I5Positivity(t *testing.T) {
	v := AssertInvariants(Inputs{
		PositiveAmounts: map[string]decimal.Decimal{
			"sourceInterbankAmount": decimal.NewFromFloat(-1),
			"destinationInterbankAmount": decimal.NewFromFloat(100),
		},
	})
	assert.Len(t, v, 1)
	assert.Equal(t, "I5", v[0].Invariant)
}

func TestDestinationFee_THBTable(t *testing.T) {
	// spec §8 Scenario 1: 10.00 + 25720.70*0.001 = 35.7207 -> within
	// [10.00,100.00], quantized to 2dp = 35.72.
	fee := DestinationFee(decimal.NewFromFloat(25720.70), "THB")
	assert.True(t, fee.Equal(decimal.RequireFromString("35.72")), "got %s", fee)
}

func TestSourcePspFee_SmallPrincipalStaysAboveMinimum(t *testing.T) {
	fee := SourcePspFee(decimal.NewFromFloat(10), "SGD") // 0.50+10*0.001=0.51 > min 0.50
	assert.True(t, fee.Equal(decimal.RequireFromString("0.51")), "got %s", fee)
}

func TestSourcePspFee_CapsAtMaximum(t *testing.T) {
	fee := SourcePspFee(decimal.NewFromFloat(100000), "SGD") // 0.50+100 -> capped at 10.00
	assert.True(t, fee.Equal(decimal.RequireFromString("10.00")), "got %s", fee)
}

func TestSchemeFee_FloorsAtMinimum(t *testing.T) {
	// 0.10+10*0.0005=0.105, half-even quantized to 2dp = 0.10, equal to min.
	fee := SchemeFee(decimal.NewFromFloat(10), "SGD")
	assert.True(t, fee.Equal(decimal.RequireFromString("0.10")), "got %s", fee)
}

func TestSchemeFee_CapsAtMaximum(t *testing.T) {
	fee := SchemeFee(decimal.NewFromFloat(100000), "SGD") // 0.10+50 -> capped at 5.00
	assert.True(t, fee.Equal(decimal.RequireFromString("5.00")), "got %s", fee)
}
