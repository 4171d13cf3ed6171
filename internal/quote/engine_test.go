package quote

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexusgw/gateway/internal/errs"
	"github.com/nexusgw/gateway/internal/model"
)

type fixedRouting struct {
	offer FXPOffer
	err   error
}

func (f fixedRouting) SelectFXP(Request) (FXPOffer, error) { return f.offer, f.err }

func testEngine(t *testing.T, now time.Time, offer FXPOffer) *Engine {
	t.Helper()
	return New(
		NewMemoryStore(),
		fixedRouting{offer: offer},
		StaticImprovementPolicy{Tier: decimal.Zero, PSP: decimal.Zero},
		zap.NewNop(),
		WithClock(func() time.Time { return now }),
	)
}

func TestCreate_SourceFixed_DerivesDestinationAmount(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := testEngine(t, now, FXPOffer{
		FxpID:         "fxp-1",
		BaseRate:      decimal.NewFromFloat(25.85),
		BaseSpreadBps: decimal.NewFromInt(50),
	})

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency:      "SGD",
		DestinationCurrency: "THB",
		Amount:              decimal.NewFromFloat(1000.00),
		AmountType:          model.AmountTypeSourceFixed,
		PSPBic:              "TESTSGS1",
	})
	require.NoError(t, err)

	assert.True(t, q.SourceInterbankAmount.Equal(decimal.NewFromFloat(1000.00)))
	assert.True(t, q.DestinationInterbankAmount.GreaterThan(decimal.Zero))
	assert.True(t, q.CreditorAccountAmount.LessThan(q.DestinationInterbankAmount))
	assert.Equal(t, now.Add(600*time.Second), q.ExpiresAt)
	assert.True(t, q.FinalRate.LessThanOrEqual(q.BaseRate))
}

// TestCreate_Scenario1_MatchesSpecWorkedExample reproduces spec §8
// scenario 1's exact literal numbers end-to-end: sourceCurrency=SGD,
// destinationCurrency=THB, amount=1000.00, amountType=SOURCE_FIXED,
// baseRate=25.85, baseSpreadBps=50 must yield finalRate=25.7207,
// sourceInterbankAmount=1000.00, destinationInterbankAmount=25720.70,
// destinationPspFee=35.72, creditorAccountAmount=25684.98.
func TestCreate_Scenario1_MatchesSpecWorkedExample(t *testing.T) {
	now := time.Now()
	e := testEngine(t, now, FXPOffer{
		FxpID:         "fxp-1",
		BaseRate:      decimal.NewFromFloat(25.85),
		BaseSpreadBps: decimal.NewFromInt(50),
	})

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency:      "SGD",
		DestinationCurrency: "THB",
		Amount:              decimal.NewFromFloat(1000.00),
		AmountType:          model.AmountTypeSourceFixed,
		PSPBic:              "TESTSGS1",
	})
	require.NoError(t, err)

	assert.True(t, q.FinalRate.Equal(decimal.RequireFromString("25.7207")), "finalRate got %s", q.FinalRate)
	assert.True(t, q.SourceInterbankAmount.Equal(decimal.RequireFromString("1000.00")), "sourceInterbankAmount got %s", q.SourceInterbankAmount)
	assert.True(t, q.DestinationInterbankAmount.Equal(decimal.RequireFromString("25720.70")), "destinationInterbankAmount got %s", q.DestinationInterbankAmount)
	assert.True(t, q.DestinationPspFee.Equal(decimal.RequireFromString("35.72")), "destinationPspFee got %s", q.DestinationPspFee)
	assert.True(t, q.CreditorAccountAmount.Equal(decimal.RequireFromString("25684.98")), "creditorAccountAmount got %s", q.CreditorAccountAmount)
}

func TestCreate_DestinationFixed_DerivesSourceAmount(t *testing.T) {
	now := time.Now()
	e := testEngine(t, now, FXPOffer{
		FxpID:         "fxp-1",
		BaseRate:      decimal.NewFromFloat(25.85),
		BaseSpreadBps: decimal.NewFromInt(50),
	})

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency:      "SGD",
		DestinationCurrency: "THB",
		Amount:              decimal.NewFromFloat(25000.00),
		AmountType:          model.AmountTypeDestinationFixed,
	})
	require.NoError(t, err)
	assert.True(t, q.DestinationInterbankAmount.Equal(decimal.NewFromFloat(25000.00)))
	assert.True(t, q.SourceInterbankAmount.GreaterThan(decimal.Zero))
}

func TestCreate_NegativeImprovementNeverInvertsSpread(t *testing.T) {
	now := time.Now()
	e := New(
		NewMemoryStore(),
		fixedRouting{offer: FXPOffer{FxpID: "fxp-1", BaseRate: decimal.NewFromFloat(25.85), BaseSpreadBps: decimal.NewFromInt(10)}},
		StaticImprovementPolicy{Tier: decimal.NewFromInt(100), PSP: decimal.NewFromInt(100)}, // improvements exceed base spread
		zap.NewNop(),
		WithClock(func() time.Time { return now }),
	)

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency:      "SGD",
		DestinationCurrency: "THB",
		Amount:              decimal.NewFromFloat(100),
		AmountType:          model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)
	assert.True(t, q.AppliedSpreadBps.Equal(decimal.Zero))
	assert.True(t, q.FinalRate.Equal(q.BaseRate))
}

func TestLookup_ExpiredQuoteNeverDeleted(t *testing.T) {
	created := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	e := testEngine(t, created, FXPOffer{FxpID: "fxp-1", BaseRate: decimal.NewFromFloat(25.85), BaseSpreadBps: decimal.NewFromInt(50)})

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromFloat(100), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	e.now = func() time.Time { return created.Add(601 * time.Second) }
	_, err = e.Lookup(context.Background(), q.QuoteID)
	assert.ErrorIs(t, err, errs.ErrQuoteExpired)

	stored, ok, getErr := e.Get(context.Background(), q.QuoteID)
	require.NoError(t, getErr)
	require.True(t, ok)
	assert.Equal(t, q.QuoteID, stored.QuoteID)
}

func TestLookup_UnknownQuoteID(t *testing.T) {
	e := testEngine(t, time.Now(), FXPOffer{})
	_, err := e.Lookup(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, errs.ErrQuoteNotFound)
}

func TestDisclose_SatisfiesSenderDecompositionAndRateInvariants(t *testing.T) {
	now := time.Now()
	e := testEngine(t, now, FXPOffer{FxpID: "fxp-1", BaseRate: decimal.NewFromFloat(25.85), BaseSpreadBps: decimal.NewFromInt(50)})

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromFloat(1000), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	d, err := e.Disclose(context.Background(), q.QuoteID)
	require.NoError(t, err)

	sum := d.SenderPrincipal.Add(d.SourcePspFee).Add(d.SchemeFee)
	assert.True(t, d.SenderTotal.Sub(sum).Abs().LessThanOrEqual(decimal.NewFromFloat(0.01)))
	assert.True(t, d.SenderTotal.GreaterThan(d.SenderPrincipal))
	assert.True(t, d.EffectiveRate.IsPositive())
}

func TestDisclose_ExpiredQuotePropagatesError(t *testing.T) {
	created := time.Now()
	e := testEngine(t, created, FXPOffer{FxpID: "fxp-1", BaseRate: decimal.NewFromFloat(25.85), BaseSpreadBps: decimal.NewFromInt(50)})

	q, err := e.Create(context.Background(), CreateRequest{
		SourceCurrency: "SGD", DestinationCurrency: "THB",
		Amount: decimal.NewFromFloat(1000), AmountType: model.AmountTypeSourceFixed,
	})
	require.NoError(t, err)

	e.now = func() time.Time { return created.Add(time.Hour) }
	_, err = e.Disclose(context.Background(), q.QuoteID)
	assert.ErrorIs(t, err, errs.ErrQuoteExpired)
}
