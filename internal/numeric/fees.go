package numeric

import "github.com/shopspring/decimal"

// FeeTable is a {fixed, percent, min, max} fee formula (spec §4.2,
// grounded on original_source's fee_formulas.py): the fee is
// fixed + percent*base, clamped to [min, max] when those bounds are
// positive.
type FeeTable struct {
	Fixed   decimal.Decimal
	Percent decimal.Decimal // e.g. 0.005 for 0.5%
	Min     decimal.Decimal
	Max     decimal.Decimal
}

// destinationFeeTables is keyed by destination currency, matching
// fee_formulas.py's _calculate_destination_fee dict exactly. Entries
// absent here fall back to defaultDestinationFee (the python's own
// unnamed-currency fallback).
var destinationFeeTables = map[string]FeeTable{
	"SGD": {Fixed: decimal.NewFromFloat(0.50), Percent: decimal.NewFromFloat(0.001), Min: decimal.NewFromFloat(0.50), Max: decimal.NewFromFloat(5.00)},
	"THB": {Fixed: decimal.NewFromFloat(10.00), Percent: decimal.NewFromFloat(0.001), Min: decimal.NewFromFloat(10.00), Max: decimal.NewFromFloat(100.00)},
	"MYR": {Fixed: decimal.NewFromFloat(1.00), Percent: decimal.NewFromFloat(0.001), Min: decimal.NewFromFloat(1.00), Max: decimal.NewFromFloat(10.00)},
	"PHP": {Fixed: decimal.NewFromFloat(25.00), Percent: decimal.NewFromFloat(0.002), Min: decimal.NewFromFloat(25.00), Max: decimal.NewFromFloat(250.00)},
	"IDR": {Fixed: decimal.NewFromFloat(500), Percent: decimal.NewFromFloat(0.001), Min: decimal.NewFromFloat(500), Max: decimal.NewFromFloat(50000)},
	"INR": {Fixed: decimal.NewFromFloat(25.00), Percent: decimal.NewFromFloat(0.001), Min: decimal.NewFromFloat(25.00), Max: decimal.NewFromFloat(250.00)},
}

var defaultDestinationFee = FeeTable{
	Fixed:   decimal.NewFromFloat(1.00),
	Percent: decimal.NewFromFloat(0.001),
	Min:     decimal.NewFromFloat(1.00),
	Max:     decimal.NewFromFloat(10.00),
}

// sourcePspFeeRate and schemeFeeRate match fee_formulas.py's
// _calculate_source_psp_fee ("0.50 fixed + 0.1% of principal, min 0.50,
// max 10.00") and _calculate_scheme_fee ("0.10 fixed + 0.05% of
// principal, min 0.10, max 5.00"); the Numeric Kernel is their only
// computation site (spec §9: "fee tables are duplicated across modules
// ... the Numeric Kernel [is] the single source of truth").
var (
	sourcePspFeeRate  = decimal.NewFromFloat(0.001) // 0.1%
	sourcePspFeeFixed = decimal.NewFromFloat(0.50)
	sourcePspFeeMin   = decimal.NewFromFloat(0.50)
	sourcePspFeeMax   = decimal.NewFromFloat(10.00)

	schemeFeeRateVal = decimal.NewFromFloat(0.0005) // 0.05%
	schemeFeeFixed   = decimal.NewFromFloat(0.10)
	schemeFeeMin     = decimal.NewFromFloat(0.10)
	schemeFeeMax     = decimal.NewFromFloat(5.00)
)

// DestinationFee computes the destination PSP fee on grossPayout
// (destinationInterbankAmount), quantized to currency's scale.
func DestinationFee(grossPayout decimal.Decimal, currency string) decimal.Decimal {
	table, ok := destinationFeeTables[currency]
	if !ok {
		table = defaultDestinationFee
	}
	fee := table.Fixed.Add(grossPayout.Mul(table.Percent))
	if table.Min.IsPositive() && fee.LessThan(table.Min) {
		fee = table.Min
	}
	if table.Max.IsPositive() && fee.GreaterThan(table.Max) {
		fee = table.Max
	}
	return Quantize(fee, currency)
}

// SourcePspFee computes the source PSP's fee on the sender's principal:
// 0.50 fixed + 0.1% of principal, clamped to [0.50, 10.00].
func SourcePspFee(principal decimal.Decimal, currency string) decimal.Decimal {
	fee := sourcePspFeeFixed.Add(principal.Mul(sourcePspFeeRate))
	if fee.LessThan(sourcePspFeeMin) {
		fee = sourcePspFeeMin
	}
	if fee.GreaterThan(sourcePspFeeMax) {
		fee = sourcePspFeeMax
	}
	return Quantize(fee, currency)
}

// SchemeFee computes the Nexus scheme's flat-plus-bps fee on the
// sender's principal: 0.10 fixed + 0.05% of principal, clamped to
// [0.10, 5.00].
func SchemeFee(principal decimal.Decimal, currency string) decimal.Decimal {
	fee := schemeFeeFixed.Add(principal.Mul(schemeFeeRateVal))
	if fee.LessThan(schemeFeeMin) {
		fee = schemeFeeMin
	}
	if fee.GreaterThan(schemeFeeMax) {
		fee = schemeFeeMax
	}
	return Quantize(fee, currency)
}

// SetDestinationFeeTable lets deployments override a currency's fee
// formula without a code change.
func SetDestinationFeeTable(currency string, table FeeTable) {
	destinationFeeTables[currency] = table
}
