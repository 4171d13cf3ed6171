package quote

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FXPOffer is what an FXP-routing policy returns for a requested
// corridor: a live mid-market rate and the FXP's base spread (spec §4.4:
// "chooses an FXP per routing rules (out of scope for this spec; treat
// as pluggable policy")).
type FXPOffer struct {
	FxpID        string
	BaseRate     decimal.Decimal // mid-market, destination per source
	BaseSpreadBps decimal.Decimal
}

// Request is the routing policy's input.
type Request struct {
	SourceCurrency      string
	DestinationCurrency string
	FxpPreference       string
	PSPBic              string
}

// RoutingPolicy selects an FXP for a requested corridor. Production
// implementations call out to a liquidity/rate service; this package
// only depends on the interface (spec §4.4 scopes the policy itself out).
type RoutingPolicy interface {
	SelectFXP(req Request) (FXPOffer, error)
}

// ImprovementPolicy supplies the tier and PSP-specific spread
// improvements (in basis points) applied on top of an FXP's base spread
// (spec §4.4). Also pluggable, also out of scope for this spec beyond
// the interface its output must satisfy.
type ImprovementPolicy interface {
	TierImprovementBps(req Request) decimal.Decimal
	PSPImprovementBps(req Request) decimal.Decimal
}

// StaticImprovementPolicy is a fixed-table implementation suitable for
// sandbox/test use: every PSP/tier gets the same improvement.
type StaticImprovementPolicy struct {
	Tier decimal.Decimal
	PSP  decimal.Decimal
}

func (p StaticImprovementPolicy) TierImprovementBps(Request) decimal.Decimal { return p.Tier }
func (p StaticImprovementPolicy) PSPImprovementBps(Request) decimal.Decimal  { return p.PSP }

// StaticRoutingPolicy selects a fixed FXPOffer per currency corridor
// from an in-process table, the sandbox/dev stand-in for the liquidity
// routing service the spec scopes out of this system (§4.4).
type StaticRoutingPolicy struct {
	Offers map[string]FXPOffer // key: "SRC/DST"
}

func corridorKey(src, dst string) string { return src + "/" + dst }

// WithOffer registers the FXP offer for a currency corridor and returns
// the policy, for compact construction at startup.
func (p StaticRoutingPolicy) WithOffer(src, dst string, offer FXPOffer) StaticRoutingPolicy {
	if p.Offers == nil {
		p.Offers = make(map[string]FXPOffer)
	}
	p.Offers[corridorKey(src, dst)] = offer
	return p
}

func (p StaticRoutingPolicy) SelectFXP(req Request) (FXPOffer, error) {
	offer, ok := p.Offers[corridorKey(req.SourceCurrency, req.DestinationCurrency)]
	if !ok {
		return FXPOffer{}, fmt.Errorf("no FXP offer configured for corridor %s/%s", req.SourceCurrency, req.DestinationCurrency)
	}
	return offer, nil
}
