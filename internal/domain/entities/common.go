package entities

import (
	"github.com/shopspring/decimal"
)

// UserHoldingValue is one user's stake in a common holding
type UserHoldingValue struct {
	UserID   string          `json:"user_id"`
	UserName string          `json:"user_name"`
	Amount   decimal.Decimal `json:"amount"`
	ValueUSD decimal.Decimal `json:"value_usd"`
}

// CommonHolding is a symbol held with non-zero amount by every user in a
// group, with the per-user amount and value pairs
type CommonHolding struct {
	Symbol  string             `json:"symbol"`
	PerUser []UserHoldingValue `json:"per_user"`
}

// CommonHoldings holds the cross-user intersections, computed independently
// for fungible tokens and creator coins.
type CommonHoldings struct {
	Tokens       []CommonHolding `json:"tokens"`
	CreatorCoins []CommonHolding `json:"creator_coins"`
}

// ComputeCommonHoldings intersects the holdings of a group of portfolios.
// A symbol is common when every portfolio holds it with a non-zero amount.
// Output order follows the first portfolio's holding order.
func ComputeCommonHoldings(portfolios []*UserPortfolio) CommonHoldings {
	if len(portfolios) < 2 {
		return CommonHoldings{}
	}

	return CommonHoldings{
		Tokens:       intersect(portfolios, tokenEntries),
		CreatorCoins: intersect(portfolios, creatorCoinEntries),
	}
}

// holdingEntry is the symbol/amount/value triple either holding type
// reduces to for intersection purposes.
type holdingEntry struct {
	symbol   string
	amount   decimal.Decimal
	valueUSD decimal.Decimal
}

func tokenEntries(p *UserPortfolio) []holdingEntry {
	entries := make([]holdingEntry, 0, len(p.TokenHoldings))
	for _, h := range p.TokenHoldings {
		entries = append(entries, holdingEntry{symbol: h.Symbol, amount: h.Balance, valueUSD: h.BalanceUSD})
	}
	return entries
}

func creatorCoinEntries(p *UserPortfolio) []holdingEntry {
	entries := make([]holdingEntry, 0, len(p.CreatorCoins))
	for _, c := range p.CreatorCoins {
		entries = append(entries, holdingEntry{symbol: c.Symbol, amount: c.TotalAmount, valueUSD: c.TotalTVLUSD})
	}
	return entries
}

func intersect(portfolios []*UserPortfolio, entriesOf func(*UserPortfolio) []holdingEntry) []CommonHolding {
	// Membership count per symbol; a symbol counts at most once per user
	// even when merged wallets report it twice.
	counts := make(map[string]int)
	values := make(map[string][]UserHoldingValue)

	for _, p := range portfolios {
		seen := make(map[string]bool)
		for _, e := range entriesOf(p) {
			if e.amount.IsZero() || seen[e.symbol] {
				continue
			}
			seen[e.symbol] = true
			counts[e.symbol]++
			values[e.symbol] = append(values[e.symbol], UserHoldingValue{
				UserID:   p.UserID,
				UserName: p.UserName,
				Amount:   e.amount,
				ValueUSD: e.valueUSD,
			})
		}
	}

	var common []CommonHolding
	for _, e := range entriesOf(portfolios[0]) {
		if counts[e.symbol] != len(portfolios) {
			continue
		}
		common = append(common, CommonHolding{Symbol: e.symbol, PerUser: values[e.symbol]})
		counts[e.symbol] = 0 // emit each symbol once
	}
	return common
}
