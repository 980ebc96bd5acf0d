package entities

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// UserPortfolio owns the merged holdings for a single user. It is built
// fresh per request and never persisted beyond the result cache TTL of its
// constituent fetches.
type UserPortfolio struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`

	TokenHoldings []TokenHolding        `json:"token_holdings"`
	CreatorCoins  []CreatorCoinPosition `json:"creator_coins"`

	WalletAddresses []string `json:"-"`

	TotalTokenValueUSD       decimal.Decimal `json:"total_token_value_usd"`
	TotalCreatorCoinValueUSD decimal.Decimal `json:"total_creator_coin_value_usd"`
}

// ComputeWeights recomputes both USD totals and the per-holding percentage
// weights. Percentages within one sequence sum to 100 when the sequence's
// total is positive; a zero total yields all-zero percentages, the division
// is never performed.
func (p *UserPortfolio) ComputeWeights() {
	p.TotalTokenValueUSD = decimal.Zero
	for i := range p.TokenHoldings {
		p.TotalTokenValueUSD = p.TotalTokenValueUSD.Add(p.TokenHoldings[i].BalanceUSD)
	}
	for i := range p.TokenHoldings {
		p.TokenHoldings[i].HoldingPercentage = weight(p.TokenHoldings[i].BalanceUSD, p.TotalTokenValueUSD)
	}

	p.TotalCreatorCoinValueUSD = decimal.Zero
	for i := range p.CreatorCoins {
		p.TotalCreatorCoinValueUSD = p.TotalCreatorCoinValueUSD.Add(p.CreatorCoins[i].TotalTVLUSD)
	}
	for i := range p.CreatorCoins {
		p.CreatorCoins[i].HoldingPercentage = weight(p.CreatorCoins[i].TotalTVLUSD, p.TotalCreatorCoinValueUSD)
	}
}

// IsEmpty reports whether the portfolio carries no value at all. Empty
// portfolios are excluded from aggregate summaries.
func (p *UserPortfolio) IsEmpty() bool {
	return p.TotalTokenValueUSD.IsZero() && p.TotalCreatorCoinValueUSD.IsZero()
}

func weight(value, total decimal.Decimal) decimal.Decimal {
	if total.IsZero() {
		return decimal.Zero
	}
	return value.Mul(hundred).Div(total)
}
