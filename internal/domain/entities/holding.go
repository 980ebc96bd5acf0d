package entities

import (
	"github.com/shopspring/decimal"
)

// TokenHolding represents a single fungible token position in a portfolio
type TokenHolding struct {
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name,omitempty"`
	TokenAddress string          `json:"token_address"`
	Balance      decimal.Decimal `json:"balance"`
	BalanceUSD   decimal.Decimal `json:"balance_usd"`

	// HoldingPercentage is derived from the owning portfolio's token total;
	// it is recomputed whenever that total changes.
	HoldingPercentage decimal.Decimal `json:"holding_percentage"`
}

// TokenBalances is the normalized balance-provider result for one user.
// Holdings are capped and min-value filtered by the upstream provider,
// not re-filtered locally.
type TokenBalances struct {
	TotalBalanceUSD decimal.Decimal `json:"total_balance_usd"`
	Holdings        []TokenHolding  `json:"holdings"`
	WalletAddresses []string        `json:"wallet_addresses"`
	Networks        []string        `json:"networks"`
}
