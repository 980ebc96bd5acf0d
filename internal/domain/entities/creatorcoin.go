package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CreatorCoinPosition represents a protocol creator coin position, with
// locked and unlocked stake reported in native units by the provider
type CreatorCoinPosition struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name,omitempty"`
	CreatorID    string `json:"creator_id,omitempty"`
	TokenAddress string `json:"token_address"`

	TotalLockedAmount   decimal.Decimal `json:"total_locked_amount"`
	TotalUnlockedAmount decimal.Decimal `json:"total_unlocked_amount"`
	LockedTVL           decimal.Decimal `json:"locked_tvl"`
	UnlockedTVL         decimal.Decimal `json:"unlocked_tvl"`
	TotalTVL            decimal.Decimal `json:"total_tvl"`

	WalletAddresses []string `json:"wallet_addresses,omitempty"`

	// Derived fields, filled by ApplyRate and the owning portfolio's
	// weighting pass.
	TotalAmount       decimal.Decimal `json:"total_amount"`
	LockedTVLUSD      decimal.Decimal `json:"locked_tvl_usd"`
	UnlockedTVLUSD    decimal.Decimal `json:"unlocked_tvl_usd"`
	TotalTVLUSD       decimal.Decimal `json:"total_tvl_usd"`
	HoldingPercentage decimal.Decimal `json:"holding_percentage"`
	DisplayLabel      string          `json:"display_label"`
}

// ApplyRate fills the USD-derived fields from the native TVLs using the
// injected native-to-USD rate, and resolves the display label.
func (p *CreatorCoinPosition) ApplyRate(rate decimal.Decimal) {
	p.TotalAmount = p.TotalLockedAmount.Add(p.TotalUnlockedAmount)
	p.LockedTVLUSD = p.LockedTVL.Mul(rate)
	p.UnlockedTVLUSD = p.UnlockedTVL.Mul(rate)
	p.TotalTVLUSD = p.TotalTVL.Mul(rate)
	p.DisplayLabel = p.displayLabel()
}

// displayLabel falls back through creator tag -> name -> symbol
func (p *CreatorCoinPosition) displayLabel() string {
	name := p.Name
	if name == "" {
		name = p.Symbol
	}
	if p.CreatorID != "" {
		return fmt.Sprintf("@[%s|%s]", name, p.CreatorID)
	}
	return name
}
