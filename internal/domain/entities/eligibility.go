package entities

import (
	"github.com/shopspring/decimal"
)

// EligibleUser is a requested user the token gate resolved successfully,
// carrying the user's resolved wallet set.
type EligibleUser struct {
	ID       string   `json:"id"`
	UserName string   `json:"user_name"`
	Wallets  []string `json:"-"`
}

// Denial carries the structured reason a requested user was not eligible.
// Denials are data, not errors; callers branch on their presence.
type Denial struct {
	UserID          string          `json:"user_id"`
	UserName        string          `json:"user_name,omitempty"`
	Reason          string          `json:"reason"`
	ExpectedBalance decimal.Decimal `json:"expected_balance"`
	ActualBalance   decimal.Decimal `json:"actual_balance"`
	RequiredUSD     decimal.Decimal `json:"required_usd,omitempty"`
}

// EligibilityResult is a tagged variant: exactly one of User or Denial is
// set for each requested user identifier.
type EligibilityResult struct {
	User   *EligibleUser
	Denial *Denial
}

// Eligible reports whether the result resolved to a user.
func (r EligibilityResult) Eligible() bool {
	return r.User != nil
}
