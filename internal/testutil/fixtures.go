package testutil

import (
	"github.com/shopspring/decimal"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
)

// Well-known wallet addresses for tests
const (
	AliceWallet = "0xd8da6bf26964af9d7eed9e03e53415d37aa96045"
	BobWallet   = "0xab5801a7d398351b8be11c439e05c5b3259aec9b"
	CarolWallet = "0x1db3439a222c519ab44bb1144fc28167b4fa6ee6"

	CreatorCoinToken = "0x838cc7f24a2696c796f90516c89369fbdcf7c575"
)

// USD builds a decimal from a float for readable test amounts.
func USD(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// CreateTestHolding creates a token holding with sensible defaults
func CreateTestHolding(symbol string, balanceUSD float64) entities.TokenHolding {
	return entities.TokenHolding{
		Symbol:       symbol,
		Name:         symbol + " Token",
		TokenAddress: "0x" + symbol,
		Balance:      decimal.NewFromInt(1),
		BalanceUSD:   USD(balanceUSD),
	}
}

// CreateTestPosition creates a creator coin position with derived
// fields not yet applied
func CreateTestPosition(symbol string, lockedAmount, unlockedAmount float64) entities.CreatorCoinPosition {
	return entities.CreatorCoinPosition{
		Symbol:              symbol,
		Name:                symbol + " Creator",
		CreatorID:           symbol + "-creator",
		TokenAddress:        "0xcoin" + symbol,
		TotalLockedAmount:   USD(lockedAmount),
		TotalUnlockedAmount: USD(unlockedAmount),
		LockedTVL:           USD(lockedAmount),
		UnlockedTVL:         USD(unlockedAmount),
		TotalTVL:            USD(lockedAmount + unlockedAmount),
	}
}

// CreateTestPortfolio creates a user portfolio from holdings in the given
// order, with weights computed
func CreateTestPortfolio(userID string, holdings ...entities.TokenHolding) *entities.UserPortfolio {
	p := &entities.UserPortfolio{
		UserID:        userID,
		UserName:      userID,
		TokenHoldings: holdings,
	}
	p.ComputeWeights()
	return p
}

// CreateTestBalances wraps holdings in a TokenBalances with the total
// summed
func CreateTestBalances(wallets []string, holdings ...entities.TokenHolding) *entities.TokenBalances {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(h.BalanceUSD)
	}
	return &entities.TokenBalances{
		TotalBalanceUSD: total,
		Holdings:        holdings,
		WalletAddresses: wallets,
		Networks:        []string{"BASE_MAINNET"},
	}
}

// EligibleResult builds an eligible entry for user provider mocks.
func EligibleResult(userID string, wallets ...string) entities.EligibilityResult {
	return entities.EligibilityResult{
		User: &entities.EligibleUser{ID: userID, UserName: userID, Wallets: wallets},
	}
}

// DeniedResult builds a denial entry for user provider mocks.
func DeniedResult(userID, reason string) entities.EligibilityResult {
	return entities.EligibilityResult{
		Denial: &entities.Denial{UserID: userID, UserName: userID, Reason: reason},
	}
}
