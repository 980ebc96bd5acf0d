package providers

import (
	"context"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
)

// BalanceProvider defines the interface for the generic token-balance
// data source.
type BalanceProvider interface {
	// GetTokenBalances retrieves the normalized token balances for one
	// user. All wallet addresses are batched into a single provider
	// request; if the batch fails, the whole call fails.
	GetTokenBalances(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error)
}
