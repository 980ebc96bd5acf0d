package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/cache"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/fetch"
)

const balanceCacheKeyPrefix = "portfolio-v2:"

const tokenBalancesQuery = `
	query PortfolioV2($addresses: [Address!]!, $networks: [Network!]!, $minBalanceUSD: Float!, $first: Int!) {
		portfolioV2(addresses: $addresses, networks: $networks) {
			tokenBalances {
				totalBalanceUSD
				byToken(filters: { minBalanceUSD: $minBalanceUSD }, first: $first) {
					edges {
						node {
							tokenAddress
							name
							symbol
							balance
							balanceUSD
						}
					}
				}
			}
			metadata {
				addresses
				networks
			}
		}
	}
`

// BalanceAdapter queries the generic token-balance provider. The minimum
// USD value filter and the result cap are applied by the upstream provider,
// not locally.
type BalanceAdapter struct {
	client        *fetch.Client
	cache         cache.Store
	cacheTTL      time.Duration
	minBalanceUSD float64
	maxHoldings   int
	maxAttempts   int
	logger        *zap.Logger
}

// NewBalanceAdapter creates a token-balance provider adapter
func NewBalanceAdapter(
	client *fetch.Client,
	cacheStore cache.Store,
	cacheTTL time.Duration,
	minBalanceUSD float64,
	maxHoldings int,
	maxAttempts int,
	logger *zap.Logger,
) *BalanceAdapter {
	return &BalanceAdapter{
		client:        client,
		cache:         cacheStore,
		cacheTTL:      cacheTTL,
		minBalanceUSD: minBalanceUSD,
		maxHoldings:   maxHoldings,
		maxAttempts:   maxAttempts,
		logger:        logger,
	}
}

type tokenBalancesResponse struct {
	PortfolioV2 struct {
		TokenBalances struct {
			TotalBalanceUSD decimal.Decimal `json:"totalBalanceUSD"`
			ByToken         struct {
				Edges []struct {
					Node struct {
						TokenAddress string          `json:"tokenAddress"`
						Name         string          `json:"name"`
						Symbol       string          `json:"symbol"`
						Balance      decimal.Decimal `json:"balance"`
						BalanceUSD   decimal.Decimal `json:"balanceUSD"`
					} `json:"node"`
				} `json:"edges"`
			} `json:"byToken"`
		} `json:"tokenBalances"`
		Metadata struct {
			Addresses []string `json:"addresses"`
			Networks  []string `json:"networks"`
		} `json:"metadata"`
	} `json:"portfolioV2"`
}

// GetTokenBalances retrieves the normalized token balances for one user,
// consulting the result cache first. All wallet addresses go out in one
// batched provider request.
func (a *BalanceAdapter) GetTokenBalances(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
	cacheKey := balanceCacheKeyPrefix + userID

	var cached entities.TokenBalances
	if a.cache != nil {
		if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
			cacheHitsTotal.WithLabelValues("token-balances").Inc()
			a.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return &cached, nil
		}
		cacheMissesTotal.WithLabelValues("token-balances").Inc()
	}

	data, err := a.client.Do(ctx, fetch.Request{
		Op:    "get token balances",
		Query: tokenBalancesQuery,
		Variables: map[string]interface{}{
			"addresses":     wallets,
			"networks":      networks,
			"minBalanceUSD": a.minBalanceUSD,
			"first":         a.maxHoldings,
		},
		Authorization: auth,
		Policy: fetch.RetryPolicy{
			MaxAttempts: a.maxAttempts,
			// This provider opted into uniform retry of HTTP failures.
			RetryStatus: fetch.RetryAnyServerFailure,
		},
	})
	if err != nil {
		return nil, err
	}

	var response tokenBalancesResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse token balances response: %w", err)
	}

	balances := &entities.TokenBalances{
		TotalBalanceUSD: response.PortfolioV2.TokenBalances.TotalBalanceUSD,
		Holdings:        make([]entities.TokenHolding, 0, len(response.PortfolioV2.TokenBalances.ByToken.Edges)),
		WalletAddresses: response.PortfolioV2.Metadata.Addresses,
		Networks:        response.PortfolioV2.Metadata.Networks,
	}
	for _, edge := range response.PortfolioV2.TokenBalances.ByToken.Edges {
		balances.Holdings = append(balances.Holdings, entities.TokenHolding{
			Symbol:       edge.Node.Symbol,
			Name:         edge.Node.Name,
			TokenAddress: edge.Node.TokenAddress,
			Balance:      edge.Node.Balance,
			BalanceUSD:   edge.Node.BalanceUSD,
		})
	}

	if a.cache != nil {
		if err := a.cache.SetWithTTL(ctx, cacheKey, balances, a.cacheTTL); err != nil {
			a.logger.Warn("Failed to cache token balances", zap.Error(err))
		}
	}

	return balances, nil
}
