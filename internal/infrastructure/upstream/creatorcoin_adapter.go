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

const creatorCoinCacheKeyPrefix = "creator-coins:"

const creatorCoinPositionsQuery = `
	query GetCreatorCoinPortfolio($userId: String!) {
		UserPortfolios(input: { filter: { userId: $userId } }) {
			Portfolio {
				coinSymbol
				coinName
				creatorId
				coinAddress
				totalLockedAmount
				totalUnlockedAmount
				lockedTvl
				unlockedTvl
				totalTvl
				walletAddresses
			}
		}
	}
`

// CreatorCoinAdapter queries the protocol creator-coin position provider
type CreatorCoinAdapter struct {
	client      *fetch.Client
	cache       cache.Store
	cacheTTL    time.Duration
	maxAttempts int
	logger      *zap.Logger
}

// NewCreatorCoinAdapter creates a creator-coin provider adapter
func NewCreatorCoinAdapter(
	client *fetch.Client,
	cacheStore cache.Store,
	cacheTTL time.Duration,
	maxAttempts int,
	logger *zap.Logger,
) *CreatorCoinAdapter {
	return &CreatorCoinAdapter{
		client:      client,
		cache:       cacheStore,
		cacheTTL:    cacheTTL,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

type creatorCoinResponse struct {
	UserPortfolios struct {
		Portfolio []struct {
			CoinSymbol          string          `json:"coinSymbol"`
			CoinName            string          `json:"coinName"`
			CreatorID           string          `json:"creatorId"`
			CoinAddress         string          `json:"coinAddress"`
			TotalLockedAmount   decimal.Decimal `json:"totalLockedAmount"`
			TotalUnlockedAmount decimal.Decimal `json:"totalUnlockedAmount"`
			LockedTVL           decimal.Decimal `json:"lockedTvl"`
			UnlockedTVL         decimal.Decimal `json:"unlockedTvl"`
			TotalTVL            decimal.Decimal `json:"totalTvl"`
			WalletAddresses     []string        `json:"walletAddresses"`
		} `json:"Portfolio"`
	} `json:"UserPortfolios"`
}

// GetCreatorCoinPositions retrieves a user's creator coin positions in
// native units. A user with no positions yields an empty slice.
func (a *CreatorCoinAdapter) GetCreatorCoinPositions(ctx context.Context, auth, userID string) ([]entities.CreatorCoinPosition, error) {
	cacheKey := creatorCoinCacheKeyPrefix + userID

	var cached []entities.CreatorCoinPosition
	if a.cache != nil {
		if err := a.cache.Get(ctx, cacheKey, &cached); err == nil {
			cacheHitsTotal.WithLabelValues("creator-coins").Inc()
			a.logger.Debug("Cache hit", zap.String("key", cacheKey))
			return cached, nil
		}
		cacheMissesTotal.WithLabelValues("creator-coins").Inc()
	}

	data, err := a.client.Do(ctx, fetch.Request{
		Op:    "get creator coin positions",
		Query: creatorCoinPositionsQuery,
		Variables: map[string]interface{}{
			"userId": userID,
		},
		Authorization: auth,
		Policy: fetch.RetryPolicy{
			MaxAttempts: a.maxAttempts,
			RetryStatus: fetch.RetryThrottleAndServerErrors,
		},
	})
	if err != nil {
		return nil, err
	}

	var response creatorCoinResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse creator coin response: %w", err)
	}

	positions := make([]entities.CreatorCoinPosition, 0, len(response.UserPortfolios.Portfolio))
	for _, p := range response.UserPortfolios.Portfolio {
		positions = append(positions, entities.CreatorCoinPosition{
			Symbol:              p.CoinSymbol,
			Name:                p.CoinName,
			CreatorID:           p.CreatorID,
			TokenAddress:        p.CoinAddress,
			TotalLockedAmount:   p.TotalLockedAmount,
			TotalUnlockedAmount: p.TotalUnlockedAmount,
			LockedTVL:           p.LockedTVL,
			UnlockedTVL:         p.UnlockedTVL,
			TotalTVL:            p.TotalTVL,
			WalletAddresses:     p.WalletAddresses,
		})
	}

	if a.cache != nil {
		if err := a.cache.SetWithTTL(ctx, cacheKey, positions, a.cacheTTL); err != nil {
			a.logger.Warn("Failed to cache creator coin positions", zap.Error(err))
		}
	}

	return positions, nil
}
