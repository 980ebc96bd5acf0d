package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
	"github.com/bimakw/portfolio-aggregator/internal/infrastructure/fetch"
)

const userInfoBatchQuery = `
	query GetUserInfoBatch($userIds: [String!]!, $requesterId: String!) {
		GetUserInfoBatch(input: { userIds: $userIds, requesterId: $requesterId }) {
			users {
				errorDetails {
					errorMessage
					expectedCreatorCoinBalance
					actualCreatorCoinBalance
					requestedUserName
					requestedId
					requiredAmountInUSD
				}
				user {
					id
					userName
					wallets {
						walletAddress
					}
				}
			}
		}
	}
`

// UserAdapter resolves batches of user identifiers through the protocol's
// token-gated user lookup. Gate decisions are never cached.
type UserAdapter struct {
	client      *fetch.Client
	maxAttempts int
	logger      *zap.Logger
}

// NewUserAdapter creates a token-gated user batch adapter
func NewUserAdapter(client *fetch.Client, maxAttempts int, logger *zap.Logger) *UserAdapter {
	return &UserAdapter{
		client:      client,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

type userInfoBatchResponse struct {
	GetUserInfoBatch struct {
		Users []struct {
			ErrorDetails *struct {
				ErrorMessage               string          `json:"errorMessage"`
				ExpectedCreatorCoinBalance decimal.Decimal `json:"expectedCreatorCoinBalance"`
				ActualCreatorCoinBalance   decimal.Decimal `json:"actualCreatorCoinBalance"`
				RequestedUserName          string          `json:"requestedUserName"`
				RequestedID                string          `json:"requestedId"`
				RequiredAmountInUSD        decimal.Decimal `json:"requiredAmountInUSD"`
			} `json:"errorDetails"`
			User *struct {
				ID       string `json:"id"`
				UserName string `json:"userName"`
				Wallets  []struct {
					WalletAddress string `json:"walletAddress"`
				} `json:"wallets"`
			} `json:"user"`
		} `json:"users"`
	} `json:"GetUserInfoBatch"`
}

// GetUsersWithTokenGate resolves a batch of user identifiers in one
// upstream call. Each returned entry carries either a resolved user with
// its wallet set or a structured denial; callers branch, nothing is raised.
func (a *UserAdapter) GetUsersWithTokenGate(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
	data, err := a.client.Do(ctx, fetch.Request{
		Op:    "get user info batch",
		Query: userInfoBatchQuery,
		Variables: map[string]interface{}{
			"userIds":     userIDs,
			"requesterId": requesterID,
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

	var response userInfoBatchResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, fmt.Errorf("failed to parse user batch response: %w", err)
	}

	results := make([]entities.EligibilityResult, 0, len(response.GetUserInfoBatch.Users))
	for _, u := range response.GetUserInfoBatch.Users {
		switch {
		case u.ErrorDetails != nil:
			results = append(results, entities.EligibilityResult{
				Denial: &entities.Denial{
					UserID:          u.ErrorDetails.RequestedID,
					UserName:        u.ErrorDetails.RequestedUserName,
					Reason:          u.ErrorDetails.ErrorMessage,
					ExpectedBalance: u.ErrorDetails.ExpectedCreatorCoinBalance,
					ActualBalance:   u.ErrorDetails.ActualCreatorCoinBalance,
					RequiredUSD:     u.ErrorDetails.RequiredAmountInUSD,
				},
			})
		case u.User != nil:
			wallets := make([]string, 0, len(u.User.Wallets))
			for _, w := range u.User.Wallets {
				wallets = append(wallets, w.WalletAddress)
			}
			results = append(results, entities.EligibilityResult{
				User: &entities.EligibleUser{
					ID:       u.User.ID,
					UserName: u.User.UserName,
					Wallets:  wallets,
				},
			})
		default:
			a.logger.Warn("User batch entry carried neither user nor error details")
		}
	}

	return results, nil
}
