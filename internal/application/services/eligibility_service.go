package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/portfolio-aggregator/internal/config"
	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
	"github.com/bimakw/portfolio-aggregator/internal/domain/providers"
)

// ChainReader reads on-chain token balances for the requester
// minimum-balance gate.
type ChainReader interface {
	TotalBalance(ctx context.Context, tokenAddress string, wallets []string) (decimal.Decimal, error)
}

// GateDecision partitions a batch of requested users into eligible and
// ineligible sets. Denials are normal outcomes, not errors.
type GateDecision struct {
	Eligible   []entities.EligibleUser
	Ineligible []entities.Denial
}

// EligibilityService is the token gate consulted before multi-user and
// non-self aggregation requests.
type EligibilityService struct {
	users  providers.UserProvider
	chain  ChainReader
	cfg    config.GateConfig
	logger *zap.Logger
}

// NewEligibilityService creates a new eligibility service. chain may be nil
// when the requester balance gate is disabled.
func NewEligibilityService(
	users providers.UserProvider,
	chain ChainReader,
	cfg config.GateConfig,
	logger *zap.Logger,
) *EligibilityService {
	return &EligibilityService{
		users:  users,
		chain:  chain,
		cfg:    cfg,
		logger: logger,
	}
}

// Check validates the batch size locally, optionally verifies the
// requester's creator coin balance on chain, then resolves the batch in a
// single upstream call. Requesting more than the maximum is rejected before
// any upstream call is made.
func (s *EligibilityService) Check(ctx context.Context, auth, requesterID string, requesterWallets, userIDs []string) (*GateDecision, error) {
	if len(userIDs) > s.cfg.MaxUsersPerRequest {
		return nil, fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyUsers, len(userIDs), s.cfg.MaxUsersPerRequest)
	}

	if denial, err := s.checkRequesterBalance(ctx, requesterID, requesterWallets); err != nil {
		return nil, err
	} else if denial != nil {
		return &GateDecision{Ineligible: []entities.Denial{*denial}}, nil
	}

	results, err := s.users.GetUsersWithTokenGate(ctx, auth, userIDs, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user batch: %w", err)
	}

	decision := &GateDecision{}
	for _, r := range results {
		if r.Eligible() {
			decision.Eligible = append(decision.Eligible, *r.User)
		} else if r.Denial != nil {
			decision.Ineligible = append(decision.Ineligible, *r.Denial)
		}
	}

	if len(decision.Ineligible) > 0 {
		s.logger.Info("Token gate denied users",
			zap.String("requester", requesterID),
			zap.Int("denied", len(decision.Ineligible)),
			zap.Int("eligible", len(decision.Eligible)),
		)
	}

	return decision, nil
}

// checkRequesterBalance enforces the minimum creator coin holding on the
// requester's own wallets. Disabled while the configured minimum is 0.
func (s *EligibilityService) checkRequesterBalance(ctx context.Context, requesterID string, wallets []string) (*entities.Denial, error) {
	minimum := decimal.NewFromFloat(s.cfg.MinCreatorCoinBalance)
	if s.chain == nil || minimum.IsZero() || s.cfg.CreatorCoinTokenAddress == "" {
		return nil, nil
	}

	balance, err := s.chain.TotalBalance(ctx, s.cfg.CreatorCoinTokenAddress, wallets)
	if err != nil {
		return nil, fmt.Errorf("failed to check requester balance: %w", err)
	}

	if balance.LessThan(minimum) {
		return &entities.Denial{
			UserID:          requesterID,
			Reason:          "insufficient creator coin balance",
			ExpectedBalance: minimum,
			ActualBalance:   balance,
		}, nil
	}

	return nil, nil
}
