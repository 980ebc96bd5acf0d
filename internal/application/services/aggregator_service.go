package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bimakw/portfolio-aggregator/internal/config"
	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
	"github.com/bimakw/portfolio-aggregator/internal/domain/providers"
)

// SummaryRequest describes one aggregation request. User identity and the
// bearer token are resolved by an upstream collaborator; the engine only
// consumes them.
type SummaryRequest struct {
	Authorization    string
	RequesterID      string
	RequesterWallets []string
	UserIDs          []string
	Networks         []string

	// NativeUSDRate is the injected native-to-USD conversion rate for
	// creator coin TVLs. Price-feed sourcing is out of scope.
	NativeUSDRate decimal.Decimal
}

// UserSummaryDTO is the collaborator-facing weighted summary for one user.
// Wallet addresses are masked; full addresses are never re-exposed here.
type UserSummaryDTO struct {
	UserID                   string                         `json:"user_id"`
	UserName                 string                         `json:"user_name"`
	TokenHoldings            []entities.TokenHolding        `json:"token_holdings"`
	CreatorCoins             []entities.CreatorCoinPosition `json:"creator_coins"`
	TotalTokenValueUSD       decimal.Decimal                `json:"total_token_value_usd"`
	TotalCreatorCoinValueUSD decimal.Decimal                `json:"total_creator_coin_value_usd"`
	WalletAddresses          []string                       `json:"wallet_addresses,omitempty"`
}

// SummaryResponse is the aggregate output. For multi-user requests it also
// carries the cross-user common holdings, or the denial set when the token
// gate aborted the batch.
type SummaryResponse struct {
	Users           []UserSummaryDTO         `json:"users"`
	CommonHoldings  *entities.CommonHoldings `json:"common_holdings,omitempty"`
	IneligibleUsers []entities.Denial        `json:"ineligible_users,omitempty"`
}

// AggregatorService merges per-wallet provider results into per-user
// weighted summaries and cross-user intersections.
type AggregatorService struct {
	balances providers.BalanceProvider
	coins    providers.CreatorCoinProvider
	gate     *EligibilityService
	cfg      config.ProvidersConfig
	logger   *zap.Logger
}

// NewAggregatorService creates a new aggregator service
func NewAggregatorService(
	balances providers.BalanceProvider,
	coins providers.CreatorCoinProvider,
	gate *EligibilityService,
	cfg config.ProvidersConfig,
	logger *zap.Logger,
) *AggregatorService {
	return &AggregatorService{
		balances: balances,
		coins:    coins,
		gate:     gate,
		cfg:      cfg,
		logger:   logger,
	}
}

// GetPortfolioSummary runs one aggregation request end to end: local
// validation, token gate (skipped for self-only requests), concurrent
// per-user fan-out, fixed-order reduce, weighting, and the common-holdings
// intersection for multi-user requests.
func (s *AggregatorService) GetPortfolioSummary(ctx context.Context, req SummaryRequest) (*SummaryResponse, error) {
	userIDs := dedupe(req.UserIDs)
	if len(userIDs) == 0 {
		return nil, ErrNoUsers
	}

	selfOnly := len(userIDs) == 1 && userIDs[0] == req.RequesterID

	var eligible []entities.EligibleUser
	if selfOnly {
		// A self-only request is trusted by construction; the gate is
		// skipped entirely.
		if len(req.RequesterWallets) == 0 {
			return nil, ErrNoWallets
		}
		eligible = []entities.EligibleUser{{
			ID:       req.RequesterID,
			UserName: req.RequesterID,
			Wallets:  req.RequesterWallets,
		}}
	} else {
		decision, err := s.gate.Check(ctx, req.Authorization, req.RequesterID, req.RequesterWallets, userIDs)
		if err != nil {
			return nil, err
		}
		if len(decision.Ineligible) > 0 {
			// Any denial aborts the whole batch; eligible users are not
			// partially processed.
			return &SummaryResponse{IneligibleUsers: decision.Ineligible}, nil
		}
		eligible = orderByRequest(decision.Eligible, userIDs)
	}

	networks := req.Networks
	if len(networks) == 0 {
		networks = []string{s.cfg.DefaultNetwork}
	}

	portfolios, err := s.fetchPortfolios(ctx, req.Authorization, eligible, networks, req.NativeUSDRate)
	if err != nil {
		return nil, err
	}

	// Users whose combined total is zero have nothing to report and are
	// dropped without error.
	included := make([]*entities.UserPortfolio, 0, len(portfolios))
	for _, p := range portfolios {
		if p != nil && !p.IsEmpty() {
			included = append(included, p)
		}
	}
	if len(included) == 0 {
		return nil, ErrEmptyPortfolio
	}

	response := &SummaryResponse{
		Users: make([]UserSummaryDTO, 0, len(included)),
	}
	for _, p := range included {
		response.Users = append(response.Users, toSummaryDTO(p, selfOnly))
	}
	if len(included) > 1 {
		common := entities.ComputeCommonHoldings(included)
		response.CommonHoldings = &common
	}

	return response, nil
}

// fetchPortfolios fans out across the eligible users concurrently and
// reduces in the fixed input order: result order reflects the requested
// user order, not completion order.
func (s *AggregatorService) fetchPortfolios(
	ctx context.Context,
	auth string,
	users []entities.EligibleUser,
	networks []string,
	rate decimal.Decimal,
) ([]*entities.UserPortfolio, error) {
	portfolios := make([]*entities.UserPortfolio, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(len(users))

	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			p, err := s.buildUserPortfolio(gctx, auth, user, networks, rate)
			if err != nil {
				return fmt.Errorf("user %s: %w", user.ID, err)
			}
			portfolios[i] = p
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return portfolios, nil
}

// buildUserPortfolio merges one user's provider results into a weighted
// portfolio. A user without wallets yields an empty portfolio without any
// upstream call.
func (s *AggregatorService) buildUserPortfolio(
	ctx context.Context,
	auth string,
	user entities.EligibleUser,
	networks []string,
	rate decimal.Decimal,
) (*entities.UserPortfolio, error) {
	portfolio := &entities.UserPortfolio{
		UserID:   user.ID,
		UserName: user.UserName,
	}
	if len(user.Wallets) == 0 {
		return portfolio, nil
	}

	balances, err := s.balances.GetTokenBalances(ctx, auth, user.ID, user.Wallets, networks)
	if err != nil {
		return nil, err
	}

	positions, err := s.coins.GetCreatorCoinPositions(ctx, auth, user.ID)
	if err != nil {
		return nil, err
	}

	portfolio.TokenHoldings = balances.Holdings
	portfolio.CreatorCoins = positions
	portfolio.WalletAddresses = collectWallets(balances, positions)

	for i := range portfolio.CreatorCoins {
		portfolio.CreatorCoins[i].ApplyRate(rate)
	}
	portfolio.ComputeWeights()

	return portfolio, nil
}

func toSummaryDTO(p *entities.UserPortfolio, includeWallets bool) UserSummaryDTO {
	dto := UserSummaryDTO{
		UserID:                   p.UserID,
		UserName:                 p.UserName,
		TokenHoldings:            p.TokenHoldings,
		CreatorCoins:             maskPositionWallets(p.CreatorCoins),
		TotalTokenValueUSD:       p.TotalTokenValueUSD,
		TotalCreatorCoinValueUSD: p.TotalCreatorCoinValueUSD,
	}
	if includeWallets {
		dto.WalletAddresses = entities.MaskAddresses(p.WalletAddresses)
	}
	return dto
}

func maskPositionWallets(positions []entities.CreatorCoinPosition) []entities.CreatorCoinPosition {
	masked := make([]entities.CreatorCoinPosition, len(positions))
	for i, p := range positions {
		masked[i] = p
		masked[i].WalletAddresses = entities.MaskAddresses(p.WalletAddresses)
	}
	return masked
}

func collectWallets(balances *entities.TokenBalances, positions []entities.CreatorCoinPosition) []string {
	seen := make(map[string]bool)
	var wallets []string
	add := func(addr string) {
		if addr != "" && !seen[addr] {
			seen[addr] = true
			wallets = append(wallets, addr)
		}
	}
	for _, a := range balances.WalletAddresses {
		add(a)
	}
	for _, p := range positions {
		for _, a := range p.WalletAddresses {
			add(a)
		}
	}
	return wallets
}

func orderByRequest(users []entities.EligibleUser, userIDs []string) []entities.EligibleUser {
	byID := make(map[string]entities.EligibleUser, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	ordered := make([]entities.EligibleUser, 0, len(users))
	for _, id := range userIDs {
		if u, ok := byID[id]; ok {
			ordered = append(ordered, u)
		}
	}
	return ordered
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
