package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/portfolio-aggregator/internal/config"
	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
	"github.com/bimakw/portfolio-aggregator/internal/testutil"
)

func providersConfig() config.ProvidersConfig {
	return config.ProvidersConfig{
		DefaultNetwork: "BASE_MAINNET",
		MinBalanceUSD:  0.01,
		MaxHoldings:    30,
		MaxAttempts:    3,
	}
}

func newTestAggregator(
	balances *testutil.MockBalanceProvider,
	coins *testutil.MockCreatorCoinProvider,
	users *testutil.MockUserProvider,
) *AggregatorService {
	logger := zap.NewNop()
	gate := NewEligibilityService(users, nil, config.GateConfig{MaxUsersPerRequest: 3}, logger)
	return NewAggregatorService(balances, coins, gate, providersConfig(), logger)
}

func TestAggregatorService_GetPortfolioSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("self request skips the gate", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			return testutil.CreateTestBalances(wallets,
				testutil.CreateTestHolding("ETH", 600),
				testutil.CreateTestHolding("USDC", 400),
			), nil
		}
		mockCoins := testutil.NewMockCreatorCoinProvider()
		mockUsers := testutil.NewMockUserProvider()

		service := newTestAggregator(mockBalances, mockCoins, mockUsers)

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			Authorization:    "Bearer t",
			RequesterID:      "requester-1",
			RequesterWallets: []string{testutil.AliceWallet},
			UserIDs:          []string{"requester-1"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if mockUsers.CallCount() != 0 {
			t.Errorf("expected gate skipped, got %d user calls", mockUsers.CallCount())
		}
		if len(resp.Users) != 1 {
			t.Fatalf("expected 1 user, got %d", len(resp.Users))
		}
		if resp.CommonHoldings != nil {
			t.Error("expected no common holdings for a single user")
		}
		if !resp.Users[0].TotalTokenValueUSD.Equal(testutil.USD(1000)) {
			t.Errorf("expected total 1000, got %s", resp.Users[0].TotalTokenValueUSD)
		}
		if !resp.Users[0].TokenHoldings[0].HoldingPercentage.Equal(testutil.USD(60)) {
			t.Errorf("expected ETH weight 60, got %s", resp.Users[0].TokenHoldings[0].HoldingPercentage)
		}
	})

	t.Run("self request without wallets fails", func(t *testing.T) {
		service := newTestAggregator(testutil.NewMockBalanceProvider(), testutil.NewMockCreatorCoinProvider(), testutil.NewMockUserProvider())

		_, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"requester-1"},
		})
		if !errors.Is(err, ErrNoWallets) {
			t.Fatalf("expected ErrNoWallets, got %v", err)
		}
	})

	t.Run("empty user list fails", func(t *testing.T) {
		service := newTestAggregator(testutil.NewMockBalanceProvider(), testutil.NewMockCreatorCoinProvider(), testutil.NewMockUserProvider())

		_, err := service.GetPortfolioSummary(ctx, SummaryRequest{RequesterID: "requester-1"})
		if !errors.Is(err, ErrNoUsers) {
			t.Fatalf("expected ErrNoUsers, got %v", err)
		}
	})

	t.Run("oversized batch fails before any provider call", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), testutil.NewMockUserProvider())

		_, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"a", "b", "c", "d"},
		})
		if !errors.Is(err, ErrTooManyUsers) {
			t.Fatalf("expected ErrTooManyUsers, got %v", err)
		}
		if mockBalances.CallCount() != 0 {
			t.Errorf("expected no balance calls, got %d", mockBalances.CallCount())
		}
	})

	t.Run("any denial aborts the whole batch", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockUsers := testutil.NewMockUserProvider()
		mockUsers.GetUsersWithTokenGateFunc = func(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
			return []entities.EligibilityResult{
				testutil.EligibleResult("user-1", testutil.AliceWallet),
				testutil.DeniedResult("user-2", "not holding enough"),
			}, nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), mockUsers)

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"user-1", "user-2"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(resp.Users) != 0 {
			t.Errorf("expected no users processed, got %d", len(resp.Users))
		}
		if len(resp.IneligibleUsers) != 1 || resp.IneligibleUsers[0].UserID != "user-2" {
			t.Errorf("unexpected denial set: %+v", resp.IneligibleUsers)
		}
		if mockBalances.CallCount() != 0 {
			t.Errorf("expected eligible users not partially fetched, got %d calls", mockBalances.CallCount())
		}
	})

	t.Run("result order matches request order under concurrency", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			// First user resolves slowest.
			if userID == "user-1" {
				time.Sleep(20 * time.Millisecond)
			}
			return testutil.CreateTestBalances(wallets, testutil.CreateTestHolding("ETH", 100)), nil
		}
		mockUsers := testutil.NewMockUserProvider()
		mockUsers.GetUsersWithTokenGateFunc = func(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
			// Upstream answers in its own order.
			return []entities.EligibilityResult{
				testutil.EligibleResult("user-3", testutil.CarolWallet),
				testutil.EligibleResult("user-1", testutil.AliceWallet),
				testutil.EligibleResult("user-2", testutil.BobWallet),
			}, nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), mockUsers)

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"user-1", "user-2", "user-3"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []string{"user-1", "user-2", "user-3"}
		if len(resp.Users) != len(want) {
			t.Fatalf("expected %d users, got %d", len(want), len(resp.Users))
		}
		for i, id := range want {
			if resp.Users[i].UserID != id {
				t.Errorf("position %d: expected %s, got %s", i, id, resp.Users[i].UserID)
			}
		}
	})

	t.Run("multi-user response carries common holdings", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			if userID == "user-1" {
				return testutil.CreateTestBalances(wallets,
					testutil.CreateTestHolding("TOKENX", 100),
					testutil.CreateTestHolding("TOKENY", 50),
				), nil
			}
			return testutil.CreateTestBalances(wallets,
				testutil.CreateTestHolding("TOKENX", 20),
			), nil
		}
		mockUsers := testutil.NewMockUserProvider()
		mockUsers.GetUsersWithTokenGateFunc = func(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
			return []entities.EligibilityResult{
				testutil.EligibleResult("user-1", testutil.AliceWallet),
				testutil.EligibleResult("user-2", testutil.BobWallet),
			}, nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), mockUsers)

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"user-1", "user-2"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if resp.CommonHoldings == nil {
			t.Fatal("expected common holdings for multi-user request")
		}
		if len(resp.CommonHoldings.Tokens) != 1 || resp.CommonHoldings.Tokens[0].Symbol != "TOKENX" {
			t.Errorf("unexpected common tokens: %+v", resp.CommonHoldings.Tokens)
		}
	})

	t.Run("empty portfolios dropped without error", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			if userID == "user-2" {
				return testutil.CreateTestBalances(wallets), nil
			}
			return testutil.CreateTestBalances(wallets, testutil.CreateTestHolding("ETH", 100)), nil
		}
		mockUsers := testutil.NewMockUserProvider()
		mockUsers.GetUsersWithTokenGateFunc = func(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
			return []entities.EligibilityResult{
				testutil.EligibleResult("user-1", testutil.AliceWallet),
				testutil.EligibleResult("user-2", testutil.BobWallet),
			}, nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), mockUsers)

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"user-1", "user-2"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(resp.Users) != 1 || resp.Users[0].UserID != "user-1" {
			t.Errorf("expected only user-1 included, got %+v", resp.Users)
		}
		if resp.CommonHoldings != nil {
			t.Error("expected no common holdings with a single included user")
		}
	})

	t.Run("all portfolios empty yields ErrEmptyPortfolio", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			return testutil.CreateTestBalances(wallets), nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), testutil.NewMockUserProvider())

		_, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			Authorization:    "Bearer t",
			RequesterID:      "requester-1",
			RequesterWallets: []string{testutil.AliceWallet},
			UserIDs:          []string{"requester-1"},
		})
		if !errors.Is(err, ErrEmptyPortfolio) {
			t.Fatalf("expected ErrEmptyPortfolio, got %v", err)
		}
	})

	t.Run("provider failure for one user fails the request", func(t *testing.T) {
		var calls int32
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			atomic.AddInt32(&calls, 1)
			if userID == "user-2" {
				return nil, errors.New("upstream exhausted")
			}
			return testutil.CreateTestBalances(wallets, testutil.CreateTestHolding("ETH", 100)), nil
		}
		mockUsers := testutil.NewMockUserProvider()
		mockUsers.GetUsersWithTokenGateFunc = func(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
			return []entities.EligibilityResult{
				testutil.EligibleResult("user-1", testutil.AliceWallet),
				testutil.EligibleResult("user-2", testutil.BobWallet),
			}, nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), mockUsers)

		_, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			RequesterID: "requester-1",
			UserIDs:     []string{"user-1", "user-2"},
		})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})

	t.Run("duplicate user ids collapse", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			return testutil.CreateTestBalances(wallets, testutil.CreateTestHolding("ETH", 100)), nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), testutil.NewMockUserProvider())

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			Authorization:    "Bearer t",
			RequesterID:      "requester-1",
			RequesterWallets: []string{testutil.AliceWallet},
			UserIDs:          []string{"requester-1", "requester-1"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resp.Users) != 1 {
			t.Errorf("expected duplicates collapsed, got %d users", len(resp.Users))
		}
		if mockBalances.CallCount() != 1 {
			t.Errorf("expected 1 balance call, got %d", mockBalances.CallCount())
		}
	})

	t.Run("default network applied when none given", func(t *testing.T) {
		var gotNetworks []string
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			gotNetworks = networks
			return testutil.CreateTestBalances(wallets, testutil.CreateTestHolding("ETH", 100)), nil
		}

		service := newTestAggregator(mockBalances, testutil.NewMockCreatorCoinProvider(), testutil.NewMockUserProvider())

		_, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			Authorization:    "Bearer t",
			RequesterID:      "requester-1",
			RequesterWallets: []string{testutil.AliceWallet},
			UserIDs:          []string{"requester-1"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gotNetworks) != 1 || gotNetworks[0] != "BASE_MAINNET" {
			t.Errorf("expected default network, got %v", gotNetworks)
		}
	})

	t.Run("creator coin rate applied and wallets masked", func(t *testing.T) {
		mockBalances := testutil.NewMockBalanceProvider()
		mockBalances.GetTokenBalancesFunc = func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
			return testutil.CreateTestBalances(wallets, testutil.CreateTestHolding("ETH", 100)), nil
		}
		mockCoins := testutil.NewMockCreatorCoinProvider()
		mockCoins.GetCreatorCoinPositionsFunc = func(ctx context.Context, auth, userID string) ([]entities.CreatorCoinPosition, error) {
			p := testutil.CreateTestPosition("alice", 10, 5)
			p.WalletAddresses = []string{testutil.BobWallet}
			return []entities.CreatorCoinPosition{p}, nil
		}

		service := newTestAggregator(mockBalances, mockCoins, testutil.NewMockUserProvider())

		resp, err := service.GetPortfolioSummary(ctx, SummaryRequest{
			Authorization:    "Bearer t",
			RequesterID:      "requester-1",
			RequesterWallets: []string{testutil.AliceWallet},
			UserIDs:          []string{"requester-1"},
			NativeUSDRate:    decimal.NewFromInt(2),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		coins := resp.Users[0].CreatorCoins
		if len(coins) != 1 {
			t.Fatalf("expected 1 creator coin, got %d", len(coins))
		}
		if !coins[0].TotalTVLUSD.Equal(testutil.USD(30)) {
			t.Errorf("expected total TVL 30 USD, got %s", coins[0].TotalTVLUSD)
		}
		if coins[0].WalletAddresses[0] != "0x*****ec9b" {
			t.Errorf("expected masked wallet, got %s", coins[0].WalletAddresses[0])
		}
	})
}
