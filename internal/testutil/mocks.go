package testutil

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
)

// MockCall records one invocation on a mock
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockBalanceProvider is a mock implementation of providers.BalanceProvider
type MockBalanceProvider struct {
	mu sync.Mutex

	// Function hook for custom behavior
	GetTokenBalancesFunc func(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error)

	// Call tracking
	Calls []MockCall
}

func NewMockBalanceProvider() *MockBalanceProvider {
	return &MockBalanceProvider{Calls: make([]MockCall, 0)}
}

func (m *MockBalanceProvider) GetTokenBalances(ctx context.Context, auth, userID string, wallets, networks []string) (*entities.TokenBalances, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetTokenBalances", Args: []interface{}{userID, wallets, networks}})
	m.mu.Unlock()

	if m.GetTokenBalancesFunc != nil {
		return m.GetTokenBalancesFunc(ctx, auth, userID, wallets, networks)
	}

	return &entities.TokenBalances{Holdings: []entities.TokenHolding{}}, nil
}

// CallCount returns the number of recorded calls.
func (m *MockBalanceProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockCreatorCoinProvider is a mock implementation of
// providers.CreatorCoinProvider
type MockCreatorCoinProvider struct {
	mu sync.Mutex

	GetCreatorCoinPositionsFunc func(ctx context.Context, auth, userID string) ([]entities.CreatorCoinPosition, error)

	Calls []MockCall
}

func NewMockCreatorCoinProvider() *MockCreatorCoinProvider {
	return &MockCreatorCoinProvider{Calls: make([]MockCall, 0)}
}

func (m *MockCreatorCoinProvider) GetCreatorCoinPositions(ctx context.Context, auth, userID string) ([]entities.CreatorCoinPosition, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetCreatorCoinPositions", Args: []interface{}{userID}})
	m.mu.Unlock()

	if m.GetCreatorCoinPositionsFunc != nil {
		return m.GetCreatorCoinPositionsFunc(ctx, auth, userID)
	}

	return []entities.CreatorCoinPosition{}, nil
}

func (m *MockCreatorCoinProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockUserProvider is a mock implementation of providers.UserProvider
type MockUserProvider struct {
	mu sync.Mutex

	GetUsersWithTokenGateFunc func(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error)

	Calls []MockCall
}

func NewMockUserProvider() *MockUserProvider {
	return &MockUserProvider{Calls: make([]MockCall, 0)}
}

func (m *MockUserProvider) GetUsersWithTokenGate(ctx context.Context, auth string, userIDs []string, requesterID string) ([]entities.EligibilityResult, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "GetUsersWithTokenGate", Args: []interface{}{userIDs, requesterID}})
	m.mu.Unlock()

	if m.GetUsersWithTokenGateFunc != nil {
		return m.GetUsersWithTokenGateFunc(ctx, auth, userIDs, requesterID)
	}

	// Default: every requested user is eligible with one wallet.
	results := make([]entities.EligibilityResult, 0, len(userIDs))
	for _, id := range userIDs {
		results = append(results, entities.EligibilityResult{
			User: &entities.EligibleUser{ID: id, UserName: id, Wallets: []string{AliceWallet}},
		})
	}
	return results, nil
}

func (m *MockUserProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockChainReader is a mock implementation of services.ChainReader
type MockChainReader struct {
	mu sync.Mutex

	TotalBalanceFunc func(ctx context.Context, tokenAddress string, wallets []string) (decimal.Decimal, error)

	Calls []MockCall
}

func NewMockChainReader() *MockChainReader {
	return &MockChainReader{Calls: make([]MockCall, 0)}
}

func (m *MockChainReader) TotalBalance(ctx context.Context, tokenAddress string, wallets []string) (decimal.Decimal, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, MockCall{Method: "TotalBalance", Args: []interface{}{tokenAddress, wallets}})
	m.mu.Unlock()

	if m.TotalBalanceFunc != nil {
		return m.TotalBalanceFunc(ctx, tokenAddress, wallets)
	}

	return decimal.Zero, nil
}
