package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bimakw/portfolio-aggregator/internal/config"
	"github.com/bimakw/portfolio-aggregator/internal/domain/entities"
)

const erc20ABI = `[{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}]`

// coinDecimals is the creator coin's ERC-20 decimal count.
const coinDecimals = 18

// ERC20Reader reads ERC-20 balances over a chain RPC endpoint. It backs the
// requester minimum-balance token gate.
type ERC20Reader struct {
	client *ethclient.Client
	abi    abi.ABI
	cfg    config.ChainConfig
	logger *zap.Logger
}

// NewERC20Reader connects to the chain RPC endpoint
func NewERC20Reader(cfg config.ChainConfig, logger *zap.Logger) (*ERC20Reader, error) {
	client, err := ethclient.Dial(cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to chain RPC: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}

	logger.Info("Connected to chain RPC", zap.String("rpc_url", cfg.RPCURL))

	return &ERC20Reader{
		client: client,
		abi:    parsed,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Close closes the RPC connection
func (r *ERC20Reader) Close() {
	r.client.Close()
}

// TotalBalance sums the token balance across a set of wallet addresses.
// A failing wallet is logged and skipped, not fatal; the sum covers the
// wallets that answered.
func (r *ERC20Reader) TotalBalance(ctx context.Context, tokenAddress string, wallets []string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, wallet := range wallets {
		balance, err := r.balanceOf(ctx, tokenAddress, wallet)
		if err != nil {
			r.logger.Warn("Failed to read token balance for wallet",
				zap.String("wallet", entities.MaskAddress(wallet)),
				zap.Error(err),
			)
			continue
		}
		total = total.Add(balance)
	}
	return total, nil
}

func (r *ERC20Reader) balanceOf(ctx context.Context, tokenAddress, wallet string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RequestTimeout)
	defer cancel()

	data, err := r.abi.Pack("balanceOf", common.HexToAddress(wallet))
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	token := common.HexToAddress(tokenAddress)
	result, err := r.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("balanceOf call failed: %w", err)
	}

	out, err := r.abi.Unpack("balanceOf", result)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	if len(out) != 1 {
		return decimal.Zero, fmt.Errorf("unexpected balanceOf output length %d", len(out))
	}

	raw, ok := out[0].(*big.Int)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected balanceOf output type %T", out[0])
	}

	return decimal.NewFromBigInt(raw, -coinDecimals), nil
}

// HealthCheck checks if the chain RPC is reachable
func (r *ERC20Reader) HealthCheck(ctx context.Context) error {
	_, err := r.client.ChainID(ctx)
	return err
}
