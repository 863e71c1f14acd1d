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
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
)

// Client implements StateOracle over an archive-node RPC endpoint. Every read
// is pinned to a block number so replay sees the same state the event saw.
type Client struct {
	rpc    *ethclient.Client
	logger zerolog.Logger

	chefAddress common.Address

	chefABI    abi.ABI
	pairABI    abi.ABI
	erc20ABI   abi.ABI
	factoryABI abi.ABI
}

func NewClient(endpoint string, chefAddress common.Address, logger zerolog.Logger) (*Client, error) {
	rpc, err := ethclient.Dial(endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc endpoint: %w", err)
	}

	client := &Client{
		rpc:         rpc,
		logger:      logger.With().Str("component", "chain-oracle").Logger(),
		chefAddress: chefAddress,
	}

	if err := client.initializeABIs(); err != nil {
		return nil, fmt.Errorf("failed to initialize ABIs: %w", err)
	}

	return client, nil
}

func (c *Client) initializeABIs() error {
	var err error
	if c.chefABI, err = abi.JSON(strings.NewReader(masterChefABI)); err != nil {
		return fmt.Errorf("failed to parse chef ABI: %w", err)
	}
	if c.pairABI, err = abi.JSON(strings.NewReader(pairABI)); err != nil {
		return fmt.Errorf("failed to parse pair ABI: %w", err)
	}
	if c.erc20ABI, err = abi.JSON(strings.NewReader(erc20ABI)); err != nil {
		return fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}
	if c.factoryABI, err = abi.JSON(strings.NewReader(factoryABI)); err != nil {
		return fmt.Errorf("failed to parse factory ABI: %w", err)
	}
	return nil
}

// call packs, executes, and unpacks an eth_call at the given block. A revert
// surfaces as ErrReverted so callers can distinguish it from transport errors.
func (c *Client) call(ctx context.Context, contractABI abi.ABI, to common.Address, block uint64, method string, args ...interface{}) ([]interface{}, error) {
	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	msg := ethereum.CallMsg{To: &to, Data: data}
	output, err := c.rpc.CallContract(ctx, msg, new(big.Int).SetUint64(block))
	if err != nil {
		if strings.Contains(err.Error(), "revert") {
			return nil, fmt.Errorf("%s on %s: %w", method, to.Hex(), ErrReverted)
		}
		return nil, fmt.Errorf("call %s on %s failed: %w", method, to.Hex(), err)
	}
	if len(output) == 0 {
		// Calls into non-contract addresses return empty output rather than
		// reverting; treat them the same way.
		return nil, fmt.Errorf("%s on %s: %w", method, to.Hex(), ErrReverted)
	}

	values, err := contractABI.Unpack(method, output)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	return values, nil
}

func (c *Client) PoolLength(ctx context.Context, block uint64) (uint64, error) {
	values, err := c.call(ctx, c.chefABI, c.chefAddress, block, "poolLength")
	if err != nil {
		return 0, err
	}
	return values[0].(*big.Int).Uint64(), nil
}

func (c *Client) PoolInfo(ctx context.Context, pid uint64, block uint64) (PoolInfo, error) {
	values, err := c.call(ctx, c.chefABI, c.chefAddress, block, "poolInfo", new(big.Int).SetUint64(pid))
	if err != nil {
		return PoolInfo{}, err
	}
	return PoolInfo{
		Pair:            values[0].(common.Address),
		AllocPoint:      values[1].(*big.Int),
		LastRewardBlock: values[2].(*big.Int),
		AccAcePerShare:  values[3].(*big.Int),
	}, nil
}

func (c *Client) UserInfo(ctx context.Context, pid uint64, user common.Address, block uint64) (UserInfo, error) {
	values, err := c.call(ctx, c.chefABI, c.chefAddress, block, "userInfo", new(big.Int).SetUint64(pid), user)
	if err != nil {
		return UserInfo{}, err
	}
	return UserInfo{
		Amount:     values[0].(*big.Int),
		RewardDebt: values[1].(*big.Int),
	}, nil
}

func (c *Client) ChefInfo(ctx context.Context, block uint64) (ChefInfo, error) {
	info := ChefInfo{}

	reads := []struct {
		method string
		assign func([]interface{})
	}{
		{"BONUS_MULTIPLIER", func(v []interface{}) { info.BonusMultiplier = v[0].(*big.Int) }},
		{"bonusEndBlock", func(v []interface{}) { info.BonusEndBlock = v[0].(*big.Int) }},
		{"devaddr", func(v []interface{}) { info.Devaddr = v[0].(common.Address) }},
		{"migrator", func(v []interface{}) { info.Migrator = v[0].(common.Address) }},
		{"owner", func(v []interface{}) { info.Owner = v[0].(common.Address) }},
		{"startBlock", func(v []interface{}) { info.StartBlock = v[0].(*big.Int) }},
		{"acePerBlock", func(v []interface{}) { info.AcePerBlock = v[0].(*big.Int) }},
		{"totalAllocPoint", func(v []interface{}) { info.TotalAllocPoint = v[0].(*big.Int) }},
	}

	for _, read := range reads {
		values, err := c.call(ctx, c.chefABI, c.chefAddress, block, read.method)
		if err != nil {
			return ChefInfo{}, err
		}
		read.assign(values)
	}

	return info, nil
}

func (c *Client) TotalAllocPoint(ctx context.Context, block uint64) (*big.Int, error) {
	values, err := c.call(ctx, c.chefABI, c.chefAddress, block, "totalAllocPoint")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func (c *Client) Reserves(ctx context.Context, pair common.Address, block uint64) (Reserves, error) {
	values, err := c.call(ctx, c.pairABI, pair, block, "getReserves")
	if err != nil {
		return Reserves{}, err
	}
	return Reserves{
		Reserve0: values[0].(*big.Int),
		Reserve1: values[1].(*big.Int),
	}, nil
}

func (c *Client) TotalSupply(ctx context.Context, token common.Address, block uint64) (*big.Int, error) {
	values, err := c.call(ctx, c.erc20ABI, token, block, "totalSupply")
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func (c *Client) BalanceOf(ctx context.Context, token, holder common.Address, block uint64) (*big.Int, error) {
	values, err := c.call(ctx, c.erc20ABI, token, block, "balanceOf", holder)
	if err != nil {
		return nil, err
	}
	return values[0].(*big.Int), nil
}

func (c *Client) Token0(ctx context.Context, pair common.Address, block uint64) (common.Address, error) {
	values, err := c.call(ctx, c.pairABI, pair, block, "token0")
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

func (c *Client) Token1(ctx context.Context, pair common.Address, block uint64) (common.Address, error) {
	values, err := c.call(ctx, c.pairABI, pair, block, "token1")
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

func (c *Client) GetPair(ctx context.Context, factory, tokenA, tokenB common.Address, block uint64) (common.Address, error) {
	values, err := c.call(ctx, c.factoryABI, factory, block, "getPair", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	return values[0].(common.Address), nil
}

func (c *Client) TokenInfo(ctx context.Context, token common.Address, block uint64) (TokenInfo, error) {
	info := TokenInfo{}

	values, err := c.call(ctx, c.erc20ABI, token, block, "name")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Name = values[0].(string)

	values, err = c.call(ctx, c.erc20ABI, token, block, "symbol")
	if err != nil {
		return TokenInfo{}, err
	}
	info.Symbol = values[0].(string)

	decimals, err := c.TokenDecimals(ctx, token, block)
	if err != nil {
		return TokenInfo{}, err
	}
	info.Decimals = decimals

	return info, nil
}

func (c *Client) TokenDecimals(ctx context.Context, token common.Address, block uint64) (int32, error) {
	values, err := c.call(ctx, c.erc20ABI, token, block, "decimals")
	if err != nil {
		return 0, err
	}
	return int32(values[0].(uint8)), nil
}

// PairTokens holds the prefetched token pair of an LP contract.
type PairTokens struct {
	Pair   common.Address
	Token0 common.Address
	Token1 common.Address
	Err    error
}

// PrefetchPairTokens resolves token0/token1 for a set of pairs with bounded
// concurrency. Engine processing stays strictly sequential; this only batches
// the read-only pair lookups the repricing pass needs.
func (c *Client) PrefetchPairTokens(ctx context.Context, pairs []common.Address, block uint64, maxInFlight int64) []PairTokens {
	if maxInFlight <= 0 {
		maxInFlight = 8
	}

	sem := semaphore.NewWeighted(maxInFlight)
	results := make([]PairTokens, len(pairs))

	for i, pair := range pairs {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = PairTokens{Pair: pair, Err: err}
			continue
		}
		go func(i int, pair common.Address) {
			defer sem.Release(1)
			token0, err := c.Token0(ctx, pair, block)
			if err != nil {
				results[i] = PairTokens{Pair: pair, Err: err}
				return
			}
			token1, err := c.Token1(ctx, pair, block)
			if err != nil {
				results[i] = PairTokens{Pair: pair, Err: err}
				return
			}
			results[i] = PairTokens{Pair: pair, Token0: token0, Token1: token1}
		}(i, pair)
	}

	// Wait for all in-flight reads to finish.
	if err := sem.Acquire(ctx, maxInFlight); err == nil {
		sem.Release(maxInFlight)
	}

	return results
}

func (c *Client) Close() {
	c.rpc.Close()
}

// LatestBlockNumber returns the node's current head block.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	number, err := c.rpc.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	return number, nil
}
