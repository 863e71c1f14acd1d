package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ErrReverted marks a contract read that reverted. Callers that can tolerate
// it (reserve reads during entry/exit valuation) skip the sub-step; every
// other failure is propagated as a hard error for the event.
var ErrReverted = errors.New("contract read reverted")

// PoolInfo mirrors MasterChef.poolInfo(pid).
type PoolInfo struct {
	Pair            common.Address
	AllocPoint      *big.Int
	LastRewardBlock *big.Int
	AccAcePerShare  *big.Int
}

// UserInfo mirrors MasterChef.userInfo(pid, user).
type UserInfo struct {
	Amount     *big.Int
	RewardDebt *big.Int
}

// Reserves mirrors Pair.getReserves().
type Reserves struct {
	Reserve0 *big.Int
	Reserve1 *big.Int
}

// ChefInfo is the configuration snapshot read once when the chef ledger is
// first created.
type ChefInfo struct {
	BonusMultiplier *big.Int
	BonusEndBlock   *big.Int
	Devaddr         common.Address
	Migrator        common.Address
	Owner           common.Address
	StartBlock      *big.Int
	AcePerBlock     *big.Int
	TotalAllocPoint *big.Int
}

// TokenInfo is the metadata snapshot read once when the bar ledger is first
// created.
type TokenInfo struct {
	Name     string
	Symbol   string
	Decimals int32
}

// StateOracle provides point-in-time reads of contract state at a given block.
// All reads are synchronous; the engine blocks on them before applying the
// triggering event.
type StateOracle interface {
	PoolLength(ctx context.Context, block uint64) (uint64, error)
	PoolInfo(ctx context.Context, pid uint64, block uint64) (PoolInfo, error)
	UserInfo(ctx context.Context, pid uint64, user common.Address, block uint64) (UserInfo, error)
	ChefInfo(ctx context.Context, block uint64) (ChefInfo, error)
	TotalAllocPoint(ctx context.Context, block uint64) (*big.Int, error)

	Reserves(ctx context.Context, pair common.Address, block uint64) (Reserves, error)
	TotalSupply(ctx context.Context, token common.Address, block uint64) (*big.Int, error)
	BalanceOf(ctx context.Context, token, holder common.Address, block uint64) (*big.Int, error)
	Token0(ctx context.Context, pair common.Address, block uint64) (common.Address, error)
	Token1(ctx context.Context, pair common.Address, block uint64) (common.Address, error)
	GetPair(ctx context.Context, factory, tokenA, tokenB common.Address, block uint64) (common.Address, error)

	TokenInfo(ctx context.Context, token common.Address, block uint64) (TokenInfo, error)
	TokenDecimals(ctx context.Context, token common.Address, block uint64) (int32, error)
}
