package entities

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Bar is the global ledger for the single-asset staking contract. xACE is the
// weighted-share token minted against staked ACE; Ratio converts between the
// two at the last processed event.
type Bar struct {
	Address  string
	Name     string
	Symbol   string
	Decimals int32
	Ace      string // staked token address

	TotalSupply     decimal.Decimal
	AceStaked       decimal.Decimal
	AceStakedUSD    decimal.Decimal
	AceHarvested    decimal.Decimal
	AceHarvestedUSD decimal.Decimal
	XAceMinted      decimal.Decimal
	XAceBurned      decimal.Decimal
	XAceAge         decimal.Decimal
	XAceAgeDestroyed decimal.Decimal
	Ratio           decimal.Decimal

	UpdatedAt int64
}

// Supply is the xACE amount the bar tracks for its own elapsed-age step.
// Transfers move balance between users without changing it.
func (b *Bar) Supply() decimal.Decimal {
	return b.XAceMinted.Sub(b.XAceBurned)
}

// BarUser is the per-address ledger for the bar flow. InBar is false while the
// address holds no xACE; the directional In/Out/Offset counters drive the
// transfer cost-basis reconciliation.
type BarUser struct {
	Address string
	InBar   bool

	XAce       decimal.Decimal
	XAceMinted decimal.Decimal
	XAceBurned decimal.Decimal

	AceStaked    decimal.Decimal
	AceStakedUSD decimal.Decimal

	AceHarvested    decimal.Decimal
	AceHarvestedUSD decimal.Decimal

	XAceOut decimal.Decimal
	AceOut  decimal.Decimal
	UsdOut  decimal.Decimal

	XAceIn decimal.Decimal
	AceIn  decimal.Decimal
	UsdIn  decimal.Decimal

	XAceAge          decimal.Decimal
	XAceAgeDestroyed decimal.Decimal

	XAceOffset decimal.Decimal
	AceOffset  decimal.Decimal
	UsdOffset  decimal.Decimal

	UpdatedAt int64
}

// MasterChef is the global ledger for the farm. Configuration fields mirror
// the contract; the Alp* aggregates track LP balance and age across all pools.
type MasterChef struct {
	Address string

	BonusMultiplier *big.Int
	BonusEndBlock   *big.Int
	Devaddr         string
	Migrator        string
	Owner           string
	StartBlock      *big.Int
	AcePerBlock     *big.Int
	TotalAllocPoint *big.Int
	PoolCount       uint64

	AlpBalance   decimal.Decimal
	AlpAge       decimal.Decimal
	AlpAgeRemoved decimal.Decimal
	AlpDeposited decimal.Decimal
	AlpWithdrawn decimal.Decimal

	UpdatedAt int64
}

// Pool is the per-pool ledger. Balance is the raw LP balance held by the chef
// as read from the pair contract; AlpBalance is the decimal aggregate the age
// accounting runs on.
type Pool struct {
	ID    uint64
	Owner string // chef address

	Pair            string
	AllocPoint      *big.Int
	LastRewardBlock *big.Int
	AccAcePerShare  *big.Int

	Balance   *big.Int
	UserCount uint64

	AlpBalance   decimal.Decimal
	AlpAge       decimal.Decimal
	AlpAgeRemoved decimal.Decimal
	AlpDeposited decimal.Decimal
	AlpWithdrawn decimal.Decimal

	EntryUSD        decimal.Decimal
	ExitUSD         decimal.Decimal
	AceHarvested    decimal.Decimal
	AceHarvestedUSD decimal.Decimal
	TvlUSD          decimal.Decimal

	Timestamp int64
	Block     uint64
	UpdatedAt int64
}

// PoolUser is a stake position in one pool. InPool is false while Amount is
// zero; Amount and RewardDebt are the raw on-chain values.
type PoolUser struct {
	PoolID  uint64
	Address string
	InPool  bool

	Amount     *big.Int
	RewardDebt *big.Int

	AceHarvested    decimal.Decimal
	AceHarvestedUSD decimal.Decimal
	EntryUSD        decimal.Decimal
	ExitUSD         decimal.Decimal

	Timestamp int64
	Block     uint64
}

// BarHistory is the day bucket for the bar ledger. Counter fields accumulate
// within the day; snapshot fields hold the latest value.
type BarHistory struct {
	Day  int64
	Date int64

	AceStaked        decimal.Decimal
	AceStakedUSD     decimal.Decimal
	AceHarvested     decimal.Decimal
	AceHarvestedUSD  decimal.Decimal
	XAceAge          decimal.Decimal
	XAceAgeDestroyed decimal.Decimal
	XAceMinted       decimal.Decimal
	XAceBurned       decimal.Decimal
	XAceSupply       decimal.Decimal
	Ratio            decimal.Decimal
}

// FarmHistory is the day bucket for a farm scope: the chef address for the
// global ledger, or the pool id rendered as a string for a single pool.
type FarmHistory struct {
	Scope string
	Day   int64

	AlpBalance   decimal.Decimal
	AlpAge       decimal.Decimal
	AlpAgeRemoved decimal.Decimal
	AlpDeposited decimal.Decimal
	AlpWithdrawn decimal.Decimal

	EntryUSD        decimal.Decimal
	ExitUSD         decimal.Decimal
	AceHarvested    decimal.Decimal
	AceHarvestedUSD decimal.Decimal
	UserCount       uint64

	Timestamp int64
	Block     uint64
}
