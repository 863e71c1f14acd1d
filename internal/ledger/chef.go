package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
)

// FarmEvent is a Deposit, Withdraw, or EmergencyWithdraw log on the chef.
type FarmEvent struct {
	Event
	PID    uint64
	User   string
	Amount *big.Int
}

// CallEvent is a successful admin transaction to the chef, delivered with its
// decoded arguments by the handler layer.
type CallEvent struct {
	Event
	From string
}

// Deposit settles a Deposit event: accrues pool and chef age, harvests any
// pending reward implied by the rewardDebt change, refreshes the position from
// chain state, and values the entry in USD from pair reserves.
func (l *Ledger) Deposit(ctx context.Context, ev FarmEvent) (Outcome, error) {
	return l.settleFarmEvent(ctx, ev, false)
}

// Withdraw settles a Withdraw event, the mirror of Deposit: age leaves the
// pool proportionally and the exit is valued in USD.
func (l *Ledger) Withdraw(ctx context.Context, ev FarmEvent) (Outcome, error) {
	return l.settleFarmEvent(ctx, ev, true)
}

func (l *Ledger) settleFarmEvent(ctx context.Context, ev FarmEvent, withdrawal bool) (Outcome, error) {
	amount := tokenAmount(ev.Amount)

	pool, err := l.getPool(ctx, ev.PID, ev.Event)
	if errors.Is(err, errPoolOutOfRange) {
		l.logger.Warn().Uint64("pool", ev.PID).Str("tx", ev.TxHash).Msg("Skipping farm event for unknown pool")
		return skipped("pool id out of range"), nil
	}
	if err != nil {
		return failed("pool load"), err
	}

	info, err := l.chain.PoolInfo(ctx, ev.PID, ev.Block)
	if err != nil {
		return failed("pool info read"), err
	}
	balance, err := l.chain.BalanceOf(ctx, common.HexToAddress(pool.Pair), l.cfg.ChefAddress, ev.Block)
	if err != nil {
		return failed("pool balance read"), err
	}

	pool.AllocPoint = info.AllocPoint
	pool.LastRewardBlock = info.LastRewardBlock
	pool.AccAcePerShare = info.AccAcePerShare
	pool.Balance = balance

	// Pool age accrues on the aggregate balance held before this event.
	pool.AlpAge = ElapsedAge(pool.AlpAge, pool.AlpBalance, pool.UpdatedAt, ev.Timestamp)
	var poolAgeRemoved decimal.Decimal
	if withdrawal {
		poolAgeRemoved, pool.AlpAge = RemoveAge(pool.AlpAge, pool.AlpBalance, amount)
		pool.AlpAgeRemoved = pool.AlpAgeRemoved.Add(poolAgeRemoved)
		pool.AlpWithdrawn = pool.AlpWithdrawn.Add(amount)
		pool.AlpBalance = pool.AlpBalance.Sub(amount)
	} else {
		pool.AlpDeposited = pool.AlpDeposited.Add(amount)
		pool.AlpBalance = pool.AlpBalance.Add(amount)
	}
	pool.UpdatedAt = ev.Timestamp

	user, err := l.getPoolUser(ctx, ev.PID, ev.User, ev.Event)
	if err != nil {
		return failed("pool user load"), err
	}

	if !withdrawal && !user.InPool && ev.Amount.Sign() > 0 {
		user.InPool = true
		pool.UserCount++
	}

	// A rewardDebt change against the unchanged stake is a harvest. Rewards
	// only flow once the chain passes the configured start block; a position
	// with no stake has nothing pending.
	harvested := decimal.Zero
	harvestedUSD := decimal.Zero
	if ev.Block > l.cfg.RewardStartBlock && user.Amount.Sign() > 0 {
		pending := decimal.NewFromBigInt(user.Amount, 0).
			Mul(decimal.NewFromBigInt(pool.AccAcePerShare, 0)).
			Div(rewardPrecision).
			Sub(decimal.NewFromBigInt(user.RewardDebt, 0)).
			Shift(-18)
		if pending.IsPositive() {
			acePrice, err := l.prices.AcePrice(ctx, ev.Block)
			if err != nil {
				return failed("ace price read"), err
			}
			harvested = pending
			harvestedUSD = pending.Mul(acePrice)

			user.AceHarvested = user.AceHarvested.Add(harvested)
			user.AceHarvestedUSD = user.AceHarvestedUSD.Add(harvestedUSD)
			pool.AceHarvested = pool.AceHarvested.Add(harvested)
			pool.AceHarvestedUSD = pool.AceHarvestedUSD.Add(harvestedUSD)
		}
	}

	position, err := l.chain.UserInfo(ctx, ev.PID, common.HexToAddress(user.Address), ev.Block)
	if err != nil {
		return failed("user info read"), err
	}
	user.Amount = position.Amount
	user.RewardDebt = position.RewardDebt
	user.Timestamp = ev.Timestamp
	user.Block = ev.Block

	if withdrawal && user.InPool && user.Amount.Sign() == 0 {
		user.InPool = false
		if pool.UserCount > 0 {
			pool.UserCount--
		}
	}

	// Value the moved LP amount in USD from the pair's reserves. A reverted
	// reserve read only skips the valuation; the event still applies.
	valuation, valued, err := l.valueLiquidity(ctx, pool.Pair, amount, ev.Block)
	if err != nil {
		return failed("liquidity valuation"), err
	}
	if valued {
		if withdrawal {
			user.ExitUSD = user.ExitUSD.Add(valuation)
			pool.ExitUSD = pool.ExitUSD.Add(valuation)
		} else {
			user.EntryUSD = user.EntryUSD.Add(valuation)
			pool.EntryUSD = pool.EntryUSD.Add(valuation)
		}
	}

	if err := l.store.PutPoolUser(ctx, user); err != nil {
		return failed("pool user save"), fmt.Errorf("failed to save pool user: %w", err)
	}
	if err := l.store.PutPool(ctx, pool); err != nil {
		return failed("pool save"), fmt.Errorf("failed to save pool: %w", err)
	}

	chef, err := l.getChef(ctx, ev.Event)
	if err != nil {
		return failed("chef load"), err
	}
	chef.AlpAge = ElapsedAge(chef.AlpAge, chef.AlpBalance, chef.UpdatedAt, ev.Timestamp)
	var chefAgeRemoved decimal.Decimal
	if withdrawal {
		chefAgeRemoved, chef.AlpAge = RemoveAge(chef.AlpAge, chef.AlpBalance, amount)
		chef.AlpAgeRemoved = chef.AlpAgeRemoved.Add(chefAgeRemoved)
		chef.AlpWithdrawn = chef.AlpWithdrawn.Add(amount)
		chef.AlpBalance = chef.AlpBalance.Sub(amount)
	} else {
		chef.AlpDeposited = chef.AlpDeposited.Add(amount)
		chef.AlpBalance = chef.AlpBalance.Add(amount)
	}
	chef.UpdatedAt = ev.Timestamp

	if err := l.store.PutChef(ctx, chef); err != nil {
		return failed("chef save"), fmt.Errorf("failed to save chef: %w", err)
	}

	if err := l.foldFarmHistory(ctx, chef, pool, ev.Event, farmDelta{
		withdrawal:     withdrawal,
		amount:         amount,
		poolAgeRemoved: poolAgeRemoved,
		chefAgeRemoved: chefAgeRemoved,
	}); err != nil {
		return failed("history save"), err
	}

	if !valued {
		return Outcome{Status: Applied, Reason: "liquidity valuation skipped"}, nil
	}
	return applied(), nil
}

// valueLiquidity prices an LP token amount in USD: the holder's share of the
// pair's reserves, each leg valued at its token's USD rate. Returns valued ==
// false when the reserve read reverts or the pair has no supply.
func (l *Ledger) valueLiquidity(ctx context.Context, pair string, amount decimal.Decimal, block uint64) (decimal.Decimal, bool, error) {
	if amount.IsZero() {
		return decimal.Zero, false, nil
	}

	pairAddress := common.HexToAddress(pair)

	reserves, err := l.chain.Reserves(ctx, pairAddress, block)
	if errors.Is(err, chain.ErrReverted) {
		l.logger.Info().Str("pair", pair).Uint64("block", block).Msg("Reserve read reverted, skipping valuation")
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}

	supply, err := l.chain.TotalSupply(ctx, pairAddress, block)
	if err != nil {
		return decimal.Zero, false, err
	}
	if supply.Sign() == 0 {
		return decimal.Zero, false, nil
	}
	share := amount.Div(tokenAmount(supply))

	token0, err := l.chain.Token0(ctx, pairAddress, block)
	if err != nil {
		return decimal.Zero, false, err
	}
	token1, err := l.chain.Token1(ctx, pairAddress, block)
	if err != nil {
		return decimal.Zero, false, err
	}

	legUSD := func(token common.Address, reserve *big.Int) (decimal.Decimal, error) {
		decimals, err := l.chain.TokenDecimals(ctx, token, block)
		if err != nil {
			return decimal.Zero, err
		}
		rate, err := l.prices.USDRate(ctx, token, block)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(reserve, -decimals).Mul(share).Mul(rate), nil
	}

	usd0, err := legUSD(token0, reserves.Reserve0)
	if err != nil {
		return decimal.Zero, false, err
	}
	usd1, err := legUSD(token1, reserves.Reserve1)
	if err != nil {
		return decimal.Zero, false, err
	}

	return usd0.Add(usd1), true, nil
}

type farmDelta struct {
	withdrawal     bool
	amount         decimal.Decimal
	poolAgeRemoved decimal.Decimal
	chefAgeRemoved decimal.Decimal
}

// foldFarmHistory updates the day buckets of the chef and the pool. Flow
// fields accumulate within the day; balances, ages, and the cumulative USD
// and harvest totals are snapshots of the latest settled state.
func (l *Ledger) foldFarmHistory(ctx context.Context, chef *entities.MasterChef, pool *entities.Pool, ev Event, delta farmDelta) error {
	chefHistory, err := l.getFarmHistory(ctx, chef.Address, ev)
	if err != nil {
		return err
	}
	chefHistory.AlpAge = chef.AlpAge
	chefHistory.AlpBalance = chef.AlpBalance
	chefHistory.Timestamp = ev.Timestamp
	chefHistory.Block = ev.Block
	if delta.withdrawal {
		chefHistory.AlpAgeRemoved = chefHistory.AlpAgeRemoved.Add(delta.chefAgeRemoved)
		chefHistory.AlpWithdrawn = chefHistory.AlpWithdrawn.Add(delta.amount)
	} else {
		chefHistory.AlpDeposited = chefHistory.AlpDeposited.Add(delta.amount)
	}
	if err := l.store.PutFarmHistory(ctx, chefHistory); err != nil {
		return fmt.Errorf("failed to save chef history: %w", err)
	}

	poolHistory, err := l.getFarmHistory(ctx, strconv.FormatUint(pool.ID, 10), ev)
	if err != nil {
		return err
	}
	poolHistory.AlpAge = pool.AlpAge
	poolHistory.AlpBalance = tokenAmount(pool.Balance)
	poolHistory.UserCount = pool.UserCount
	poolHistory.EntryUSD = pool.EntryUSD
	poolHistory.ExitUSD = pool.ExitUSD
	poolHistory.AceHarvested = pool.AceHarvested
	poolHistory.AceHarvestedUSD = pool.AceHarvestedUSD
	poolHistory.Timestamp = ev.Timestamp
	poolHistory.Block = ev.Block
	if delta.withdrawal {
		poolHistory.AlpAgeRemoved = poolHistory.AlpAgeRemoved.Add(delta.poolAgeRemoved)
		poolHistory.AlpWithdrawn = poolHistory.AlpWithdrawn.Add(delta.amount)
	} else {
		poolHistory.AlpDeposited = poolHistory.AlpDeposited.Add(delta.amount)
	}
	if err := l.store.PutFarmHistory(ctx, poolHistory); err != nil {
		return fmt.Errorf("failed to save pool history: %w", err)
	}
	return nil
}

// EmergencyWithdraw settles an emergency exit: the position forfeits any
// pending reward, so amount and rewardDebt reset to zero and only the pool's
// LP balance is refreshed. No age or valuation accounting runs.
func (l *Ledger) EmergencyWithdraw(ctx context.Context, ev FarmEvent) (Outcome, error) {
	pool, err := l.getPool(ctx, ev.PID, ev.Event)
	if errors.Is(err, errPoolOutOfRange) {
		l.logger.Warn().Uint64("pool", ev.PID).Str("tx", ev.TxHash).Msg("Skipping emergency withdraw for unknown pool")
		return skipped("pool id out of range"), nil
	}
	if err != nil {
		return failed("pool load"), err
	}

	balance, err := l.chain.BalanceOf(ctx, common.HexToAddress(pool.Pair), l.cfg.ChefAddress, ev.Block)
	if err != nil {
		return failed("pool balance read"), err
	}
	pool.Balance = balance

	user, err := l.getPoolUser(ctx, ev.PID, ev.User, ev.Event)
	if err != nil {
		return failed("pool user load"), err
	}
	user.Amount = big.NewInt(0)
	user.RewardDebt = big.NewInt(0)
	user.Timestamp = ev.Timestamp
	user.Block = ev.Block
	if user.InPool {
		user.InPool = false
		if pool.UserCount > 0 {
			pool.UserCount--
		}
	}

	if err := l.store.PutPoolUser(ctx, user); err != nil {
		return failed("pool user save"), fmt.Errorf("failed to save pool user: %w", err)
	}
	if err := l.store.PutPool(ctx, pool); err != nil {
		return failed("pool save"), fmt.Errorf("failed to save pool: %w", err)
	}
	return applied(), nil
}

// AddPool settles a successful add() call by registering the new pool and
// refreshing the chef's allocation totals.
func (l *Ledger) AddPool(ctx context.Context, ev CallEvent) (Outcome, error) {
	chef, err := l.getChef(ctx, ev.Event)
	if err != nil {
		return failed("chef load"), err
	}

	length, err := l.chain.PoolLength(ctx, ev.Block)
	if err != nil {
		return failed("pool length read"), err
	}
	chef.PoolCount = length

	total, err := l.chain.TotalAllocPoint(ctx, ev.Block)
	if err != nil {
		return failed("total alloc point read"), err
	}
	chef.TotalAllocPoint = total
	chef.UpdatedAt = ev.Timestamp

	if err := l.store.PutChef(ctx, chef); err != nil {
		return failed("chef save"), fmt.Errorf("failed to save chef: %w", err)
	}

	// Materialize the new pool entity right away so the first Deposit does not
	// have to race poolLength().
	if length > 0 {
		if _, err := l.getPool(ctx, length-1, ev.Event); err != nil && !errors.Is(err, errPoolOutOfRange) {
			return failed("pool create"), err
		}
	}
	return applied(), nil
}

// SetPool settles a successful set() call by refreshing the pool's allocation
// point and the chef's total.
func (l *Ledger) SetPool(ctx context.Context, ev CallEvent, pid uint64) (Outcome, error) {
	pool, err := l.getPool(ctx, pid, ev.Event)
	if errors.Is(err, errPoolOutOfRange) {
		l.logger.Warn().Uint64("pool", pid).Str("tx", ev.TxHash).Msg("Skipping set for unknown pool")
		return skipped("pool id out of range"), nil
	}
	if err != nil {
		return failed("pool load"), err
	}

	info, err := l.chain.PoolInfo(ctx, pid, ev.Block)
	if err != nil {
		return failed("pool info read"), err
	}
	pool.AllocPoint = info.AllocPoint

	if err := l.store.PutPool(ctx, pool); err != nil {
		return failed("pool save"), fmt.Errorf("failed to save pool: %w", err)
	}

	chef, err := l.getChef(ctx, ev.Event)
	if err != nil {
		return failed("chef load"), err
	}
	total, err := l.chain.TotalAllocPoint(ctx, ev.Block)
	if err != nil {
		return failed("total alloc point read"), err
	}
	chef.TotalAllocPoint = total
	chef.UpdatedAt = ev.Timestamp

	if err := l.store.PutChef(ctx, chef); err != nil {
		return failed("chef save"), fmt.Errorf("failed to save chef: %w", err)
	}
	return applied(), nil
}

// UpdatePool settles a successful updatePool() call by refreshing the pool's
// reward bookkeeping from chain state.
func (l *Ledger) UpdatePool(ctx context.Context, ev CallEvent, pid uint64) (Outcome, error) {
	pool, err := l.getPool(ctx, pid, ev.Event)
	if errors.Is(err, errPoolOutOfRange) {
		l.logger.Warn().Uint64("pool", pid).Str("tx", ev.TxHash).Msg("Skipping update for unknown pool")
		return skipped("pool id out of range"), nil
	}
	if err != nil {
		return failed("pool load"), err
	}

	info, err := l.chain.PoolInfo(ctx, pid, ev.Block)
	if err != nil {
		return failed("pool info read"), err
	}
	pool.LastRewardBlock = info.LastRewardBlock
	pool.AccAcePerShare = info.AccAcePerShare

	if err := l.store.PutPool(ctx, pool); err != nil {
		return failed("pool save"), fmt.Errorf("failed to save pool: %w", err)
	}
	return applied(), nil
}

// MassUpdatePools acknowledges a massUpdatePools() call. Per-pool reward
// bookkeeping is refreshed lazily on the next event touching each pool, so
// there is nothing to settle here.
func (l *Ledger) MassUpdatePools(ctx context.Context, ev CallEvent) (Outcome, error) {
	l.logger.Debug().Str("tx", ev.TxHash).Msg("Observed massUpdatePools call")
	return applied(), nil
}

// Migrate settles a successful migrate() call: the pool's LP token may have
// changed, so re-read its pair and balance.
func (l *Ledger) Migrate(ctx context.Context, ev CallEvent, pid uint64) (Outcome, error) {
	pool, err := l.getPool(ctx, pid, ev.Event)
	if errors.Is(err, errPoolOutOfRange) {
		l.logger.Warn().Uint64("pool", pid).Str("tx", ev.TxHash).Msg("Skipping migrate for unknown pool")
		return skipped("pool id out of range"), nil
	}
	if err != nil {
		return failed("pool load"), err
	}

	info, err := l.chain.PoolInfo(ctx, pid, ev.Block)
	if err != nil {
		return failed("pool info read"), err
	}
	pool.Pair = normalizeAddress(info.Pair.Hex())

	balance, err := l.chain.BalanceOf(ctx, info.Pair, l.cfg.ChefAddress, ev.Block)
	if err != nil {
		return failed("pool balance read"), err
	}
	pool.Balance = balance

	if err := l.store.PutPool(ctx, pool); err != nil {
		return failed("pool save"), fmt.Errorf("failed to save pool: %w", err)
	}
	return applied(), nil
}

// SetMigrator settles a successful setMigrator() call.
func (l *Ledger) SetMigrator(ctx context.Context, ev CallEvent, migrator string) (Outcome, error) {
	return l.updateChef(ctx, ev, func(chef *entities.MasterChef) {
		chef.Migrator = normalizeAddress(migrator)
	})
}

// SetDev settles a successful dev() call.
func (l *Ledger) SetDev(ctx context.Context, ev CallEvent, devaddr string) (Outcome, error) {
	return l.updateChef(ctx, ev, func(chef *entities.MasterChef) {
		chef.Devaddr = normalizeAddress(devaddr)
	})
}

// OwnershipTransferred settles the chef's OwnershipTransferred event.
func (l *Ledger) OwnershipTransferred(ctx context.Context, ev Event, newOwner string) (Outcome, error) {
	return l.updateChef(ctx, CallEvent{Event: ev}, func(chef *entities.MasterChef) {
		chef.Owner = normalizeAddress(newOwner)
	})
}

func (l *Ledger) updateChef(ctx context.Context, ev CallEvent, apply func(*entities.MasterChef)) (Outcome, error) {
	chef, err := l.getChef(ctx, ev.Event)
	if err != nil {
		return failed("chef load"), err
	}
	apply(chef)
	chef.UpdatedAt = ev.Timestamp

	if err := l.store.PutChef(ctx, chef); err != nil {
		return failed("chef save"), fmt.Errorf("failed to save chef: %w", err)
	}
	return applied(), nil
}
