package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
)

func TestDepositCreatesPosition(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{usdRate: dec("2"), acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.balances[pairAddress] = raw(10)
	oracle.supplies[pairAddress] = raw(100)
	oracle.reserves = chain.Reserves{Reserve0: raw(1000), Reserve1: raw(500)}
	oracle.userInfo = chain.UserInfo{Amount: raw(10), RewardDebt: big.NewInt(0)}

	outcome, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 2000, Timestamp: t0, TxHash: "0x1"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)
	assert.Empty(t, outcome.Reason)

	pool, err := st.GetPool(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, normalizeAddress(pairAddress.Hex()), pool.Pair)
	assert.Equal(t, uint64(1), pool.UserCount)
	assert.True(t, pool.AlpBalance.Equal(dec("10")))
	assert.True(t, pool.AlpDeposited.Equal(dec("10")))
	// 10 LP at a 10% share of reserves (1000, 500), both legs at 2 USD.
	assert.True(t, pool.EntryUSD.Equal(dec("300")), "entry %s", pool.EntryUSD)

	user, err := st.GetPoolUser(ctx, 0, aliceAddress)
	require.NoError(t, err)
	assert.True(t, user.InPool)
	assert.Equal(t, 0, user.Amount.Cmp(raw(10)))
	assert.True(t, user.EntryUSD.Equal(dec("300")))
	assert.True(t, user.AceHarvested.IsZero())

	chef, err := st.GetChef(ctx, normalizeAddress(chefAddress.Hex()))
	require.NoError(t, err)
	assert.True(t, chef.AlpBalance.Equal(dec("10")))
	assert.True(t, chef.AlpDeposited.Equal(dec("10")))

	poolHistory, err := st.GetFarmHistory(ctx, "0", 10)
	require.NoError(t, err)
	assert.True(t, poolHistory.AlpDeposited.Equal(dec("10")))
	assert.True(t, poolHistory.EntryUSD.Equal(dec("300")))
	assert.Equal(t, uint64(1), poolHistory.UserCount)

	chefHistory, err := st.GetFarmHistory(ctx, normalizeAddress(chefAddress.Hex()), 10)
	require.NoError(t, err)
	assert.True(t, chefHistory.AlpDeposited.Equal(dec("10")))
}

func TestWithdrawHarvestsPendingReward(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{usdRate: dec("2"), acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.balances[pairAddress] = raw(10)
	oracle.supplies[pairAddress] = raw(100)
	oracle.reserves = chain.Reserves{Reserve0: raw(1000), Reserve1: raw(500)}
	oracle.userInfo = chain.UserInfo{Amount: raw(10), RewardDebt: big.NewInt(0)}

	_, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 2000, Timestamp: t0, TxHash: "0x1"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)

	// A day later the accumulator advanced to 5e12; the stored position of 10
	// LP with zero reward debt implies 50 ACE pending.
	t1 := t0 + 86400
	oracle.poolInfo.AccAcePerShare = big.NewInt(5e12)
	oracle.balances[pairAddress] = raw(5)
	oracle.userInfo = chain.UserInfo{
		Amount:     raw(5),
		RewardDebt: new(big.Int).Mul(raw(5), big.NewInt(5)),
	}

	outcome, err := lg.Withdraw(ctx, FarmEvent{
		Event:  Event{Block: 3000, Timestamp: t1, TxHash: "0x2"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(5),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)

	user, err := st.GetPoolUser(ctx, 0, aliceAddress)
	require.NoError(t, err)
	assert.True(t, user.InPool)
	assert.True(t, user.AceHarvested.Equal(dec("50")), "harvested %s", user.AceHarvested)
	assert.True(t, user.AceHarvestedUSD.Equal(dec("100")))
	// 5 LP at a 5% share of reserves (1000, 500), both legs at 2 USD.
	assert.True(t, user.ExitUSD.Equal(dec("150")))
	assert.Equal(t, 0, user.Amount.Cmp(raw(5)))

	pool, err := st.GetPool(ctx, 0)
	require.NoError(t, err)
	// 10 balance-days accrued, half removed with half the balance.
	assert.True(t, pool.AlpAge.Equal(dec("5")), "age %s", pool.AlpAge)
	assert.True(t, pool.AlpAgeRemoved.Equal(dec("5")))
	assert.True(t, pool.AlpWithdrawn.Equal(dec("5")))
	assert.True(t, pool.AlpBalance.Equal(dec("5")))
	assert.True(t, pool.AceHarvested.Equal(dec("50")))
	assert.Equal(t, uint64(1), pool.UserCount)

	poolHistory, err := st.GetFarmHistory(ctx, "0", 11)
	require.NoError(t, err)
	assert.True(t, poolHistory.AlpWithdrawn.Equal(dec("5")))
	assert.True(t, poolHistory.ExitUSD.Equal(dec("150")))
	assert.True(t, poolHistory.AceHarvested.Equal(dec("50")))
}

func TestFarmHistorySnapshotsCumulativeTotals(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{usdRate: dec("2"), acePrice: dec("2")})

	day10 := int64(86400 * 10)
	oracle.balances[pairAddress] = raw(10)
	oracle.supplies[pairAddress] = raw(100)
	oracle.reserves = chain.Reserves{Reserve0: raw(1000), Reserve1: raw(500)}
	oracle.userInfo = chain.UserInfo{Amount: raw(10), RewardDebt: big.NewInt(0)}

	_, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 2000, Timestamp: day10, TxHash: "0x1"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)

	// Next day the chef holds more LP than the deposits account for (a direct
	// transfer); the bucket must snapshot the on-chain balance regardless.
	day11 := day10 + 86400
	oracle.balances[pairAddress] = raw(25)
	oracle.userInfo = chain.UserInfo{Amount: raw(20), RewardDebt: big.NewInt(0)}

	_, err = lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 3000, Timestamp: day11, TxHash: "0x2"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)

	pool, err := st.GetPool(ctx, 0)
	require.NoError(t, err)
	assert.True(t, pool.EntryUSD.Equal(dec("600")), "entry %s", pool.EntryUSD)
	assert.True(t, pool.AlpBalance.Equal(dec("20")))

	day10History, err := st.GetFarmHistory(ctx, "0", 10)
	require.NoError(t, err)
	assert.True(t, day10History.EntryUSD.Equal(dec("300")))
	assert.True(t, day10History.AlpDeposited.Equal(dec("10")))

	// The new day's bucket carries the cumulative entry total, not just the
	// day's flow, while deposited stays per-day.
	day11History, err := st.GetFarmHistory(ctx, "0", 11)
	require.NoError(t, err)
	assert.True(t, day11History.EntryUSD.Equal(dec("600")), "entry %s", day11History.EntryUSD)
	assert.True(t, day11History.AlpDeposited.Equal(dec("10")))
	assert.True(t, day11History.AlpBalance.Equal(dec("25")), "balance %s", day11History.AlpBalance)
}

func TestDepositBeforeRewardStartSkipsHarvest(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{usdRate: dec("2"), acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.balances[pairAddress] = raw(10)
	oracle.supplies[pairAddress] = raw(100)
	oracle.reserves = chain.Reserves{Reserve0: raw(1000), Reserve1: raw(500)}
	oracle.userInfo = chain.UserInfo{Amount: raw(10), RewardDebt: big.NewInt(0)}

	_, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 500, Timestamp: t0, TxHash: "0x1"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)

	// Accumulator races ahead but the chain has not passed the reward start
	// block, so nothing is pending.
	oracle.poolInfo.AccAcePerShare = big.NewInt(5e12)
	oracle.balances[pairAddress] = raw(20)
	oracle.userInfo = chain.UserInfo{Amount: raw(20), RewardDebt: big.NewInt(0)}

	_, err = lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 900, Timestamp: t0, TxHash: "0x2"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)

	user, err := st.GetPoolUser(ctx, 0, aliceAddress)
	require.NoError(t, err)
	assert.True(t, user.AceHarvested.IsZero())
}

func TestDepositRevertedReservesStillApplies(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{usdRate: dec("2"), acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.balances[pairAddress] = raw(10)
	oracle.supplies[pairAddress] = raw(100)
	oracle.reservesErr = chain.ErrReverted
	oracle.userInfo = chain.UserInfo{Amount: raw(10), RewardDebt: big.NewInt(0)}

	outcome, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 2000, Timestamp: t0, TxHash: "0x1"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)
	assert.Equal(t, Applied, outcome.Status)
	assert.Equal(t, "liquidity valuation skipped", outcome.Reason)

	pool, err := st.GetPool(ctx, 0)
	require.NoError(t, err)
	// Balance accounting ran, only the USD valuation was skipped.
	assert.True(t, pool.AlpBalance.Equal(dec("10")))
	assert.True(t, pool.EntryUSD.IsZero())
}

func TestFarmEventPoolOutOfRange(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, _ := newTestLedger(oracle, &fakePrices{acePrice: dec("2")})

	outcome, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 2000, Timestamp: 86400 * 10, TxHash: "0x1"},
		PID:    5,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome.Status)
	assert.Equal(t, "pool id out of range", outcome.Reason)
}

func TestEmergencyWithdrawResetsPosition(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{usdRate: dec("2"), acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.balances[pairAddress] = raw(10)
	oracle.supplies[pairAddress] = raw(100)
	oracle.reserves = chain.Reserves{Reserve0: raw(1000), Reserve1: raw(500)}
	oracle.userInfo = chain.UserInfo{Amount: raw(10), RewardDebt: big.NewInt(0)}

	_, err := lg.Deposit(ctx, FarmEvent{
		Event:  Event{Block: 2000, Timestamp: t0, TxHash: "0x1"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)

	oracle.balances[pairAddress] = big.NewInt(0)

	outcome, err := lg.EmergencyWithdraw(ctx, FarmEvent{
		Event:  Event{Block: 2100, Timestamp: t0, TxHash: "0x2"},
		PID:    0,
		User:   aliceAddress,
		Amount: raw(10),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)

	user, err := st.GetPoolUser(ctx, 0, aliceAddress)
	require.NoError(t, err)
	assert.False(t, user.InPool)
	assert.Equal(t, 0, user.Amount.Sign())
	assert.Equal(t, 0, user.RewardDebt.Sign())
	// The forfeited reward never counts as harvested.
	assert.True(t, user.AceHarvested.IsZero())

	pool, err := st.GetPool(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pool.UserCount)
	assert.Equal(t, 0, pool.Balance.Sign())
}

func TestAdminCalls(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{acePrice: dec("2")})

	ev := CallEvent{
		Event: Event{Block: 2000, Timestamp: 86400 * 10, TxHash: "0x1"},
		From:  "0x00000000000000000000000000000000000000f2",
	}

	t.Run("add registers the new pool", func(t *testing.T) {
		oracle.poolLength = 2
		oracle.totalAlloc = big.NewInt(300)

		outcome, err := lg.AddPool(ctx, ev)
		require.NoError(t, err)
		assert.Equal(t, Applied, outcome.Status)

		chef, err := st.GetChef(ctx, normalizeAddress(chefAddress.Hex()))
		require.NoError(t, err)
		assert.Equal(t, uint64(2), chef.PoolCount)
		assert.Equal(t, 0, chef.TotalAllocPoint.Cmp(big.NewInt(300)))

		_, err = st.GetPool(ctx, 1)
		assert.NoError(t, err, "add should materialize the new pool")
	})

	t.Run("set refreshes alloc points", func(t *testing.T) {
		oracle.poolInfo.AllocPoint = big.NewInt(250)
		oracle.totalAlloc = big.NewInt(450)

		outcome, err := lg.SetPool(ctx, ev, 1)
		require.NoError(t, err)
		assert.Equal(t, Applied, outcome.Status)

		pool, err := st.GetPool(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 0, pool.AllocPoint.Cmp(big.NewInt(250)))

		chef, err := st.GetChef(ctx, normalizeAddress(chefAddress.Hex()))
		require.NoError(t, err)
		assert.Equal(t, 0, chef.TotalAllocPoint.Cmp(big.NewInt(450)))
	})

	t.Run("set out of range is skipped", func(t *testing.T) {
		outcome, err := lg.SetPool(ctx, ev, 9)
		require.NoError(t, err)
		assert.Equal(t, Skipped, outcome.Status)
	})

	t.Run("migrate re-reads the pair", func(t *testing.T) {
		migrated := common.HexToAddress("0x00000000000000000000000000000000000000d2")
		oracle.poolInfo.Pair = migrated
		oracle.balances[migrated] = raw(7)

		outcome, err := lg.Migrate(ctx, ev, 1)
		require.NoError(t, err)
		assert.Equal(t, Applied, outcome.Status)

		pool, err := st.GetPool(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, normalizeAddress(migrated.Hex()), pool.Pair)
		assert.Equal(t, 0, pool.Balance.Cmp(raw(7)))
	})

	t.Run("setMigrator and dev update the chef", func(t *testing.T) {
		_, err := lg.SetMigrator(ctx, ev, "0x00000000000000000000000000000000000000AB")
		require.NoError(t, err)
		_, err = lg.SetDev(ctx, ev, "0x00000000000000000000000000000000000000CD")
		require.NoError(t, err)

		chef, err := st.GetChef(ctx, normalizeAddress(chefAddress.Hex()))
		require.NoError(t, err)
		assert.Equal(t, "0x00000000000000000000000000000000000000ab", chef.Migrator)
		assert.Equal(t, "0x00000000000000000000000000000000000000cd", chef.Devaddr)
	})

	t.Run("ownership transfer updates the owner", func(t *testing.T) {
		_, err := lg.OwnershipTransferred(ctx, ev.Event, "0x00000000000000000000000000000000000000EF")
		require.NoError(t, err)

		chef, err := st.GetChef(ctx, normalizeAddress(chefAddress.Hex()))
		require.NoError(t, err)
		assert.Equal(t, "0x00000000000000000000000000000000000000ef", chef.Owner)
	})
}
