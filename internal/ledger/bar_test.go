package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferSkipsZeroValue(t *testing.T) {
	lg, _ := newTestLedger(newFakeOracle(), &fakePrices{acePrice: dec("2")})

	outcome, err := lg.Transfer(context.Background(), TransferEvent{
		Event: Event{Block: 100, Timestamp: 86400 * 10, TxHash: "0x1"},
		From:  ZeroAddress,
		To:    aliceAddress,
		Value: big.NewInt(0),
	})
	require.NoError(t, err)
	assert.Equal(t, Skipped, outcome.Status)
	assert.Equal(t, "zero-value transfer", outcome.Reason)
}

func TestTransferMintAndBurn(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{acePrice: dec("2")})

	t0 := int64(86400 * 10)

	// Mint 100 xACE to alice at a 1:1 ratio.
	oracle.supplies[barAddress] = raw(100)
	oracle.balances[aceAddress] = raw(100)

	outcome, err := lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 100, Timestamp: t0, TxHash: "0x1"},
		From:  ZeroAddress,
		To:    aliceAddress,
		Value: raw(100),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)

	alice, err := st.GetBarUser(ctx, aliceAddress)
	require.NoError(t, err)
	assert.True(t, alice.InBar)
	assert.True(t, alice.XAce.Equal(dec("100")))
	assert.True(t, alice.XAceMinted.Equal(dec("100")))
	assert.True(t, alice.AceStaked.Equal(dec("100")))
	assert.True(t, alice.AceStakedUSD.Equal(dec("200")))
	assert.True(t, alice.XAceAge.IsZero())

	bar, err := st.GetBar(ctx, normalizeAddress(barAddress.Hex()))
	require.NoError(t, err)
	assert.Equal(t, "xACE", bar.Symbol)
	assert.True(t, bar.XAceMinted.Equal(dec("100")))
	assert.True(t, bar.Ratio.Equal(dec("1")))
	assert.True(t, bar.Supply().Equal(dec("100")))

	history, err := st.GetBarHistory(ctx, 10)
	require.NoError(t, err)
	assert.True(t, history.XAceMinted.Equal(dec("100")))
	assert.True(t, history.AceStakedUSD.Equal(dec("200")))
	assert.Equal(t, int64(86400*10), history.Date)

	// One day later alice burns half. Her age accrued 100 balance-days; the
	// burn destroys half of it.
	t1 := t0 + 86400
	oracle.supplies[barAddress] = raw(50)
	oracle.balances[aceAddress] = raw(50)

	outcome, err = lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 200, Timestamp: t1, TxHash: "0x2"},
		From:  aliceAddress,
		To:    ZeroAddress,
		Value: raw(50),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)

	alice, err = st.GetBarUser(ctx, aliceAddress)
	require.NoError(t, err)
	assert.True(t, alice.InBar)
	assert.True(t, alice.XAce.Equal(dec("50")))
	assert.True(t, alice.XAceAge.Equal(dec("50")), "age %s", alice.XAceAge)
	assert.True(t, alice.XAceAgeDestroyed.Equal(dec("50")))
	assert.True(t, alice.XAceBurned.Equal(dec("50")))
	assert.True(t, alice.AceHarvested.Equal(dec("50")))
	assert.True(t, alice.AceHarvestedUSD.Equal(dec("100")))

	bar, err = st.GetBar(ctx, normalizeAddress(barAddress.Hex()))
	require.NoError(t, err)
	assert.True(t, bar.XAceAge.Equal(dec("50")), "bar age %s", bar.XAceAge)
	assert.True(t, bar.XAceAgeDestroyed.Equal(dec("50")))
	assert.True(t, bar.Supply().Equal(dec("50")))

	// Burning the rest leaves the bar.
	outcome, err = lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 201, Timestamp: t1, TxHash: "0x3"},
		From:  aliceAddress,
		To:    ZeroAddress,
		Value: raw(50),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)

	alice, err = st.GetBarUser(ctx, aliceAddress)
	require.NoError(t, err)
	assert.False(t, alice.InBar)
	assert.True(t, alice.XAce.IsZero())
	assert.True(t, alice.XAceAge.IsZero())
}

func TestTransferMoveCarriesAge(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.supplies[barAddress] = raw(100)
	oracle.balances[aceAddress] = raw(100)

	_, err := lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 100, Timestamp: t0, TxHash: "0x1"},
		From:  ZeroAddress,
		To:    aliceAddress,
		Value: raw(100),
	})
	require.NoError(t, err)

	// A day later 40 shares move to bob. The age they carry moves with them.
	t1 := t0 + 86400
	outcome, err := lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 200, Timestamp: t1, TxHash: "0x2"},
		From:  aliceAddress,
		To:    bobAddress,
		Value: raw(40),
	})
	require.NoError(t, err)
	require.Equal(t, Applied, outcome.Status)

	alice, err := st.GetBarUser(ctx, aliceAddress)
	require.NoError(t, err)
	bob, err := st.GetBarUser(ctx, bobAddress)
	require.NoError(t, err)

	assert.True(t, alice.XAce.Equal(dec("60")))
	assert.True(t, alice.XAceAge.Equal(dec("60")), "alice age %s", alice.XAceAge)
	assert.True(t, alice.XAceOut.Equal(dec("40")))

	assert.True(t, bob.InBar)
	assert.True(t, bob.XAce.Equal(dec("40")))
	assert.True(t, bob.XAceAge.Equal(dec("40")), "bob age %s", bob.XAceAge)
	assert.True(t, bob.AceStaked.Equal(dec("40")))
	assert.True(t, bob.AceStakedUSD.Equal(dec("80")))
	assert.True(t, bob.XAceOffset.Equal(dec("40")))

	// Age is conserved across the move.
	assert.True(t, alice.XAceAge.Add(bob.XAceAge).Equal(dec("100")))

	// Transfers leave no day bucket behind; only the mint is recorded.
	history, err := st.GetBarHistory(ctx, 10)
	require.NoError(t, err)
	assert.True(t, history.XAceMinted.Equal(dec("100")))
}

func TestTransferShuttleDoesNotInflateCostBasis(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.supplies[barAddress] = raw(100)
	oracle.balances[aceAddress] = raw(100)

	_, err := lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 100, Timestamp: t0, TxHash: "0x1"},
		From:  ZeroAddress,
		To:    aliceAddress,
		Value: raw(100),
	})
	require.NoError(t, err)

	move := func(from, to, tx string) {
		t.Helper()
		outcome, err := lg.Transfer(ctx, TransferEvent{
			Event: Event{Block: 200, Timestamp: t0, TxHash: tx},
			From:  from,
			To:    to,
			Value: raw(40),
		})
		require.NoError(t, err)
		require.Equal(t, Applied, outcome.Status)
	}

	// Shuttle the same 40 shares back and forth.
	move(aliceAddress, bobAddress, "0x2")
	move(bobAddress, aliceAddress, "0x3")
	move(aliceAddress, bobAddress, "0x4")

	bob, err := st.GetBarUser(ctx, bobAddress)
	require.NoError(t, err)
	assert.True(t, bob.XAceIn.Equal(dec("80")))
	assert.True(t, bob.XAceOut.Equal(dec("40")))
	// Only the first arrival counted as new cost basis.
	assert.True(t, bob.AceStaked.Equal(dec("40")), "bob staked %s", bob.AceStaked)
	assert.True(t, bob.AceStakedUSD.Equal(dec("80")))
	assert.True(t, bob.XAceOffset.Equal(dec("40")))

	alice, err := st.GetBarUser(ctx, aliceAddress)
	require.NoError(t, err)
	// Returning shares settle against alice's outflow without new cost basis.
	assert.True(t, alice.AceStaked.Equal(dec("100")), "alice staked %s", alice.AceStaked)
	assert.True(t, alice.XAceOffset.IsZero())

	balance := alice.XAce.Add(bob.XAce)
	assert.True(t, balance.Equal(dec("100")))
}

func TestTransferZeroSupplyKeepsRatio(t *testing.T) {
	ctx := context.Background()
	oracle := newFakeOracle()
	lg, st := newTestLedger(oracle, &fakePrices{acePrice: dec("2")})

	t0 := int64(86400 * 10)
	oracle.supplies[barAddress] = raw(100)
	oracle.balances[aceAddress] = raw(200)

	_, err := lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 100, Timestamp: t0, TxHash: "0x1"},
		From:  ZeroAddress,
		To:    aliceAddress,
		Value: raw(100),
	})
	require.NoError(t, err)

	bar, err := st.GetBar(ctx, normalizeAddress(barAddress.Hex()))
	require.NoError(t, err)
	require.True(t, bar.Ratio.Equal(dec("2")))

	// Supply drops to zero on the final burn; the ratio keeps its last value.
	oracle.supplies[barAddress] = big.NewInt(0)
	oracle.balances[aceAddress] = big.NewInt(0)

	_, err = lg.Transfer(ctx, TransferEvent{
		Event: Event{Block: 200, Timestamp: t0, TxHash: "0x2"},
		From:  aliceAddress,
		To:    ZeroAddress,
		Value: raw(100),
	})
	require.NoError(t, err)

	bar, err = st.GetBar(ctx, normalizeAddress(barAddress.Hex()))
	require.NoError(t, err)
	assert.True(t, bar.Ratio.Equal(dec("2")))

	alice, err := st.GetBarUser(ctx, aliceAddress)
	require.NoError(t, err)
	// The exit is valued at the preserved ratio.
	assert.True(t, alice.AceHarvested.Equal(dec("200")))
	assert.True(t, alice.AceHarvestedUSD.Equal(dec("400")))
}
