package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
	"github.com/Ace-Swap/aceswap-indexer/internal/store"
)

var (
	barAddress   = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	aceAddress   = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	chefAddress  = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	pairAddress  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	tokenA       = common.HexToAddress("0x00000000000000000000000000000000000000e1")
	tokenB       = common.HexToAddress("0x00000000000000000000000000000000000000e2")
	aliceAddress = "0x0000000000000000000000000000000000000aaa"
	bobAddress   = "0x0000000000000000000000000000000000000bbb"
)

// raw scales a whole-token amount to its 1e18 representation.
func raw(amount int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(amount), big.NewInt(1e18))
}

// fakeOracle is a hand-rolled chain.StateOracle whose fields are adjusted
// between events to simulate chain state moving with the scenario.
type fakeOracle struct {
	poolLength uint64
	poolInfo   chain.PoolInfo
	userInfo   chain.UserInfo
	chefInfo   chain.ChefInfo
	totalAlloc *big.Int

	reserves    chain.Reserves
	reservesErr error
	supplies    map[common.Address]*big.Int
	balances    map[common.Address]*big.Int

	token0 common.Address
	token1 common.Address
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		poolLength: 1,
		poolInfo: chain.PoolInfo{
			Pair:            pairAddress,
			AllocPoint:      big.NewInt(100),
			LastRewardBlock: big.NewInt(0),
			AccAcePerShare:  big.NewInt(0),
		},
		userInfo: chain.UserInfo{Amount: big.NewInt(0), RewardDebt: big.NewInt(0)},
		chefInfo: chain.ChefInfo{
			BonusMultiplier: big.NewInt(10),
			BonusEndBlock:   big.NewInt(200000),
			Devaddr:         common.HexToAddress("0x00000000000000000000000000000000000000f1"),
			Migrator:        common.Address{},
			Owner:           common.HexToAddress("0x00000000000000000000000000000000000000f2"),
			StartBlock:      big.NewInt(100),
			AcePerBlock:     raw(100),
			TotalAllocPoint: big.NewInt(100),
		},
		totalAlloc: big.NewInt(100),
		reserves:   chain.Reserves{Reserve0: big.NewInt(0), Reserve1: big.NewInt(0)},
		supplies:   make(map[common.Address]*big.Int),
		balances:   make(map[common.Address]*big.Int),
		token0:     tokenA,
		token1:     tokenB,
	}
}

func (f *fakeOracle) PoolLength(context.Context, uint64) (uint64, error) {
	return f.poolLength, nil
}

func (f *fakeOracle) PoolInfo(context.Context, uint64, uint64) (chain.PoolInfo, error) {
	return f.poolInfo, nil
}

func (f *fakeOracle) UserInfo(context.Context, uint64, common.Address, uint64) (chain.UserInfo, error) {
	return f.userInfo, nil
}

func (f *fakeOracle) ChefInfo(context.Context, uint64) (chain.ChefInfo, error) {
	return f.chefInfo, nil
}

func (f *fakeOracle) TotalAllocPoint(context.Context, uint64) (*big.Int, error) {
	return f.totalAlloc, nil
}

func (f *fakeOracle) Reserves(context.Context, common.Address, uint64) (chain.Reserves, error) {
	if f.reservesErr != nil {
		return chain.Reserves{}, f.reservesErr
	}
	return f.reserves, nil
}

func (f *fakeOracle) TotalSupply(_ context.Context, token common.Address, _ uint64) (*big.Int, error) {
	if supply, ok := f.supplies[token]; ok {
		return supply, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeOracle) BalanceOf(_ context.Context, token, _ common.Address, _ uint64) (*big.Int, error) {
	if balance, ok := f.balances[token]; ok {
		return balance, nil
	}
	return big.NewInt(0), nil
}

func (f *fakeOracle) Token0(context.Context, common.Address, uint64) (common.Address, error) {
	return f.token0, nil
}

func (f *fakeOracle) Token1(context.Context, common.Address, uint64) (common.Address, error) {
	return f.token1, nil
}

func (f *fakeOracle) GetPair(context.Context, common.Address, common.Address, common.Address, uint64) (common.Address, error) {
	return common.Address{}, nil
}

func (f *fakeOracle) TokenInfo(context.Context, common.Address, uint64) (chain.TokenInfo, error) {
	return chain.TokenInfo{Name: "AceBar", Symbol: "xACE", Decimals: 18}, nil
}

func (f *fakeOracle) TokenDecimals(context.Context, common.Address, uint64) (int32, error) {
	return 18, nil
}

var _ chain.StateOracle = (*fakeOracle)(nil)

// fakePrices returns fixed rates regardless of token or block.
type fakePrices struct {
	usdRate  decimal.Decimal
	acePrice decimal.Decimal
}

func (f *fakePrices) USDRate(context.Context, common.Address, uint64) (decimal.Decimal, error) {
	return f.usdRate, nil
}

func (f *fakePrices) ETHRate(context.Context, common.Address, uint64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (f *fakePrices) AcePrice(context.Context, uint64) (decimal.Decimal, error) {
	return f.acePrice, nil
}

func newTestLedger(oracle *fakeOracle, priceOracle *fakePrices) (*Ledger, *store.Memory) {
	st := store.NewMemory()
	lg := New(st, oracle, priceOracle, Config{
		BarAddress:       barAddress,
		TokenAddress:     aceAddress,
		ChefAddress:      chefAddress,
		RewardStartBlock: 1000,
	}, zerolog.Nop())
	return lg, st
}
