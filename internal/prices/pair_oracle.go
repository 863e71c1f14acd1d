package prices

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
	"github.com/Ace-Swap/aceswap-indexer/internal/config"
)

var one = decimal.NewFromInt(1)

// PairOracle derives rates from pair reserves via the chain state oracle.
// Before the migration block it reads the legacy factory and pairs (where the
// token initially had liquidity); after it, the native ones.
type PairOracle struct {
	oracle chain.StateOracle
	logger zerolog.Logger

	usdt          common.Address
	usdtDecimals  int32
	weth          common.Address
	ace           common.Address
	factory       common.Address
	legacyFactory common.Address

	wethUSDTPair       common.Address
	legacyWETHUSDTPair common.Address
	aceUSDTPair        common.Address
	legacyAceUSDTPair  common.Address

	firstLiquidityBlock uint64
	migrationBlock      uint64
}

func NewPairOracle(oracle chain.StateOracle, ace common.Address, cfg *config.PricingConfig, logger zerolog.Logger) *PairOracle {
	return &PairOracle{
		oracle:              oracle,
		logger:              logger.With().Str("component", "price-oracle").Logger(),
		usdt:                common.HexToAddress(cfg.USDTAddress),
		usdtDecimals:        cfg.USDTDecimals,
		weth:                common.HexToAddress(cfg.WETHAddress),
		ace:                 ace,
		factory:             common.HexToAddress(cfg.FactoryAddress),
		legacyFactory:       common.HexToAddress(cfg.LegacyFactoryAddress),
		wethUSDTPair:        common.HexToAddress(cfg.WETHUSDTPairAddress),
		legacyWETHUSDTPair:  common.HexToAddress(cfg.LegacyWETHUSDTPair),
		aceUSDTPair:         common.HexToAddress(cfg.AceUSDTPairAddress),
		legacyAceUSDTPair:   common.HexToAddress(cfg.LegacyAceUSDTPair),
		firstLiquidityBlock: cfg.FirstLiquidityBlock,
		migrationBlock:      cfg.MigrationBlock,
	}
}

// usdtPerToken prices token0 of a token/USDT pair from its reserves:
// (reserve1 descaled by USDT decimals) / (reserve0 descaled by 18).
func (p *PairOracle) usdtPerToken(reserves chain.Reserves) decimal.Decimal {
	reserve0 := decimal.NewFromBigInt(reserves.Reserve0, -18)
	reserve1 := decimal.NewFromBigInt(reserves.Reserve1, -p.usdtDecimals)
	if reserve0.IsZero() {
		return decimal.Zero
	}
	return reserve1.Div(reserve0)
}

func (p *PairOracle) USDRate(ctx context.Context, token common.Address, block uint64) (decimal.Decimal, error) {
	if token == p.usdt {
		return one, nil
	}

	tokenPriceETH, err := p.ETHRate(ctx, token, block)
	if err != nil {
		return decimal.Zero, err
	}

	pair := p.wethUSDTPair
	if block <= p.migrationBlock {
		pair = p.legacyWETHUSDTPair
	}

	reserves, err := p.oracle.Reserves(ctx, pair, block)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read weth/usdt reserves: %w", err)
	}

	ethPriceUSD := p.usdtPerToken(reserves)
	return ethPriceUSD.Mul(tokenPriceETH), nil
}

func (p *PairOracle) ETHRate(ctx context.Context, token common.Address, block uint64) (decimal.Decimal, error) {
	if token == p.weth {
		return one, nil
	}

	factory := p.factory
	if block <= p.migrationBlock {
		factory = p.legacyFactory
	}

	pair, err := p.oracle.GetPair(ctx, factory, token, p.weth, block)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to look up weth pair: %w", err)
	}
	if pair == (common.Address{}) {
		p.logger.Debug().Str("token", token.Hex()).Msg("No WETH pair, pricing at zero")
		return decimal.Zero, nil
	}

	reserves, err := p.oracle.Reserves(ctx, pair, block)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read pair reserves: %w", err)
	}

	token0, err := p.oracle.Token0(ctx, pair, block)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read pair token0: %w", err)
	}

	reserve0 := decimal.NewFromBigInt(reserves.Reserve0, 0)
	reserve1 := decimal.NewFromBigInt(reserves.Reserve1, 0)

	if token0 == p.weth {
		if reserve1.IsZero() {
			return decimal.Zero, nil
		}
		return reserve0.Div(reserve1), nil
	}
	if reserve0.IsZero() {
		return decimal.Zero, nil
	}
	return reserve1.Div(reserve0), nil
}

func (p *PairOracle) AcePrice(ctx context.Context, block uint64) (decimal.Decimal, error) {
	// Before the first ACE/WETH liquidity there is nothing to price against.
	if block < p.firstLiquidityBlock {
		return decimal.Zero, nil
	}

	// Between first liquidity and the ACE/USDT pair creation, route through
	// the WETH pair.
	if block < p.migrationBlock {
		return p.USDRate(ctx, p.ace, block)
	}

	pair := p.aceUSDTPair
	if block <= p.migrationBlock {
		pair = p.legacyAceUSDTPair
	}

	reserves, err := p.oracle.Reserves(ctx, pair, block)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read ace/usdt reserves: %w", err)
	}

	return p.usdtPerToken(reserves), nil
}
