package scheduler

import (
	"context"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
	"github.com/Ace-Swap/aceswap-indexer/internal/prices"
	"github.com/Ace-Swap/aceswap-indexer/internal/store"
)

// PoolMetrics periodically reprices each pool's staked liquidity at the
// current head so TvlUSD tracks the market between deposits and withdrawals.
type PoolMetrics struct {
	store     store.Store
	chain     *chain.Client
	prices    prices.Oracle
	scheduler gocron.Scheduler
	logger    zerolog.Logger
}

func NewPoolMetrics(st store.Store, chainClient *chain.Client, priceOracle prices.Oracle, logger zerolog.Logger) (*PoolMetrics, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	return &PoolMetrics{
		store:     st,
		chain:     chainClient,
		prices:    priceOracle,
		scheduler: s,
		logger:    logger.With().Str("component", "pool-metrics-scheduler").Logger(),
	}, nil
}

func (s *PoolMetrics) Start() error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(s.updateAllPools, context.Background()),
		gocron.WithName("update-pool-metrics"),
	)
	if err != nil {
		return err
	}

	s.logger.Info().Msg("Pool metrics scheduler started (runs every 5 minutes)")
	s.scheduler.Start()

	// Run immediately on startup
	go s.updateAllPools(context.Background())

	return nil
}

func (s *PoolMetrics) Stop() {
	s.logger.Info().Msg("Stopping pool metrics scheduler")
	if err := s.scheduler.Shutdown(); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down scheduler")
	}
}

func (s *PoolMetrics) updateAllPools(ctx context.Context) {
	start := time.Now()

	block, err := s.chain.LatestBlockNumber(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to get latest block number")
		return
	}

	pools, err := s.store.Pools(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list pools")
		return
	}

	// Resolve every pair's token legs up front with bounded concurrency; the
	// per-pool repricing below then only reads reserves and rates.
	pairs := make([]common.Address, len(pools))
	for i, pool := range pools {
		pairs[i] = common.HexToAddress(pool.Pair)
	}
	pairTokens := s.chain.PrefetchPairTokens(ctx, pairs, block, 8)

	successCount := 0
	for i, pool := range pools {
		if pairTokens[i].Err != nil {
			s.logger.Error().Err(pairTokens[i].Err).Uint64("pool", pool.ID).Msg("Failed to resolve pair tokens")
			continue
		}

		tvl, err := s.poolTVL(ctx, pool.Pair, pairTokens[i], pool.AlpBalance, block)
		if err != nil {
			s.logger.Error().Err(err).Uint64("pool", pool.ID).Msg("Failed to reprice pool")
			continue
		}

		pool.TvlUSD = tvl
		if err := s.store.PutPool(ctx, pool); err != nil {
			s.logger.Error().Err(err).Uint64("pool", pool.ID).Msg("Failed to save pool")
			continue
		}
		successCount++
	}

	s.logger.Info().
		Int("success", successCount).
		Int("failed", len(pools)-successCount).
		Uint64("block", block).
		Dur("duration", time.Since(start)).
		Msg("Pool metrics update completed")
}

// poolTVL values the staked LP amount as its share of the pair's reserves,
// each leg at the token's USD rate. Reverted reads price the pool at zero.
func (s *PoolMetrics) poolTVL(ctx context.Context, pair string, tokens chain.PairTokens, staked decimal.Decimal, block uint64) (decimal.Decimal, error) {
	if staked.IsZero() {
		return decimal.Zero, nil
	}

	pairAddress := common.HexToAddress(pair)

	reserves, err := s.chain.Reserves(ctx, pairAddress, block)
	if errors.Is(err, chain.ErrReverted) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}

	supply, err := s.chain.TotalSupply(ctx, pairAddress, block)
	if err != nil {
		return decimal.Zero, err
	}
	if supply.Sign() == 0 {
		return decimal.Zero, nil
	}
	share := staked.Div(decimal.NewFromBigInt(supply, -18))

	legUSD := func(token common.Address, reserve *big.Int) (decimal.Decimal, error) {
		decimals, err := s.chain.TokenDecimals(ctx, token, block)
		if err != nil {
			return decimal.Zero, err
		}
		rate, err := s.prices.USDRate(ctx, token, block)
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromBigInt(reserve, -decimals).Mul(share).Mul(rate), nil
	}

	usd0, err := legUSD(tokens.Token0, reserves.Reserve0)
	if err != nil {
		return decimal.Zero, err
	}
	usd1, err := legUSD(tokens.Token1, reserves.Reserve1)
	if err != nil {
		return decimal.Zero, err
	}

	return usd0.Add(usd1), nil
}
