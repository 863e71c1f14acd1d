package processor

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
	"github.com/Ace-Swap/aceswap-indexer/internal/config"
	"github.com/Ace-Swap/aceswap-indexer/internal/database"
	"github.com/Ace-Swap/aceswap-indexer/internal/ledger"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/bar"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/core"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/masterchef"
	"github.com/Ace-Swap/aceswap-indexer/internal/prices"
	"github.com/Ace-Swap/aceswap-indexer/internal/realtime"
	"github.com/Ace-Swap/aceswap-indexer/internal/scheduler"
	"github.com/Ace-Swap/aceswap-indexer/internal/store"
)

// Indexer wires the ledger stack together and keeps the replay caught up with
// the captured chain data.
type Indexer struct {
	config    *config.Config
	db        *database.Database
	chain     *chain.Client
	publisher *realtime.Publisher
	registry  *core.ModuleRegistry
	replayer  *Replayer
	metrics   *scheduler.PoolMetrics

	logger zerolog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewIndexer creates the indexer and everything behind it: database, chain
// oracle, price oracle, ledger, realtime publisher and the two modules.
func NewIndexer(cfg *config.Config, logger zerolog.Logger) (*Indexer, error) {
	ctx := context.Background()

	if err := database.RunMigrations(ctx, &cfg.Database, logger); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	chefAddress := common.HexToAddress(cfg.Chef.ChefAddress)
	chainClient, err := chain.NewClient(cfg.Chain.RPCEndpoint, chefAddress, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	st := store.NewPostgres(db.Pool())
	priceOracle := prices.NewPairOracle(chainClient, common.HexToAddress(cfg.Bar.TokenAddress), &cfg.Pricing, logger)

	lg := ledger.New(st, chainClient, priceOracle, ledger.Config{
		BarAddress:       common.HexToAddress(cfg.Bar.BarAddress),
		TokenAddress:     common.HexToAddress(cfg.Bar.TokenAddress),
		ChefAddress:      chefAddress,
		RewardStartBlock: cfg.Chef.RewardStartBlock,
	}, logger)

	var publisher *realtime.Publisher
	if cfg.Realtime.Enabled {
		publisher = realtime.NewPublisher(realtime.PublishConfig{
			APIURL:     cfg.Realtime.APIURL,
			APIKey:     cfg.Realtime.APIKey,
			BarAddress: cfg.Bar.BarAddress,
		}, st, logger)
	}

	registry := core.NewModuleRegistry(db, logger)

	barModule, err := bar.NewModule(cfg.Bar.Manifest, common.HexToAddress(cfg.Bar.BarAddress), lg, publisher, logger)
	if err != nil {
		chainClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create bar module: %w", err)
	}
	if err := registry.RegisterModule(ctx, barModule); err != nil {
		chainClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to register bar module: %w", err)
	}

	chefModule, err := masterchef.NewModule(cfg.Chef.Manifest, chefAddress, lg, publisher, logger)
	if err != nil {
		chainClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create masterchef module: %w", err)
	}
	if err := registry.RegisterModule(ctx, chefModule); err != nil {
		chainClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to register masterchef module: %w", err)
	}

	replayer := NewReplayer(db, registry, chefAddress.Hex(), logger)

	metrics, err := scheduler.NewPoolMetrics(st, chainClient, priceOracle, logger)
	if err != nil {
		chainClient.Close()
		db.Close()
		return nil, fmt.Errorf("failed to create pool metrics scheduler: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	return &Indexer{
		config:    cfg,
		db:        db,
		chain:     chainClient,
		publisher: publisher,
		registry:  registry,
		replayer:  replayer,
		metrics:   metrics,
		logger:    logger,
		ctx:       runCtx,
		cancel:    cancel,
	}, nil
}

// Start runs the replay loop and blocks until a shutdown signal arrives.
func (i *Indexer) Start() error {
	i.logger.Info().
		Strs("modules", i.registry.ListModules()).
		Msg("Starting ledger indexer")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := i.metrics.Start(); err != nil {
		i.logger.Error().Err(err).Msg("Failed to start pool metrics scheduler")
	}

	i.wg.Add(1)
	go i.replayLoop()

	select {
	case sig := <-sigChan:
		i.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case <-i.ctx.Done():
		i.logger.Info().Msg("Context cancelled")
	}

	i.Stop()
	return nil
}

// Stop shuts the indexer down and waits for in-flight work to finish.
func (i *Indexer) Stop() {
	i.logger.Info().Msg("Stopping indexer")

	i.cancel()
	i.wg.Wait()

	i.metrics.Stop()
	if i.publisher != nil {
		i.publisher.Close()
	}
	i.chain.Close()
	i.db.Close()

	i.logger.Info().Msg("Indexer stopped")
}

// replayLoop repeatedly replays everything between the checkpoint and the
// latest captured block, then waits for new data.
func (i *Indexer) replayLoop() {
	defer i.wg.Done()

	lastProcessed, err := i.replayer.LastProcessedBlock(i.ctx)
	if err != nil {
		i.logger.Error().Err(err).Msg("Failed to read replay checkpoint")
		i.cancel()
		return
	}

	if lastProcessed == 0 {
		start := i.registry.StartBlock()
		if i.config.Chain.StartBlock > start {
			start = i.config.Chain.StartBlock
		}
		if start > 0 {
			lastProcessed = start - 1
		}
		i.logger.Info().Uint64("block", lastProcessed+1).Msg("Starting replay from configured block")
	}

	consecutiveErrors := 0
	maxConsecutiveErrors := 10

	for {
		select {
		case <-i.ctx.Done():
			i.logger.Info().Msg("Replay loop stopped")
			return
		default:
		}

		latest, err := i.db.LatestBlock(i.ctx)
		if err != nil {
			if i.ctx.Err() != nil {
				return
			}
			i.logger.Error().Err(err).Msg("Failed to read latest captured block")
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				i.logger.Error().Msg("Too many consecutive errors, stopping replay")
				i.cancel()
				return
			}
			time.Sleep(5 * time.Second)
			continue
		}

		if latest <= lastProcessed {
			time.Sleep(2 * time.Second)
			continue
		}

		startTime := time.Now()
		err = i.replayer.ReplayRange(i.ctx, lastProcessed+1, latest)
		if err != nil {
			if i.ctx.Err() != nil {
				return
			}
			i.logger.Error().
				Err(err).
				Uint64("from", lastProcessed+1).
				Uint64("to", latest).
				Msg("Replay failed")
			// Pick up from the last completed batch, not the old position.
			if checkpoint, cpErr := i.replayer.LastProcessedBlock(i.ctx); cpErr == nil && checkpoint > lastProcessed {
				lastProcessed = checkpoint
			}
			consecutiveErrors++
			if consecutiveErrors >= maxConsecutiveErrors {
				i.logger.Error().Msg("Too many consecutive errors, stopping replay")
				i.cancel()
				return
			}
			time.Sleep(5 * time.Second)
			continue
		}
		consecutiveErrors = 0

		if i.publisher != nil {
			i.publisher.SetCurrentBlock(latest)
		}

		i.logger.Info().
			Uint64("from", lastProcessed+1).
			Uint64("to", latest).
			Dur("duration", time.Since(startTime)).
			Msg("Replay caught up")
		lastProcessed = latest
	}
}
