package processor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Ace-Swap/aceswap-indexer/internal/database"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/core"
)

const checkpointName = "ledger"

// Replayer drives captured event logs and chef calls through the module
// registry in deterministic order. Within a block, logs and calls are merged
// by transaction index; logs of a transaction precede its call since the
// events describe effects the call decoding only supplements.
type Replayer struct {
	db       *database.Database
	registry *core.ModuleRegistry
	logger   zerolog.Logger

	chefAddress string
	batchSize   uint64
}

func NewReplayer(db *database.Database, registry *core.ModuleRegistry, chefAddress string, logger zerolog.Logger) *Replayer {
	return &Replayer{
		db:          db,
		registry:    registry,
		logger:      logger.With().Str("component", "replayer").Logger(),
		chefAddress: chefAddress,
		batchSize:   1000,
	}
}

// LastProcessedBlock returns the replay checkpoint.
func (r *Replayer) LastProcessedBlock(ctx context.Context) (uint64, error) {
	return r.db.LastProcessedBlock(ctx, checkpointName)
}

// ReplayRange processes all captured activity between fromBlock and toBlock
// inclusive and advances the checkpoint. A failing event stops the replay at
// that event so the error can be inspected before any later state is touched.
func (r *Replayer) ReplayRange(ctx context.Context, fromBlock, toBlock uint64) error {
	for start := fromBlock; start <= toBlock; start += r.batchSize {
		end := start + r.batchSize - 1
		if end > toBlock {
			end = toBlock
		}

		if err := r.replayBatch(ctx, start, end); err != nil {
			return err
		}

		if err := r.db.UpdateLastProcessedBlock(ctx, checkpointName, end); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replayer) replayBatch(ctx context.Context, fromBlock, toBlock uint64) error {
	addresses := r.registry.WatchedAddresses()

	logs, err := r.db.EventLogsInRange(ctx, addresses, fromBlock, toBlock)
	if err != nil {
		return err
	}
	calls, err := r.db.ChefCallsInRange(ctx, r.chefAddress, fromBlock, toBlock)
	if err != nil {
		return err
	}

	if len(logs) == 0 && len(calls) == 0 {
		return nil
	}

	li, ci := 0, 0
	for li < len(logs) || ci < len(calls) {
		if ci >= len(calls) || (li < len(logs) && before(logs[li], calls[ci])) {
			log := logs[li]
			li++
			if err := r.processLog(ctx, log); err != nil {
				return err
			}
			continue
		}

		call := calls[ci]
		ci++
		if err := r.registry.ProcessCall(ctx, call); err != nil {
			return fmt.Errorf("call %s at block %d: %w", call.TransactionHash, call.BlockNumber, err)
		}
	}

	r.logger.Debug().
		Uint64("from", fromBlock).
		Uint64("to", toBlock).
		Int("logs", len(logs)).
		Int("calls", len(calls)).
		Msg("Replayed batch")
	return nil
}

// before reports whether the log settles ahead of the call in replay order.
func before(log *database.EventLog, call *database.ChefCall) bool {
	if log.BlockNumber != call.BlockNumber {
		return log.BlockNumber < call.BlockNumber
	}
	return log.TransactionIndex <= call.TransactionIndex
}

func (r *Replayer) processLog(ctx context.Context, log *database.EventLog) error {
	ethLog, err := log.ToEthereumLog()
	if err != nil {
		return fmt.Errorf("log %s/%d: %w", log.TransactionHash, log.LogIndex, err)
	}
	if err := r.registry.ProcessEvent(ctx, ethLog, log.BlockTimestamp); err != nil {
		return fmt.Errorf("log %s/%d at block %d: %w", log.TransactionHash, log.LogIndex, log.BlockNumber, err)
	}
	return nil
}
