package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// EventLogsInRange returns the captured logs for the given addresses between
// two blocks, ordered by (block_number, transaction_index, log_index). That
// ordering is the replay order the ledger depends on.
func (db *Database) EventLogsInRange(ctx context.Context, addresses []string, fromBlock, toBlock uint64) ([]*EventLog, error) {
	lowered := make([]string, len(addresses))
	for i, address := range addresses {
		lowered[i] = strings.ToLower(address)
	}

	query := `
		SELECT l.block_number, l.block_hash, b.timestamp, l.transaction_hash,
		       l.transaction_index, l.log_index, l.address, l.topics, l.data, l.removed
		FROM event_logs l
		JOIN blocks b ON b.number = l.block_number
		WHERE l.block_number >= $1 AND l.block_number <= $2
		  AND l.address = ANY($3)
		ORDER BY l.block_number, l.transaction_index, l.log_index`

	rows, err := db.pool.Query(ctx, query, fromBlock, toBlock, lowered)
	if err != nil {
		return nil, fmt.Errorf("failed to query event logs: %w", err)
	}
	defer rows.Close()

	var logs []*EventLog
	for rows.Next() {
		var log EventLog
		if err := rows.Scan(
			&log.BlockNumber,
			&log.BlockHash,
			&log.BlockTimestamp,
			&log.TransactionHash,
			&log.TransactionIndex,
			&log.LogIndex,
			&log.Address,
			&log.Topics,
			&log.Data,
			&log.Removed,
		); err != nil {
			return nil, fmt.Errorf("failed to scan event log: %w", err)
		}
		logs = append(logs, &log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event logs: %w", err)
	}

	return logs, nil
}

// ChefCallsInRange returns successful transactions sent to the chef contract
// between two blocks, in replay order.
func (db *Database) ChefCallsInRange(ctx context.Context, chefAddress string, fromBlock, toBlock uint64) ([]*ChefCall, error) {
	query := `
		SELECT t.block_number, b.timestamp, t.hash, t.transaction_index,
		       t.from_address, t.to_address, t.input, t.status
		FROM transactions t
		JOIN blocks b ON b.number = t.block_number
		WHERE t.block_number >= $1 AND t.block_number <= $2
		  AND t.to_address = $3
		  AND t.status = 1
		ORDER BY t.block_number, t.transaction_index`

	rows, err := db.pool.Query(ctx, query, fromBlock, toBlock, strings.ToLower(chefAddress))
	if err != nil {
		return nil, fmt.Errorf("failed to query chef calls: %w", err)
	}
	defer rows.Close()

	var calls []*ChefCall
	for rows.Next() {
		var call ChefCall
		if err := rows.Scan(
			&call.BlockNumber,
			&call.BlockTimestamp,
			&call.TransactionHash,
			&call.TransactionIndex,
			&call.From,
			&call.To,
			&call.Input,
			&call.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chef call: %w", err)
		}
		calls = append(calls, &call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chef calls: %w", err)
	}

	return calls, nil
}

// LatestBlock returns the highest ingested block number, 0 when no blocks
// have been captured yet.
func (db *Database) LatestBlock(ctx context.Context) (uint64, error) {
	var block uint64
	err := db.pool.QueryRow(ctx, `SELECT COALESCE(MAX(number), 0) FROM blocks`).Scan(&block)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block: %w", err)
	}
	return block, nil
}

// LastProcessedBlock returns the replay checkpoint for a module name, 0 when
// the module has never run.
func (db *Database) LastProcessedBlock(ctx context.Context, module string) (uint64, error) {
	var block uint64
	err := db.pool.QueryRow(ctx,
		`SELECT last_processed_block FROM module_state WHERE module_name = $1`,
		module,
	).Scan(&block)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get last processed block: %w", err)
	}
	return block, nil
}

// UpdateLastProcessedBlock advances the replay checkpoint for a module.
func (db *Database) UpdateLastProcessedBlock(ctx context.Context, module string, block uint64) error {
	_, err := db.pool.Exec(ctx, `
		INSERT INTO module_state (module_name, last_processed_block, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (module_name)
		DO UPDATE SET last_processed_block = GREATEST(module_state.last_processed_block, EXCLUDED.last_processed_block),
		              updated_at = NOW()`,
		module, block,
	)
	if err != nil {
		return fmt.Errorf("failed to update last processed block: %w", err)
	}
	return nil
}
