package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
	"github.com/Ace-Swap/aceswap-indexer/internal/store"
)

const secondsInDay = 86400

// dayOf buckets a unix timestamp into its UTC day ordinal.
func dayOf(timestamp int64) int64 {
	return timestamp / secondsInDay
}

// getBarHistory loads the bar day bucket for the event's timestamp, creating
// an empty one at the day boundary.
func (l *Ledger) getBarHistory(ctx context.Context, ev Event) (*entities.BarHistory, error) {
	day := dayOf(ev.Timestamp)

	history, err := l.store.GetBarHistory(ctx, day)
	if err == nil {
		return history, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load bar history %d: %w", day, err)
	}

	history = &entities.BarHistory{
		Day:  day,
		Date: day * secondsInDay,
	}
	return history, nil
}

// getFarmHistory loads the farm day bucket for a scope, which is either the
// chef address or a pool id rendered as a string.
func (l *Ledger) getFarmHistory(ctx context.Context, scope string, ev Event) (*entities.FarmHistory, error) {
	day := dayOf(ev.Timestamp)

	history, err := l.store.GetFarmHistory(ctx, scope, day)
	if err == nil {
		return history, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load farm history %s-%d: %w", scope, day, err)
	}

	history = &entities.FarmHistory{
		Scope:     scope,
		Day:       day,
		Timestamp: ev.Timestamp,
		Block:     ev.Block,
	}
	return history, nil
}
