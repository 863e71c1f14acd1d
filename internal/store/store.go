package store

import (
	"context"
	"errors"

	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
)

// ErrNotFound is returned by every Get* when no record exists. Get-or-create
// lives in the ledger; the store only loads and upserts.
var ErrNotFound = errors.New("not found")

// Store persists the entity graph. Puts are idempotent upserts keyed by the
// entity's identity, so a replayed event converges on the same row.
type Store interface {
	GetBar(ctx context.Context, address string) (*entities.Bar, error)
	PutBar(ctx context.Context, bar *entities.Bar) error

	GetBarUser(ctx context.Context, address string) (*entities.BarUser, error)
	PutBarUser(ctx context.Context, user *entities.BarUser) error

	GetChef(ctx context.Context, address string) (*entities.MasterChef, error)
	PutChef(ctx context.Context, chef *entities.MasterChef) error

	GetPool(ctx context.Context, id uint64) (*entities.Pool, error)
	PutPool(ctx context.Context, pool *entities.Pool) error
	Pools(ctx context.Context) ([]*entities.Pool, error)

	GetPoolUser(ctx context.Context, poolID uint64, address string) (*entities.PoolUser, error)
	PutPoolUser(ctx context.Context, user *entities.PoolUser) error

	GetBarHistory(ctx context.Context, day int64) (*entities.BarHistory, error)
	PutBarHistory(ctx context.Context, history *entities.BarHistory) error

	GetFarmHistory(ctx context.Context, scope string, day int64) (*entities.FarmHistory, error)
	PutFarmHistory(ctx context.Context, history *entities.FarmHistory) error
}
