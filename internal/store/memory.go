package store

import (
	"context"
	"fmt"

	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
)

// Memory is an in-process Store used by tests and dry-run replays. It copies
// records on both Get and Put so callers see save semantics identical to the
// Postgres store: mutations are invisible until Put.
type Memory struct {
	bars      map[string]entities.Bar
	barUsers  map[string]entities.BarUser
	chefs     map[string]entities.MasterChef
	pools     map[uint64]entities.Pool
	poolUsers map[string]entities.PoolUser
	barDays   map[int64]entities.BarHistory
	farmDays  map[string]entities.FarmHistory
}

func NewMemory() *Memory {
	return &Memory{
		bars:      make(map[string]entities.Bar),
		barUsers:  make(map[string]entities.BarUser),
		chefs:     make(map[string]entities.MasterChef),
		pools:     make(map[uint64]entities.Pool),
		poolUsers: make(map[string]entities.PoolUser),
		barDays:   make(map[int64]entities.BarHistory),
		farmDays:  make(map[string]entities.FarmHistory),
	}
}

func poolUserKey(poolID uint64, address string) string {
	return fmt.Sprintf("%d-%s", poolID, address)
}

func farmDayKey(scope string, day int64) string {
	return fmt.Sprintf("%s-%d", scope, day)
}

func (m *Memory) GetBar(_ context.Context, address string) (*entities.Bar, error) {
	bar, ok := m.bars[address]
	if !ok {
		return nil, ErrNotFound
	}
	return &bar, nil
}

func (m *Memory) PutBar(_ context.Context, bar *entities.Bar) error {
	m.bars[bar.Address] = *bar
	return nil
}

func (m *Memory) GetBarUser(_ context.Context, address string) (*entities.BarUser, error) {
	user, ok := m.barUsers[address]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) PutBarUser(_ context.Context, user *entities.BarUser) error {
	m.barUsers[user.Address] = *user
	return nil
}

func (m *Memory) GetChef(_ context.Context, address string) (*entities.MasterChef, error) {
	chef, ok := m.chefs[address]
	if !ok {
		return nil, ErrNotFound
	}
	return &chef, nil
}

func (m *Memory) PutChef(_ context.Context, chef *entities.MasterChef) error {
	m.chefs[chef.Address] = *chef
	return nil
}

func (m *Memory) GetPool(_ context.Context, id uint64) (*entities.Pool, error) {
	pool, ok := m.pools[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &pool, nil
}

func (m *Memory) PutPool(_ context.Context, pool *entities.Pool) error {
	m.pools[pool.ID] = *pool
	return nil
}

func (m *Memory) Pools(_ context.Context) ([]*entities.Pool, error) {
	pools := make([]*entities.Pool, 0, len(m.pools))
	for id := range m.pools {
		pool := m.pools[id]
		pools = append(pools, &pool)
	}
	return pools, nil
}

func (m *Memory) GetPoolUser(_ context.Context, poolID uint64, address string) (*entities.PoolUser, error) {
	user, ok := m.poolUsers[poolUserKey(poolID, address)]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (m *Memory) PutPoolUser(_ context.Context, user *entities.PoolUser) error {
	m.poolUsers[poolUserKey(user.PoolID, user.Address)] = *user
	return nil
}

func (m *Memory) GetBarHistory(_ context.Context, day int64) (*entities.BarHistory, error) {
	history, ok := m.barDays[day]
	if !ok {
		return nil, ErrNotFound
	}
	return &history, nil
}

func (m *Memory) PutBarHistory(_ context.Context, history *entities.BarHistory) error {
	m.barDays[history.Day] = *history
	return nil
}

func (m *Memory) GetFarmHistory(_ context.Context, scope string, day int64) (*entities.FarmHistory, error) {
	history, ok := m.farmDays[farmDayKey(scope, day)]
	if !ok {
		return nil, ErrNotFound
	}
	return &history, nil
}

func (m *Memory) PutFarmHistory(_ context.Context, history *entities.FarmHistory) error {
	m.farmDays[farmDayKey(history.Scope, history.Day)] = *history
	return nil
}
