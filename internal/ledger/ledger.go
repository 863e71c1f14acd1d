package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Ace-Swap/aceswap-indexer/internal/chain"
	"github.com/Ace-Swap/aceswap-indexer/internal/entities"
	"github.com/Ace-Swap/aceswap-indexer/internal/prices"
	"github.com/Ace-Swap/aceswap-indexer/internal/store"
)

// ZeroAddress denotes mint (from) and burn (to) on transfer events.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

// rewardPrecision is the 1e12 scaling of accAcePerShare on the chef contract.
var rewardPrecision = decimal.New(1, 12)

// Config carries the contract addresses and reward gating the engine needs.
// They are injected here rather than read from package constants so a single
// binary can replay against any deployment.
type Config struct {
	BarAddress       common.Address
	TokenAddress     common.Address
	ChefAddress      common.Address
	RewardStartBlock uint64
}

// Ledger owns the entity repositories and applies events to them one at a
// time. It performs no I/O beyond the injected store and oracles and holds no
// state of its own, so replaying the same ordered event sequence always
// produces the same entity graph.
type Ledger struct {
	store  store.Store
	chain  chain.StateOracle
	prices prices.Oracle
	cfg    Config
	logger zerolog.Logger
}

func New(st store.Store, oracle chain.StateOracle, priceOracle prices.Oracle, cfg Config, logger zerolog.Logger) *Ledger {
	return &Ledger{
		store:  st,
		chain:  oracle,
		prices: priceOracle,
		cfg:    cfg,
		logger: logger.With().Str("component", "ledger").Logger(),
	}
}

// Event is the common context of every ledger operation.
type Event struct {
	Block     uint64
	Timestamp int64
	TxHash    string
}

// tokenAmount descales a raw 1e18 token quantity to a decimal.
func tokenAmount(raw *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(raw, -18)
}

func normalizeAddress(address string) string {
	return strings.ToLower(address)
}

// getBar loads the bar ledger, creating it with a contract metadata snapshot
// on first reference.
func (l *Ledger) getBar(ctx context.Context, ev Event) (*entities.Bar, error) {
	address := normalizeAddress(l.cfg.BarAddress.Hex())

	bar, err := l.store.GetBar(ctx, address)
	if err == nil {
		return bar, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load bar: %w", err)
	}

	info, err := l.chain.TokenInfo(ctx, l.cfg.BarAddress, ev.Block)
	if err != nil {
		return nil, fmt.Errorf("failed to read bar metadata: %w", err)
	}

	bar = &entities.Bar{
		Address:   address,
		Name:      info.Name,
		Symbol:    info.Symbol,
		Decimals:  info.Decimals,
		Ace:       normalizeAddress(l.cfg.TokenAddress.Hex()),
		UpdatedAt: ev.Timestamp,
	}
	if err := l.store.PutBar(ctx, bar); err != nil {
		return nil, fmt.Errorf("failed to create bar: %w", err)
	}

	l.logger.Info().Str("bar", address).Str("symbol", info.Symbol).Msg("Created bar ledger")
	return bar, nil
}

func (l *Ledger) getBarUser(ctx context.Context, address string, ev Event) (*entities.BarUser, error) {
	address = normalizeAddress(address)

	user, err := l.store.GetBarUser(ctx, address)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load bar user %s: %w", address, err)
	}

	user = &entities.BarUser{
		Address:   address,
		UpdatedAt: ev.Timestamp,
	}
	return user, nil
}

// getChef loads the farm ledger, creating it with a configuration snapshot on
// first reference.
func (l *Ledger) getChef(ctx context.Context, ev Event) (*entities.MasterChef, error) {
	address := normalizeAddress(l.cfg.ChefAddress.Hex())

	chef, err := l.store.GetChef(ctx, address)
	if err == nil {
		return chef, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load chef: %w", err)
	}

	info, err := l.chain.ChefInfo(ctx, ev.Block)
	if err != nil {
		return nil, fmt.Errorf("failed to read chef configuration: %w", err)
	}

	chef = &entities.MasterChef{
		Address:         address,
		BonusMultiplier: info.BonusMultiplier,
		BonusEndBlock:   info.BonusEndBlock,
		Devaddr:         normalizeAddress(info.Devaddr.Hex()),
		Migrator:        normalizeAddress(info.Migrator.Hex()),
		Owner:           normalizeAddress(info.Owner.Hex()),
		StartBlock:      info.StartBlock,
		AcePerBlock:     info.AcePerBlock,
		TotalAllocPoint: info.TotalAllocPoint,
		UpdatedAt:       ev.Timestamp,
	}
	if err := l.store.PutChef(ctx, chef); err != nil {
		return nil, fmt.Errorf("failed to create chef: %w", err)
	}

	l.logger.Info().Str("chef", address).Msg("Created chef ledger")
	return chef, nil
}

// errPoolOutOfRange marks a pool id at or beyond the authoritative pool
// count. The caller skips the event instead of failing.
var errPoolOutOfRange = errors.New("pool id out of range")

// getPool loads a pool, creating it on first reference after validating the
// id against poolLength().
func (l *Ledger) getPool(ctx context.Context, pid uint64, ev Event) (*entities.Pool, error) {
	pool, err := l.store.GetPool(ctx, pid)
	if err == nil {
		return pool, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load pool %d: %w", pid, err)
	}

	length, err := l.chain.PoolLength(ctx, ev.Block)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool length: %w", err)
	}
	if pid >= length {
		return nil, errPoolOutOfRange
	}

	info, err := l.chain.PoolInfo(ctx, pid, ev.Block)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool info %d: %w", pid, err)
	}

	chef, err := l.getChef(ctx, ev)
	if err != nil {
		return nil, err
	}

	pool = &entities.Pool{
		ID:              pid,
		Owner:           chef.Address,
		Pair:            normalizeAddress(info.Pair.Hex()),
		AllocPoint:      info.AllocPoint,
		LastRewardBlock: info.LastRewardBlock,
		AccAcePerShare:  info.AccAcePerShare,
		Balance:         big.NewInt(0),
		Timestamp:       ev.Timestamp,
		Block:           ev.Block,
		UpdatedAt:       ev.Timestamp,
	}
	if err := l.store.PutPool(ctx, pool); err != nil {
		return nil, fmt.Errorf("failed to create pool %d: %w", pid, err)
	}

	l.logger.Info().Uint64("pool", pid).Str("pair", pool.Pair).Msg("Created pool ledger")
	return pool, nil
}

func (l *Ledger) getPoolUser(ctx context.Context, pid uint64, address string, ev Event) (*entities.PoolUser, error) {
	address = normalizeAddress(address)

	user, err := l.store.GetPoolUser(ctx, pid, address)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to load pool user %d-%s: %w", pid, address, err)
	}

	user = &entities.PoolUser{
		PoolID:     pid,
		Address:    address,
		Amount:     big.NewInt(0),
		RewardDebt: big.NewInt(0),
		Timestamp:  ev.Timestamp,
		Block:      ev.Block,
	}
	if err := l.store.PutPoolUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create pool user %d-%s: %w", pid, address, err)
	}

	return user, nil
}
