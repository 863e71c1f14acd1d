package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/centrifugal/gocent/v3"
	"github.com/rs/zerolog"

	"github.com/Ace-Swap/aceswap-indexer/internal/store"
)

// Publisher pushes ledger snapshots to Centrifugo channels as events settle.
// Changes are coalesced and flushed on a short ticker so a burst of events in
// one block produces a single update per entity.
type Publisher struct {
	gc         *gocent.Client
	store      store.Store
	barAddress string
	logger     zerolog.Logger

	mu           sync.Mutex
	barPending   bool
	poolsPending map[uint64]struct{}
	currentBlock uint64

	flushCh chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type PublishConfig struct {
	APIURL     string
	APIKey     string
	BarAddress string
}

func NewPublisher(config PublishConfig, st store.Store, logger zerolog.Logger) *Publisher {
	ctx, cancel := context.WithCancel(context.Background())

	p := &Publisher{
		gc: gocent.New(gocent.Config{
			Addr: config.APIURL,
			Key:  config.APIKey,
		}),
		store:        st,
		barAddress:   strings.ToLower(config.BarAddress),
		logger:       logger.With().Str("component", "realtime-publisher").Logger(),
		poolsPending: make(map[uint64]struct{}),
		flushCh:      make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
	}

	p.startFlusher()
	return p
}

func (p *Publisher) startFlusher() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-p.ctx.Done():
				p.logger.Info().Msg("Stopping publisher flusher")
				return
			case <-ticker.C:
				p.flush(p.ctx)
			case <-p.flushCh:
				p.flush(p.ctx)
			}
		}
	}()
}

// EnqueueBarChanged marks the bar ledger dirty for the next flush.
func (p *Publisher) EnqueueBarChanged() {
	p.mu.Lock()
	p.barPending = true
	p.mu.Unlock()
	p.wake()
}

// EnqueuePoolChanged marks one pool dirty for the next flush.
func (p *Publisher) EnqueuePoolChanged(poolID uint64) {
	p.mu.Lock()
	p.poolsPending[poolID] = struct{}{}
	p.mu.Unlock()
	p.wake()
}

func (p *Publisher) SetCurrentBlock(blockNumber uint64) {
	p.mu.Lock()
	p.currentBlock = blockNumber
	p.mu.Unlock()
}

func (p *Publisher) wake() {
	select {
	case p.flushCh <- struct{}{}:
	default:
	}
}

func (p *Publisher) Flush() {
	p.flush(p.ctx)
}

func (p *Publisher) flush(ctx context.Context) {
	p.mu.Lock()
	barPending := p.barPending
	p.barPending = false

	poolIDs := make([]uint64, 0, len(p.poolsPending))
	for id := range p.poolsPending {
		poolIDs = append(poolIDs, id)
	}
	p.poolsPending = make(map[uint64]struct{})

	currentBlock := p.currentBlock
	p.mu.Unlock()

	if !barPending && len(poolIDs) == 0 {
		return
	}

	timestamp := time.Now().UTC().Unix()

	if barPending {
		p.publishBar(ctx, currentBlock, timestamp)
	}

	for _, id := range poolIDs {
		p.publishPool(ctx, id, currentBlock, timestamp)
	}
}

func (p *Publisher) publishBar(ctx context.Context, block uint64, timestamp int64) {
	bar, err := p.store.GetBar(ctx, p.barAddress)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to load bar for publish")
		return
	}

	payload := map[string]any{
		"type":         "bar.update",
		"block_number": block,
		"ts":           timestamp,
		"bar":          bar,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn().Err(err).Msg("Failed to marshal bar payload")
		return
	}

	if _, err := p.gc.Publish(ctx, "ledger.bar", payloadBytes); err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Warn().Err(err).Msg("Failed to publish bar update")
	}
}

func (p *Publisher) publishPool(ctx context.Context, poolID uint64, block uint64, timestamp int64) {
	pool, err := p.store.GetPool(ctx, poolID)
	if err != nil {
		p.logger.Warn().Err(err).Uint64("pool", poolID).Msg("Failed to load pool for publish")
		return
	}

	payload := map[string]any{
		"type":         "pool.update",
		"block_number": block,
		"ts":           timestamp,
		"pool":         pool,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn().Err(err).Uint64("pool", poolID).Msg("Failed to marshal pool payload")
		return
	}

	channel := fmt.Sprintf("ledger.pool.%d", poolID)
	if _, err := p.gc.Publish(ctx, channel, payloadBytes); err != nil {
		if p.ctx.Err() != nil {
			return
		}
		p.logger.Warn().
			Err(err).
			Uint64("pool", poolID).
			Str("channel", channel).
			Msg("Failed to publish pool update")
	}
}

func (p *Publisher) Close() error {
	p.logger.Info().Msg("Closing publisher")
	p.cancel()
	p.wg.Wait()
	return nil
}
