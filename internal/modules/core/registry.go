package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/Ace-Swap/aceswap-indexer/internal/database"
)

// ModuleRegistry routes replayed events and calls to registered modules.
type ModuleRegistry struct {
	modules map[string]Module
	db      *database.Database
	logger  zerolog.Logger

	// Event routing
	eventFilters   map[string][]string // topic0 -> module names
	addressFilters map[string][]string // address -> module names
	callTargets    map[string][]string // contract address -> module names

	mu sync.RWMutex
}

// NewModuleRegistry creates a new module registry
func NewModuleRegistry(db *database.Database, logger zerolog.Logger) *ModuleRegistry {
	return &ModuleRegistry{
		modules:        make(map[string]Module),
		db:             db,
		logger:         logger.With().Str("component", "module_registry").Logger(),
		eventFilters:   make(map[string][]string),
		addressFilters: make(map[string][]string),
		callTargets:    make(map[string][]string),
	}
}

// RegisterModule validates, initializes, and wires a module's filters.
func (r *ModuleRegistry) RegisterModule(ctx context.Context, module Module) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := module.Name()

	if _, exists := r.modules[name]; exists {
		return fmt.Errorf("module %s is already registered", name)
	}

	manifest := module.Manifest()
	if manifest == nil {
		return fmt.Errorf("module %s has no manifest", name)
	}
	if err := manifest.ValidateManifest(); err != nil {
		return fmt.Errorf("module %s has invalid manifest: %w", name, err)
	}

	if err := module.Initialize(ctx, r.db); err != nil {
		return fmt.Errorf("failed to initialize module %s: %w", name, err)
	}

	filters := module.GetEventFilters()
	for _, filter := range filters {
		if filter.Topic0 != "" {
			topic := strings.ToLower(filter.Topic0)
			r.eventFilters[topic] = append(r.eventFilters[topic], name)
		}
		if filter.Address != "" {
			address := strings.ToLower(filter.Address)
			r.addressFilters[address] = append(r.addressFilters[address], name)
		}
	}

	if callModule, ok := module.(CallModule); ok {
		target := strings.ToLower(callModule.CallAddress())
		r.callTargets[target] = append(r.callTargets[target], name)
	}

	r.modules[name] = module

	r.logger.Info().
		Str("module", name).
		Str("version", module.Version()).
		Int("filters", len(filters)).
		Msg("Module registered")

	return nil
}

// ProcessEvent routes an event to interested modules. A module error is
// returned to the caller so the replay can stop at the failing event.
func (r *ModuleRegistry) ProcessEvent(ctx context.Context, log *types.Log, timestamp int64) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.findInterestedModules(log) {
		module := r.modules[name]
		if err := module.HandleEvent(ctx, log, timestamp); err != nil {
			return fmt.Errorf("module %s failed at block %d tx %s: %w",
				name, log.BlockNumber, log.TxHash.Hex(), err)
		}
	}
	return nil
}

// ProcessCall routes a successful contract call to the modules watching the
// target contract.
func (r *ModuleRegistry) ProcessCall(ctx context.Context, call *database.ChefCall) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target := strings.ToLower(call.To)
	for _, name := range r.callTargets[target] {
		callModule, ok := r.modules[name].(CallModule)
		if !ok {
			continue
		}
		if err := callModule.HandleCall(ctx, call); err != nil {
			return fmt.Errorf("module %s failed call at block %d tx %s: %w",
				name, call.BlockNumber, call.TransactionHash, err)
		}
	}
	return nil
}

// WatchedAddresses returns every contract address a registered module filters
// on, for the replay query.
func (r *ModuleRegistry) WatchedAddresses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	addresses := make([]string, 0, len(r.addressFilters))
	for address := range r.addressFilters {
		addresses = append(addresses, address)
	}
	return addresses
}

// StartBlock returns the lowest start block across registered modules.
func (r *ModuleRegistry) StartBlock() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var start uint64
	first := true
	for _, module := range r.modules {
		if first || module.GetStartBlock() < start {
			start = module.GetStartBlock()
			first = false
		}
	}
	return start
}

// findInterestedModules finds modules that should process this event
func (r *ModuleRegistry) findInterestedModules(log *types.Log) []string {
	var interested []string
	seen := make(map[string]bool)

	if len(log.Topics) > 0 {
		topic0 := strings.ToLower(log.Topics[0].Hex())
		for _, name := range r.eventFilters[topic0] {
			if !seen[name] {
				interested = append(interested, name)
				seen[name] = true
			}
		}
	}

	address := strings.ToLower(log.Address.Hex())
	for _, name := range r.addressFilters[address] {
		if !seen[name] {
			interested = append(interested, name)
			seen[name] = true
		}
	}

	return interested
}

// ListModules returns all registered module names
func (r *ModuleRegistry) ListModules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	return names
}
