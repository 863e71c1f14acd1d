package core

import (
	"context"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Ace-Swap/aceswap-indexer/internal/database"
)

// Module is a processing unit that settles a family of events against the
// ledger, patterned on The Graph's subgraph data sources. Events arrive in
// replay order with their block timestamp attached.
type Module interface {
	// Name returns the unique name of the module
	Name() string

	// Version returns the module version
	Version() string

	// Manifest returns the module's manifest configuration
	Manifest() *Manifest

	// Initialize sets up the module with its database connection
	Initialize(ctx context.Context, db *database.Database) error

	// HandleEvent settles a single event log matching this module's filters.
	// timestamp is the containing block's unix time.
	HandleEvent(ctx context.Context, log *types.Log, timestamp int64) error

	// GetEventFilters returns the event filters this module is interested in
	GetEventFilters() []EventFilter

	// GetStartBlock returns the block number from which this module starts
	GetStartBlock() uint64
}

// CallModule is implemented by modules that also settle successful contract
// calls. Admin operations on the chef emit no events, so they reach the
// module as decoded transactions.
type CallModule interface {
	Module

	// HandleCall settles a successful transaction to a watched contract.
	HandleCall(ctx context.Context, call *database.ChefCall) error

	// CallAddress returns the contract whose transactions this module wants.
	CallAddress() string
}

// EventFilter defines what events a module wants to receive
type EventFilter struct {
	// Address is the contract address to watch (optional, empty = all addresses)
	Address string `yaml:"address,omitempty"`

	// Topic0 is the event signature hash (optional, empty = all events)
	Topic0 string `yaml:"topic0,omitempty"`
}
