package masterchef

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/Ace-Swap/aceswap-indexer/internal/database"
	"github.com/Ace-Swap/aceswap-indexer/internal/ledger"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/core"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/loader"
	"github.com/Ace-Swap/aceswap-indexer/internal/realtime"
)

// Module settles chef events and admin calls against the farm ledger.
type Module struct {
	manifest  *core.Manifest
	parser    *core.EventParser
	abi       abi.ABI
	ledger    *ledger.Ledger
	publisher *realtime.Publisher
	logger    zerolog.Logger

	chefAddress common.Address

	eventHandlers map[string]eventHandler
}

type eventHandler func(ctx context.Context, parsed *core.ParsedEvent) error

func NewModule(manifestPath string, chefAddress common.Address, lg *ledger.Ledger, publisher *realtime.Publisher, logger zerolog.Logger) (*Module, error) {
	manifestLoader := loader.NewManifestLoader(logger)
	manifest, err := manifestLoader.LoadFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	contractABI, err := abi.JSON(strings.NewReader(chefABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse chef ABI: %w", err)
	}

	parser := core.NewEventParser()
	parser.AddContract(&contractABI)

	m := &Module{
		manifest:    manifest,
		parser:      parser,
		abi:         contractABI,
		ledger:      lg,
		publisher:   publisher,
		logger:      logger.With().Str("module", "masterchef").Logger(),
		chefAddress: chefAddress,
	}
	m.eventHandlers = map[string]eventHandler{
		"Deposit":              m.handleDeposit,
		"Withdraw":             m.handleWithdraw,
		"EmergencyWithdraw":    m.handleEmergencyWithdraw,
		"OwnershipTransferred": m.handleOwnershipTransferred,
	}
	return m, nil
}

func (m *Module) Name() string {
	return m.manifest.Name
}

func (m *Module) Version() string {
	return m.manifest.Version
}

func (m *Module) Manifest() *core.Manifest {
	return m.manifest
}

func (m *Module) Initialize(ctx context.Context, db *database.Database) error {
	m.logger.Info().Str("chef", m.chefAddress.Hex()).Msg("MasterChef module initialized")
	return nil
}

func (m *Module) GetEventFilters() []core.EventFilter {
	address := m.chefAddress.Hex()
	return []core.EventFilter{
		{Address: address, Topic0: depositTopic},
		{Address: address, Topic0: withdrawTopic},
		{Address: address, Topic0: emergencyWithdrawTopic},
		{Address: address, Topic0: ownershipTransferredTopic},
	}
}

func (m *Module) GetStartBlock() uint64 {
	if len(m.manifest.DataSources) > 0 && m.manifest.DataSources[0].Source.StartBlock != nil {
		return *m.manifest.DataSources[0].Source.StartBlock
	}
	return 0
}

func (m *Module) CallAddress() string {
	return m.chefAddress.Hex()
}

func (m *Module) HandleEvent(ctx context.Context, log *types.Log, timestamp int64) error {
	if log.Address != m.chefAddress {
		return nil
	}

	parsed, err := m.parser.ParseEvent(log)
	if err != nil {
		if _, unknown := err.(core.ErrUnknownEvent); unknown {
			return nil
		}
		return fmt.Errorf("failed to parse chef event: %w", err)
	}
	parsed.Timestamp = timestamp

	handler, exists := m.eventHandlers[parsed.EventName]
	if !exists {
		return nil
	}
	return handler(ctx, parsed)
}

var _ core.CallModule = (*Module)(nil)
