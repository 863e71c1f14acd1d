package bar

import (
	"context"
	"fmt"
	"math/big"
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

// transferTopic is keccak256("Transfer(address,address,uint256)").
const transferTopic = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

const xAceABI = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "from", "type": "address"},
    {"indexed": true, "name": "to", "type": "address"},
    {"indexed": false, "name": "value", "type": "uint256"}
  ], "name": "Transfer", "type": "event"}
]`

// Module settles xACE Transfer events against the bar ledger.
type Module struct {
	manifest  *core.Manifest
	parser    *core.EventParser
	ledger    *ledger.Ledger
	publisher *realtime.Publisher
	logger    zerolog.Logger

	barAddress common.Address
}

func NewModule(manifestPath string, barAddress common.Address, lg *ledger.Ledger, publisher *realtime.Publisher, logger zerolog.Logger) (*Module, error) {
	manifestLoader := loader.NewManifestLoader(logger)
	manifest, err := manifestLoader.LoadFromFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	contractABI, err := abi.JSON(strings.NewReader(xAceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse xACE ABI: %w", err)
	}

	parser := core.NewEventParser()
	parser.AddContract(&contractABI)

	return &Module{
		manifest:   manifest,
		parser:     parser,
		ledger:     lg,
		publisher:  publisher,
		logger:     logger.With().Str("module", "bar").Logger(),
		barAddress: barAddress,
	}, nil
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
	m.logger.Info().Str("bar", m.barAddress.Hex()).Msg("Bar module initialized")
	return nil
}

func (m *Module) GetEventFilters() []core.EventFilter {
	return []core.EventFilter{
		{Address: m.barAddress.Hex(), Topic0: transferTopic},
	}
}

func (m *Module) GetStartBlock() uint64 {
	if len(m.manifest.DataSources) > 0 && m.manifest.DataSources[0].Source.StartBlock != nil {
		return *m.manifest.DataSources[0].Source.StartBlock
	}
	return 0
}

// HandleEvent settles one xACE Transfer. Events at other addresses or with
// other signatures are ignored silently so address-level filters stay cheap.
func (m *Module) HandleEvent(ctx context.Context, log *types.Log, timestamp int64) error {
	if log.Address != m.barAddress {
		return nil
	}
	if len(log.Topics) == 0 || strings.ToLower(log.Topics[0].Hex()) != transferTopic {
		return nil
	}

	parsed, err := m.parser.ParseEvent(log)
	if err != nil {
		return fmt.Errorf("failed to parse transfer: %w", err)
	}
	parsed.Timestamp = timestamp

	from, ok := parsed.Args["from"].(common.Address)
	if !ok {
		return fmt.Errorf("transfer at %s has no from address", log.TxHash.Hex())
	}
	to, ok := parsed.Args["to"].(common.Address)
	if !ok {
		return fmt.Errorf("transfer at %s has no to address", log.TxHash.Hex())
	}
	value, ok := parsed.Args["value"].(*big.Int)
	if !ok {
		return fmt.Errorf("transfer at %s has no value", log.TxHash.Hex())
	}

	outcome, err := m.ledger.Transfer(ctx, ledger.TransferEvent{
		Event: ledger.Event{
			Block:     log.BlockNumber,
			Timestamp: timestamp,
			TxHash:    log.TxHash.Hex(),
		},
		From:  from.Hex(),
		To:    to.Hex(),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to settle transfer: %w", err)
	}

	m.logger.Debug().
		Str("outcome", outcome.Status.String()).
		Str("tx", log.TxHash.Hex()).
		Uint64("block", log.BlockNumber).
		Msg("Settled bar transfer")

	if outcome.Status == ledger.Applied && m.publisher != nil {
		m.publisher.EnqueueBarChanged()
	}
	return nil
}

var _ core.Module = (*Module)(nil)
