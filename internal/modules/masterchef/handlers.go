package masterchef

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Ace-Swap/aceswap-indexer/internal/database"
	"github.com/Ace-Swap/aceswap-indexer/internal/ledger"
	"github.com/Ace-Swap/aceswap-indexer/internal/modules/core"
)

func (m *Module) farmEvent(parsed *core.ParsedEvent) (ledger.FarmEvent, error) {
	user, ok := parsed.Args["user"].(common.Address)
	if !ok {
		return ledger.FarmEvent{}, fmt.Errorf("%s at %s has no user", parsed.EventName, parsed.TransactionHash.Hex())
	}
	pid, ok := parsed.Args["pid"].(*big.Int)
	if !ok {
		return ledger.FarmEvent{}, fmt.Errorf("%s at %s has no pid", parsed.EventName, parsed.TransactionHash.Hex())
	}
	amount, ok := parsed.Args["amount"].(*big.Int)
	if !ok {
		return ledger.FarmEvent{}, fmt.Errorf("%s at %s has no amount", parsed.EventName, parsed.TransactionHash.Hex())
	}

	return ledger.FarmEvent{
		Event: ledger.Event{
			Block:     parsed.BlockNumber,
			Timestamp: parsed.Timestamp,
			TxHash:    parsed.TransactionHash.Hex(),
		},
		PID:    pid.Uint64(),
		User:   user.Hex(),
		Amount: amount,
	}, nil
}

func (m *Module) settle(parsed *core.ParsedEvent, outcome ledger.Outcome, err error, poolID uint64) error {
	if err != nil {
		return fmt.Errorf("failed to settle %s: %w", parsed.EventName, err)
	}

	event := m.logger.Debug().
		Str("event", parsed.EventName).
		Str("outcome", outcome.Status.String()).
		Str("tx", parsed.TransactionHash.Hex()).
		Uint64("block", parsed.BlockNumber)
	if outcome.Reason != "" {
		event = event.Str("reason", outcome.Reason)
	}
	event.Msg("Settled chef event")

	if outcome.Status == ledger.Applied && m.publisher != nil {
		m.publisher.EnqueuePoolChanged(poolID)
	}
	return nil
}

func (m *Module) handleDeposit(ctx context.Context, parsed *core.ParsedEvent) error {
	ev, err := m.farmEvent(parsed)
	if err != nil {
		return err
	}
	outcome, err := m.ledger.Deposit(ctx, ev)
	return m.settle(parsed, outcome, err, ev.PID)
}

func (m *Module) handleWithdraw(ctx context.Context, parsed *core.ParsedEvent) error {
	ev, err := m.farmEvent(parsed)
	if err != nil {
		return err
	}
	outcome, err := m.ledger.Withdraw(ctx, ev)
	return m.settle(parsed, outcome, err, ev.PID)
}

func (m *Module) handleEmergencyWithdraw(ctx context.Context, parsed *core.ParsedEvent) error {
	ev, err := m.farmEvent(parsed)
	if err != nil {
		return err
	}
	outcome, err := m.ledger.EmergencyWithdraw(ctx, ev)
	return m.settle(parsed, outcome, err, ev.PID)
}

func (m *Module) handleOwnershipTransferred(ctx context.Context, parsed *core.ParsedEvent) error {
	newOwner, ok := parsed.Args["newOwner"].(common.Address)
	if !ok {
		return fmt.Errorf("OwnershipTransferred at %s has no newOwner", parsed.TransactionHash.Hex())
	}

	_, err := m.ledger.OwnershipTransferred(ctx, ledger.Event{
		Block:     parsed.BlockNumber,
		Timestamp: parsed.Timestamp,
		TxHash:    parsed.TransactionHash.Hex(),
	}, newOwner.Hex())
	if err != nil {
		return fmt.Errorf("failed to settle ownership transfer: %w", err)
	}
	return nil
}

// HandleCall settles a successful admin transaction. Deposit-family functions
// are covered by their events and skipped here.
func (m *Module) HandleCall(ctx context.Context, call *database.ChefCall) error {
	data := call.InputBytes()
	if len(data) < 4 {
		return nil
	}

	method, err := m.abi.MethodById(data[:4])
	if err != nil {
		// Unknown selector, not an admin function we track.
		return nil
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return fmt.Errorf("failed to decode %s call at %s: %w", method.Name, call.TransactionHash, err)
	}

	ev := ledger.CallEvent{
		Event: ledger.Event{
			Block:     call.BlockNumber,
			Timestamp: call.BlockTimestamp,
			TxHash:    call.TransactionHash,
		},
		From: call.From,
	}

	var outcome ledger.Outcome
	switch method.Name {
	case "add":
		outcome, err = m.ledger.AddPool(ctx, ev)
	case "set":
		pid, ok := args[0].(*big.Int)
		if !ok {
			return fmt.Errorf("set call at %s has no pid", call.TransactionHash)
		}
		outcome, err = m.ledger.SetPool(ctx, ev, pid.Uint64())
	case "setMigrator":
		migrator, ok := args[0].(common.Address)
		if !ok {
			return fmt.Errorf("setMigrator call at %s has no migrator", call.TransactionHash)
		}
		outcome, err = m.ledger.SetMigrator(ctx, ev, migrator.Hex())
	case "migrate":
		pid, ok := args[0].(*big.Int)
		if !ok {
			return fmt.Errorf("migrate call at %s has no pid", call.TransactionHash)
		}
		outcome, err = m.ledger.Migrate(ctx, ev, pid.Uint64())
	case "updatePool":
		pid, ok := args[0].(*big.Int)
		if !ok {
			return fmt.Errorf("updatePool call at %s has no pid", call.TransactionHash)
		}
		outcome, err = m.ledger.UpdatePool(ctx, ev, pid.Uint64())
	case "massUpdatePools":
		outcome, err = m.ledger.MassUpdatePools(ctx, ev)
	case "dev":
		devaddr, ok := args[0].(common.Address)
		if !ok {
			return fmt.Errorf("dev call at %s has no devaddr", call.TransactionHash)
		}
		outcome, err = m.ledger.SetDev(ctx, ev, devaddr.Hex())
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to settle %s call: %w", method.Name, err)
	}

	m.logger.Debug().
		Str("call", method.Name).
		Str("outcome", outcome.Status.String()).
		Str("tx", call.TransactionHash).
		Uint64("block", call.BlockNumber).
		Msg("Settled chef call")
	return nil
}
