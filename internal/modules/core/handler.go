package core

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ParsedEvent represents a decoded event log
type ParsedEvent struct {
	// Raw log data
	Log *types.Log

	// Event information
	EventName string
	Address   common.Address

	// Parsed event data
	Args map[string]interface{}

	// Transaction context
	TransactionHash  common.Hash
	TransactionIndex uint
	BlockNumber      uint64
	BlockHash        common.Hash
	LogIndex         uint

	// Containing block's unix time, attached by the replayer
	Timestamp int64
}

// EventParser handles parsing of event logs using ABI definitions
type EventParser struct {
	events map[common.Hash]*abi.Event // topic0 -> event
}

// NewEventParser creates a new event parser
func NewEventParser() *EventParser {
	return &EventParser{
		events: make(map[common.Hash]*abi.Event),
	}
}

// AddContract indexes a contract ABI's events by topic hash
func (p *EventParser) AddContract(contractABI *abi.ABI) {
	for name := range contractABI.Events {
		event := contractABI.Events[name]
		p.events[event.ID] = &event
	}
}

// ParseEvent parses a log into a ParsedEvent
func (p *EventParser) ParseEvent(log *types.Log) (*ParsedEvent, error) {
	if len(log.Topics) == 0 {
		return nil, ErrInvalidEvent{Reason: "no topics in log"}
	}

	eventABI, exists := p.events[log.Topics[0]]
	if !exists {
		return nil, ErrUnknownEvent{Topic: log.Topics[0].Hex()}
	}

	args := make(map[string]interface{})

	// Indexed parameters come from topics[1:]
	topicIndex := 1
	for _, input := range eventABI.Inputs {
		if !input.Indexed {
			continue
		}
		if topicIndex < len(log.Topics) {
			args[input.Name] = p.parseIndexedArg(log.Topics[topicIndex], input.Type)
			topicIndex++
		}
	}

	// Non-indexed parameters come from the data field
	if len(log.Data) > 0 {
		nonIndexedInputs := make(abi.Arguments, 0)
		for _, input := range eventABI.Inputs {
			if !input.Indexed {
				nonIndexedInputs = append(nonIndexedInputs, input)
			}
		}

		if len(nonIndexedInputs) > 0 {
			nonIndexedArgs, err := nonIndexedInputs.Unpack(log.Data)
			if err != nil {
				return nil, ErrEventParsing{Event: eventABI.Name, Err: err}
			}

			for i, input := range nonIndexedInputs {
				if i < len(nonIndexedArgs) {
					args[input.Name] = nonIndexedArgs[i]
				}
			}
		}
	}

	return &ParsedEvent{
		Log:              log,
		EventName:        eventABI.Name,
		Address:          log.Address,
		Args:             args,
		TransactionHash:  log.TxHash,
		TransactionIndex: log.TxIndex,
		BlockNumber:      log.BlockNumber,
		BlockHash:        log.BlockHash,
		LogIndex:         log.Index,
	}, nil
}

// parseIndexedArg converts a topic hash to the appropriate Go type
func (p *EventParser) parseIndexedArg(topic common.Hash, argType abi.Type) interface{} {
	switch argType.T {
	case abi.AddressTy:
		return common.HexToAddress(topic.Hex())
	case abi.IntTy, abi.UintTy:
		return new(big.Int).SetBytes(topic.Bytes())
	case abi.BoolTy:
		return topic.Big().Cmp(common.Big0) != 0
	case abi.BytesTy, abi.FixedBytesTy:
		return topic.Bytes()
	default:
		return topic.Hex()
	}
}

// Error types
type ErrInvalidEvent struct {
	Reason string
}

func (e ErrInvalidEvent) Error() string {
	return "invalid event: " + e.Reason
}

type ErrUnknownEvent struct {
	Topic string
}

func (e ErrUnknownEvent) Error() string {
	return "unknown event topic: " + e.Topic
}

type ErrEventParsing struct {
	Event string
	Err   error
}

func (e ErrEventParsing) Error() string {
	return "failed to parse event " + e.Event + ": " + e.Err.Error()
}
