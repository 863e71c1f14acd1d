package database

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// EventLog is a raw log row from the event_logs table, as captured by the
// block ingester.
type EventLog struct {
	BlockNumber      uint64 `db:"block_number"`
	BlockHash        string `db:"block_hash"`
	BlockTimestamp   int64  `db:"block_timestamp"`
	TransactionHash  string `db:"transaction_hash"`
	TransactionIndex uint   `db:"transaction_index"`
	LogIndex         uint   `db:"log_index"`
	Address          string `db:"address"`
	Topics           []byte `db:"topics"` // JSON array of hex hashes
	Data             string `db:"data"`
	Removed          bool   `db:"removed"`
}

// ToEthereumLog converts the row into the go-ethereum log type handlers
// operate on.
func (e *EventLog) ToEthereumLog() (*types.Log, error) {
	var topicStrings []string
	if err := json.Unmarshal(e.Topics, &topicStrings); err != nil {
		return nil, fmt.Errorf("failed to parse topics: %w", err)
	}

	topics := make([]common.Hash, len(topicStrings))
	for i, topic := range topicStrings {
		topics[i] = common.HexToHash(topic)
	}

	return &types.Log{
		Address:     common.HexToAddress(e.Address),
		Topics:      topics,
		Data:        common.FromHex(e.Data),
		BlockNumber: e.BlockNumber,
		TxHash:      common.HexToHash(e.TransactionHash),
		TxIndex:     e.TransactionIndex,
		BlockHash:   common.HexToHash(e.BlockHash),
		Index:       e.LogIndex,
		Removed:     e.Removed,
	}, nil
}

// ChefCall is a successful transaction sent to the chef contract. Admin
// operations (add, set, migrate) emit no events, so the replay pulls them
// from the transactions table and interleaves them with logs by block order.
type ChefCall struct {
	BlockNumber      uint64 `db:"block_number"`
	BlockTimestamp   int64  `db:"block_timestamp"`
	TransactionHash  string `db:"transaction_hash"`
	TransactionIndex uint   `db:"transaction_index"`
	From             string `db:"from_address"`
	To               string `db:"to_address"`
	Input            string `db:"input"`
	Status           int    `db:"status"`
}

// InputBytes decodes the hex-encoded calldata.
func (c *ChefCall) InputBytes() []byte {
	return common.FromHex(c.Input)
}

// MethodID returns the 4-byte function selector, or an empty string when the
// calldata is too short.
func (c *ChefCall) MethodID() string {
	data := c.InputBytes()
	if len(data) < 4 {
		return ""
	}
	return strings.ToLower(common.Bytes2Hex(data[:4]))
}
