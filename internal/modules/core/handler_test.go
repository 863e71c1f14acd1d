package core

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testABI = `[
  {"anonymous": false, "inputs": [
    {"indexed": true, "name": "user", "type": "address"},
    {"indexed": true, "name": "pid", "type": "uint256"},
    {"indexed": false, "name": "amount", "type": "uint256"}
  ], "name": "Deposit", "type": "event"}
]`

func TestEventParser(t *testing.T) {
	contractABI, err := abi.JSON(strings.NewReader(testABI))
	require.NoError(t, err)

	parser := NewEventParser()
	parser.AddContract(&contractABI)

	user := common.HexToAddress("0x0000000000000000000000000000000000000aaa")
	amount := new(big.Int).Mul(big.NewInt(5), big.NewInt(1e18))

	t.Run("parses indexed and data arguments", func(t *testing.T) {
		log := &types.Log{
			Address: common.HexToAddress("0x00000000000000000000000000000000000000c1"),
			Topics: []common.Hash{
				contractABI.Events["Deposit"].ID,
				common.BytesToHash(user.Bytes()),
				common.BigToHash(big.NewInt(3)),
			},
			Data:        common.LeftPadBytes(amount.Bytes(), 32),
			BlockNumber: 12345,
			TxHash:      common.HexToHash("0x01"),
			Index:       7,
		}

		parsed, err := parser.ParseEvent(log)
		require.NoError(t, err)

		assert.Equal(t, "Deposit", parsed.EventName)
		assert.Equal(t, uint64(12345), parsed.BlockNumber)
		assert.Equal(t, uint(7), parsed.LogIndex)

		assert.Equal(t, user, parsed.Args["user"])

		pid, ok := parsed.Args["pid"].(*big.Int)
		require.True(t, ok)
		assert.Equal(t, int64(3), pid.Int64())

		got, ok := parsed.Args["amount"].(*big.Int)
		require.True(t, ok)
		assert.Equal(t, 0, got.Cmp(amount))
	})

	t.Run("unknown topic", func(t *testing.T) {
		log := &types.Log{
			Topics: []common.Hash{common.HexToHash("0xdead")},
		}
		_, err := parser.ParseEvent(log)
		var unknown ErrUnknownEvent
		assert.ErrorAs(t, err, &unknown)
	})

	t.Run("no topics", func(t *testing.T) {
		_, err := parser.ParseEvent(&types.Log{})
		var invalid ErrInvalidEvent
		assert.ErrorAs(t, err, &invalid)
	})
}

func TestValidateManifest(t *testing.T) {
	address := "0x00000000000000000000000000000000000000c1"
	startBlock := uint64(100)

	valid := &Manifest{
		Name:    "bar",
		Version: "1.0.0",
		DataSources: []DataSource{{
			Kind:    "ethereum/contract",
			Name:    "AceBar",
			Network: "ethereum",
			Source:  DataSourceSource{Address: &address, ABI: "AceBar", StartBlock: &startBlock},
			Mapping: DataSourceMapping{
				Kind:          "ethereum/events",
				EventHandlers: []EventHandler{{Event: "Transfer(indexed address,indexed address,uint256)", Handler: "handleTransfer"}},
			},
		}},
	}
	assert.NoError(t, valid.ValidateManifest())

	t.Run("missing name", func(t *testing.T) {
		m := *valid
		m.Name = ""
		assert.Error(t, m.ValidateManifest())
	})

	t.Run("no data sources", func(t *testing.T) {
		m := *valid
		m.DataSources = nil
		assert.Error(t, m.ValidateManifest())
	})

	t.Run("no handlers", func(t *testing.T) {
		m := *valid
		ds := m.DataSources[0]
		ds.Mapping.EventHandlers = nil
		m.DataSources = []DataSource{ds}
		assert.Error(t, m.ValidateManifest())
	})
}
