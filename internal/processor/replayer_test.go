package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ace-Swap/aceswap-indexer/internal/database"
)

func TestReplayOrderMerge(t *testing.T) {
	log := func(block uint64, txIndex uint) *database.EventLog {
		return &database.EventLog{BlockNumber: block, TransactionIndex: txIndex}
	}
	call := func(block uint64, txIndex uint) *database.ChefCall {
		return &database.ChefCall{BlockNumber: block, TransactionIndex: txIndex}
	}

	t.Run("earlier block first", func(t *testing.T) {
		assert.True(t, before(log(10, 5), call(11, 0)))
		assert.False(t, before(log(12, 0), call(11, 9)))
	})

	t.Run("earlier transaction first within a block", func(t *testing.T) {
		assert.True(t, before(log(10, 1), call(10, 2)))
		assert.False(t, before(log(10, 3), call(10, 2)))
	})

	t.Run("logs precede the call of the same transaction", func(t *testing.T) {
		assert.True(t, before(log(10, 2), call(10, 2)))
	})
}
