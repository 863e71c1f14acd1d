package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDayOf(t *testing.T) {
	assert.Equal(t, int64(0), dayOf(0))
	assert.Equal(t, int64(0), dayOf(1000))
	assert.Equal(t, int64(0), dayOf(86399))
	assert.Equal(t, int64(1), dayOf(86400))
	assert.Equal(t, int64(1), dayOf(172799))
	assert.Equal(t, int64(2), dayOf(172800))
}
