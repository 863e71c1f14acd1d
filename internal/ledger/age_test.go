package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestElapsedAge(t *testing.T) {
	t.Run("full day accrues balance", func(t *testing.T) {
		age := ElapsedAge(decimal.Zero, dec("100"), 0, 86400)
		assert.True(t, age.Equal(dec("100")), "got %s", age)
	})

	t.Run("half day accrues half balance", func(t *testing.T) {
		age := ElapsedAge(dec("10"), dec("100"), 0, 43200)
		assert.True(t, age.Equal(dec("60")), "got %s", age)
	})

	t.Run("zero balance leaves age untouched", func(t *testing.T) {
		age := ElapsedAge(dec("42"), decimal.Zero, 0, 86400)
		assert.True(t, age.Equal(dec("42")))
	})

	t.Run("no time elapsed leaves age untouched", func(t *testing.T) {
		age := ElapsedAge(dec("42"), dec("100"), 500, 500)
		assert.True(t, age.Equal(dec("42")))
	})

	t.Run("clock going backwards leaves age untouched", func(t *testing.T) {
		age := ElapsedAge(dec("42"), dec("100"), 500, 400)
		assert.True(t, age.Equal(dec("42")))
	})
}

func TestRemoveAge(t *testing.T) {
	t.Run("removes proportionally", func(t *testing.T) {
		taken, remaining := RemoveAge(dec("100"), dec("100"), dec("25"))
		assert.True(t, taken.Equal(dec("25")), "taken %s", taken)
		assert.True(t, remaining.Equal(dec("75")), "remaining %s", remaining)
	})

	t.Run("full removal empties age", func(t *testing.T) {
		taken, remaining := RemoveAge(dec("80"), dec("40"), dec("40"))
		assert.True(t, taken.Equal(dec("80")))
		assert.True(t, remaining.IsZero())
	})

	t.Run("zero balance keeps age", func(t *testing.T) {
		taken, remaining := RemoveAge(dec("80"), decimal.Zero, dec("40"))
		assert.True(t, taken.IsZero())
		assert.True(t, remaining.Equal(dec("80")))
	})

	t.Run("taken and remaining sum to original", func(t *testing.T) {
		taken, remaining := RemoveAge(dec("123.456"), dec("78.9"), dec("12.3"))
		assert.True(t, taken.Add(remaining).Equal(dec("123.456")))
	})
}
