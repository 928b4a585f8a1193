package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCountExceeded(t *testing.T) {
	assert.False(t, CountExceeded(5, 4))
	assert.True(t, CountExceeded(5, 5))
	assert.True(t, CountExceeded(5, 6))
	assert.True(t, CountExceeded(0, 0))
	assert.False(t, CountExceeded(Unlimited, 10000))
}

func TestStorageExceeded(t *testing.T) {
	mb := func(n int64) int64 { return n * BytesPerMB }

	t.Run("exactly at the limit is allowed", func(t *testing.T) {
		assert.False(t, StorageExceeded(1024, decimal.NewFromInt(1000), mb(24)))
	})

	t.Run("one byte over is denied", func(t *testing.T) {
		assert.True(t, StorageExceeded(1024, decimal.NewFromInt(1000), mb(24)+1))
	})

	t.Run("30MB on top of 1020MB is denied", func(t *testing.T) {
		assert.True(t, StorageExceeded(1024, decimal.NewFromInt(1020), mb(30)))
	})

	t.Run("fractional usage is kept", func(t *testing.T) {
		current := BytesToMB(mb(1000) + BytesPerMB/2)
		assert.True(t, current.Equal(decimal.NewFromFloat(1000.5)))
		assert.False(t, StorageExceeded(1024, current, mb(23)))
		assert.True(t, StorageExceeded(1024, current, mb(24)))
	})

	t.Run("unlimited never exceeds", func(t *testing.T) {
		assert.False(t, StorageExceeded(Unlimited, decimal.NewFromInt(1_000_000), mb(1_000_000)))
	})
}

func TestDecisions(t *testing.T) {
	a := Allow()
	assert.True(t, a.Allowed)
	assert.Empty(t, a.Reason)

	d := Deny("Project limit reached", PlanPro)
	assert.False(t, d.Allowed)
	assert.Equal(t, "Project limit reached", d.Reason)
	assert.Equal(t, PlanPro, d.UpgradeRequired)
}
