package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHistoryPush(t *testing.T) {
	t.Run("newest first", func(t *testing.T) {
		history := NewHistory(20, nil, nil, zap.NewNop())

		history.Push("round-1", 1.50)
		history.Push("round-2", 2.35)
		history.Push("round-3", 1.00)

		assert.Equal(t, []float64{1.00, 2.35, 1.50}, history.Snapshot())
	})

	t.Run("oldest evicted at bound", func(t *testing.T) {
		history := NewHistory(3, nil, nil, zap.NewNop())

		for i := 1; i <= 5; i++ {
			history.Push(fmt.Sprintf("round-%d", i), float64(i))
		}

		assert.Equal(t, []float64{5, 4, 3}, history.Snapshot())
	})
}

func TestHistorySnapshot(t *testing.T) {
	history := NewHistory(20, nil, nil, zap.NewNop())
	history.Push("round-1", 1.50)

	snapshot := history.Snapshot()
	snapshot[0] = 99.0

	assert.Equal(t, []float64{1.50}, history.Snapshot())
}
