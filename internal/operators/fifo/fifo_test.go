package fifo

import (
	"testing"
	"time"

	"github.com/ec-jrc/abcd-go/pkg/wire"
	"github.com/stretchr/testify/assert"
)

// TestFIFOExpiration is scenario S5 verbatim.
func TestFIFOExpiration(t *testing.T) {
	b := New(time.Minute)
	start := time.Unix(0, 0)

	for i := 0; i < 3; i++ {
		b.PushAt(wire.PSDEvent{Timestamp: uint64(i)}, start)
	}
	assert.Equal(t, 3, b.Len())

	evicted := b.Expire(start.Add(2 * time.Minute))
	assert.Equal(t, 3, evicted)
	assert.Zero(t, b.Len())
}

func TestFIFOPartialExpiration(t *testing.T) {
	b := New(time.Minute)
	start := time.Unix(0, 0)

	b.PushAt(wire.PSDEvent{Timestamp: 1}, start)
	b.PushAt(wire.PSDEvent{Timestamp: 2}, start.Add(2*time.Minute))

	evicted := b.Expire(start.Add(90 * time.Second))
	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, b.Len())
}

func TestFIFOSnapshotDrainsAndClears(t *testing.T) {
	b := New(time.Hour)
	b.Push(wire.PSDEvent{Timestamp: 1})
	b.Push(wire.PSDEvent{Timestamp: 2})

	snap := b.Snapshot()
	assert.Len(t, snap, 2)
	assert.Zero(t, b.Len())
}
