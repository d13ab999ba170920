package opstage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseLifecycleWithStatusAndDataSockets(t *testing.T) {
	b := New("testop", Addresses{
		Status: "tcp://127.0.0.1:0",
		Data:   "tcp://127.0.0.1:0",
	})
	require.NoError(t, b.CreateContext())
	require.NoError(t, b.CreateSockets())
	require.NoError(t, b.BindSockets())
	defer b.CloseSockets()
	defer b.DestroyContext()

	require.NoError(t, b.PublishStatus())
}

func TestBasePublishDataRequiresDataSocket(t *testing.T) {
	b := New("testop", Addresses{})
	require.NoError(t, b.CreateContext())
	require.NoError(t, b.BindSockets())
	defer b.CloseSockets()
	defer b.DestroyContext()

	err := b.PublishTopic("data_testop_events_v0_s16", []byte("x"))
	assert.Error(t, err)
}

func TestBaseReceiveCommandWithoutSocketReturnsFalse(t *testing.T) {
	b := New("testop", Addresses{})
	cmd, ok := b.ReceiveCommand()
	assert.False(t, ok)
	assert.Zero(t, cmd)
}

func TestBaseApplyReconfigureDefaultsToNoop(t *testing.T) {
	b := New("testop", Addresses{})
	assert.NoError(t, b.ApplyReconfigure([]byte(`{}`)))
}

func TestBaseApplyReconfigureDelegates(t *testing.T) {
	var got []byte
	b := New("testop", Addresses{})
	b.OnApplyReconfigure = func(config []byte) error {
		got = config
		return nil
	}
	require.NoError(t, b.ApplyReconfigure([]byte(`{"x":1}`)))
	assert.Equal(t, `{"x":1}`, string(got))
}

func TestRunReachesStopQuickly(t *testing.T) {
	b := New("testop", Addresses{})
	b.OnReadData = func() (bool, error) { return false, nil }
	b.PendingCount = func() int { return 0 }
	b.OnPublishData = func() error { return nil }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		Run(ctx, b, time.Millisecond, time.Millisecond, time.Millisecond, 1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return in time")
	}
}
