package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type switchChecker struct {
	mu   gosync.Mutex
	down bool
}

func (c *switchChecker) set(down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down = down
}

func (c *switchChecker) HealthCheck(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return errors.New("connection refused")
	}
	return nil
}

func TestConnectivityMonitor_Probe(t *testing.T) {
	f := newEngineFixture(t, true)
	f.e.SetIdentity(alice)
	checker := &switchChecker{down: true}
	mon := NewConnectivityMonitor(checker, f.e, f.clock, time.Second, discardLogger())

	assert.False(t, mon.Probe(context.Background()))
	assert.Equal(t, StateOffline, f.e.Status().State)
	assert.False(t, f.e.Status().IsOnline)

	checker.set(false)
	assert.True(t, mon.Probe(context.Background()))
	require.Eventually(t, func() bool {
		return f.e.Status().State == StateSyncing
	}, waitFor, 10*time.Millisecond)
}

func TestConnectivityMonitor_Run(t *testing.T) {
	f := newEngineFixture(t, true)
	checker := &switchChecker{}
	mon := NewConnectivityMonitor(checker, f.e, f.clock, time.Second, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return f.clock.created() == 1 }, waitFor, 10*time.Millisecond)

	checker.set(true)
	f.clock.Tick(time.Second)
	require.Eventually(t, func() bool { return !f.e.Status().IsOnline }, waitFor, 10*time.Millisecond)

	cancel()
	<-done
}
