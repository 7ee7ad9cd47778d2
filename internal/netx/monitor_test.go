package netx

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graintrack/syncengine/internal/logging"
)

type fakePinger struct {
	err atomic.Value // error or nil sentinel
}

func (p *fakePinger) setErr(err error) {
	if err == nil {
		p.err.Store(errSentinelNil)
		return
	}
	p.err.Store(err)
}

var errSentinelNil = errors.New("nil")

func (p *fakePinger) Ping(ctx context.Context) error {
	v, _ := p.err.Load().(error)
	if v == nil || errors.Is(v, errSentinelNil) {
		return nil
	}
	return v
}

func TestIsConnected(t *testing.T) {
	p := &fakePinger{}
	p.setErr(nil)
	m := NewMonitor(p, time.Hour, logging.NewNop())

	assert.True(t, m.IsConnected(context.Background()))

	p.setErr(errors.New("unreachable"))
	assert.False(t, m.IsConnected(context.Background()))
}

func TestChanges_NotifiedOnTransition(t *testing.T) {
	p := &fakePinger{}
	p.setErr(nil)
	m := NewMonitor(p, time.Hour, logging.NewNop())

	ch := m.Changes()

	m.IsConnected(context.Background())
	select {
	case online := <-ch:
		assert.True(t, online, "first probe publishes the initial state")
	case <-time.After(time.Second):
		t.Fatal("expected a connectivity notification")
	}

	// same state again: no notification
	m.IsConnected(context.Background())
	select {
	case <-ch:
		t.Fatal("unchanged state must not notify")
	case <-time.After(50 * time.Millisecond):
	}

	p.setErr(errors.New("down"))
	m.IsConnected(context.Background())
	select {
	case online := <-ch:
		assert.False(t, online)
	case <-time.After(time.Second):
		t.Fatal("expected an offline notification")
	}
}

func TestChanges_SlowConsumerSeesLatestState(t *testing.T) {
	p := &fakePinger{}
	p.setErr(nil)
	m := NewMonitor(p, time.Hour, logging.NewNop())

	ch := m.Changes()
	ctx := context.Background()

	m.IsConnected(ctx) // online queued
	p.setErr(errors.New("down"))
	m.IsConnected(ctx) // replaces queued value

	select {
	case online := <-ch:
		assert.False(t, online, "latest state wins for slow consumers")
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
	}
}

func TestStart_ProbesPeriodically(t *testing.T) {
	p := &fakePinger{}
	p.setErr(nil)
	m := NewMonitor(p, 10*time.Millisecond, logging.NewNop())

	ch := m.Changes()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Start(ctx)

	select {
	case online := <-ch:
		require.True(t, online)
	case <-time.After(time.Second):
		t.Fatal("periodic probe never fired")
	}
}
