// Package netx provides the network reachability collaborator: an on-demand
// connectivity check plus a change stream fed by a periodic probe of the
// backend health endpoint.
package netx

import (
	"context"
	"sync"
	"time"

	"github.com/graintrack/syncengine/internal/logging"
)

const probeTimeout = 3 * time.Second

// Pinger probes the backend. Satisfied by the transport client.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor tracks whether the backend is reachable. Start runs a periodic
// probe; IsConnected probes on demand. State transitions are fanned out to
// every channel returned by Changes.
type Monitor struct {
	pinger   Pinger
	interval time.Duration
	log      logging.Logger

	mu     sync.Mutex
	online bool
	known  bool
	subs   []chan bool
}

// NewMonitor builds a Monitor probing via pinger every interval.
func NewMonitor(pinger Pinger, interval time.Duration, log logging.Logger) *Monitor {
	return &Monitor{pinger: pinger, interval: interval, log: log}
}

// IsConnected probes the backend once with a short timeout and returns the
// result. The internal state and subscribers are updated as a side effect.
func (m *Monitor) IsConnected(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	online := m.pinger.Ping(probeCtx) == nil
	m.setOnline(ctx, online)
	return online
}

// Changes returns a channel receiving every connectivity transition. The
// channel is buffered; a slow consumer only ever misses intermediate states,
// never the latest one.
func (m *Monitor) Changes() <-chan bool {
	ch := make(chan bool, 1)
	m.mu.Lock()
	m.subs = append(m.subs, ch)
	m.mu.Unlock()
	return ch
}

// Start runs the periodic probe loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.IsConnected(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) setOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	changed := !m.known || m.online != online
	m.online = online
	m.known = true
	subs := m.subs
	m.mu.Unlock()

	if !changed {
		return
	}

	m.log.Info(ctx, "connectivity changed", "online", online)
	for _, ch := range subs {
		// drop the stale value if the subscriber has not consumed it yet
		select {
		case ch <- online:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- online:
			default:
			}
		}
	}
}
