package connectivity

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/coinkeep/coinkeep/internal/logger"
	"github.com/rs/zerolog"
)

// ProbeFunc reports whether the network is currently reachable.
type ProbeFunc func(ctx context.Context) bool

// TCPProbe returns a probe that dials addr (host:port) and reports success
// when the connection opens within timeout.
func TCPProbe(addr string, timeout time.Duration) ProbeFunc {
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: timeout}
		conn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}
}

// Options configures a Monitor.
type Options struct {
	// Probe checks reachability. Required.
	Probe ProbeFunc

	// Interval between background probes.
	Interval time.Duration

	// Logger for state transitions. Nil uses the global logger.
	Logger *zerolog.Logger
}

// Monitor polls a reachability probe and fans out offline/online
// transitions to subscribers. Only transitions are delivered; steady state
// produces no events.
type Monitor struct {
	probe    ProbeFunc
	interval time.Duration
	log      zerolog.Logger

	mu     sync.Mutex
	online bool
	subs   map[int]chan bool
	nextID int

	lifecycle sync.Mutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// New creates a Monitor. The initial state is offline until the first
// probe says otherwise.
func New(opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = 5 * time.Second
	}
	log := logger.Log
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Monitor{
		probe:    opts.Probe,
		interval: opts.Interval,
		log:      log.With().Str("component", "connectivity").Logger(),
		subs:     make(map[int]chan bool),
	}
}

// Online probes immediately, records the result, and notifies subscribers
// if the state changed.
func (m *Monitor) Online(ctx context.Context) bool {
	state := m.probe(ctx)
	m.setState(state)
	return state
}

// Subscribe registers for transition events. The returned channel receives
// the new state on every offline/online flip. The cancel func must be
// called to release the subscription; after cancel the channel is closed.
func (m *Monitor) Subscribe() (<-chan bool, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	ch := make(chan bool, 1)
	m.subs[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub)
		}
	}
}

// Start begins background polling. Returns immediately; probing happens on
// a goroutine until Stop.
func (m *Monitor) Start(ctx context.Context) {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.cancel != nil {
		return // already started
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.setState(m.probe(runCtx))

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				m.setState(m.probe(runCtx))
			}
		}
	}()
}

// Stop halts polling. Idempotent.
func (m *Monitor) Stop() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	m.wg.Wait()
}

// setState records the probe result and notifies subscribers only on a
// transition. A subscriber with a full buffer is skipped, not blocked on:
// it will observe the current state on its next read anyway.
func (m *Monitor) setState(online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if online == m.online {
		return
	}
	m.online = online

	if online {
		m.log.Info().Msg("network reachable")
	} else {
		m.log.Warn().Msg("network unreachable")
	}

	for _, ch := range m.subs {
		select {
		case ch <- online:
		default:
		}
	}
}
