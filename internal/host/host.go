package host

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/psusim/psusim/internal/supply"
)

// DefaultQueueSize is used when Options.QueueSize is not positive.
const DefaultQueueSize = 256

// Logger defines the logging interface used by the host.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Sink receives change events from Run.
type Sink interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

// HandleEvent calls f.
func (f SinkFunc) HandleEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Options configures a Host.
type Options struct {
	QueueSize int
	Logger    Logger
}

type handle string

func (h handle) ID() string { return string(h) }

type registration struct {
	dev *supply.Device
	cfg supply.RegisterConfig
}

// Host keeps the registered supplies and delivers their change events.
//
// All methods are thread-safe. NotifyChanged never blocks: when the queue is
// full the event is dropped and counted.
type Host struct {
	logger Logger
	queue  chan Event
	now    func() time.Time

	mu       sync.RWMutex
	supplies map[string]registration
	order    []string

	sinksMu sync.RWMutex
	sinks   []namedSink

	dropped atomic.Uint64
}

type namedSink struct {
	name string
	sink Sink
}

// New creates a host with an empty registry.
func New(opts Options) *Host {
	size := opts.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Host{
		logger:   logger,
		queue:    make(chan Event, size),
		now:      func() time.Time { return time.Now().UTC() },
		supplies: make(map[string]registration),
	}
}

// AddSink attaches a sink. Sinks receive events in the order added.
func (h *Host) AddSink(name string, s Sink) {
	h.sinksMu.Lock()
	h.sinks = append(h.sinks, namedSink{name: name, sink: s})
	h.sinksMu.Unlock()
}

// Register records dev and returns its handle. Names must be non-empty and
// unique among registered supplies.
func (h *Host) Register(dev *supply.Device, cfg supply.RegisterConfig) (supply.Handle, error) {
	name := dev.Name()
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidSupply)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, reg := range h.supplies {
		if reg.dev.Name() == name {
			return nil, fmt.Errorf("%w: %q", ErrNameTaken, name)
		}
	}

	id := uuid.NewString()
	h.supplies[id] = registration{dev: dev, cfg: cfg}
	h.order = append(h.order, id)
	h.logger.Info("power supply registered", "name", name, "type", dev.Kind().Type(), "supplied_to", cfg.SuppliedTo)
	return handle(id), nil
}

// Unregister removes a supply.
func (h *Host) Unregister(sh supply.Handle) error {
	if sh == nil {
		return fmt.Errorf("%w: nil handle", ErrNotRegistered)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	reg, ok := h.supplies[sh.ID()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, sh.ID())
	}
	delete(h.supplies, sh.ID())
	for i, id := range h.order {
		if id == sh.ID() {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.logger.Info("power supply unregistered", "name", reg.dev.Name())
	return nil
}

// Registered returns the names of registered supplies in registration order.
func (h *Host) Registered() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.order))
	for _, id := range h.order {
		names = append(names, h.supplies[id].dev.Name())
	}
	return names
}

// NotifyChanged snapshots the supply behind sh and queues the event.
func (h *Host) NotifyChanged(sh supply.Handle) {
	if sh == nil {
		return
	}

	h.mu.RLock()
	reg, ok := h.supplies[sh.ID()]
	h.mu.RUnlock()
	if !ok {
		h.logger.Warn("change notification for unknown supply", "handle", sh.ID())
		return
	}

	ev := snapshot(uuid.NewString(), reg.dev, h.now())
	select {
	case h.queue <- ev:
	default:
		h.dropped.Add(1)
		h.logger.Warn("change event dropped, queue full", "supply", ev.Supply)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (h *Host) Dropped() uint64 {
	return h.dropped.Load()
}

// Pending returns the number of queued events.
func (h *Host) Pending() int {
	return len(h.queue)
}

// Run delivers queued events to the sinks until ctx is cancelled, then
// delivers whatever is still queued and returns.
func (h *Host) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-h.queue:
			h.dispatch(ctx, ev)
		case <-ctx.Done():
			h.drain()
			return nil
		}
	}
}

func (h *Host) drain() {
	// Sinks get a fresh context so the final shutdown events still land.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case ev := <-h.queue:
			h.dispatch(ctx, ev)
		default:
			return
		}
	}
}

func (h *Host) dispatch(ctx context.Context, ev Event) {
	h.sinksMu.RLock()
	sinks := make([]namedSink, len(h.sinks))
	copy(sinks, h.sinks)
	h.sinksMu.RUnlock()

	for _, s := range sinks {
		if err := s.sink.HandleEvent(ctx, ev); err != nil {
			h.logger.Warn("sink failed", "sink", s.name, "supply", ev.Supply, "error", err)
		}
	}
	h.logger.Debug("change event delivered", "supply", ev.Supply, "sinks", len(sinks))
}
