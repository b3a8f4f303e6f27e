package supply

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

type fakeHandle struct{ id string }

func (h fakeHandle) ID() string { return h.id }

// fakeHost records registrations and notifications and can be told to
// refuse a device kind.
type fakeHost struct {
	mu         sync.Mutex
	failKind   Kind
	next       int
	live       map[string]Kind
	calls      []string
	notified   []Kind
	configs    map[Kind]RegisterConfig
	unregFails bool
}

var errRefused = errors.New("refused")

func newFakeHost() *fakeHost {
	return &fakeHost{
		live:    make(map[string]Kind),
		configs: make(map[Kind]RegisterConfig),
	}
}

func (f *fakeHost) Register(dev *Device, cfg RegisterConfig) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "register:"+string(dev.Kind()))
	if dev.Kind() == f.failKind {
		return nil, errRefused
	}
	f.next++
	h := fakeHandle{id: fmt.Sprintf("h%d", f.next)}
	f.live[h.id] = dev.Kind()
	f.configs[dev.Kind()] = cfg
	return h, nil
}

func (f *fakeHost) Unregister(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kind, ok := f.live[h.ID()]
	if !ok {
		return errors.New("unknown handle")
	}
	f.calls = append(f.calls, "unregister:"+string(kind))
	delete(f.live, h.ID())
	if f.unregFails {
		return errors.New("busy")
	}
	return nil
}

func (f *fakeHost) NotifyChanged(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, f.live[h.ID()])
}

func (f *fakeHost) notifications() []Kind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Kind, len(f.notified))
	copy(out, f.notified)
	return out
}

func (f *fakeHost) reset() {
	f.mu.Lock()
	f.notified = nil
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeHost) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.live)
}

// newTestSimulator returns a simulator whose grace period is recorded
// instead of slept.
func newTestSimulator(host *fakeHost) (*Simulator, *[]time.Duration) {
	var slept []time.Duration
	sim := New(host, host, Options{
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})
	return sim, &slept
}
