package supply

import "sync"

// Notifier is the host side of change notification.
type Notifier interface {
	NotifyChanged(h Handle)
}

// Lifecycle tracks whether the registry is fully up. Only the Simulator
// moves it.
type Lifecycle struct {
	mu sync.RWMutex
	up bool
}

// Up reports whether change signals are currently delivered.
func (l *Lifecycle) Up() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.up
}

func (l *Lifecycle) set(up bool) {
	l.mu.Lock()
	l.up = up
	l.mu.Unlock()
}

// Bridge forwards change signals to the host while the lifecycle is up.
type Bridge struct {
	notifier Notifier
	life     *Lifecycle
}

// NewBridge creates a bridge gated by life.
func NewBridge(notifier Notifier, life *Lifecycle) *Bridge {
	return &Bridge{notifier: notifier, life: life}
}

// SignalChanged notifies the host that h changed. It does nothing when h is
// nil or the lifecycle is down. The lifecycle read lock is held across the
// call so a concurrent teardown cannot clear the flag mid-delivery.
func (b *Bridge) SignalChanged(h Handle) bool {
	if h == nil {
		return false
	}
	b.life.mu.RLock()
	defer b.life.mu.RUnlock()
	if !b.life.up {
		return false
	}
	b.notifier.NotifyChanged(h)
	return true
}
