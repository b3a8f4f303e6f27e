package supply

import (
	"fmt"
	"sync"
)

// Kind identifies which simulated supply a device is.
type Kind string

// Device kinds.
const (
	KindAC      Kind = "ac"
	KindBattery Kind = "battery"
)

// Kinds lists the device kinds in registration order.
func Kinds() []Kind {
	return []Kind{KindAC, KindBattery}
}

// ParseKind resolves a kind name.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindAC, KindBattery:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Type returns the power-supply class type name for the kind.
func (k Kind) Type() string {
	if k == KindAC {
		return "Mains"
	}
	return "Battery"
}

var acProperties = []Property{PropOnline}

// Device describes one simulated supply. Everything except the name is fixed
// at construction.
type Device struct {
	kind       Kind
	props      []Property
	suppliedTo []string
	store      *Store

	mu   sync.RWMutex
	name string
}

func newDevice(kind Kind, name string, store *Store) *Device {
	d := &Device{kind: kind, name: truncate(name), store: store}
	switch kind {
	case KindAC:
		d.props = acProperties
	case KindBattery:
		d.props = allProperties
	}
	return d
}

// Name returns the current device name.
func (d *Device) Name() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.name
}

func (d *Device) setName(name string) {
	d.mu.Lock()
	d.name = truncate(name)
	d.mu.Unlock()
}

// Kind returns the device kind.
func (d *Device) Kind() Kind { return d.kind }

// Properties returns the ordered list of properties the device exposes.
func (d *Device) Properties() []Property {
	out := make([]Property, len(d.props))
	copy(out, d.props)
	return out
}

// SuppliedTo returns the names of devices this supply powers.
func (d *Device) SuppliedTo() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]string, len(d.suppliedTo))
	copy(out, d.suppliedTo)
	return out
}

// Supports reports whether p is in the device's property list.
func (d *Device) Supports(p Property) bool {
	for _, known := range d.props {
		if known == p {
			return true
		}
	}
	return false
}

// Get reads p through the shared store.
// Returns ErrUnsupportedProperty when the device does not expose p.
func (d *Device) Get(p Property) (Value, error) {
	if !d.Supports(p) {
		return Value{}, fmt.Errorf("%w: %s on %s", ErrUnsupportedProperty, p, d.kind)
	}
	return d.store.Get(p), nil
}

// Writable returns the properties external writers may change on this device.
func (d *Device) Writable() []Property {
	var out []Property
	for _, p := range d.props {
		if IsWritable(d.kind, p) {
			out = append(out, p)
		}
	}
	return out
}

// Snapshot returns every property of the device with its current value.
func (d *Device) Snapshot() []Reading {
	return d.store.Snapshot(d.props)
}
