package supply

import (
	"fmt"
	"sync"
)

// Reading pairs a property with the value it held when read.
type Reading struct {
	Property Property `json:"property"`
	Value    Value    `json:"value"`
}

// Store is the property table shared by every simulated supply.
// There is one value slot per property no matter which device reads it.
//
// All methods are thread-safe.
type Store struct {
	mu      sync.RWMutex
	numbers map[Property]int64
	strings map[Property]string
}

// NewStore creates a store populated with the default readings and the
// identity strings from id.
func NewStore(id Identity) *Store {
	s := &Store{
		numbers: make(map[Property]int64, len(allProperties)),
		strings: make(map[Property]string, 3),
	}
	for _, p := range allProperties {
		if !p.IsString() {
			s.numbers[p] = 0
		}
	}
	s.numbers[PropOnline] = 1
	s.numbers[PropStatus] = StatusFull
	s.numbers[PropHealth] = HealthGood
	s.numbers[PropPresent] = 1
	s.numbers[PropTechnology] = TechnologyLiIon
	s.numbers[PropCapacity] = 100
	s.numbers[PropCapacityLevel] = CapacityLevelNormal
	s.numbers[PropTemp] = 42
	s.numbers[PropVoltageNow] = 10000000

	s.strings[PropModelName] = truncate(id.ModelName)
	s.strings[PropManufacturer] = truncate(id.Manufacturer)
	s.strings[PropSerialNumber] = truncate(id.SerialNumber)
	return s
}

// Get returns the current value of p.
// Callers are expected to have filtered p through a device's supported list.
func (s *Store) Get(p Property) Value {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p.IsString() {
		return StringValue(s.strings[p])
	}
	return IntValue(s.numbers[p])
}

// Set overwrites the integer value of p without range checks.
// Returns ErrInvalidArgument for string properties, leaving the store untouched.
func (s *Store) Set(p Property, v int64) error {
	if p.IsString() {
		return fmt.Errorf("%w: %s is read-only at runtime", ErrInvalidArgument, p)
	}
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownProperty, string(p))
	}

	s.mu.Lock()
	s.numbers[p] = v
	s.mu.Unlock()
	return nil
}

// setString replaces an identity string. It is reachable only through the
// configuration path.
func (s *Store) setString(p Property, v string) {
	s.mu.Lock()
	s.strings[p] = truncate(v)
	s.mu.Unlock()
}

// Snapshot reads props under a single lock, preserving their order.
func (s *Store) Snapshot(props []Property) []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reading, 0, len(props))
	for _, p := range props {
		var v Value
		if p.IsString() {
			v = StringValue(s.strings[p])
		} else {
			v = IntValue(s.numbers[p])
		}
		out = append(out, Reading{Property: p, Value: v})
	}
	return out
}
