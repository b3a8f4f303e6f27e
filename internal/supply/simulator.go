package supply

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultGrace is how long Shutdown waits after the final change signal
// before unregistering the devices.
const DefaultGrace = 3 * time.Second

// Options configures a Simulator.
type Options struct {
	// Identity holds the initial names. Empty fields take the defaults.
	Identity Identity

	// Grace overrides DefaultGrace when positive.
	Grace time.Duration

	// Sleep waits out the shutdown grace. Defaults to time.Sleep.
	Sleep func(time.Duration)

	// Logger receives lifecycle and write events. Defaults to a no-op logger.
	Logger Logger
}

// Simulator is the simulated power-supply pair: one shared Store, the
// Registry of the AC adapter and battery, and the Bridge that reports
// changes to the host.
//
// All public methods are thread-safe.
type Simulator struct {
	store    *Store
	registry *Registry
	bridge   *Bridge
	life     *Lifecycle
	logger   Logger
	grace    time.Duration
	sleep    func(time.Duration)

	// mu serialises writes, parameter updates, startup and shutdown.
	mu sync.Mutex
}

// New creates a simulator. Nothing is registered until Start.
func New(registrar Registrar, notifier Notifier, opts Options) *Simulator {
	id := opts.Identity.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = DefaultGrace
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	store := NewStore(id)
	life := &Lifecycle{}
	registry := NewRegistry(registrar, store, id)
	registry.SetLogger(logger)

	return &Simulator{
		store:    store,
		registry: registry,
		bridge:   NewBridge(notifier, life),
		life:     life,
		logger:   logger,
		grace:    grace,
		sleep:    sleep,
	}
}

// Start registers both devices and opens the notification gate.
// On failure the gate stays closed and a *RegistrationError is returned.
func (s *Simulator) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.life.Up() {
		return ErrAlreadyStarted
	}
	if err := s.registry.RegisterAll(); err != nil {
		return err
	}
	s.life.set(true)

	s.logger.Info("supplies registered",
		"ac", s.deviceName(KindAC),
		"battery", s.deviceName(KindBattery),
	)
	return nil
}

// Shutdown takes the supplies offline, tells observers, waits out the grace
// period, unregisters the devices and closes the notification gate.
// It always runs to completion.
func (s *Simulator) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Both writes target integer properties and cannot fail.
	_ = s.store.Set(PropOnline, 0)
	_ = s.store.Set(PropStatus, StatusDischarging)

	for _, d := range s.registry.Devices() {
		s.bridge.SignalChanged(s.registry.Handle(d.kind))
	}
	s.logger.Info("final change event sent, waiting before unregister", "grace", s.grace)
	s.sleep(s.grace)

	s.registry.UnregisterAll()
	s.life.set(false)
	s.logger.Info("supplies unregistered")
}

// Initialized reports whether change signals are currently delivered.
func (s *Simulator) Initialized() bool {
	return s.life.Up()
}

// Store returns the shared property table.
func (s *Simulator) Store() *Store {
	return s.store
}

// Registry returns the device registry.
func (s *Simulator) Registry() *Registry {
	return s.registry
}

// Devices returns both devices in registration order.
func (s *Simulator) Devices() []*Device {
	return s.registry.Devices()
}

// Device returns the device of the given kind.
func (s *Simulator) Device(kind Kind) (*Device, error) {
	d, ok := s.registry.Device(kind)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	return d, nil
}

// LookupByName returns the device currently called name.
func (s *Simulator) LookupByName(name string) (*Device, error) {
	d, ok := s.registry.LookupByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return d, nil
}

// Get reads p from the device of the given kind.
func (s *Simulator) Get(kind Kind, p Property) (Value, error) {
	d, err := s.Device(kind)
	if err != nil {
		return Value{}, err
	}
	return d.Get(p)
}

// IsWritable reports whether external writers may change p on kind.
func (s *Simulator) IsWritable(kind Kind, p Property) bool {
	return IsWritable(kind, p)
}

// SetProperty is the runtime write path. String properties fail with
// ErrInvalidArgument; integer values are stored without range checks and
// the battery is signalled whichever device was written.
//
// The access policy is not consulted here. Callers facing external writers
// check IsWritable first.
func (s *Simulator) SetProperty(kind Kind, p Property, v int64) error {
	d, err := s.Device(kind)
	if err != nil {
		return err
	}
	if p.IsString() {
		return fmt.Errorf("%w: %s is read-only at runtime", ErrInvalidArgument, p)
	}
	if !d.Supports(p) {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedProperty, p, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Set(p, v); err != nil {
		return err
	}
	s.logger.Debug("property written", "supply", d.Name(), "property", p, "value", v)
	s.bridge.SignalChanged(s.registry.Handle(KindBattery))
	return nil
}

// Write is the entry point for external writers: it consults the access
// policy and, if allowed, performs SetProperty. String identifiers fail
// with ErrInvalidArgument and other denied writes with ErrNotWritable;
// neither changes anything.
func (s *Simulator) Write(kind Kind, p Property, v int64) error {
	if _, err := s.Device(kind); err != nil {
		return err
	}
	if p.IsString() {
		return fmt.Errorf("%w: %s holds a string", ErrInvalidArgument, p)
	}
	if !IsWritable(kind, p) {
		return fmt.Errorf("%w: %s on %s", ErrNotWritable, p, kind)
	}
	return s.SetProperty(kind, p, v)
}

// ApplyParam routes a configuration update to its field. Values longer than
// MaxStringLen bytes are truncated. The AC name signals the adapter; every
// other key signals the battery. Signals before Start or after Shutdown are
// dropped.
func (s *Simulator) ApplyParam(key, value string) error {
	param, err := ParseParam(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch param {
	case ParamACName:
		d, _ := s.registry.Device(KindAC)
		d.setName(value)
	case ParamBatteryName:
		d, _ := s.registry.Device(KindBattery)
		d.setName(value)
	case ParamBatteryModelName:
		s.store.setString(PropModelName, value)
	case ParamBatteryManufacturer:
		s.store.setString(PropManufacturer, value)
	case ParamBatterySerialNumber:
		s.store.setString(PropSerialNumber, value)
	}

	s.logger.Debug("parameter applied", "key", param, "value", truncate(value))
	s.bridge.SignalChanged(s.registry.Handle(param.Target()))
	return nil
}

// Param returns the current value of a configuration key.
func (s *Simulator) Param(key string) (string, error) {
	param, err := ParseParam(key)
	if err != nil {
		return "", err
	}
	switch param {
	case ParamACName:
		return s.deviceName(KindAC), nil
	case ParamBatteryName:
		return s.deviceName(KindBattery), nil
	case ParamBatteryModelName:
		return s.store.Get(PropModelName).Str(), nil
	case ParamBatteryManufacturer:
		return s.store.Get(PropManufacturer).Str(), nil
	default:
		return s.store.Get(PropSerialNumber).Str(), nil
	}
}

// ParamValues returns every configuration key with its current value.
func (s *Simulator) ParamValues() map[Param]string {
	out := make(map[Param]string, len(Params()))
	for _, p := range Params() {
		v, _ := s.Param(string(p))
		out[p] = v
	}
	return out
}

// SignalChanged reports a change on the device of the given kind. It is a
// no-op outside the started lifecycle.
func (s *Simulator) SignalChanged(kind Kind) bool {
	return s.bridge.SignalChanged(s.registry.Handle(kind))
}

func (s *Simulator) deviceName(kind Kind) string {
	d, ok := s.registry.Device(kind)
	if !ok {
		return ""
	}
	return d.Name()
}
