package supply

import "sync"

// Logger defines the logging interface used by the supply package.
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

// Handle is an opaque reference to a device registered with the host.
type Handle interface {
	ID() string
}

// RegisterConfig carries per-device registration metadata.
type RegisterConfig struct {
	// SuppliedTo names the devices this supply powers. Only the AC adapter
	// sets it (to the battery).
	SuppliedTo []string
}

// Registrar is the host side of device registration.
type Registrar interface {
	Register(dev *Device, cfg RegisterConfig) (Handle, error)
	Unregister(h Handle) error
}

// Registry owns the simulated devices and their host registrations.
// Devices are always registered AC first, then battery.
type Registry struct {
	registrar Registrar
	devices   []*Device
	logger    Logger

	mu      sync.RWMutex
	handles map[Kind]Handle
}

// NewRegistry creates the two devices over store without registering them.
func NewRegistry(registrar Registrar, store *Store, id Identity) *Registry {
	return &Registry{
		registrar: registrar,
		devices: []*Device{
			newDevice(KindAC, id.ACName, store),
			newDevice(KindBattery, id.BatteryName, store),
		},
		logger:  noopLogger{},
		handles: make(map[Kind]Handle, 2),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Devices returns the devices in registration order.
func (r *Registry) Devices() []*Device {
	out := make([]*Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Device returns the device of the given kind.
func (r *Registry) Device(kind Kind) (*Device, bool) {
	for _, d := range r.devices {
		if d.kind == kind {
			return d, true
		}
	}
	return nil, false
}

// Handle returns the host handle for kind, or nil when not registered.
func (r *Registry) Handle(kind Kind) Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.handles[kind]
}

// Registered returns how many devices currently hold a host registration.
func (r *Registry) Registered() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

// LookupByName returns the first device, in registration order, whose
// current name equals name. When both devices share a name the adapter wins.
func (r *Registry) LookupByName(name string) (*Device, bool) {
	for _, d := range r.devices {
		if d.Name() == name {
			return d, true
		}
	}
	return nil, false
}

// RegisterAll registers every device in order. If any registration fails,
// devices registered earlier in this call are unregistered in reverse order
// and a *RegistrationError naming the failing device is returned.
func (r *Registry) RegisterAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	registered := make([]*Device, 0, len(r.devices))
	for _, d := range r.devices {
		cfg := r.configFor(d)
		d.mu.Lock()
		d.suppliedTo = cfg.SuppliedTo
		d.mu.Unlock()

		h, err := r.registrar.Register(d, cfg)
		if err != nil {
			r.logger.Error("failed to register supply", "name", d.Name(), "error", err)
			for i := len(registered) - 1; i >= 0; i-- {
				prev := registered[i]
				if uerr := r.registrar.Unregister(r.handles[prev.kind]); uerr != nil {
					r.logger.Warn("rollback unregister failed", "name", prev.Name(), "error", uerr)
				}
				delete(r.handles, prev.kind)
			}
			return &RegistrationError{Device: d.Name(), Err: err}
		}
		r.handles[d.kind] = h
		registered = append(registered, d)
		r.logger.Debug("supply registered", "name", d.Name(), "kind", d.kind, "handle", h.ID())
	}
	return nil
}

// UnregisterAll releases every registration in order. Host errors are logged
// and otherwise ignored.
func (r *Registry) UnregisterAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.devices {
		h, ok := r.handles[d.kind]
		if !ok {
			continue
		}
		if err := r.registrar.Unregister(h); err != nil {
			r.logger.Warn("unregister failed", "name", d.Name(), "error", err)
		}
		delete(r.handles, d.kind)
	}
}

func (r *Registry) configFor(d *Device) RegisterConfig {
	if d.kind != KindAC {
		return RegisterConfig{}
	}
	var to []string
	for _, other := range r.devices {
		if other.kind == KindBattery {
			to = append(to, other.Name())
		}
	}
	return RegisterConfig{SuppliedTo: to}
}
