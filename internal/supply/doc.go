// Package supply provides the simulated power-supply model for psusim.
//
// Two supplies are simulated: an AC adapter and a battery. Both read from a
// single shared property table; the adapter exposes only "online", the
// battery exposes its full attribute set including three identity strings.
//
// # Architecture
//
//	┌────────────────────────────────────────────────────────────────┐
//	│                          Simulator                              │
//	│                                                                 │
//	│  ┌──────────────┐   ┌──────────────┐   ┌─────────────────────┐ │
//	│  │   Registry   │   │    Store     │   │       Bridge        │ │
//	│  │ (registry.go)│   │  (store.go)  │   │     (notify.go)     │ │
//	│  │              │   │              │   │                     │ │
//	│  │ • AC, BAT    │──▶│ • int/string │   │ • lifecycle gate    │ │
//	│  │ • rollback   │   │ • shared     │   │ • NotifyChanged     │ │
//	│  └──────┬───────┘   └──────────────┘   └──────────┬──────────┘ │
//	└─────────│─────────────────────────────────────────│────────────┘
//	          ▼                                         ▼
//	    Registrar (host)                          Notifier (host)
//
// # Key Types
//
//   - Property: closed set of attribute identifiers (sysfs names)
//   - Value: tagged int/string property value
//   - Device: a supply descriptor (name, kind, supported properties)
//   - Registry: registers AC then battery, rolling back on failure
//   - Bridge: forwards change signals only while the lifecycle is up
//   - Simulator: write path, configuration parameters, start/shutdown
//
// # Usage
//
//	sim := supply.New(host, host, supply.Options{Logger: log})
//	if err := sim.Start(ctx); err != nil {
//	    return err
//	}
//	defer sim.Shutdown()
//
//	if err := sim.SetProperty(supply.KindBattery, supply.PropCapacity, 42); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All exported methods are safe for concurrent use. Compound operations on
// the Simulator are serialised; the Store and lifecycle flag carry their own
// locks so readers never block on a shutdown grace period.
package supply
