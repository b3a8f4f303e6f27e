// Package influxdb records simulated supply telemetry in InfluxDB v2.
//
// Every change notification for a supply produces one point in the
// "power_supply" measurement, tagged with the supply name and kind, with a
// field per integer property. Telemetry is optional; Connect returns
// ErrDisabled when influxdb.enabled is false and callers carry on without it.
package influxdb
