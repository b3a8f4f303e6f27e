// Package host is the in-process power-supply framework the simulator
// registers with.
//
// Host implements supply.Registrar and supply.Notifier. Every change
// notification is turned into an Event carrying a snapshot of the supply's
// properties at notification time, queued, and delivered by Run to each
// configured Sink (MQTT, the change journal, InfluxDB telemetry, the
// WebSocket hub).
//
//	supply.Simulator ──register/notify──▶ Host ──queue──▶ Run ──▶ Sinks
//
// Commands wires inbound MQTT topics back into the simulator so external
// test rigs can write properties and update configuration.
package host
