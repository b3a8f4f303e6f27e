// Package history keeps a journal of supply change events in SQLite.
//
// Journal is a host.Sink: every delivered event becomes one row in the
// supply_events table, with the property snapshot stored as JSON. The
// journal answers "what did this supply look like recently" for the API
// and console, and old rows are pruned on a retention window.
package history
