package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// SupplyMeasurement is the measurement name for supply telemetry.
const SupplyMeasurement = "power_supply"

// WriteSupplyMetrics records one snapshot of a supply's integer properties.
// Each property becomes a field; the supply name and kind are tags.
// The write is non-blocking.
//
// Example:
//
//	client.WriteSupplyMetrics("DUMMY_BAT", "battery",
//	    map[string]int64{"capacity": 42, "status": 2}, time.Now())
func (c *Client) WriteSupplyMetrics(supply, kind string, fields map[string]int64, ts time.Time) {
	if !c.IsConnected() || len(fields) == 0 {
		return
	}
	c.writeAPI.WritePoint(supplyPoint(supply, kind, fields, ts))
}

// supplyPoint builds the line-protocol point for WriteSupplyMetrics.
func supplyPoint(supply, kind string, fields map[string]int64, ts time.Time) *write.Point {
	values := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		values[k] = v
	}
	return write.NewPoint(
		SupplyMeasurement,
		map[string]string{
			"supply": supply,
			"kind":   kind,
		},
		values,
		ts,
	)
}
