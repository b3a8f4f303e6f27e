package host

import (
	"time"

	"github.com/psusim/psusim/internal/supply"
)

// Event is one change notification for a supply, with the supply's
// properties as they were when the notification was raised.
type Event struct {
	ID         string         `json:"id"`
	Supply     string         `json:"supply"`
	Kind       string         `json:"kind"`
	Type       string         `json:"type"`
	SuppliedTo []string       `json:"supplied_to,omitempty"`
	Properties map[string]any `json:"properties"`
	Time       time.Time      `json:"time"`
}

// Integers returns the integer-valued properties of the event.
func (e Event) Integers() map[string]int64 {
	out := make(map[string]int64, len(e.Properties))
	for k, v := range e.Properties {
		if n, ok := v.(int64); ok {
			out[k] = n
		}
	}
	return out
}

func snapshot(id string, dev *supply.Device, at time.Time) Event {
	readings := dev.Snapshot()
	props := make(map[string]any, len(readings))
	for _, r := range readings {
		props[string(r.Property)] = r.Value.Any()
	}
	return Event{
		ID:         id,
		Supply:     dev.Name(),
		Kind:       string(dev.Kind()),
		Type:       dev.Kind().Type(),
		SuppliedTo: dev.SuppliedTo(),
		Properties: props,
		Time:       at,
	}
}
