package host

import (
	"context"
	"fmt"
	"time"

	"github.com/psusim/psusim/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client used by MQTTSink.
type Publisher interface {
	PublishRetained(topic string, payload []byte) error
	PublishEvent(topic string, payload []byte) error
}

// MQTTSink publishes every event twice: retained on the supply's state
// topic and non-retained on its event topic.
type MQTTSink struct {
	pub   Publisher
	codec Codec
}

// NewMQTTSink creates an MQTT sink using codec for payloads.
func NewMQTTSink(pub Publisher, codec Codec) *MQTTSink {
	return &MQTTSink{pub: pub, codec: codec}
}

// HandleEvent implements Sink.
func (s *MQTTSink) HandleEvent(_ context.Context, ev Event) error {
	payload, err := s.codec.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	topics := mqtt.Topics{}
	if err := s.pub.PublishRetained(topics.SupplyState(ev.Supply), payload); err != nil {
		return fmt.Errorf("publishing state: %w", err)
	}
	if err := s.pub.PublishEvent(topics.SupplyEvent(ev.Supply), payload); err != nil {
		return fmt.Errorf("publishing event: %w", err)
	}
	return nil
}

// MetricWriter is the subset of the InfluxDB client used by TelemetrySink.
type MetricWriter interface {
	WriteSupplyMetrics(supply, kind string, fields map[string]int64, ts time.Time)
}

// TelemetrySink writes the integer properties of every event as one point.
type TelemetrySink struct {
	w MetricWriter
}

// NewTelemetrySink creates a telemetry sink.
func NewTelemetrySink(w MetricWriter) *TelemetrySink {
	return &TelemetrySink{w: w}
}

// HandleEvent implements Sink. Writes are non-blocking and never fail here.
func (s *TelemetrySink) HandleEvent(_ context.Context, ev Event) error {
	s.w.WriteSupplyMetrics(ev.Supply, ev.Kind, ev.Integers(), ev.Time)
	return nil
}
