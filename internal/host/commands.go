package host

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/psusim/psusim/internal/infrastructure/mqtt"
	"github.com/psusim/psusim/internal/supply"
)

// Target is the part of the simulator that inbound commands drive.
type Target interface {
	LookupByName(name string) (*supply.Device, error)
	Write(kind supply.Kind, p supply.Property, v int64) error
	ApplyParam(key, value string) error
}

// Subscriber is the subset of the MQTT client used by Commands.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Commands turns MQTT messages into property writes and parameter updates.
//
//	psusim/supply/{name}/set/{property}  payload: decimal integer
//	psusim/param/{key}                   payload: raw string
type Commands struct {
	target Target
	logger Logger
}

// NewCommands creates a command handler for target.
func NewCommands(target Target, logger Logger) *Commands {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Commands{target: target, logger: logger}
}

// Bind subscribes the command topics on sub.
func (c *Commands) Bind(sub Subscriber, qos byte) error {
	topics := mqtt.Topics{}
	if err := sub.Subscribe(topics.AllSupplySets(), qos, c.HandleSet); err != nil {
		return fmt.Errorf("subscribing supply commands: %w", err)
	}
	if err := sub.Subscribe(topics.AllParams(), qos, c.HandleParam); err != nil {
		return fmt.Errorf("subscribing param commands: %w", err)
	}
	return nil
}

// HandleSet applies a property write received on a supply set topic.
func (c *Commands) HandleSet(topic string, payload []byte) error {
	name, prop, ok := mqtt.ParseSupplySet(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrBadCommand, topic)
	}
	p, err := supply.ParseProperty(prop)
	if err != nil {
		return err
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(payload)), 10, 64)
	if err != nil {
		return fmt.Errorf("%w: value %q is not an integer", ErrBadCommand, payload)
	}
	dev, err := c.target.LookupByName(name)
	if err != nil {
		return err
	}
	if err := c.target.Write(dev.Kind(), p, v); err != nil {
		return err
	}
	c.logger.Info("property written over mqtt", "supply", name, "property", p, "value", v)
	return nil
}

// HandleParam applies a configuration update received on a param topic.
func (c *Commands) HandleParam(topic string, payload []byte) error {
	key, ok := mqtt.ParseParam(topic)
	if !ok {
		return fmt.Errorf("%w: topic %q", ErrBadCommand, topic)
	}
	if err := c.target.ApplyParam(key, string(payload)); err != nil {
		return err
	}
	c.logger.Info("parameter updated over mqtt", "param", key)
	return nil
}
