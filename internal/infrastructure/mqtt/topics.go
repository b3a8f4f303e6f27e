package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every psusim topic.
const TopicPrefix = "psusim"

// Topics builds psusim MQTT topic names.
//
//	psusim/status                          retained service status (LWT)
//	psusim/supply/{name}/state             retained snapshot of a supply
//	psusim/supply/{name}/event             one message per change event
//	psusim/supply/{name}/set/{property}    inbound property writes
//	psusim/param/{key}                     inbound configuration updates
type Topics struct{}

// Status returns the retained service status topic.
func (Topics) Status() string {
	return TopicPrefix + "/status"
}

// SupplyState returns the retained state topic for a supply.
func (Topics) SupplyState(name string) string {
	return fmt.Sprintf("%s/supply/%s/state", TopicPrefix, name)
}

// SupplyEvent returns the change event topic for a supply.
func (Topics) SupplyEvent(name string) string {
	return fmt.Sprintf("%s/supply/%s/event", TopicPrefix, name)
}

// SupplySet returns the inbound write topic for one property.
func (Topics) SupplySet(name, property string) string {
	return fmt.Sprintf("%s/supply/%s/set/%s", TopicPrefix, name, property)
}

// Param returns the inbound configuration topic for key.
func (Topics) Param(key string) string {
	return fmt.Sprintf("%s/param/%s", TopicPrefix, key)
}

// AllSupplySets matches every inbound property write.
func (Topics) AllSupplySets() string {
	return TopicPrefix + "/supply/+/set/+"
}

// AllParams matches every inbound configuration update.
func (Topics) AllParams() string {
	return TopicPrefix + "/param/+"
}

// ParseSupplySet extracts the supply name and property from a write topic.
func ParseSupplySet(topic string) (name, property string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 5 || parts[0] != TopicPrefix || parts[1] != "supply" || parts[3] != "set" {
		return "", "", false
	}
	if parts[2] == "" || parts[4] == "" {
		return "", "", false
	}
	return parts[2], parts[4], true
}

// ParseParam extracts the configuration key from a param topic.
func ParseParam(topic string) (key string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[0] != TopicPrefix || parts[1] != "param" || parts[2] == "" {
		return "", false
	}
	return parts[2], true
}
