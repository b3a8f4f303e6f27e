package supply

import (
	"fmt"
	"runtime"
	"unicode/utf8"
)

// MaxStringLen is the longest name or identity string kept, in bytes.
// Longer values are truncated silently.
const MaxStringLen = 255

// Identity holds the configurable strings of the simulated supplies.
type Identity struct {
	ACName       string `json:"ac_name" yaml:"ac_name"`
	BatteryName  string `json:"battery_name" yaml:"battery_name"`
	ModelName    string `json:"battery_model_name" yaml:"battery_model_name"`
	Manufacturer string `json:"battery_manufacturer" yaml:"battery_manufacturer"`
	SerialNumber string `json:"battery_serial_number" yaml:"battery_serial_number"`
}

// DefaultIdentity returns the stock names. The serial number defaults to the
// running Go release.
func DefaultIdentity() Identity {
	return Identity{
		ACName:       "DUMMY_AC",
		BatteryName:  "DUMMY_BAT",
		ModelName:    "Dummy battery",
		Manufacturer: "Linux",
		SerialNumber: runtime.Version(),
	}
}

// withDefaults fills empty fields from DefaultIdentity.
func (id Identity) withDefaults() Identity {
	def := DefaultIdentity()
	if id.ACName == "" {
		id.ACName = def.ACName
	}
	if id.BatteryName == "" {
		id.BatteryName = def.BatteryName
	}
	if id.ModelName == "" {
		id.ModelName = def.ModelName
	}
	if id.Manufacturer == "" {
		id.Manufacturer = def.Manufacturer
	}
	if id.SerialNumber == "" {
		id.SerialNumber = def.SerialNumber
	}
	return id
}

// Param is a configuration key accepted by Simulator.ApplyParam.
type Param string

// Configuration keys.
const (
	ParamACName              Param = "ac_name"
	ParamBatteryName         Param = "battery_name"
	ParamBatteryModelName    Param = "battery_model_name"
	ParamBatteryManufacturer Param = "battery_manufacturer"
	ParamBatterySerialNumber Param = "battery_serial_number"
)

var paramDescriptions = map[Param]string{
	ParamACName:              "AC device name (default: 'DUMMY_AC')",
	ParamBatteryName:         "Battery device name (default: 'DUMMY_BAT')",
	ParamBatteryModelName:    "Battery model name (default: 'Dummy battery')",
	ParamBatteryManufacturer: "Battery manufacturer (default: 'Linux')",
	ParamBatterySerialNumber: "Battery serial number (default: Go runtime release)",
}

// Params lists every configuration key.
func Params() []Param {
	return []Param{
		ParamACName,
		ParamBatteryName,
		ParamBatteryModelName,
		ParamBatteryManufacturer,
		ParamBatterySerialNumber,
	}
}

// ParseParam resolves a configuration key.
func ParseParam(key string) (Param, error) {
	p := Param(key)
	if _, ok := paramDescriptions[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownParam, key)
	}
	return p, nil
}

// Description returns a one-line help text for the key.
func (p Param) Description() string {
	return paramDescriptions[p]
}

// Target returns the device kind signalled when the key changes.
func (p Param) Target() Kind {
	if p == ParamACName {
		return KindAC
	}
	return KindBattery
}

// truncate cuts s to at most MaxStringLen bytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= MaxStringLen {
		return s
	}
	cut := MaxStringLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
