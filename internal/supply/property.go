package supply

import "fmt"

// Property identifies a single supply attribute by its sysfs name.
type Property string

// Supply attributes.
const (
	PropOnline            Property = "online"
	PropStatus            Property = "status"
	PropChargeType        Property = "charge_type"
	PropHealth            Property = "health"
	PropPresent           Property = "present"
	PropTechnology        Property = "technology"
	PropCycleCount        Property = "cycle_count"
	PropVoltageMax        Property = "voltage_max"
	PropVoltageMin        Property = "voltage_min"
	PropVoltageMaxDesign  Property = "voltage_max_design"
	PropVoltageMinDesign  Property = "voltage_min_design"
	PropVoltageNow        Property = "voltage_now"
	PropPowerNow          Property = "power_now"
	PropEnergyFullDesign  Property = "energy_full_design"
	PropEnergyEmptyDesign Property = "energy_empty_design"
	PropEnergyFull        Property = "energy_full"
	PropEnergyNow         Property = "energy_now"
	PropCapacity          Property = "capacity"
	PropCapacityLevel     Property = "capacity_level"
	PropTemp              Property = "temp"
	PropModelName         Property = "model_name"
	PropManufacturer      Property = "manufacturer"
	PropSerialNumber      Property = "serial_number"
)

// allProperties lists every attribute the store holds, in battery order.
var allProperties = []Property{
	PropStatus,
	PropChargeType,
	PropHealth,
	PropPresent,
	PropOnline,
	PropTechnology,
	PropCycleCount,
	PropVoltageMax,
	PropVoltageMin,
	PropVoltageMaxDesign,
	PropVoltageMinDesign,
	PropVoltageNow,
	PropPowerNow,
	PropEnergyFullDesign,
	PropEnergyEmptyDesign,
	PropEnergyFull,
	PropEnergyNow,
	PropCapacity,
	PropCapacityLevel,
	PropTemp,
	PropModelName,
	PropManufacturer,
	PropSerialNumber,
}

// Properties returns every known property identifier.
func Properties() []Property {
	out := make([]Property, len(allProperties))
	copy(out, allProperties)
	return out
}

// IsString reports whether values of p carry the string tag.
// Only the three identity attributes are strings.
func (p Property) IsString() bool {
	switch p {
	case PropModelName, PropManufacturer, PropSerialNumber:
		return true
	default:
		return false
	}
}

// Valid reports whether p is a known property identifier.
func (p Property) Valid() bool {
	for _, known := range allProperties {
		if p == known {
			return true
		}
	}
	return false
}

func (p Property) String() string {
	return string(p)
}

// ParseProperty resolves a sysfs attribute name.
func ParseProperty(name string) (Property, error) {
	p := Property(name)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return p, nil
}

// Status values for PropStatus.
const (
	StatusUnknown int64 = iota
	StatusCharging
	StatusDischarging
	StatusNotCharging
	StatusFull
)

// ChargeType values for PropChargeType.
const (
	ChargeTypeUnknown int64 = iota
	ChargeTypeNone
	ChargeTypeTrickle
	ChargeTypeFast
	ChargeTypeStandard
	ChargeTypeAdaptive
)

// Health values for PropHealth.
const (
	HealthUnknown int64 = iota
	HealthGood
	HealthOverheat
	HealthDead
	HealthOverVoltage
	HealthUnspecifiedFailure
	HealthCold
)

// Technology values for PropTechnology.
const (
	TechnologyUnknown int64 = iota
	TechnologyNiMH
	TechnologyLiIon
	TechnologyLiPo
	TechnologyLiFe
	TechnologyNiCd
	TechnologyLiMn
)

// CapacityLevel values for PropCapacityLevel.
const (
	CapacityLevelUnknown int64 = iota
	CapacityLevelCritical
	CapacityLevelLow
	CapacityLevelNormal
	CapacityLevelHigh
	CapacityLevelFull
)

var enumNames = map[Property][]string{
	PropStatus:        {"Unknown", "Charging", "Discharging", "Not charging", "Full"},
	PropChargeType:    {"Unknown", "N/A", "Trickle", "Fast", "Standard", "Adaptive"},
	PropHealth:        {"Unknown", "Good", "Overheat", "Dead", "Over voltage", "Unspecified failure", "Cold"},
	PropTechnology:    {"Unknown", "NiMH", "Li-ion", "Li-poly", "LiFe", "NiCd", "LiMn"},
	PropCapacityLevel: {"Unknown", "Critical", "Low", "Normal", "High", "Full"},
}

// Describe renders an integer value of p the way sysfs shows it.
// Enumerated attributes map to their label; anything else, including
// out-of-range enum values, is printed as a number.
func Describe(p Property, v int64) string {
	names, ok := enumNames[p]
	if ok && v >= 0 && v < int64(len(names)) {
		return names[v]
	}
	return fmt.Sprintf("%d", v)
}
