package supply

import (
	"encoding/json"
	"strconv"
)

// Value is a property value. Exactly one of the integer or string forms is
// meaningful, chosen by the property it belongs to.
type Value struct {
	str   string
	num   int64
	isStr bool
}

// IntValue wraps an integer property value.
func IntValue(v int64) Value {
	return Value{num: v}
}

// StringValue wraps a string property value.
func StringValue(s string) Value {
	return Value{str: s, isStr: true}
}

// IsString reports whether v carries the string tag.
func (v Value) IsString() bool { return v.isStr }

// Int returns the integer form. It is zero for string values.
func (v Value) Int() int64 { return v.num }

// Str returns the string form. It is empty for integer values.
func (v Value) Str() string { return v.str }

func (v Value) String() string {
	if v.isStr {
		return v.str
	}
	return strconv.FormatInt(v.num, 10)
}

// Any returns the value as a plain Go value (int64 or string).
func (v Value) Any() any {
	if v.isStr {
		return v.str
	}
	return v.num
}

// MarshalJSON encodes the value as a JSON number or string.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}
