package supply

// IsWritable reports whether external writers may change p on a device of
// the given kind. The adapter allows only "online"; the battery allows every
// attribute it exposes except the identity strings.
//
// The decision depends only on the kind, never on the device name or the
// current value.
func IsWritable(kind Kind, p Property) bool {
	switch kind {
	case KindAC:
		return p == PropOnline
	case KindBattery:
		return p.Valid() && !p.IsString()
	default:
		return false
	}
}
