package supply

import (
	"errors"
	"fmt"
)

// Domain errors for the supply package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, supply.ErrInvalidArgument) {
//	    // string properties are not writable at runtime
//	}
var (
	// ErrInvalidArgument is returned when a runtime write targets a string property.
	ErrInvalidArgument = errors.New("supply: invalid argument")

	// ErrNotWritable is returned when the access policy denies an external write.
	ErrNotWritable = errors.New("supply: property not writable")

	// ErrUnknownProperty is returned when a property name is not recognised.
	ErrUnknownProperty = errors.New("supply: unknown property")

	// ErrUnsupportedProperty is returned when a device does not expose a property.
	ErrUnsupportedProperty = errors.New("supply: property not supported by device")

	// ErrUnknownKind is returned when a device kind is not recognised.
	ErrUnknownKind = errors.New("supply: unknown kind")

	// ErrUnknownParam is returned when a configuration key is not recognised.
	ErrUnknownParam = errors.New("supply: unknown parameter")

	// ErrNotFound is returned when no device matches a lookup.
	ErrNotFound = errors.New("supply: not found")

	// ErrAlreadyStarted is returned when Start is called on a running simulator.
	ErrAlreadyStarted = errors.New("supply: already started")
)

// RegistrationError reports a device that the host refused to register.
// Devices registered earlier in the same attempt have already been rolled back
// by the time the caller sees it.
type RegistrationError struct {
	Device string
	Err    error
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("supply: registering %q: %v", e.Device, e.Err)
}

func (e *RegistrationError) Unwrap() error {
	return e.Err
}
