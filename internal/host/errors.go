package host

import "errors"

// Domain errors for the host package.
var (
	// ErrInvalidSupply is returned when registering a supply without a name.
	ErrInvalidSupply = errors.New("host: invalid supply")

	// ErrNameTaken is returned when a supply with the same name is already registered.
	ErrNameTaken = errors.New("host: supply name already registered")

	// ErrNotRegistered is returned when unregistering an unknown handle.
	ErrNotRegistered = errors.New("host: supply not registered")

	// ErrUnknownFormat is returned for an unsupported payload format.
	ErrUnknownFormat = errors.New("host: unknown payload format")

	// ErrBadCommand is returned when an inbound command cannot be parsed.
	ErrBadCommand = errors.New("host: bad command")
)
