package registry

import "errors"

// Sentinel errors for registry operations.
var (
	// ErrDuplicateName is returned when registering a name that already exists.
	ErrDuplicateName = errors.New("registry: handler name already registered")

	// ErrMissingDependency is returned when a registration names a dependency
	// that is not currently registered.
	ErrMissingDependency = errors.New("registry: missing dependency")

	// ErrUnknownHandler is returned when an operation references a name that
	// is not registered.
	ErrUnknownHandler = errors.New("registry: unknown handler")

	// ErrInvalidName is returned when a handler reports an empty name.
	ErrInvalidName = errors.New("registry: handler name must not be empty")

	// ErrInvalidPriority is returned when a registration carries a negative priority.
	ErrInvalidPriority = errors.New("registry: priority must be non-negative")
)
