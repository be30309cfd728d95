package health

import "errors"

var (
	// ErrAlreadyStarted is returned when Start is called on a running monitor.
	ErrAlreadyStarted = errors.New("health: monitor already started")

	// ErrProbeTimeout marks a probe that did not return within the
	// configured per-probe timeout.
	ErrProbeTimeout = errors.New("health: probe timed out")
)
