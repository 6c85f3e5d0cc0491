package overdrive

import "errors"

var (
	// ErrInvalidTable is returned when a table has a malformed envelope,
	// breakpoint curve or payload. Other loaded tables are unaffected.
	ErrInvalidTable = errors.New("overdrive: invalid table")
	// ErrPanelMismatch is returned when the identity tag of a table set
	// does not match the identifier read from the panel.
	ErrPanelMismatch = errors.New("overdrive: panel identity mismatch")
	// ErrNotReady is returned for operations issued before the lifecycle
	// reached the required state.
	ErrNotReady = errors.New("overdrive: not ready")
	// ErrAlreadyRunning is returned when bring-up is requested while the
	// correction is already initialized or enabled.
	ErrAlreadyRunning = errors.New("overdrive: already running")
	// ErrBandwidthUnavailable is returned when the platform arbiter refused
	// the bandwidth reservation. The correction keeps running without the
	// guarantee.
	ErrBandwidthUnavailable = errors.New("overdrive: bandwidth unavailable")
	// ErrHardwareTimeout is returned when the hardware did not acknowledge
	// a request within the bounded wait.
	ErrHardwareTimeout = errors.New("overdrive: hardware timeout")
	// ErrNoMatch is returned when no table envelope contains the operating
	// point.
	ErrNoMatch = errors.New("overdrive: no table for operating point")
	// ErrBankInUse is returned when staging writes target the bank the
	// display is reading.
	ErrBankInUse = errors.New("overdrive: bank is being read")
	// ErrTableCount is returned when more tables are loaded than the basic
	// info declared.
	ErrTableCount = errors.New("overdrive: table count mismatch")
	// ErrHalted is returned by operations on a halted device.
	ErrHalted = errors.New("overdrive: halted")
)
