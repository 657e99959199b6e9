package types

import "fmt"

// ErrorEvent is the status code returned by the numerical path. Success is never
// returned as an error value, a nil error is used instead.
type ErrorEvent uint8

const (
	Success ErrorEvent = iota
	InvalidParameter
	UnknownError
	InvalidDevice
	SetOnActiveDevice
	SolverDiverged
	NoInteraction
	InteractionFailed
	RepartitioningFailed
	AccuracyError
	DivergenceError
	NotImplementedError
	SizeError
)

var errorEventNames = map[ErrorEvent]string{
	Success:              "Success",
	InvalidParameter:     "InvalidParameter",
	UnknownError:         "UnknownError",
	InvalidDevice:        "InvalidDevice",
	SetOnActiveDevice:    "SetOnActiveDevice",
	SolverDiverged:       "SolverDiverged",
	NoInteraction:        "NoInteraction",
	InteractionFailed:    "InteractionFailed",
	RepartitioningFailed: "RepartitioningFailed",
	AccuracyError:        "AccuracyError",
	DivergenceError:      "DivergenceError",
	NotImplementedError:  "NotImplementedError",
	SizeError:            "SizeError",
}

func (ee ErrorEvent) String() string {
	if val, ok := errorEventNames[ee]; ok {
		return val
	}
	return fmt.Sprintf("ErrorEvent(%d)", uint8(ee))
}

func (ee ErrorEvent) Error() string {
	return ee.String()
}

// AsError maps Success to nil so a status code can be returned as an error
func (ee ErrorEvent) AsError() error {
	if ee == Success {
		return nil
	}
	return ee
}
