package tab

import "errors"

var (
	// ErrInvalidTuning reports a tuning that does not have six strictly
	// ascending, parseable string pitches.
	ErrInvalidTuning = errors.New("invalid tuning")
	// ErrInvalidTempo reports a non-positive or non-finite tempo.
	ErrInvalidTempo = errors.New("invalid tempo")
	// ErrInvalidWidth reports an output width too narrow for one beat.
	ErrInvalidWidth = errors.New("invalid tab width")
	// ErrInvalidConfig reports any other unusable core setting.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrUnmappablePitch reports a frequency no string/fret can play.
	ErrUnmappablePitch = errors.New("unmappable pitch")
	// ErrTooLong reports a document that extends past MaxSteps.
	ErrTooLong = errors.New("tab too long")
	// ErrMalformedTab reports text that Parse cannot read.
	ErrMalformedTab = errors.New("malformed tab")
)
