// Package convert implements the lattice translation engine: it turns the
// ordered records of a source.Sequence into typed tracking elements on an
// element.Line, optionally keeping symbolic parameters linked to the shared
// variable table through a vars.Manager.
package convert

import (
	"errors"
	"fmt"
)

// The four fatal error classes of the translation engine. Everything is
// wrapped around one of these sentinels so callers can classify failures;
// there are no retries and a single warning path (zero-length solenoids).
var (
	// ErrUnsupported marks lattice constructs the engine cannot express:
	// unknown element or aperture types, multiwire configurations,
	// longitudinal translations, misalignment attributes on non-translation
	// elements.
	ErrUnsupported = errors.New("unsupported lattice construct")

	// ErrConfig marks option combinations rejected at setup time.
	ErrConfig = errors.New("conflicting translation options")

	// ErrThick marks a thick element encountered while thick import is
	// disabled.
	ErrThick = errors.New("thick element not allowed")

	// ErrEmptySequence marks a sequence with no element records.
	ErrEmptySequence = errors.New("sequence has no elements")
)

func unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

func configErrf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}
