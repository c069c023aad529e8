// Package crkerr defines the error taxonomy used across crackerjack's core
// components (spec §7): config, subprocess, parse, filesystem, security,
// timeout, and cancellation classes, each tagged as fatal or recoverable so
// the orchestrator can classify an error at a phase boundary with a single
// errors.Is check instead of string matching.
package crkerr

import (
	"errors"
	"fmt"
)

// Class identifies which taxonomy bucket an error belongs to.
type Class int

const (
	// ClassConfig covers missing repo roots and unparseable manifests.
	ClassConfig Class = iota
	// ClassSubprocess covers tool-not-found and non-zero exits from hooks/tests.
	ClassSubprocess
	// ClassParse covers unexpected tool output.
	ClassParse
	// ClassFilesystem covers permission, space, and symlink-refused errors.
	ClassFilesystem
	// ClassSecurity covers path escapes, dangerous proposals, and secret detection.
	ClassSecurity
	// ClassTimeout covers phase/hook/test/agent deadline expiry.
	ClassTimeout
	// ClassCancellation covers deadline- or signal-triggered run cancellation.
	ClassCancellation
)

func (c Class) String() string {
	switch c {
	case ClassConfig:
		return "config"
	case ClassSubprocess:
		return "subprocess"
	case ClassParse:
		return "parse"
	case ClassFilesystem:
		return "filesystem"
	case ClassSecurity:
		return "security"
	case ClassTimeout:
		return "timeout"
	case ClassCancellation:
		return "cancellation"
	default:
		return "unknown"
	}
}

// Fatal reports whether errors of this class abort the run rather than being
// captured in a typed result and carried forward (spec §7 Propagation).
func (c Class) Fatal() bool {
	switch c {
	case ClassConfig, ClassSecurity:
		return true
	default:
		return false
	}
}

// classifiedError wraps an underlying error with its taxonomy class.
type classifiedError struct {
	class Class
	err   error
}

func (e *classifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.class, e.err)
}

func (e *classifiedError) Unwrap() error { return e.err }

// Wrap tags err with class, suitable for errors.Is(err, crkerr.Fatal) or
// ClassOf(err) downstream.
func Wrap(class Class, err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{class: class, err: err}
}

// Wrapf wraps a formatted error with class in one call.
func Wrapf(class Class, format string, args ...any) error {
	return Wrap(class, fmt.Errorf(format, args...))
}

// ClassOf extracts the taxonomy class from err, if any component in its chain
// was produced by Wrap/Wrapf. Returns ok=false for unclassified errors.
func ClassOf(err error) (Class, bool) {
	var ce *classifiedError
	if errors.As(err, &ce) {
		return ce.class, true
	}
	return 0, false
}

// sentinel implements a tiny marker error so errors.Is(err, Fatal) /
// errors.Is(err, Recoverable) work without exposing classifiedError.
type sentinel struct{ fatal bool }

func (s *sentinel) Error() string {
	if s.fatal {
		return "fatal error"
	}
	return "recoverable error"
}

// Fatal is a sentinel matched by IsFatal; it is not itself a concrete error
// you return, only a comparison target for errors.Is.
var Fatal = &sentinel{fatal: true}

// Recoverable is the mirror sentinel for non-fatal errors.
var Recoverable = &sentinel{fatal: false}

// IsFatal reports whether err (possibly wrapped) belongs to a fatal class.
func IsFatal(err error) bool {
	class, ok := ClassOf(err)
	if !ok {
		return false
	}
	return class.Fatal()
}

// Is implements errors.Is support so errors.Is(wrapped, crkerr.Fatal) and
// errors.Is(wrapped, crkerr.Recoverable) work against a classifiedError.
func (e *classifiedError) Is(target error) bool {
	if s, ok := target.(*sentinel); ok {
		return e.class.Fatal() == s.fatal
	}
	return false
}
