package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	// KindUnknown is reported for errors that did not come from this package.
	KindUnknown Kind = iota
	// KindConfiguration covers missing settings, malformed template metadata
	// and invalid replacement patterns.
	KindConfiguration
	// KindValidation covers user input rejected before any work starts, such
	// as an existing target directory without override.
	KindValidation
	// KindTransientIO covers filesystem operations that kept failing after
	// their retry budget.
	KindTransientIO
	// KindCommandExecution covers post-generation commands that failed or
	// could not be started.
	KindCommandExecution
	// KindNetwork covers remote listing, download and repository creation.
	KindNetwork
	// KindDataIntegrity covers corrupt caches and conflicting identifiers.
	KindDataIntegrity
)

var kindNames = map[Kind]string{
	KindUnknown:          "unknown",
	KindConfiguration:    "configuration",
	KindValidation:       "validation",
	KindTransientIO:      "transient io",
	KindCommandExecution: "command execution",
	KindNetwork:          "network",
	KindDataIntegrity:    "data integrity",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified failure.
type Error struct {
	// Kind is the error class.
	Kind Kind
	// Op names the operation that failed, e.g. "prepare" or "sync".
	Op string
	// Path is the file or URL involved, if any.
	Path string
	// Msg is the human readable description.
	Msg string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Path)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// E builds an *Error.
func E(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

// WithPath returns a copy of e annotated with path.
func (e *Error) WithPath(path string) *Error {
	c := *e
	c.Path = path
	return &c
}

// Configuration builds a KindConfiguration error.
func Configuration(op, msg string, err error) *Error { return E(KindConfiguration, op, msg, err) }

// Validation builds a KindValidation error.
func Validation(op, msg string, err error) *Error { return E(KindValidation, op, msg, err) }

// TransientIO builds a KindTransientIO error.
func TransientIO(op, msg string, err error) *Error { return E(KindTransientIO, op, msg, err) }

// CommandExecution builds a KindCommandExecution error.
func CommandExecution(op, msg string, err error) *Error { return E(KindCommandExecution, op, msg, err) }

// Network builds a KindNetwork error.
func Network(op, msg string, err error) *Error { return E(KindNetwork, op, msg, err) }

// DataIntegrity builds a KindDataIntegrity error.
func DataIntegrity(op, msg string, err error) *Error { return E(KindDataIntegrity, op, msg, err) }

// KindOf returns the Kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether any *Error in err's chain has the given kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}
