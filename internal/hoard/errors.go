package hoard

import (
	"errors"
	"fmt"
)

// Kind classifies failures the caller may want to branch on.
type Kind int

const (
	KindOther Kind = iota
	// KindNotFound is a post or tag lookup miss.
	KindNotFound
	// KindIO covers hashing, copying and thumbnail file access.
	KindIO
	// KindStorage is a failure of the relational engine itself.
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindIO:
		return "i/o failure"
	case KindStorage:
		return "storage failure"
	default:
		return "error"
	}
}

// Error carries a Kind alongside the operation that failed.
// errors.Is matches any *Error with the same Kind, so callers can test
// against ErrNotFound, ErrIO and ErrStorage.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrNotFound = &Error{Kind: KindNotFound}
	ErrIO       = &Error{Kind: KindIO}
	ErrStorage  = &Error{Kind: KindStorage}
)

func (e *Error) Error() string {
	switch {
	case e.Op == "" && e.Err == nil:
		return e.Kind.String()
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// NotFound returns a KindNotFound error for op, e.g. NotFound("post 12").
func NotFound(op string) error {
	return &Error{Kind: KindNotFound, Op: op}
}

// StorageError wraps a database engine failure.
func StorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindStorage, Op: op, Err: err}
}

func ioError(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// IOError wraps a filesystem failure.
func IOError(op string, err error) error {
	if err == nil {
		return nil
	}
	return ioError(op, err)
}

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
