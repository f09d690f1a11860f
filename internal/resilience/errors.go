package resilience

import (
	"errors"
	"strings"
	"syscall"
)

// TransientError marks an error as safe to retry.
type TransientError struct {
	Err error
	Op  string
}

func (e *TransientError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient. op names the failed operation.
func NewTransientError(err error, op string) *TransientError {
	return &TransientError{Err: err, Op: op}
}

var transientErrnos = []syscall.Errno{
	syscall.ETXTBSY, // executable still open for writing
	syscall.EAGAIN,  // fork: resource temporarily unavailable
	syscall.EINTR,
	syscall.ENOMEM,
}

// IsTransient reports whether err (or any error in its chain) is a
// TransientError, a retryable errno from process creation, or carries one
// of the matching messages.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	for _, errno := range transientErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"text file busy",
		"resource temporarily unavailable",
		"interrupted system call",
		"cannot allocate memory",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
