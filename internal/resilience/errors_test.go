package resilience

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"testing"
)

func TestIsTransient_Explicit(t *testing.T) {
	err := NewTransientError(errors.New("busy"), "launch mopac")
	if !IsTransient(err) {
		t.Error("expected TransientError to be transient")
	}
	if err.Error() != "launch mopac: busy" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsTransient(fmt.Errorf("run: %w", err)) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_Errno(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ETXTBSY, syscall.EAGAIN, syscall.EINTR} {
		err := &os.PathError{Op: "fork/exec", Path: "/usr/bin/mopac", Err: errno}
		if !IsTransient(fmt.Errorf("start: %w", err)) {
			t.Errorf("%v should be transient", errno)
		}
	}
}

func TestIsTransient_Messages(t *testing.T) {
	if !IsTransient(errors.New("fork/exec ./g09: text file busy")) {
		t.Error("text file busy should be transient")
	}
	if !IsTransient(errors.New("Resource temporarily unavailable")) {
		t.Error("EAGAIN text should be transient")
	}
}

func TestIsTransient_Permanent(t *testing.T) {
	if IsTransient(exec.ErrNotFound) {
		t.Error("missing executable should not be transient")
	}
	if IsTransient(&os.PathError{Op: "fork/exec", Path: "x", Err: syscall.EACCES}) {
		t.Error("permission denied should not be transient")
	}
	if IsTransient(errors.New("exit status 1")) {
		t.Error("non-zero exit should not be transient")
	}
}
