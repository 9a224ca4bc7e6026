package exitcode

import (
	"errors"
	"fmt"
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 || GeneralError != 1 || ConfigError != 2 || ValidationError != 3 || FileSystemError != 4 {
		t.Error("exit code values changed; scripts depend on them")
	}
}

func TestString(t *testing.T) {
	tests := map[int]string{
		Success:         "Success",
		ConfigError:     "Configuration error",
		ValidationError: "Validation error",
		NotFound:        "Not found",
		999:             "Unknown error",
	}
	for code, want := range tests {
		if got := String(code); got != want {
			t.Errorf("String(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestWrapAndCode(t *testing.T) {
	if Wrap(ValidationError, nil) != nil {
		t.Error("Wrap(nil) should stay nil")
	}
	if Code(nil) != Success {
		t.Error("Code(nil) should be Success")
	}

	base := errors.New("2 file(s) failed validation")
	err := fmt.Errorf("validate: %w", Wrap(ValidationError, base))
	if Code(err) != ValidationError {
		t.Errorf("Code() = %d, want %d", Code(err), ValidationError)
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error should unwrap to base")
	}
	if err.Error() != "validate: 2 file(s) failed validation" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if Code(errors.New("plain")) != GeneralError {
		t.Error("plain errors map to GeneralError")
	}
	if (&Error{Code: NotFound}).Error() != "Not found" {
		t.Error("Error without cause should describe the code")
	}
}
