package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewAndWrap(t *testing.T) {
	err := New(ErrCodeSessionNotFound, "session %s not found", "s1")
	if err.Error() != "SESSION_NOT_FOUND: session s1 not found" {
		t.Errorf("Error() = %q", err.Error())
	}

	cause := errors.New("connection refused")
	wrapped := Wrap(ErrCodeNetwork, cause, "save session %s", "s1")
	if wrapped.Error() != "NETWORK_ERROR: save session s1: connection refused" {
		t.Errorf("Error() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, cause) || errors.Unwrap(wrapped) != cause {
		t.Error("Wrap should keep the cause reachable")
	}
}

func TestCodes(t *testing.T) {
	readOnly := New(ErrCodeReadOnly, "cloud is read-only")
	outer := fmt.Errorf("start session: %w", readOnly)

	tests := []struct {
		name     string
		err      error
		code     Code
		is       bool
		getCode  Code
		fallback Code
	}{
		{"direct", readOnly, ErrCodeReadOnly, true, ErrCodeReadOnly, ErrCodeReadOnly},
		{"fmt wrapped", outer, ErrCodeReadOnly, true, ErrCodeReadOnly, ErrCodeReadOnly},
		{"outermost code wins", Wrap(ErrCodeNetwork, readOnly, "sync"), ErrCodeReadOnly, false, ErrCodeNetwork, ErrCodeNetwork},
		{"plain", errors.New("boom"), ErrCodeInternal, false, "", ErrCodeInternal},
		{"nil", nil, ErrCodeInternal, false, "", ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.is {
				t.Errorf("Is(%s) = %v, want %v", tt.code, got, tt.is)
			}
			if got := GetCode(tt.err); got != tt.getCode {
				t.Errorf("GetCode() = %q, want %q", got, tt.getCode)
			}
			if got := GetCodeOr(tt.err, ErrCodeInternal); got != tt.fallback {
				t.Errorf("GetCodeOr() = %q, want %q", got, tt.fallback)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	if got := UserMessage(Wrap(ErrCodeNetwork, errors.New("dial tcp"), "cloud is unreachable")); got != "cloud is unreachable" {
		t.Errorf("UserMessage(coded) = %q", got)
	}
	if got := UserMessage(errors.New("plain error")); got != "plain error" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"generic", New(ErrCodeNotFound, "x"), true},
		{"session", New(ErrCodeSessionNotFound, "x"), true},
		{"template", Wrap(ErrCodeTemplateNotFound, errors.New("gone"), "x"), true},
		{"read only", New(ErrCodeReadOnly, "x"), false},
		{"plain", errors.New("x"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.want {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJoin(t *testing.T) {
	err := Join(New(ErrCodeNetwork, "cloud"), nil)
	if !Is(err, ErrCodeNetwork) {
		t.Errorf("Join should keep coded errors reachable: %v", err)
	}
	if Join(nil, nil) != nil {
		t.Error("Join(nil, nil) should be nil")
	}
}
