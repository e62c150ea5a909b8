package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New(CodeInternal, "save schedule", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected error string to contain cause, got %s", err.Error())
	}
	if err.Unwrap() != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestConstructorsCarryCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		code string
	}{
		{Validation("bad date %q", "2025-13-01"), CodeValidation},
		{NotFound("schedule"), CodeNotFound},
		{Conflict(fmt.Errorf("UNIQUE constraint failed")), CodeConflict},
		{Transport("email", fmt.Errorf("dial tcp: refused")), CodeTransport},
	}

	for _, tt := range tests {
		if tt.err.Code != tt.code {
			t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
		}
	}

	if msg := NotFound("schedule").Message; msg != "schedule not found" {
		t.Errorf("unexpected not found message %q", msg)
	}
	if msg := Validation("bad date %q", "x").Message; msg != `bad date "x"` {
		t.Errorf("unexpected validation message %q", msg)
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("record status: %w", NotFound("medicine"))

	if !IsNotFound(wrapped) {
		t.Error("expected IsNotFound through fmt wrapping")
	}
	if IsValidation(wrapped) {
		t.Error("did not expect IsValidation")
	}
	if !stderrors.Is(wrapped, ErrNotFound) {
		t.Error("expected errors.Is to match on code")
	}
	if GetCode(wrapped) != CodeNotFound {
		t.Errorf("expected %s, got %s", CodeNotFound, GetCode(wrapped))
	}
	if !IsTransport(Transport("chat", fmt.Errorf("timeout"))) {
		t.Error("expected IsTransport")
	}
	if !IsConflict(fmt.Errorf("insert: %w", Conflict(nil))) {
		t.Error("expected IsConflict")
	}
	if !IsUnauthorized(New(CodeUnauthorized, "invalid token")) {
		t.Error("expected IsUnauthorized")
	}
	if !IsConfigInvalid(Wrap(fmt.Errorf("bad timezone"), CodeConfig, "invalid configuration")) {
		t.Error("expected IsConfigInvalid")
	}
	if IsNotFound(New(CodeInternal, "boom")) {
		t.Error("did not expect IsNotFound for an internal error")
	}
}

func TestGetCodeUnknown(t *testing.T) {
	stdErr := fmt.Errorf("standard error")

	if IsAppError(stdErr) {
		t.Error("expected IsAppError to return false for standard error")
	}
	if GetCode(stdErr) != "UNKNOWN" {
		t.Errorf("expected code UNKNOWN for standard error, got %s", GetCode(stdErr))
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(cause, CodeInternal, "list schedules")

	if err.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, err.Code)
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
}
