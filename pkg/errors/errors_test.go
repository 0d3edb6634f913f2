package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidPosition, "unknown position: %s", "libero")

	if err.Code != ErrCodeInvalidPosition {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidPosition)
	}
	if want := "INVALID_POSITION: unknown position: libero"; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeFetchFailed, cause, "fetching %s", "forward")

	if errors.Unwrap(err) != cause {
		t.Error("Unwrap() did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if UserMessage(err) != "fetching forward" {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", New(ErrCodeInsufficientData, "empty"), ErrCodeInsufficientData, true},
		{"non-matching code", New(ErrCodeInvalidInput, "x"), ErrCodeFetchFailed, false},
		{"outermost wins", Wrap(ErrCodeFetchFailed, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeFetchFailed, true},
		{"fmt wrapped", fmt.Errorf("ctx: %w", New(ErrCodeCacheFailed, "disk")), ErrCodeCacheFailed, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidInput, false},
		{"nil", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCodeAndUserMessage(t *testing.T) {
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %q, want empty", got)
	}
	if got := GetCode(nil); got != "" {
		t.Errorf("GetCode(nil) = %q, want empty", got)
	}
	if got := UserMessage(errors.New("plain")); got != "plain" {
		t.Errorf("UserMessage(plain) = %q", got)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(ErrCodeInvalidPosition, "x"), 400},
		{New(ErrCodeViewNotFound, "x"), 404},
		{New(ErrCodeInsufficientData, "x"), 422},
		{New(ErrCodeUnavailable, "x"), 502},
		{New(ErrCodeTimeout, "x"), 504},
		{errors.New("plain"), 500},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestStatusErrorCode(t *testing.T) {
	tests := []struct {
		status int
		want   Code
	}{
		{404, ErrCodeNotFound},
		{429, ErrCodeRateLimited},
		{503, ErrCodeUnavailable},
		{400, ErrCodeFetchFailed},
	}
	for _, tt := range tests {
		e := &StatusError{StatusCode: tt.status}
		if got := e.Code(); got != tt.want {
			t.Errorf("StatusError{%d}.Code() = %v, want %v", tt.status, got, tt.want)
		}
	}
}
