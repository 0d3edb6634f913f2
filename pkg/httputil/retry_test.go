package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	lserrors "github.com/matzehuels/landscape/pkg/errors"
)

func TestRetryGivesUpAfterAttempts(t *testing.T) {
	calls := 0
	want := errors.New("still down")
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return Retryable(want)
	})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errors.New("down"))
	})
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRetryableNil(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should be nil")
	}
}

func TestCheckResponse(t *testing.T) {
	tests := []struct {
		status    int
		wantErr   bool
		retryable bool
		code      lserrors.Code
	}{
		{200, false, false, ""},
		{204, false, false, ""},
		{400, true, false, lserrors.ErrCodeFetchFailed},
		{404, true, false, lserrors.ErrCodeNotFound},
		{429, true, true, lserrors.ErrCodeRateLimited},
		{503, true, true, lserrors.ErrCodeUnavailable},
	}
	for _, tt := range tests {
		resp := &http.Response{StatusCode: tt.status, Body: io.NopCloser(strings.NewReader("detail"))}
		err := CheckResponse(resp)
		if (err != nil) != tt.wantErr {
			t.Errorf("status %d: err = %v", tt.status, err)
			continue
		}
		if err == nil {
			continue
		}
		if IsRetryable(err) != tt.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, IsRetryable(err), tt.retryable)
		}
		var se *lserrors.StatusError
		if !errors.As(err, &se) {
			t.Fatalf("status %d: not a StatusError", tt.status)
		}
		if se.Code() != tt.code || se.Body != "detail" {
			t.Errorf("status %d: code = %s body = %q", tt.status, se.Code(), se.Body)
		}
	}
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	calls := 0
	start := time.Now()
	err := Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errors.New("busy"), After: 30 * time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("retried after %v, want at least 30ms", elapsed)
	}
}

func TestRetryAfterHeader(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"2", 2 * time.Second},
		{"0", 0},
		{"soon", 0},
		{"Mon, 02 Jan 2006 15:04:05 GMT", 0},
	}
	for _, tt := range tests {
		if got := retryAfter(tt.header); got != tt.want {
			t.Errorf("retryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}

	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{"Retry-After": []string{"3"}},
		Body:       io.NopCloser(strings.NewReader("")),
	}
	var re *RetryableError
	if !errors.As(CheckResponse(resp), &re) || re.After != 3*time.Second {
		t.Errorf("CheckResponse(429) after = %v, want 3s", re)
	}
}
