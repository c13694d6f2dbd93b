package errors

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "fake net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

var _ net.Error = fakeNetError{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"timeout", New(ErrorTypeTimeout, "slow", nil), true},
		{"wrapped timeout", fmt.Errorf("save: %w", New(ErrorTypeTimeout, "slow", nil)), true},
		{"network", New(ErrorTypeNetwork, "reset", nil), false},
		{"status", &Error{Type: ErrorTypeStatus, Message: "forbidden", Code: 403}, false},
		{"storage", New(ErrorTypeStorage, "disk full", nil), false},
		{"plain error", fmt.Errorf("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestClassifyTransport(t *testing.T) {
	assert.Equal(t, ErrorTypeTimeout, ClassifyTransport("get", context.DeadlineExceeded).Type)
	assert.Equal(t, ErrorTypeTimeout, ClassifyTransport("get", fakeNetError{timeout: true}).Type)
	assert.Equal(t, ErrorTypeNetwork, ClassifyTransport("get", fakeNetError{}).Type)
	assert.Equal(t, ErrorTypeNetwork, ClassifyTransport("get", fmt.Errorf("connection refused")).Type)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeStatus, Message: "not found", Code: 404}
	assert.Equal(t, "status error (code 404): not found", err.Error())

	cause := fmt.Errorf("eof")
	wrapped := New(ErrorTypeDecode, "bad body", cause)
	assert.Equal(t, "decode error: bad body", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, ErrorTypeUnknown, TypeOf(cause))
}
