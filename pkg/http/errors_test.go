package http

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetailMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "string detail", body: `{"detail":"Client: bob not found."}`, want: "Client: bob not found."},
		{name: "list detail", body: `{"detail":[{"msg":"a"},{"msg":"b"}]}`, want: "a; b"},
		{name: "list without msg", body: `{"detail":["plain"]}`, want: "plain"},
		{name: "no detail", body: `{"error":"x"}`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detailMessage([]byte(tt.body)))
		})
	}
}

func TestErrorFromResponse_FallsBackToRawText(t *testing.T) {
	err := errorFromResponse(500, []byte(`{"error":"boom"}`))
	assert.Equal(t, KindServerRejected, err.Kind)
	assert.Equal(t, `{"error":"boom"}`, err.Message)
}

func TestIsKind(t *testing.T) {
	wrapped := fmt.Errorf("load settings: %w", &ApiError{Kind: KindUnavailable})
	assert.True(t, IsKind(wrapped, KindUnavailable))
	assert.False(t, IsKind(wrapped, KindServerRejected))
	assert.False(t, IsKind(errors.New("plain"), KindUnavailable))
}

func TestIsConnectionPoolError(t *testing.T) {
	assert.True(t, isConnectionPoolError(connRefused()))
	assert.True(t, isConnectionPoolError(&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}))
	assert.False(t, isConnectionPoolError(&net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: "api"}}))
	assert.False(t, isConnectionPoolError(&net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}))
	assert.False(t, isConnectionPoolError(&net.OpError{Op: "read", Net: "tcp", Err: errors.New("connection reset by peer")}))
	assert.False(t, isConnectionPoolError(nil))
}
