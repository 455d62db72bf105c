package errors

import (
	"fmt"
	"net"
	"net/http"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusCodeExtraction(t *testing.T) {
	err := NewStatusError("list suggestions", http.StatusServiceUnavailable)
	require.Equal(t, http.StatusServiceUnavailable, StatusCode(err))

	wrapped := fmt.Errorf("fetch: %w", err)
	require.Equal(t, http.StatusServiceUnavailable, StatusCode(wrapped))

	require.Zero(t, StatusCode(fmt.Errorf("plain")))
	require.Zero(t, StatusCode(nil))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"503", NewStatusError("get stats", http.StatusServiceUnavailable), true},
		{"429", NewStatusError("get stats", http.StatusTooManyRequests), true},
		{"401", NewStatusError("get settings", http.StatusUnauthorized), false},
		{"404", NewStatusError("get settings", http.StatusNotFound), false},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"op error", &net.OpError{Op: "dial", Err: fmt.Errorf("refused")}, true},
		{"plain", fmt.Errorf("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestIsPermanent(t *testing.T) {
	require.True(t, IsPermanent(NewStatusError("act", http.StatusUnauthorized)))
	require.True(t, IsPermanent(NewStatusError("act", http.StatusUnprocessableEntity)))
	require.False(t, IsPermanent(NewStatusError("act", http.StatusBadGateway)))
	require.False(t, IsPermanent(fmt.Errorf("network down")))
	require.False(t, IsPermanent(nil))
}

func TestTransientAndPermanentDisjointForStatuses(t *testing.T) {
	for code := 400; code < 600; code++ {
		err := NewStatusError("probe", code)
		require.False(t, IsTransient(err) && IsPermanent(err), "status %d classified both ways", code)
	}
}
