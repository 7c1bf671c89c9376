package httpserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewSetsConnectionTimeouts(t *testing.T) {
	srv := New(":8080", http.NewServeMux())

	require.Equal(t, ":8080", srv.Addr)
	require.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	require.Equal(t, 15*time.Second, srv.ReadTimeout)
	require.Equal(t, 30*time.Second, srv.WriteTimeout)
	require.Equal(t, 90*time.Second, srv.IdleTimeout)
}

func TestShutdownReturnsOnIdleServer(t *testing.T) {
	srv := New("127.0.0.1:0", http.NewServeMux())
	require.NoError(t, Shutdown(srv))
}
