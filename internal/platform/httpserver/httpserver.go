// Package httpserver configures the process HTTP listener.
package httpserver

import (
	"context"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second

	// Field writes carry sealed payloads of bounded size, so a healthy
	// request never needs more than this to stream its body in or its
	// response out.
	readTimeout  = 15 * time.Second
	writeTimeout = 30 * time.Second
	idleTimeout  = 90 * time.Second

	shutdownTimeout = 10 * time.Second
)

// New builds an HTTP server with the timeouts this service needs.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Shutdown drains in-flight requests, giving up after a bounded wait so a
// stuck handler cannot hold up process exit.
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
