// Package httpserver wraps net/http.Server with address validation, configured
// timeouts and graceful shutdown.
package httpserver
