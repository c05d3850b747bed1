// Package middleware holds the net/http middleware wrapped around the word
// count routes: request IDs, access logging and per-client rate limiting.
package middleware
