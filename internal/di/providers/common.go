// Package providers contains the dependency injection providers for the Game Hub server.
package providers

import "time"

const (
	// shutdownTimeout bounds graceful shutdown of the HTTP server and the store.
	shutdownTimeout = 30 * time.Second

	// limiterIdleTTL evicts per-client auth limiters nobody used for this long.
	limiterIdleTTL = 10 * time.Minute
)
