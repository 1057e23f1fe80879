package bridge

import (
	"net/http"

	"github.com/nano-kit/zenoh-remote-bridge/internal/log"
)

// Option configures a Bridge at construction time, adapted from the
// teacher's top-level functional-options API (options.go's Option/WithXxx
// family) down to the pieces a connection supervisor actually needs.
type Option func(*Bridge)

// WithCheckOrigin overrides the WebSocket upgrader's origin check, which
// defaults to accepting every origin.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(b *Bridge) { b.upgrader.CheckOrigin = fn }
}

// WithBufferSizes overrides the WebSocket upgrader's read/write buffer
// sizes, which default to 4096 bytes each.
func WithBufferSizes(read, write int) Option {
	return func(b *Bridge) {
		b.upgrader.ReadBufferSize = read
		b.upgrader.WriteBufferSize = write
	}
}

// WithHTTPHandler registers an additional handler on the bridge's mux,
// alongside the WebSocket endpoint and the admin tree.
func WithHTTPHandler(pattern string, handler http.Handler) Option {
	return func(b *Bridge) { b.mux.Handle(pattern, handler) }
}

// WithLogger overrides the process-wide logger used by the bridge and
// everything it starts (watchdog, remotestate).
func WithLogger(l log.Logger) Option {
	return func(b *Bridge) { log.SetLogger(l) }
}
