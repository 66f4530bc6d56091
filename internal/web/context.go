package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/datasweeper/internal/core"
)

// WithRequestMetadata adds the client IP to ctx for upload logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	// Already resolved by middleware.TrustedRealIP
	return core.ContextWithIPAddress(ctx, r.RemoteAddr)
}

// sessionID returns the workspace session of the request.
func sessionID(r *http.Request) string {
	return core.SessionFromContext(r.Context())
}
