package httpx

import (
	"context"
	"net/http"
)

// clientIDKey is an unexported context key type for the browser client id.
type clientIDKey struct{}

// SetClientIDInContext stores the browser client id in the context.
func SetClientIDInContext(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey{}, clientID)
}

// ClientIDFromContext retrieves the browser client id from the context, or ""
// when the middleware did not run.
func ClientIDFromContext(ctx context.Context) string {
	if v := ctx.Value(clientIDKey{}); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// ClientIDFromRequest retrieves the browser client id from the request context.
func ClientIDFromRequest(r *http.Request) string {
	return ClientIDFromContext(r.Context())
}
