// Package ctxkeys defines typed context keys to avoid SA1029 lint warnings
// and prevent key collisions across packages.
package ctxkeys

import "context"

// Key is a typed context key to prevent collisions.
type Key string

// Auth context keys
const (
	KeyUsername Key = "username"
	KeyAuthType Key = "auth_type"
)

// Request context keys
const (
	KeyRequestID Key = "request_id"
)

// GetUsername extracts the authenticated username from context.
func GetUsername(ctx context.Context) string {
	if v, ok := ctx.Value(KeyUsername).(string); ok {
		return v
	}
	return ""
}
