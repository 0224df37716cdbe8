package llm

import "context"

type contextKey string

const authTokenKey contextKey = "deck-llm-auth-token"

// ContextWithAuthToken carries the caller's Authorization header to the
// provider so generation runs under the requesting user's quota.
func ContextWithAuthToken(ctx context.Context, authHeader string) context.Context {
	if ctx == nil || authHeader == "" {
		return ctx
	}
	return context.WithValue(ctx, authTokenKey, authHeader)
}

// AuthTokenFromContext returns the forwarded Authorization header, if any.
func AuthTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(authTokenKey).(string)
	return token
}
