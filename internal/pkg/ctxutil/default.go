package ctxutil

import "context"

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

type traceKey struct{}
type authKey struct{}

// TraceData carries the per-request correlation ids stamped by the trace middleware.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	v, _ := ctx.Value(traceKey{}).(*TraceData)
	return v
}

// AuthData carries the bearer-token identity the auth middleware verified against the
// allowlist. The service never issues or stores sessions, so this is the full identity:
// just the claimed, allowlisted email.
type AuthData struct {
	Email string
}

func WithAuthData(ctx context.Context, ad *AuthData) context.Context {
	return context.WithValue(ctx, authKey{}, ad)
}

func GetAuthData(ctx context.Context) *AuthData {
	v, _ := ctx.Value(authKey{}).(*AuthData)
	return v
}
