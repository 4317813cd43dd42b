package http

import (
	"context"

	policyDomain "github.com/allisson/secpolicy/internal/policy/domain"
)

// requestContextKey is a context key type for storing the policy request context.
type requestContextKey struct{}

// WithRequestContext stores the policy request context built by the middleware.
func WithRequestContext(ctx context.Context, request policyDomain.RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey{}, request)
}

// GetRequestContext retrieves the policy request context.
// Returns (request, true) if present, or a zero value and false if the middleware did not run.
func GetRequestContext(ctx context.Context) (policyDomain.RequestContext, bool) {
	request, ok := ctx.Value(requestContextKey{}).(policyDomain.RequestContext)
	return request, ok
}
