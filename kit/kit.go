// Package kit holds the transport-agnostic service plumbing: the Endpoint
// abstraction, middleware chaining, request-scoped context keys, and the
// MCP tool bridge.
package kit

import "context"

// Endpoint is a transport-agnostic request handler. Services expose their
// operations as Endpoints; transports (MCP, HTTP) adapt them.
type Endpoint func(ctx context.Context, req any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behavior.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares outermost-first: Chain(a, b, c) runs a, then
// b, then c, then the endpoint.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
