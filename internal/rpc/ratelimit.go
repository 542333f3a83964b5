package rpc

import (
	"context"
	"encoding/json"

	"golang.org/x/time/rate"
)

// RateLimitedCaller wraps a Caller with a token-bucket limiter so a burst of
// wallet activity cannot flood the node's RPC socket.
type RateLimitedCaller struct {
	next    Caller
	limiter *rate.Limiter
}

// NewRateLimitedCaller allows limit calls per second with the given burst.
func NewRateLimitedCaller(next Caller, limit rate.Limit, burst int) *RateLimitedCaller {
	return &RateLimitedCaller{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (r *RateLimitedCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.next.Call(ctx, method, params)
}
