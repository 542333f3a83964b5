// Package rpc defines the narrow contract this wallet consumes from a Core
// Lightning node: a Caller that executes one RPC method, a connection
// identity to hang errors on, and the per-connection error history. The
// actual transport behind a Caller is interchangeable.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// Caller executes a single RPC call against a node. params may be a struct
// or map for keyword calls, a []any for positional calls, or nil for no
// params. Implementations must return the raw result payload untouched.
type Caller interface {
	Call(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// RPCError is the structured error shape the node returns for a well-formed
// request it rejects (unknown offer id, invalid amount, and so on).
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Conn binds a Caller to a connection identity and owns that connection's
// error history. It is constructed once per node connection and passed by
// reference into the components that issue calls on it.
type Conn struct {
	ConnectionID string
	NodeID       string

	caller Caller
	errors *ErrorChannel
}

// NewConn creates a connection wrapper around the given transport.
func NewConn(connectionID, nodeID string, caller Caller) *Conn {
	return &Conn{
		ConnectionID: connectionID,
		NodeID:       nodeID,
		caller:       caller,
		errors:       NewErrorChannel(),
	}
}

// Call forwards to the underlying transport.
func (c *Conn) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	return c.caller.Call(ctx, method, params)
}

// Errors returns this connection's error history.
func (c *Conn) Errors() *ErrorChannel {
	return c.errors
}

// Fail maps err into a ConnError for the given operation context, records it
// in the connection's error history, and returns it for the caller to
// propagate. Every public operation failure goes through here exactly once.
func (c *Conn) Fail(err error, opContext string) *ConnError {
	ce := MapError(err, opContext, c.ConnectionID)
	c.errors.Push(ce)
	return ce
}
