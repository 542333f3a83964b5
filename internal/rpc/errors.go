package rpc

import (
	"errors"
	"fmt"
)

// ErrKeyConnection tags every error produced by this subsystem so UI layers
// can group them apart from errors raised elsewhere in the wallet.
const ErrKeyConnection = "clnoffers.connection"

// ConnError is the single error shape callers observe from this subsystem.
// Context names the failing operation with a stable literal, ConnectionID
// names the owning connection, and Detail carries the raw underlying error.
type ConnError struct {
	Key          string
	Context      string
	ConnectionID string
	Detail       error
}

func (e *ConnError) Error() string {
	if e.Detail == nil {
		return fmt.Sprintf("%s [%s]", e.Context, e.ConnectionID)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Context, e.ConnectionID, e.Detail)
}

func (e *ConnError) Unwrap() error {
	return e.Detail
}

// MapError converts a raw failure into a ConnError. It never panics and
// accepts a nil error for callers that only have a failure signal.
func MapError(err error, opContext, connectionID string) *ConnError {
	if err == nil {
		err = errors.New("unknown error")
	}

	// Already mapped errors pass through unchanged so re-wrapping at an
	// outer layer cannot stack contexts.
	var ce *ConnError
	if errors.As(err, &ce) {
		return ce
	}

	return &ConnError{
		Key:          ErrKeyConnection,
		Context:      opContext,
		ConnectionID: connectionID,
		Detail:       err,
	}
}
