package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// RecordedCall captures one call made through a MockCaller. Params holds the
// marshalled JSON of the params value, so tests can assert on the exact wire
// shape (keyword object vs positional array).
type RecordedCall struct {
	Method string
	Params json.RawMessage
}

// MockCaller implements Caller for testing. Responses are scripted per
// method, every call is recorded, and calls to unscripted methods fail.
type MockCaller struct {
	mu       sync.Mutex
	results  map[string]json.RawMessage
	errs     map[string]error
	handlers map[string]func(params json.RawMessage) (json.RawMessage, error)
	calls    []RecordedCall
}

// NewMockCaller creates an empty mock.
func NewMockCaller() *MockCaller {
	return &MockCaller{
		results:  make(map[string]json.RawMessage),
		errs:     make(map[string]error),
		handlers: make(map[string]func(json.RawMessage) (json.RawMessage, error)),
	}
}

// Respond scripts a fixed successful result for method. result is marshalled
// once at registration.
func (m *MockCaller) Respond(method string, result any) {
	raw, err := json.Marshal(result)
	if err != nil {
		panic(fmt.Sprintf("mock: cannot marshal %s result: %v", method, err))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[method] = raw
}

// RespondRaw scripts a raw JSON result for method.
func (m *MockCaller) RespondRaw(method string, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[method] = json.RawMessage(raw)
}

// Fail scripts a failure for method.
func (m *MockCaller) Fail(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[method] = err
}

// Handle scripts a function handler for method, for responses that depend on
// the params of each call.
func (m *MockCaller) Handle(method string, fn func(params json.RawMessage) (json.RawMessage, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method] = fn
}

func (m *MockCaller) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("mock: cannot marshal %s params: %v", method, err)
		}
		raw = b
	}

	m.mu.Lock()
	m.calls = append(m.calls, RecordedCall{Method: method, Params: raw})
	handler := m.handlers[method]
	result, hasResult := m.results[method]
	err, hasErr := m.errs[method]
	m.mu.Unlock()

	if handler != nil {
		return handler(raw)
	}
	if hasErr {
		return nil, err
	}
	if hasResult {
		return result, nil
	}
	return nil, fmt.Errorf("mock: unscripted method %q", method)
}

// Calls returns all recorded calls in order.
func (m *MockCaller) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RecordedCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsTo returns the recorded calls for one method, in order.
func (m *MockCaller) CallsTo(method string) []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RecordedCall
	for _, c := range m.calls {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}
