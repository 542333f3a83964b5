package bolt12

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockDecoder implements Decoder for testing. Results are scripted per
// bolt12 string; an optional per-string delay simulates decodes completing
// out of order.
type MockDecoder struct {
	mu      sync.Mutex
	offers  map[string]Offer
	errs    map[string]error
	delays  map[string]time.Duration
	decoded []string
}

// NewMockDecoder creates an empty mock.
func NewMockDecoder() *MockDecoder {
	return &MockDecoder{
		offers: make(map[string]Offer),
		errs:   make(map[string]error),
		delays: make(map[string]time.Duration),
	}
}

// Script registers the decoded view of bolt12.
func (m *MockDecoder) Script(bolt12 string, offer Offer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offers[bolt12] = offer
}

// ScriptErr registers a decode failure for bolt12.
func (m *MockDecoder) ScriptErr(bolt12 string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[bolt12] = err
}

// Delay makes decodes of bolt12 sleep before returning.
func (m *MockDecoder) Delay(bolt12 string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[bolt12] = d
}

func (m *MockDecoder) Decode(ctx context.Context, bolt12 string) (Offer, error) {
	m.mu.Lock()
	delay := m.delays[bolt12]
	offer, ok := m.offers[bolt12]
	err := m.errs[bolt12]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return Offer{}, ctx.Err()
		}
	}

	m.mu.Lock()
	m.decoded = append(m.decoded, bolt12)
	m.mu.Unlock()

	if err != nil {
		return Offer{}, err
	}
	if !ok {
		return Offer{}, fmt.Errorf("%w: unscripted string %q", ErrDecode, bolt12)
	}
	return offer, nil
}

// Decoded returns the strings decoded so far, in completion order.
func (m *MockDecoder) Decoded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.decoded))
	copy(out, m.decoded)
	return out
}
