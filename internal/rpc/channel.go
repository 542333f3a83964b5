package rpc

import (
	"sync"
)

// HistoryCap is how many errors a connection retains. Older entries are
// evicted FIFO once the cap is exceeded.
const HistoryCap = 10

// ErrorChannel is a bounded, observable history of a connection's errors.
// Subscribers are notified of every push; the retained history holds the
// most recent HistoryCap entries, oldest first.
type ErrorChannel struct {
	mu      sync.Mutex
	recent  []*ConnError
	subs    map[int]func(*ConnError)
	nextSub int
}

// NewErrorChannel creates an empty error channel.
func NewErrorChannel() *ErrorChannel {
	return &ErrorChannel{
		subs: make(map[int]func(*ConnError)),
	}
}

// Push appends an error, evicting the oldest entries beyond HistoryCap, and
// notifies all subscribers.
func (c *ErrorChannel) Push(ce *ConnError) {
	c.mu.Lock()
	c.recent = append(c.recent, ce)
	if over := len(c.recent) - HistoryCap; over > 0 {
		c.recent = append([]*ConnError(nil), c.recent[over:]...)
	}
	subs := make([]func(*ConnError), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ce)
	}
}

// Recent returns a copy of the retained history, oldest first.
func (c *ErrorChannel) Recent() []*ConnError {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ConnError, len(c.recent))
	copy(out, c.recent)
	return out
}

// Latest returns the most recent error, or nil if none have been pushed.
func (c *ErrorChannel) Latest() *ConnError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.recent) == 0 {
		return nil
	}
	return c.recent[len(c.recent)-1]
}

// Subscribe registers fn to be called on every subsequent push. The returned
// function removes the subscription.
func (c *ErrorChannel) Subscribe(fn func(*ConnError)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}
