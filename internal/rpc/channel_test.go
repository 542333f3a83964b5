package rpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func pushN(c *ErrorChannel, n int) {
	for i := 0; i < n; i++ {
		c.Push(&ConnError{
			Key:          ErrKeyConnection,
			Context:      fmt.Sprintf("op%d (offers)", i),
			ConnectionID: "conn-1",
			Detail:       errors.New("boom"),
		})
	}
}

func TestErrorChannelBoundedHistory(t *testing.T) {
	c := NewErrorChannel()
	pushN(c, 15)

	recent := c.Recent()
	require.Len(t, recent, HistoryCap)

	// Oldest five evicted: history starts at op5, ends at op14.
	require.Equal(t, "op5 (offers)", recent[0].Context)
	require.Equal(t, "op14 (offers)", recent[len(recent)-1].Context)
}

func TestErrorChannelLatest(t *testing.T) {
	c := NewErrorChannel()
	require.Nil(t, c.Latest())

	pushN(c, 3)
	require.Equal(t, "op2 (offers)", c.Latest().Context)
}

func TestErrorChannelSubscribe(t *testing.T) {
	c := NewErrorChannel()

	var seen []string
	unsubscribe := c.Subscribe(func(ce *ConnError) {
		seen = append(seen, ce.Context)
	})

	pushN(c, 2)
	require.Equal(t, []string{"op0 (offers)", "op1 (offers)"}, seen)

	unsubscribe()
	pushN(c, 1)
	require.Len(t, seen, 2)
}

func TestErrorChannelRecentIsACopy(t *testing.T) {
	c := NewErrorChannel()
	pushN(c, 2)

	recent := c.Recent()
	recent[0] = nil

	require.NotNil(t, c.Recent()[0])
}
