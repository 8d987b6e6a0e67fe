package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextualize_EmptyHistoryIsIdentity(t *testing.T) {
	gen := &mockGenerator{response: "rewritten"}
	c := NewContextualizer(gen)

	got := c.Contextualize(context.Background(), "what about clause 4?", nil)

	assert.Equal(t, "what about clause 4?", got)
	assert.Zero(t, gen.calls, "generator must not be called without history")
}

func TestContextualize_RewritesWithHistory(t *testing.T) {
	gen := &mockGenerator{response: "  What does clause 4 of the contract say?  "}
	c := NewContextualizer(gen)

	history := []Turn{
		{Role: "user", Content: "What does the contract cover?"},
		{Role: "model", Content: "It covers clauses 1 through 9."},
	}
	got := c.Contextualize(context.Background(), "what about clause 4?", history)

	assert.Equal(t, "What does clause 4 of the contract say?", got)
	assert.Equal(t, 1, gen.calls)
}

func TestContextualize_FailureReturnsOriginal(t *testing.T) {
	c := NewContextualizer(&mockGenerator{err: errors.New("timeout")})

	history := []Turn{{Role: "user", Content: "earlier question"}}
	got := c.Contextualize(context.Background(), "and then?", history)

	assert.Equal(t, "and then?", got)
}

func TestContextualize_EmptyResponseReturnsOriginal(t *testing.T) {
	c := NewContextualizer(&mockGenerator{response: "   "})

	history := []Turn{{Role: "user", Content: "earlier question"}}
	got := c.Contextualize(context.Background(), "and then?", history)

	assert.Equal(t, "and then?", got)
}
