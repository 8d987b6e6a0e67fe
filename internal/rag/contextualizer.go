package rag

import (
	"context"
	"log"
	"strings"
)

// Turn is one prior conversation turn fed to the contextualizer.
type Turn struct {
	Role    string
	Content string
}

// Contextualizer rewrites a follow-up question into a standalone question
// that can be understood without the conversation history.
type Contextualizer struct {
	generator Generator
}

func NewContextualizer(generator Generator) *Contextualizer {
	return &Contextualizer{generator: generator}
}

// Contextualize returns the question rewritten against history. With no
// history the question is returned as is, without calling the generator.
// Rewriting is best effort: on timeout, error or an empty response the
// original question is returned so retrieval is never blocked.
func (c *Contextualizer) Contextualize(ctx context.Context, question string, history []Turn) string {
	if len(history) == 0 || c.generator == nil {
		return question
	}

	var sb strings.Builder
	sb.WriteString("Given a chat history and the latest user question which might reference context in the chat history, formulate a standalone question which can be understood without the chat history. Do NOT answer the question, just reformulate it if needed and otherwise return it as is.\n\nChat History:\n")
	for _, t := range history {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Content)
		sb.WriteString("\n")
	}
	sb.WriteString("\nLatest Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nStandalone Question:")

	rewritten, err := c.generator.Generate(ctx, sb.String())
	if err != nil {
		log.Printf("contextualize question failed, using original: %v", err)
		return question
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question
	}
	return rewritten
}
