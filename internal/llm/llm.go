// ABOUTME: Completer contract and provider error taxonomy for LLM calls
// ABOUTME: Transient failures are retried once; permanent failures are not

package llm

import (
	"context"
	"errors"

	"github.com/attack-capital/chat-relay/internal/memory"
)

// ErrProvider indicates the upstream LLM call failed. The orchestrator
// catches this and substitutes an apology instead of propagating it.
var ErrProvider = errors.New("llm provider error")

// ErrRateLimited is a specialization of ErrProvider for quota/429 failures,
// so callers can show the high-demand apology text.
var ErrRateLimited = errors.New("llm provider rate limited")

// Completer generates one reply given a persona's system prompt, recent
// conversation history, and the new user message.
//
// History is supplied most-recent-first, as the memory package returns it;
// implementations reorder chronologically before sending upstream.
type Completer interface {
	Complete(ctx context.Context, systemPrompt string, history []memory.Turn, message string) (string, error)
}
