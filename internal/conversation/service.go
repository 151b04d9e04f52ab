// ABOUTME: Orchestrates one chat turn: resolve persona, recall, complete, record
// ABOUTME: LLM failures yield an apology reply and leave memory untouched

package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/attack-capital/chat-relay/internal/agent"
	"github.com/attack-capital/chat-relay/internal/llm"
	"github.com/attack-capital/chat-relay/internal/memory"
)

const (
	// SystemSender marks replies that did not come from a persona.
	SystemSender = "system"

	apologyRateLimited = "I'm sorry, the AI service is currently experiencing high demand. Please try again in a moment."
	apologyGeneric     = "I'm sorry, I encountered an error processing your request."

	handoffTemplate = "I'm now switching to %s mode to better assist you."
	handoffFailed   = "I'm having trouble switching agents right now. Please try again later."

	welcomeReturning = "Hello %s! Welcome back to Attack Capital Chat. How can I assist you today?"
	welcomeNew       = "Hello %s! Welcome to Attack Capital Chat. I'm your AI assistant. How can I help you today?"
)

// ErrUnknownAgent is returned by Handoff when the target persona does not
// exist. The user's active agent is left unchanged.
var ErrUnknownAgent = errors.New("unknown handoff target")

// Reply is the outcome of one conversation turn.
type Reply struct {
	Agent string `json:"agent"`
	Text  string `json:"text"`
	// System marks apology and announcement replies that were not
	// produced by the LLM and were not recorded in memory.
	System bool `json:"system,omitempty"`
}

// Service drives conversations: it resolves which persona answers, pulls
// recent history, calls the model, and records the exchange.
type Service struct {
	registry     *agent.Registry
	store        memory.Store
	completer    llm.Completer
	historyLimit int
	logger       *slog.Logger

	mu     sync.Mutex
	active map[string]string // username -> agent name
}

func New(registry *agent.Registry, store memory.Store, completer llm.Completer, historyLimit int, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:     registry,
		store:        store,
		completer:    completer,
		historyLimit: historyLimit,
		logger:       logger.With("component", "conversation"),
		active:       make(map[string]string),
	}
}

// Respond produces the persona's reply to one user message.
//
// agentName may be empty, in which case the user's active agent (or the
// registry default) answers. An unknown explicit name also falls back to
// the default rather than failing the turn.
//
// The user and assistant turns are written to memory only after a
// successful completion; a failed turn leaves no trace in history and
// yields an apology reply instead of an error.
func (s *Service) Respond(ctx context.Context, username, agentName, text string) Reply {
	persona := s.resolveAgent(username, agentName)

	history, err := s.store.Recent(ctx, username, s.historyLimit)
	if err != nil {
		// Degrade to a contextless turn rather than failing the user.
		s.logger.Warn("history lookup failed", "user", username, "error", err)
		history = nil
	}

	reply, err := s.completer.Complete(ctx, persona.SystemPrompt, history, text)
	if err != nil {
		s.logger.Error("completion failed", "user", username, "agent", persona.Name, "error", err)
		apology := apologyGeneric
		if errors.Is(err, llm.ErrRateLimited) {
			apology = apologyRateLimited
		}
		return Reply{Agent: SystemSender, Text: apology, System: true}
	}

	s.record(ctx, username, text, reply)
	return Reply{Agent: persona.Name, Text: reply}
}

// Handoff switches the user's active agent. On success the returned reply
// announces the new persona; an unknown target returns ErrUnknownAgent and
// the previous active agent keeps answering.
func (s *Service) Handoff(ctx context.Context, username, target string) (Reply, error) {
	persona, err := s.registry.Get(target)
	if err != nil {
		s.logger.Warn("handoff to unknown agent", "user", username, "target", target)
		return Reply{Agent: SystemSender, Text: handoffFailed, System: true},
			fmt.Errorf("%w: %q", ErrUnknownAgent, target)
	}

	s.mu.Lock()
	s.active[username] = persona.Name
	s.mu.Unlock()

	announcement := fmt.Sprintf(handoffTemplate, persona.Role)
	if err := s.store.Append(ctx, username, memory.RoleAssistant, announcement); err != nil {
		s.logger.Warn("recording handoff announcement failed", "user", username, "error", err)
	}

	s.logger.Info("agent handoff", "user", username, "agent", persona.Name)
	return Reply{Agent: persona.Name, Text: announcement}, nil
}

// ActiveAgent reports which persona currently answers for the user.
func (s *Service) ActiveAgent(username string) agent.Agent {
	s.mu.Lock()
	name, ok := s.active[username]
	s.mu.Unlock()
	if !ok {
		return s.registry.Default()
	}
	persona, err := s.registry.Get(name)
	if err != nil {
		return s.registry.Default()
	}
	return persona
}

// Welcome produces the greeting shown when a user connects, distinguishing
// returning users (any stored history) from first-time ones. The greeting
// is recorded as an assistant turn, so a user who joins and says nothing
// is still recognized on their next visit.
func (s *Service) Welcome(ctx context.Context, username string) Reply {
	persona := s.ActiveAgent(username)
	returning, err := s.store.HasHistory(ctx, username)
	if err != nil {
		s.logger.Warn("history check failed", "user", username, "error", err)
		returning = false
	}
	text := fmt.Sprintf(welcomeNew, username)
	if returning {
		text = fmt.Sprintf(welcomeReturning, username)
	}
	if err := s.store.Append(ctx, username, memory.RoleAssistant, text); err != nil {
		s.logger.Warn("recording welcome failed", "user", username, "error", err)
	}
	return Reply{Agent: persona.Name, Text: text}
}

func (s *Service) resolveAgent(username, agentName string) agent.Agent {
	if agentName != "" {
		if persona, err := s.registry.Get(agentName); err == nil {
			return persona
		}
		s.logger.Warn("unknown agent requested, using active", "user", username, "agent", agentName)
	}
	return s.ActiveAgent(username)
}

func (s *Service) record(ctx context.Context, username, text, reply string) {
	if err := s.store.Append(ctx, username, memory.RoleUser, text); err != nil {
		s.logger.Warn("recording user turn failed", "user", username, "error", err)
		return
	}
	if err := s.store.Append(ctx, username, memory.RoleAssistant, reply); err != nil {
		s.logger.Warn("recording assistant turn failed", "user", username, "error", err)
	}
}
