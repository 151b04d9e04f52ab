// ABOUTME: Thread-safe registry of agent personas with remote fetch and builtin fallback
// ABOUTME: Read-only after load; unknown lookups return ErrAgentNotFound

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrAgentNotFound indicates the requested persona is not in the registry.
var ErrAgentNotFound = errors.New("agent not found")

// Registry holds the loaded persona roster. The roster never changes after
// Load, so callers may cache Agent values freely.
type Registry struct {
	mu          sync.RWMutex
	agents      map[string]Agent
	order       []string // insertion order, for stable List output
	defaultName string
	fromRemote  bool
	logger      *slog.Logger
}

// Option configures a Registry.
type Option func(*registryOptions)

type registryOptions struct {
	remoteURL   string
	timeout     time.Duration
	defaultName string
	client      *resty.Client
}

// WithRemote sets a remote registry URL to fetch personas from at load time.
func WithRemote(url string, timeout time.Duration) Option {
	return func(o *registryOptions) {
		o.remoteURL = url
		o.timeout = timeout
	}
}

// WithDefault sets the name of the fallback persona used when a caller
// requests an empty or unknown agent.
func WithDefault(name string) Option {
	return func(o *registryOptions) {
		o.defaultName = name
	}
}

// WithClient overrides the HTTP client used for remote fetches.
func WithClient(c *resty.Client) Option {
	return func(o *registryOptions) {
		o.client = c
	}
}

// remoteRoster is the JSON shape served by a remote agent registry.
type remoteRoster struct {
	Agents []Agent `json:"agents"`
}

// Load builds a Registry. If a remote URL is configured it is fetched once
// with a bounded timeout; any failure (unreachable, non-2xx, empty roster)
// falls back to the builtin table rather than failing the caller —
// availability over completeness.
func Load(ctx context.Context, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "agents")

	o := &registryOptions{
		timeout:     5 * time.Second,
		defaultName: "support-agent",
	}
	for _, opt := range opts {
		opt(o)
	}

	r := &Registry{
		agents:      make(map[string]Agent),
		defaultName: o.defaultName,
		logger:      logger,
	}

	roster, fromRemote := r.fetchRoster(ctx, o)
	for _, a := range roster {
		if _, dup := r.agents[a.Name]; dup {
			logger.Warn("duplicate agent in roster, keeping first", "agent", a.Name)
			continue
		}
		r.agents[a.Name] = a
		r.order = append(r.order, a.Name)
	}
	r.fromRemote = fromRemote

	// The default must exist even if the remote roster omitted it
	if _, ok := r.agents[r.defaultName]; !ok {
		logger.Warn("default agent missing from roster, adding builtin", "agent", r.defaultName)
		for _, a := range Builtin() {
			if a.Name == r.defaultName {
				r.agents[a.Name] = a
				r.order = append(r.order, a.Name)
			}
		}
	}

	logger.Info("agent registry loaded",
		"agents", len(r.agents),
		"source", rosterSource(fromRemote),
		"default", r.defaultName)

	return r
}

func rosterSource(remote bool) string {
	if remote {
		return "remote"
	}
	return "builtin"
}

// fetchRoster returns the remote roster when configured and reachable,
// otherwise the builtin table.
func (r *Registry) fetchRoster(ctx context.Context, o *registryOptions) ([]Agent, bool) {
	if o.remoteURL == "" {
		return Builtin(), false
	}

	client := o.client
	if client == nil {
		client = resty.New()
	}
	client.SetTimeout(o.timeout)

	var roster remoteRoster
	resp, err := client.R().
		SetContext(ctx).
		SetResult(&roster).
		Get(o.remoteURL)
	if err != nil {
		r.logger.Warn("remote registry unreachable, using builtin roster",
			"url", o.remoteURL, "error", err)
		return Builtin(), false
	}
	if resp.IsError() {
		r.logger.Warn("remote registry returned error, using builtin roster",
			"url", o.remoteURL, "status", resp.StatusCode())
		return Builtin(), false
	}
	if len(roster.Agents) == 0 {
		r.logger.Warn("remote registry returned empty roster, using builtin")
		return Builtin(), false
	}

	return roster.Agents, true
}

// List returns all personas in load order.
func (r *Registry) List() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Get returns the persona with the given name, or ErrAgentNotFound.
func (r *Registry) Get(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.agents[name]
	if !ok {
		return Agent{}, fmt.Errorf("%w: %q", ErrAgentNotFound, name)
	}
	return a, nil
}

// Default returns the configured fallback persona.
func (r *Registry) Default() Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[r.defaultName]
}

// FromRemote reports whether the roster came from a remote registry.
func (r *Registry) FromRemote() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fromRemote
}
