// ABOUTME: Mem0 hosted memory service client implementing the memory Store
// ABOUTME: Every request carries a user_id filter to enforce memory isolation

package memory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	addMemoriesPath    = "/v1/memories/"
	searchMemoriesPath = "/v2/memories/search/"

	// recentQuery is the generic query used to pull conversational context.
	// Mem0 requires a non-empty query string even for recency-style reads.
	recentQuery = "recent conversation"
)

// Mem0Store implements Store against the hosted Mem0 REST API.
type Mem0Store struct {
	client *resty.Client
	logger *slog.Logger
}

// NewMem0Store creates a Mem0 client for the given endpoint and API key.
func NewMem0Store(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Mem0Store {
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Token "+apiKey).
		SetHeader("Content-Type", "application/json")

	return &Mem0Store{
		client: client,
		logger: logger.With("component", "memory.mem0"),
	}
}

// mem0Message is one message in an add request.
type mem0Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// mem0AddRequest is the body for POST /v1/memories/.
type mem0AddRequest struct {
	Messages []mem0Message  `json:"messages"`
	UserID   string         `json:"user_id"`
	Version  string         `json:"version"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// mem0SearchRequest is the body for POST /v2/memories/search/.
type mem0SearchRequest struct {
	Query   string         `json:"query"`
	Filters map[string]any `json:"filters"`
	Limit   int            `json:"limit"`
}

// mem0Memory is one record in a search response.
type mem0Memory struct {
	ID        string         `json:"id"`
	Memory    string         `json:"memory"`
	Metadata  map[string]any `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// Append stores one turn under the user's id. The role travels in metadata
// so Recent can reconstruct the speaker.
func (s *Mem0Store) Append(ctx context.Context, userID, role, text string) error {
	body := mem0AddRequest{
		Messages: []mem0Message{{Role: role, Content: text}},
		UserID:   userID,
		Version:  "v2",
		Metadata: map[string]any{"role": role},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(addMemoriesPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: add returned status %d", ErrUnavailable, resp.StatusCode())
	}

	s.logger.Debug("memory added", "user_id", userID, "role", role)
	return nil
}

// Recent returns up to limit turns for the user, most relevant first.
// The user_id filter on the search request is the isolation boundary.
func (s *Mem0Store) Recent(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return nil, nil
	}

	body := mem0SearchRequest{
		Query:   recentQuery,
		Filters: map[string]any{"user_id": userID},
		Limit:   limit,
	}

	var results []mem0Memory
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&results).
		Post(searchMemoriesPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: search returned status %d", ErrUnavailable, resp.StatusCode())
	}

	turns := make([]Turn, 0, len(results))
	for _, m := range results {
		turns = append(turns, Turn{
			ID:        m.ID,
			UserID:    userID,
			Role:      roleFromMetadata(m.Metadata),
			Text:      m.Memory,
			CreatedAt: m.CreatedAt,
		})
	}

	s.logger.Debug("memories retrieved", "user_id", userID, "count", len(turns))
	return turns, nil
}

// HasHistory reports whether any memory exists for the user.
func (s *Mem0Store) HasHistory(ctx context.Context, userID string) (bool, error) {
	turns, err := s.Recent(ctx, userID, 1)
	if err != nil {
		return false, err
	}
	return len(turns) > 0, nil
}

// Close is a no-op; the HTTP client holds no persistent resources.
func (s *Mem0Store) Close() error {
	return nil
}

// roleFromMetadata extracts the speaker role, defaulting to user.
// Records written by other tooling may carry no role at all.
func roleFromMetadata(md map[string]any) string {
	if md == nil {
		return RoleUser
	}
	if role, ok := md["role"].(string); ok && (role == RoleUser || role == RoleAssistant) {
		return role
	}
	return RoleUser
}
