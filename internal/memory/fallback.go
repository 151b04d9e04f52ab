// ABOUTME: FallbackStore composes the hosted memory service with the local SQLite store
// ABOUTME: A memory outage degrades personalization but never fails a conversation

package memory

import (
	"context"
	"log/slog"
)

// FallbackStore tries the remote store first and falls back to the local
// store on any error. Reads that fail on both backends return an empty
// result rather than an error: the orchestrator must always be able to
// continue with degraded context.
type FallbackStore struct {
	remote Store // may be nil when no memory service is configured
	local  Store
	logger *slog.Logger
}

// NewFallbackStore builds the composite store. remote may be nil, in which
// case all traffic goes to local directly.
func NewFallbackStore(remote, local Store, logger *slog.Logger) *FallbackStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackStore{
		remote: remote,
		local:  local,
		logger: logger.With("component", "memory"),
	}
}

// Append stores a turn remotely, falling back to the local store when the
// remote write fails. Returns an error only when both backends fail.
func (s *FallbackStore) Append(ctx context.Context, userID, role, text string) error {
	if s.remote != nil {
		err := s.remote.Append(ctx, userID, role, text)
		if err == nil {
			return nil
		}
		s.logger.Warn("remote memory append failed, using local store",
			"user_id", userID, "error", err)
	}
	return s.local.Append(ctx, userID, role, text)
}

// Recent returns recent turns for the user. Remote errors fall back to the
// local store; if that also fails, the result is empty with no error.
func (s *FallbackStore) Recent(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if s.remote != nil {
		turns, err := s.remote.Recent(ctx, userID, limit)
		if err == nil {
			return turns, nil
		}
		s.logger.Warn("remote memory read failed, using local store",
			"user_id", userID, "error", err)
	}

	turns, err := s.local.Recent(ctx, userID, limit)
	if err != nil {
		s.logger.Error("local memory read failed, continuing without context",
			"user_id", userID, "error", err)
		return nil, nil
	}
	return turns, nil
}

// HasHistory reports whether the user has any stored turns on either backend.
func (s *FallbackStore) HasHistory(ctx context.Context, userID string) (bool, error) {
	if s.remote != nil {
		has, err := s.remote.HasHistory(ctx, userID)
		if err == nil {
			if has {
				return true, nil
			}
			// Remote empty: a prior outage may have routed turns locally
		} else {
			s.logger.Warn("remote history check failed, using local store",
				"user_id", userID, "error", err)
		}
	}

	has, err := s.local.HasHistory(ctx, userID)
	if err != nil {
		return false, nil
	}
	return has, nil
}

// Close releases both backends.
func (s *FallbackStore) Close() error {
	if s.remote != nil {
		if err := s.remote.Close(); err != nil {
			s.logger.Warn("closing remote memory store", "error", err)
		}
	}
	return s.local.Close()
}
