// Package agent defines AI personas and the registry that loads them.
//
// # Personas
//
// An Agent is display metadata plus a fixed system prompt. The roster is
// loaded once at startup and never mutated afterwards, so handlers and the
// orchestrator read it without coordination.
//
// # Loading
//
// Load builds the registry from one of two sources:
//
//  1. A remote registry URL (registry.url in config), fetched once with a
//     bounded timeout.
//  2. The built-in three-persona table, used when no URL is configured or
//     when the remote fetch fails in any way.
//
// The fallback is deliberate policy: an unreachable registry degrades to
// the builtin roster instead of failing requests. The configured default
// persona is guaranteed to exist in the loaded roster.
//
// # Lookup
//
// Get returns ErrAgentNotFound for unknown names. Callers are expected to
// substitute Default() rather than surface the miss to users.
package agent
