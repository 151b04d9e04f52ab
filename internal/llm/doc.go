// Package llm turns a persona prompt, recent history, and a user message
// into a single completion from a hosted provider.
//
// Providers are wrapped behind the Completer interface so the orchestrator
// never sees provider SDK types. Upstream failures surface as ErrProvider
// (or ErrRateLimited for quota errors) after one retry on transient faults.
package llm
