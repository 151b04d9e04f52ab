// Package relay exposes the chat service over HTTP and WebSocket.
//
// The HTTP endpoints cover the stateless operations: listing agents,
// minting LiveKit room tokens, one-shot agent responses, and agent
// handoff. The WebSocket endpoint hosts live rooms: every room runs a
// single worker goroutine, so user messages in a room are processed
// strictly in arrival order with at most one model call in flight.
package relay
