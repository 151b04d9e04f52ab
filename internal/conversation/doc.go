// Package conversation implements the turn pipeline shared by every
// transport: resolve which persona answers, recall the user's recent
// history, request a completion, and record the exchange.
//
// Failure handling is user-facing by design of the pipeline: a failed
// completion produces an apology Reply instead of an error, and nothing
// from the failed turn is written to memory.
package conversation
