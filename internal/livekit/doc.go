// Package livekit issues the access tokens that let chat clients join a
// LiveKit room. Only token minting lives here; room lifecycle is managed
// by the LiveKit server itself.
package livekit
