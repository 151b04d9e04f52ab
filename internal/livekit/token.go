// ABOUTME: LiveKit access token minting for room participants
// ABOUTME: Uses HS256 signing with the LiveKit API key/secret pair

package livekit

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token errors
var (
	ErrNotConfigured = errors.New("livekit credentials not configured")
	ErrEmptyIdentity = errors.New("participant identity required")
	ErrEmptyRoom     = errors.New("room name required")
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingGrant  = errors.New("missing video grant")
)

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = time.Hour

// VideoGrant mirrors the LiveKit room permission claim.
type VideoGrant struct {
	RoomJoin       bool   `json:"roomJoin"`
	Room           string `json:"room"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData"`
}

// TokenMinter issues LiveKit access tokens signed with the API secret.
type TokenMinter struct {
	apiKey    string
	apiSecret []byte
	ttl       time.Duration
}

// NewTokenMinter creates a minter for the given credential pair. TTL <= 0
// falls back to DefaultTokenTTL.
func NewTokenMinter(apiKey, apiSecret string, ttl time.Duration) *TokenMinter {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenMinter{apiKey: apiKey, apiSecret: []byte(apiSecret), ttl: ttl}
}

// Configured reports whether both credentials are present. Unconfigured
// minters cannot issue tokens; callers should reject room creation instead.
func (m *TokenMinter) Configured() bool {
	return m.apiKey != "" && len(m.apiSecret) > 0
}

// Mint issues a join token for identity in room. Participants join as
// subscribers that may send data messages; media publishing stays with
// server-side agents.
func (m *TokenMinter) Mint(identity, room string) (string, error) {
	return m.mint(identity, room, false)
}

// MintAgent issues a publisher token for a server-side agent participant.
func (m *TokenMinter) MintAgent(identity, room string) (string, error) {
	return m.mint(identity, room, true)
}

func (m *TokenMinter) mint(identity, room string, canPublish bool) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}
	if identity == "" {
		return "", ErrEmptyIdentity
	}
	if room == "" {
		return "", ErrEmptyRoom
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  m.apiKey,
		"sub":  identity,
		"name": identity,
		"nbf":  now.Unix(),
		"iat":  now.Unix(),
		"exp":  now.Add(m.ttl).Unix(),
		"video": VideoGrant{
			RoomJoin:       true,
			Room:           room,
			CanPublish:     canPublish,
			CanSubscribe:   true,
			CanPublishData: true,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.apiSecret)
}

// Verify parses a minted token and returns the participant identity and
// room it grants access to. Used by tests and diagnostic tooling.
func (m *TokenMinter) Verify(tokenString string) (identity, room string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.apiSecret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	grant, ok := claims["video"].(map[string]interface{})
	if !ok {
		return "", "", ErrMissingGrant
	}
	roomName, _ := grant["room"].(string)
	return sub, roomName, nil
}
