package api

import "time"

// TokenRequest represents the request payload for peer token issuance
type TokenRequest struct {
	PeerID string `json:"peer_id" validate:"required"`
}

// TokenResponse represents the response payload for peer token issuance
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	PeerID    string    `json:"peer_id"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
