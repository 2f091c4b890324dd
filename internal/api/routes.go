package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/voxrelay/server/internal/auth"
	"github.com/voxrelay/server/internal/websocket"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "voxrelay-server",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	// Peer token issuance
	v1.POST("/token", func(c echo.Context) error {
		return issuePeerToken(c, logger)
	})

	// WebSocket endpoint, identity-gated
	e.GET("/ws", func(c echo.Context) error {
		return serveWebSocket(hub, c, logger)
	})
}

// issuePeerToken mints a signed token binding a peer identity, for clients
// that prefer not to pass the raw identity on the WebSocket URL.
func issuePeerToken(c echo.Context, logger *zap.Logger) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	peerID := strings.TrimSpace(req.PeerID)
	if peerID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_fields",
			Message: "Peer id is required",
		})
	}

	token, err := auth.GeneratePeerToken(peerID)
	if err != nil {
		logger.Error("Failed to generate peer token",
			zap.String("peerID", peerID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(24 * time.Hour),
		PeerID:    peerID,
	})
}

// serveWebSocket is the identity gate: a connection must carry a non-blank
// peer identity, either directly via the peer_id query parameter or inside a
// signed token. A connection without one is refused before any event is
// processed.
func serveWebSocket(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	peerID := strings.TrimSpace(c.QueryParam("peer_id"))

	if peerID == "" {
		if token := c.QueryParam("token"); token != "" {
			claims, err := auth.ValidateToken(token)
			if err != nil {
				logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, ErrorResponse{
					Error:   "invalid_token",
					Message: "Invalid or expired token",
				})
			}
			peerID = strings.TrimSpace(claims.PeerID)
		}
	}

	if peerID == "" {
		logger.Warn("WebSocket connection rejected: missing peer identity")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "identity_required",
			Message: "A non-empty peer identity is required to connect",
		})
	}

	return websocket.ServeWS(hub, c, peerID, logger)
}
