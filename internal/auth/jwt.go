package auth

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PeerClaims represents the claims in our JWT token
type PeerClaims struct {
	PeerID string `json:"peer_id"`
	jwt.RegisteredClaims
}

// JWTSecret is loaded from the JWT_SECRET environment variable, with a
// development fallback.
var JWTSecret = secretFromEnv()

func secretFromEnv() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("voxrelay-dev-secret")
}

// GeneratePeerToken generates a JWT token binding a peer identity
func GeneratePeerToken(peerID string) (string, error) {
	claims := &PeerClaims{
		PeerID: peerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

// ValidateToken validates a JWT token and returns the claims
func ValidateToken(tokenString string) (*PeerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PeerClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*PeerClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrInvalidKey
}
