package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT claim set the wiki accepts. The subject is the actor ID.
type Claims struct {
	jwt.RegisteredClaims
	PreferredUsername string `json:"preferred_username,omitempty"`
}

// ActorID returns the actor ID from the JWT subject claim.
func (c *Claims) ActorID() string {
	return c.Subject
}

// JWTVerifier defines the interface for JWT token verification.
// This abstraction keeps the middleware agnostic to how keys are found.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
