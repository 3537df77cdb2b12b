package auth

import "inkwell/internal/domain/models"

// TokenVerifier validates bearer tokens issued by the external identity
// provider. The middleware only needs the parsed claims; how they are
// verified is an implementation detail.
type TokenVerifier interface {
	// VerifyToken validates a JWT string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an
	// invalid signature.
	VerifyToken(tokenString string) (*models.IdentityClaims, error)

	// Close releases any resources held by the verifier.
	Close() error
}
