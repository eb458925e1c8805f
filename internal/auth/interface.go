package auth

// JWTVerifier validates bearer tokens for the auth middleware.
type JWTVerifier interface {
	// VerifyToken returns the claims of a valid, signed, unexpired token or
	// domain.ErrUnauthorized.
	VerifyToken(tokenString string) (*Claims, error)

	Close() error
}
