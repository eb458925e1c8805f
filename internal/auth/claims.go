package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of Supabase access-token claims the workspace uses.
// The subject is the user who owns the tree.
type Claims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Role        string `json:"role"` // "authenticated" or "anon"
	SessionID   string `json:"session_id"`
	IsAnonymous bool   `json:"is_anonymous"`
}

func (c *Claims) UserID() string {
	return c.Subject
}
