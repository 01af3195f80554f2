package auth

// Claims representa la información extraída del token.
type Claims struct {
	UserID string
	Email  string
	// Role: admin | manager | user. Vacío se trata como user.
	Role string
}
