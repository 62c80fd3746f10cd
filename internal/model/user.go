package model

// User represents an account as stored in the `users` table.  The password
// is only ever held as a bcrypt hash and is never serialized.
//
// Fields:
//
//	ID           - primary key identifier.
//	Username     - unique login name.
//	PasswordHash - bcrypt hash of the password.
type User struct {
	ID           uint64 `json:"id"`       // users.id
	Username     string `json:"username"` // users.username
	PasswordHash string `json:"-"`        // users.password_hash
}

// TokenPair is returned by login: a fresh access token plus a refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Identity is the authenticated principal extracted from a valid token.
type Identity struct {
	UserID    uint64
	TokenID   string // jti
	Fresh     bool
	TokenType string // access | refresh
}

// AccessToken is returned by refresh.
type AccessToken struct {
	AccessToken string `json:"access_token"`
}

// Message is the body of responses that carry no entity.
type Message struct {
	Message string `json:"message"`
}
