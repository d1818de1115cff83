package models

import dErrors "github.com/seecr/gmh-registration-service/pkg/domain-errors"

// TokenRequest is the POST /token body.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate requires both fields. Missing fields count as bad credentials,
// not as a malformed request.
func (r *TokenRequest) Validate() error {
	if r.Username == "" || r.Password == "" {
		return dErrors.New(dErrors.CodeForbidden, MessageInvalidCredentials)
	}
	return nil
}

// Caller-facing messages.
const (
	MessageInvalidCredentials = "Invalid credentials"
	MessageTooManyAttempts    = "Too many failed login attempts, try again later"
	MessageInternal           = "Internal server error"
)
