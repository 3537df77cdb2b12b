package models

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User mirrors the identity provider's user record. The provider owns
// writes; this side only reads it for collaborator lookups.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	AvatarURL *string   `json:"avatar_url" db:"avatar_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DisplayName derives the human-readable name shown on cursors and in the
// collaborator list: the local part of the email address.
func (u *User) DisplayName() string {
	name, _, _ := strings.Cut(u.Email, "@")
	return name
}

// Collaborator links a user to a workspace they can edit.
type Collaborator struct {
	WorkspaceID string    `json:"workspace_id" db:"workspace_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// IdentityClaims are the JWT claims issued by the external identity
// provider. Subject carries the user id.
type IdentityClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
