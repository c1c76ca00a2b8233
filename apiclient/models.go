package apiclient

import (
	"github.com/jrsteele09/promptstudio/identity"
)

// AuthResponse is returned by the login, register and refresh endpoints.
// User is only sent by some backend versions.
type AuthResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         *User  `json:"user,omitempty"`
}

// HasTokenPair reports whether both tokens were returned.
func (r *AuthResponse) HasTokenPair() bool {
	return r != nil && r.AccessToken != "" && r.RefreshToken != ""
}

// LoginRequest is the body of POST /api/Auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/Auth/register and POST /api/User.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// RefreshTokenRequest is the body of POST /api/Auth/refresh and /api/Auth/logout.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// User is the backend's user record.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Identity converts the record to the client's display identity.
func (u *User) Identity() *identity.Identity {
	if u == nil {
		return nil
	}
	return &identity.Identity{ID: u.ID, Email: u.Email, Username: u.Username}
}

// UpdateUserRequest is the body of PUT /api/User.
type UpdateUserRequest struct {
	Username *string `json:"username,omitempty"`
	Password string  `json:"password"`
}

// Prompt is a saved bookmark: Content holds the chat URL.
type Prompt struct {
	ID           string  `json:"id"`
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Tags         *string `json:"tags"`
	UserID       string  `json:"userId"`
	CollectionID *string `json:"collectionId,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// CreatePromptRequest is the body of POST /api/Prompt.
type CreatePromptRequest struct {
	Title        *string `json:"title"`
	Content      *string `json:"content"`
	Tags         *string `json:"tags"`
	UserID       string  `json:"userId,omitempty"`
	CollectionID *string `json:"collectionId"`
}

// UpdatePromptRequest is the body of PUT /api/Prompt/{id}. Nil title, content
// and tags are left out of the request. CollectionID is always sent: nil moves
// the prompt to Uncategorized.
type UpdatePromptRequest struct {
	Title        *string `json:"title,omitempty"`
	Content      *string `json:"content,omitempty"`
	Tags         *string `json:"tags,omitempty"`
	CollectionID *string `json:"collectionId"`
}

// Collection is a named folder of prompts.
type Collection struct {
	ID        string  `json:"id"`
	Name      *string `json:"name"`
	UserID    string  `json:"userId"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// CollectionRequest is the body of POST /api/PromptCollection and
// PUT /api/PromptCollection/{id}.
type CollectionRequest struct {
	Name   *string `json:"name"`
	UserID string  `json:"userId"`
}
