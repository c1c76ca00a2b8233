// Package identity projects unverified access token claims into a display
// identity. Nothing here checks a signature: the result is for showing who is
// signed in and for stamping owner ids on requests the backend re-authorizes.
// Never use it to make an authorization decision.
package identity

import (
	"encoding/json"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/promptstudio/internal/errors"
	"github.com/jrsteele09/promptstudio/internal/utils"
)

// Claim URIs emitted by ASP.NET Core's JwtSecurityTokenHandler.
const (
	ClaimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	ClaimEmailAddress   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	ClaimName           = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/name"
)

// FallbackUsername is shown when no claim or email yields a username.
const FallbackUsername = "User"

var (
	idClaims       = []string{ClaimNameIdentifier, "sub", "nameid"}
	emailClaims    = []string{ClaimEmailAddress, "email"}
	usernameClaims = []string{ClaimName, "name", "unique_name"}
)

// Identity is the client-side view of the signed-in user. It is derived from
// claims or a backend user object and can be rebuilt from a token at any time.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Valid reports whether the identity carries an id.
func (i *Identity) Valid() bool {
	return i != nil && i.ID != ""
}

// Marshal encodes the identity for the token store's user key.
func (i *Identity) Marshal() (string, error) {
	b, err := json.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	return string(b), nil
}

// Unmarshal decodes a cached identity. An identity without an id is rejected
// with ErrNoIdentity.
func Unmarshal(raw string) (*Identity, error) {
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return nil, fmt.Errorf("unmarshal identity: %w", err)
	}
	if !id.Valid() {
		return nil, apperrors.ErrNoIdentity
	}
	return &id, nil
}

// FromUnverifiedToken decodes rawToken's claim set without verifying its
// signature and resolves an identity from it.
func FromUnverifiedToken(rawToken string) (*Identity, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, apperrors.ErrNoIdentity
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("parse token claims: %w", err)
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	return FromClaims(claims)
}

// FromClaims resolves an identity from a decoded claim set.
//
// id: nameidentifier URI, sub, nameid. email: emailaddress URI, email.
// username: name URI, name, unique_name, then the local part of the email,
// then sub, then FallbackUsername. The first non-empty value wins.
func FromClaims(claims map[string]any) (*Identity, error) {
	id := firstClaim(claims, idClaims)
	if id == "" {
		return nil, apperrors.ErrNoIdentity
	}

	email := firstClaim(claims, emailClaims)
	username := firstClaim(claims, usernameClaims)
	if username == "" {
		username = emailLocalPart(email)
	}
	if username == "" {
		username = strings.TrimSpace(utils.FirstString(claims["sub"]))
	}
	if username == "" {
		username = FallbackUsername
	}

	return &Identity{ID: id, Email: email, Username: username}, nil
}

func firstClaim(claims map[string]any, keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(utils.FirstString(claims[k])); v != "" {
			return v
		}
	}
	return ""
}

func emailLocalPart(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return strings.TrimSpace(local)
}
