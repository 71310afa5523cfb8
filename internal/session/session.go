// Package session carries the identity of the signed-in user.
//
// A Session is built once by the composition root and passed explicitly to
// every operation that scopes requests by user.
package session

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// RoleSuperAdmin sees every contact and lead instead of only their own.
const RoleSuperAdmin = "superAdmin"

// Session identifies the current user.
type Session struct {
	UserID string
	Role   string
}

// IsSuperAdmin reports whether listings should be left unscoped.
func (s Session) IsSuperAdmin() bool {
	return s.Role == RoleSuperAdmin
}

// Valid reports whether the session names a user.
func (s Session) Valid() bool {
	return s.UserID != ""
}

// Claims is the subset of the service's token claims the client reads.
type Claims struct {
	ObjectID string `json:"_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// ErrNoIdentity is returned when a token carries no user id.
var ErrNoIdentity = errors.New("token carries no user id")

// FromToken extracts a Session from a bearer token.
// The signature is not verified here; the service does that on every request.
func FromToken(token string) (Session, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Session{}, fmt.Errorf("parse token: %w", err)
	}

	id := claims.ObjectID
	if id == "" {
		id = claims.UserID
	}
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return Session{}, ErrNoIdentity
	}
	return Session{UserID: id, Role: claims.Role}, nil
}

// Resolve builds the session from explicit values, falling back to token claims
// for anything left empty.
func Resolve(userID, role, token string) (Session, error) {
	s := Session{UserID: userID, Role: role}
	if token == "" || (s.UserID != "" && s.Role != "") {
		return s, nil
	}

	fromToken, err := FromToken(token)
	if err != nil {
		if s.UserID != "" {
			return s, nil
		}
		return Session{}, err
	}
	if s.UserID == "" {
		s.UserID = fromToken.UserID
	}
	if s.Role == "" {
		s.Role = fromToken.Role
	}
	return s, nil
}
