// Package session models the caller's authenticated session as an explicit
// value handed to every backend call.
package session

import (
	"errors"
	"time"

	"hilop/pkg/utils"
)

type Session struct {
	Token     string
	Subject   string
	ExpiresAt time.Time
}

// New builds a session from the auth cookie value. Opaque (non-JWT) tokens
// are accepted when no secret is configured since the backend owns them.
func New(token string, secret []byte) (Session, error) {
	if token == "" {
		return Session{}, utils.ErrUnauthorized
	}

	claims, err := utils.ParseSessionToken(token, secret)
	if err != nil {
		if len(secret) == 0 && errors.Is(err, utils.ErrInvalidToken) {
			return Session{Token: token}, nil
		}
		return Session{}, err
	}

	s := Session{Token: token, Subject: claims.SubjectID()}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

func (s Session) IsZero() bool {
	return s.Token == ""
}

// Owner identifies the session for flow ownership checks. Sessions with
// opaque tokens fall back to the token itself.
func (s Session) Owner() string {
	if s.Subject != "" {
		return s.Subject
	}
	return s.Token
}
