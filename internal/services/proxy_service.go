package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"hilop/internal/backend"
	"hilop/pkg/session"
)

const PathAuthLogout = "/auth/logout"

// Forwarder is the raw pass-through side of the backend client.
type Forwarder interface {
	Forward(ctx context.Context, sess session.Session, req backend.Request) (*backend.Response, error)
}

type ProxyServiceInterface interface {
	Forward(ctx context.Context, sess session.Session, req backend.Request) (*backend.Response, error)
	// Login forwards an auth call without a session and returns the session
	// carried by a successful answer, if any.
	Login(ctx context.Context, req backend.Request) (*backend.Response, session.Session, error)
	Logout(ctx context.Context, sess session.Session)
}

type ProxyService struct {
	backend Forwarder
	secret  []byte
	logger  *zap.Logger
}

func NewProxyService(backend Forwarder, jwtSecret string, logger *zap.Logger) ProxyServiceInterface {
	return &ProxyService{backend: backend, secret: []byte(jwtSecret), logger: logger}
}

func (s *ProxyService) Forward(ctx context.Context, sess session.Session, req backend.Request) (*backend.Response, error) {
	return s.backend.Forward(ctx, sess, req)
}

var tokenPaths = []string{"token", "data.token", "access_token", "data.access_token"}

// TokenFrom finds the session token in a login answer.
func TokenFrom(body []byte) string {
	for _, path := range tokenPaths {
		if r := gjson.GetBytes(body, path); r.Type == gjson.String && strings.TrimSpace(r.Str) != "" {
			return r.Str
		}
	}
	return ""
}

func (s *ProxyService) Login(ctx context.Context, req backend.Request) (*backend.Response, session.Session, error) {
	resp, err := s.backend.Forward(ctx, session.Session{}, req)
	if err != nil || !resp.OK() {
		return resp, session.Session{}, err
	}

	token := TokenFrom(resp.Body)
	if token == "" {
		return resp, session.Session{}, nil
	}
	sess, err := session.New(token, s.secret)
	if err != nil {
		// The backend vouched for the token; a local parse failure only
		// means we cannot read its claims.
		s.logger.Warn("login token not readable", zap.String("operation", req.Operation), zap.Error(err))
		return resp, session.Session{}, nil
	}
	return resp, sess, nil
}

// Logout tells the backend best effort; the cookie is cleared regardless.
func (s *ProxyService) Logout(ctx context.Context, sess session.Session) {
	if sess.IsZero() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	resp, err := s.backend.Forward(ctx, sess, backend.Request{Operation: "logout", Method: http.MethodPost, Path: PathAuthLogout})
	switch {
	case err != nil:
		s.logger.Warn("backend logout failed", zap.Error(err))
	case !resp.OK():
		s.logger.Info("backend logout answered", zap.Int("status", resp.Status))
	}
}
