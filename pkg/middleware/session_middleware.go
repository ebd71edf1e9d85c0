package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hilop/pkg/session"
	"hilop/pkg/utils"
)

const sessionKey = "session"

type SessionOptions struct {
	Cookie session.CookieConfig
	Secret []byte
	Now    func() time.Time
}

// SessionMiddleware reads the auth cookie into an explicit session. With
// required set, requests without a usable session stop with 401; an expired
// or rejected cookie is cleared either way.
func SessionMiddleware(opts SessionOptions, required bool) gin.HandlerFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		token, err := c.Cookie(opts.Cookie.Name)
		if err != nil || token == "" {
			if required {
				utils.RespondError(c, http.StatusUnauthorized, utils.ErrUnauthorized.Error())
				c.Abort()
				return
			}
			c.Next()
			return
		}

		sess, err := session.New(token, opts.Secret)
		if err == nil && sess.Expired(now()) {
			err = utils.ErrSessionExpired
		}
		if err != nil {
			session.ClearCookie(c.Writer, opts.Cookie)
			utils.Logger(c).Info("rejected session cookie", zap.Error(err))
			if required {
				msg := "Invalid or expired token"
				if errors.Is(err, utils.ErrSessionExpired) {
					msg = utils.ErrSessionExpired.Error()
				}
				utils.RespondError(c, http.StatusUnauthorized, msg)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(sessionKey, sess)
		if sess.Subject != "" {
			c.Set("user_id", sess.Subject)
		}
		c.Next()
	}
}

// SessionFrom returns the request's session, zero when there is none.
func SessionFrom(c *gin.Context) session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if s, ok := v.(session.Session); ok {
			return s
		}
	}
	return session.Session{}
}
