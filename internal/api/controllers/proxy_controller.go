package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hilop/internal/backend"
	"hilop/internal/services"
	"hilop/pkg/middleware"
	"hilop/pkg/session"
	"hilop/pkg/utils"
)

// ProxyController forwards storefront calls to the backend and passes the
// answer through unchanged. Only transport failures get a body of our own.
type ProxyController struct {
	proxyService services.ProxyServiceInterface
	cookie       session.CookieConfig
}

func NewProxyController(proxyService services.ProxyServiceInterface, cookie session.CookieConfig) *ProxyController {
	return &ProxyController{proxyService: proxyService, cookie: cookie}
}

// PathFunc builds the backend path for a request.
type PathFunc func(c *gin.Context) string

// Static maps every request to the same backend path.
func Static(path string) PathFunc {
	return func(*gin.Context) string { return path }
}

// WithParam appends the escaped route parameter to prefix.
func WithParam(prefix, param string) PathFunc {
	return func(c *gin.Context) string {
		return prefix + "/" + url.PathEscape(c.Param(param))
	}
}

func (p *ProxyController) request(c *gin.Context, operation string, path PathFunc) backend.Request {
	req := backend.Request{
		Operation: operation,
		Method:    c.Request.Method,
		Path:      path(c),
		Query:     c.Request.URL.Query(),
	}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		req.Body = c.Request.Body
		req.ContentType = c.ContentType()
	}
	return req
}

func writeBackend(c *gin.Context, resp *backend.Response) {
	ct := resp.ContentType
	if ct == "" {
		ct = "application/json"
	}
	c.Data(resp.Status, ct, resp.Body)
}

// writeForwardError renders transport failures in the shape the storefront
// already understands.
func writeForwardError(c *gin.Context, operation string, err error) {
	if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads this.
		c.Status(499)
		return
	}
	utils.Logger(c).Warn("proxy call failed", zap.String("operation", operation), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "connection_error"})
}

// Forward returns a handler passing the request through to path.
func (p *ProxyController) Forward(operation string, path PathFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, err := p.proxyService.Forward(c.Request.Context(), middleware.SessionFrom(c), p.request(c, operation, path))
		if err != nil {
			writeForwardError(c, operation, err)
			return
		}
		writeBackend(c, resp)
	}
}

// Login returns a handler for the OTP and Firebase sign-in calls. A token in
// a successful answer becomes the HTTP-only auth cookie.
func (p *ProxyController) Login(operation string, path PathFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp, sess, err := p.proxyService.Login(c.Request.Context(), p.request(c, operation, path))
		if err != nil {
			writeForwardError(c, operation, err)
			return
		}
		if !sess.IsZero() && !session.SetCookie(c.Writer, p.cookie, sess, time.Now()) {
			utils.Logger(c).Warn("login token already expired, no cookie set",
				zap.String("operation", operation))
		}
		writeBackend(c, resp)
	}
}

// Logout godoc
// @Summary Sign out
// @Description Clears the auth cookie; the backend is told best effort.
// @Tags Auth
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /api/auth/logout [post]
func (p *ProxyController) Logout(c *gin.Context) {
	p.proxyService.Logout(c.Request.Context(), middleware.SessionFrom(c))
	session.ClearCookie(c.Writer, p.cookie)
	utils.RespondSuccess(c, nil, "Logged out")
}
