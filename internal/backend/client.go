package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"hilop/pkg/metrics"
	"hilop/pkg/session"
)

const (
	PathTests                = "/tests"
	PathConsultationStart    = "/consultation/start"
	PathConsultationAnswer   = "/consultation/answer"
	PathConsultationComplete = "/consultation/complete"
	PathCartAdd              = "/cart/add"

	// maxBodyBytes bounds what is read back from the backend.
	maxBodyBytes = 4 << 20
)

type Options struct {
	BaseURL       string
	Timeout       time.Duration
	TestsCacheTTL time.Duration
}

// Request is a raw call forwarded to the backend.
type Request struct {
	Operation   string
	Method      string
	Path        string
	Query       url.Values
	Body        io.Reader
	ContentType string
}

// Response is the backend's answer, passed through unchanged by proxies.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

func (r *Response) OK() bool {
	return r.Status/100 == 2
}

type Client struct {
	HTTP    *http.Client
	BaseURL string

	logger   *zap.Logger
	testsTTL time.Duration
	group    singleflight.Group

	mu      sync.RWMutex
	tests   []Test
	testsAt time.Time
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		HTTP:     &http.Client{Timeout: timeout},
		BaseURL:  opts.BaseURL,
		logger:   logger,
		testsTTL: opts.TestsCacheTTL,
	}
}

type traceIDKey struct{}

// ContextWithTraceID makes outgoing backend calls carry the request's trace id.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// Forward sends req with the session's bearer token. Any status the backend
// answers with is returned as a Response; only transport failures are errors.
func (c *Client) Forward(ctx context.Context, sess session.Session, req Request) (*Response, error) {
	u, err := url.Parse(c.BaseURL + req.Path)
	if err != nil {
		return nil, fmt.Errorf("backend url: %w", err)
	}
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), req.Body)
	if err != nil {
		return nil, fmt.Errorf("backend request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Body != nil {
		ct := req.ContentType
		if ct == "" {
			ct = "application/json"
		}
		httpReq.Header.Set("Content-Type", ct)
	}
	if !sess.IsZero() {
		httpReq.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok && traceID != "" {
		httpReq.Header.Set("X-Trace-ID", traceID)
	}

	start := time.Now()
	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		metrics.RecordBackendCall(req.Operation, "connection_error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.Warn("backend unreachable",
			zap.String("operation", req.Operation),
			zap.String("path", req.Path),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.RecordBackendCall(req.Operation, "connection_error", time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: read body: %v", ErrConnection, err)
	}

	out := &Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	outcome := "ok"
	if !out.OK() {
		outcome = "status_error"
	}
	metrics.RecordBackendCall(req.Operation, outcome, time.Since(start))

	c.logger.Debug("backend call",
		zap.String("operation", req.Operation),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	return out, nil
}

// call sends a JSON request and decodes the (possibly data-wrapped) answer
// into out. Non-2xx answers become *StatusError.
func (c *Client) call(ctx context.Context, sess session.Session, op, method, path string, in, out any) ([]byte, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	resp, err := c.Forward(ctx, sess, Request{Operation: op, Method: method, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp.Body, &StatusError{
			Operation: op,
			Status:    resp.Status,
			Message:   MessageFrom(resp.Body),
			Body:      resp.Body,
		}
	}
	if out != nil {
		if err := decodeData(resp.Body, out); err != nil {
			return resp.Body, fmt.Errorf("decode %s: %w", op, err)
		}
	}
	return resp.Body, nil
}

// decodeData accepts both bare payloads and {"data": ...} envelopes.
func decodeData(body []byte, out any) error {
	if !gjson.ValidBytes(body) {
		return ErrMalformed
	}
	raw := body
	if data := gjson.GetBytes(body, "data"); data.IsObject() || data.IsArray() {
		raw = []byte(data.Raw)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		if errors.Is(err, ErrMalformed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}
