package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"hilop/pkg/session"
)

// ListTests is shared by every user, so concurrent callers are collapsed
// into one request and the answer is cached for the configured TTL. The
// shared request is detached from the caller that started it; each caller
// only stops waiting when its own context ends.
func (c *Client) ListTests(ctx context.Context, sess session.Session) ([]Test, error) {
	if tests, ok := c.cachedTests(); ok {
		return tests, nil
	}

	ch := c.group.DoChan("tests", func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.HTTP.Timeout)
		defer cancel()

		var tests []Test
		if _, err := c.call(fetchCtx, sess, "list_tests", http.MethodGet, PathTests, nil, &tests); err != nil {
			return nil, err
		}
		c.storeTests(tests)
		return tests, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Debug("test list request shared")
		}
		return res.Val.([]Test), nil
	}
}

func (c *Client) cachedTests() ([]Test, bool) {
	if c.testsTTL <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tests == nil || time.Since(c.testsAt) > c.testsTTL {
		return nil, false
	}
	return c.tests, true
}

func (c *Client) storeTests(tests []Test) {
	if c.testsTTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tests = tests
	c.testsAt = time.Now()
}

func (c *Client) GetTest(ctx context.Context, sess session.Session, testID ID) (*TestDetail, error) {
	var detail TestDetail
	path := PathTests + "/" + url.PathEscape(testID.String())
	if _, err := c.call(ctx, sess, "get_test", http.MethodGet, path, nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

var testResultIDPaths = []string{"test_result_id", "data.test_result_id", "data.test_result.id", "test_result.id", "data.id"}

func (c *Client) StartTest(ctx context.Context, sess session.Session, req StartTestRequest) (ID, error) {
	body, err := c.call(ctx, sess, "start_test", http.MethodPost, PathConsultationStart, req, nil)
	if err != nil {
		return "", err
	}

	for _, path := range testResultIDPaths {
		r := gjson.GetBytes(body, path)
		switch r.Type {
		case gjson.String:
			if r.Str != "" {
				return ID(r.Str), nil
			}
		case gjson.Number:
			return ID(r.Raw), nil
		}
	}
	c.logger.Warn("start test answered without a test result id", zap.ByteString("body", body))
	return "", fmt.Errorf("start_test: %w: missing test_result_id", ErrMalformed)
}

func (c *Client) SubmitAnswer(ctx context.Context, sess session.Session, req SubmitAnswerRequest) error {
	_, err := c.call(ctx, sess, "submit_answer", http.MethodPost, PathConsultationAnswer, req, nil)
	return err
}

func (c *Client) CompleteTest(ctx context.Context, sess session.Session, testResultID ID) (*CompletionData, error) {
	var data CompletionData
	path := PathConsultationComplete + "/" + url.PathEscape(testResultID.String())
	if _, err := c.call(ctx, sess, "complete_test", http.MethodPut, path, struct{}{}, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) AddToCart(ctx context.Context, sess session.Session, req AddToCartRequest) error {
	_, err := c.call(ctx, sess, "add_to_cart", http.MethodPost, PathCartAdd, req, nil)
	return err
}
