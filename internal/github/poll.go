package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/moolen/hac-console/internal/logging"
)

const (
	defaultPollInterval    = 2 * time.Second
	defaultPollMaxAttempts = 10
)

// ErrInvalidAttempts is returned when a poll starts with Attempt >= MaxAttempts.
var ErrInvalidAttempts = errors.New("poll attempt must be lower than max attempts")

var errNotReady = errors.New("expected content not present yet")

// PollOptions bounds a poll loop.
type PollOptions struct {
	// Interval is the wait between attempts (default 2s)
	Interval time.Duration
	// Attempt is the number of attempts already spent (default 0)
	Attempt int
	// MaxAttempts is the total attempt budget (default 10)
	MaxAttempts int
	// Headers are sent with every poll request
	Headers http.Header
}

func (o PollOptions) withDefaults() PollOptions {
	if o.Interval <= 0 {
		o.Interval = defaultPollInterval
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultPollMaxAttempts
	}
	return o
}

// PollError reports an exhausted poll.
type PollError struct {
	URL        string
	Attempts   int
	LastStatus int
	Err        error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("polling %s: gave up after %d attempts (last status %d): %v",
		e.URL, e.Attempts, e.LastStatus, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// Matcher decides whether a 200 response body is the awaited one. A non-nil
// error stops polling immediately.
type Matcher func(body []byte) (bool, error)

// ContainsSubstring matches bodies containing content. JSON bodies are
// compacted first so `"status":"complete"` matches regardless of the
// server's whitespace.
func ContainsSubstring(content string) Matcher {
	return func(body []byte) (bool, error) {
		var compact bytes.Buffer
		if err := json.Compact(&compact, body); err == nil {
			body = compact.Bytes()
		}
		return strings.Contains(string(body), content), nil
	}
}

// PollResponseBody polls url until it answers 200 with a body containing
// content. See PollUntil for the attempt semantics.
func (c *Client) PollResponseBody(ctx context.Context, url, content string, opts PollOptions) (*Response, error) {
	return c.PollUntil(ctx, url, ContainsSubstring(content), opts)
}

// PollUntil issues GET requests against url until one returns exactly 200
// and match accepts the body, waiting opts.Interval between attempts.
//
// Exactly MaxAttempts-Attempt requests are issued at most. Exhaustion returns
// *PollError after the last attempt; Attempt >= MaxAttempts returns
// ErrInvalidAttempts without issuing a request. Transport errors and non-200
// statuses count as failed attempts.
func (c *Client) PollUntil(ctx context.Context, url string, match Matcher, opts PollOptions) (*Response, error) {
	opts = opts.withDefaults()
	if opts.Attempt < 0 || opts.Attempt >= opts.MaxAttempts {
		return nil, fmt.Errorf("%w: attempt %d, max %d", ErrInvalidAttempts, opts.Attempt, opts.MaxAttempts)
	}

	logger := c.logger.WithContext(ctx).WithField("url", url)
	remaining := opts.MaxAttempts - opts.Attempt

	var (
		attempts   int
		lastStatus int
		matchErr   error
	)

	operation := func() (*Response, error) {
		attempts++
		resp, err := c.Request(ctx, http.MethodGet, url, RequestOptions{Headers: opts.Headers})
		if err != nil {
			return nil, err
		}
		lastStatus = resp.StatusCode
		if resp.StatusCode != http.StatusOK {
			return nil, errNotReady
		}
		ok, err := match(resp.Body)
		if err != nil {
			matchErr = err
			return nil, backoff.Permanent(err)
		}
		if !ok {
			return nil, errNotReady
		}
		return resp, nil
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(opts.Interval)),
		backoff.WithMaxTries(uint(remaining)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.DebugWithFields("response not ready, retrying",
				logging.Field("attempt", opts.Attempt+attempts),
				logging.Field("max_attempts", opts.MaxAttempts),
				logging.Field("wait", next),
				logging.Field("reason", err.Error()),
			)
		}),
	)
	if err == nil {
		logger.Info("Response now matches after %d attempt(s)", attempts)
		return resp, nil
	}

	if matchErr != nil {
		return nil, matchErr
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("polling %s: %w", url, ctxErr)
	}
	return nil, &PollError{
		URL:        url,
		Attempts:   attempts,
		LastStatus: lastStatus,
		Err:        err,
	}
}
