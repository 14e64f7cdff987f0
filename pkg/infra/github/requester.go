package github

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/release-sync/pkg/domain/model"
	"github.com/m-mizutani/release-sync/pkg/utils/clock"
)

// Request is one logical API call. Body is kept as bytes so that every
// attempt can send it again.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Requester performs logical API calls, retrying rate-limited and
// transient failures according to its RetryPolicy
type Requester struct {
	httpClient *http.Client
	policy     model.RetryPolicy
	clock      clock.Clock
}

// RequesterOption configures a Requester
type RequesterOption func(*Requester)

// WithHTTPClient sets the HTTP client used for every attempt
func WithHTTPClient(client *http.Client) RequesterOption {
	return func(r *Requester) {
		r.httpClient = client
	}
}

// WithClock sets the clock used for backoff sleeps and reset-header math
func WithClock(clk clock.Clock) RequesterOption {
	return func(r *Requester) {
		r.clock = clk
	}
}

// NewRequester creates a Requester with the given retry policy
func NewRequester(policy model.RetryPolicy, opts ...RequesterOption) (*Requester, error) {
	if err := policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "invalid retry policy")
	}

	r := &Requester{
		httpClient: http.DefaultClient,
		policy:     policy,
		clock:      clock.Real(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Do performs req. A 2xx response is returned parsed. A retryable failure
// (see IsRetryable) is retried after RetryDelay until the policy's
// MaxRetries is spent. Any other failure is returned as an *APIError.
func (r *Requester) Do(ctx context.Context, req *Request) (*model.Response, error) {
	logger := ctxlog.From(ctx)

	for attempt := 0; ; attempt++ {
		resp, err := r.send(ctx, req)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to send request",
				goerr.V("method", req.Method),
				goerr.V("url", req.URL),
				goerr.V("attempt", attempt+1),
			)
		}

		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			body, err := parseBody(resp)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to read response body",
					goerr.V("method", req.Method),
					goerr.V("url", req.URL),
				)
			}
			return &model.Response{
				StatusCode: resp.StatusCode,
				Body:       *body,
				Attempts:   attempt + 1,
			}, nil
		}

		text, err := readText(resp)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read error response body",
				goerr.V("method", req.Method),
				goerr.V("url", req.URL),
				goerr.V("status", resp.StatusCode),
			)
		}
		apiErr := newAPIError(req.Method, req.URL, resp, text, attempt+1)

		if !IsRetryable(resp.StatusCode, text) {
			return nil, apiErr
		}
		if attempt >= r.policy.MaxRetries {
			return nil, goerr.Wrap(apiErr, "retry budget exhausted",
				goerr.T(ErrTagRetryExhausted),
				goerr.V("max_retries", r.policy.MaxRetries),
			)
		}

		delay := RetryDelay(resp.Header, attempt, r.policy, r.clock.Now())
		logger.Warn("Request failed with retryable status, backing off",
			"method", req.Method,
			"url", req.URL,
			"status", resp.StatusCode,
			"attempt", attempt+1,
			"max_retries", r.policy.MaxRetries,
			"delay_ms", delay.Milliseconds(),
		)

		if err := clock.Sleep(ctx, r.clock, delay); err != nil {
			return nil, goerr.Wrap(err, "interrupted while backing off",
				goerr.V("method", req.Method),
				goerr.V("url", req.URL),
			)
		}
	}
}

// send issues a single attempt. The returned response body must be consumed
// by parseBody or readText, both of which close it.
func (r *Requester) send(ctx context.Context, req *Request) (*http.Response, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create HTTP request")
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	return r.httpClient.Do(httpReq)
}

func readText(resp *http.Response) (string, error) {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// parseBody interprets a 2xx body by status and Content-Type
func parseBody(resp *http.Response) (*model.Body, error) {
	text, err := readText(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNoContent || len(text) == 0 {
		return &model.Body{Kind: model.BodyEmpty}, nil
	}

	if isJSONContentType(resp.Header.Get("Content-Type")) {
		return &model.Body{Kind: model.BodyJSON, JSON: []byte(text)}, nil
	}

	return &model.Body{Kind: model.BodyText, Text: text}, nil
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}

	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
