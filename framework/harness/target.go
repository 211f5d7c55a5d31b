package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/employee-demo/employee-contract-tests/framework"
	"github.com/employee-demo/employee-contract-tests/framework/helpers"
)

const maxLoggedBodyLength = 500

// Target is the API under test, addressed by its base URL.
type Target struct {
	baseURL        string
	client         *http.Client
	requestTimeout time.Duration
	headers        http.Header
	logger         framework.Logger
}

type targetConfig struct {
	client         *http.Client
	requestTimeout time.Duration
	headers        http.Header
	logger         framework.Logger
}

// TargetOption is an option for NewTarget.
type TargetOption helpers.ConfigOptionFunc[targetConfig]

func (o TargetOption) Configure(c *targetConfig) error { return o(c) }

// WithHTTPClient sets the HTTP client. The default is http.DefaultClient.
func WithHTTPClient(client *http.Client) TargetOption {
	return func(c *targetConfig) error {
		c.client = client
		return nil
	}
}

// WithRequestTimeout bounds each request. Zero, the default, leaves it to the transport.
func WithRequestTimeout(timeout time.Duration) TargetOption {
	return func(c *targetConfig) error {
		if timeout < 0 {
			return fmt.Errorf("request timeout cannot be negative: %s", timeout)
		}
		c.requestTimeout = timeout
		return nil
	}
}

// WithHeader adds a header to every request.
func WithHeader(name, value string) TargetOption {
	return func(c *targetConfig) error {
		c.headers.Add(name, value)
		return nil
	}
}

// WithLogger sets the logger that requests and responses are written to.
func WithLogger(logger framework.Logger) TargetOption {
	return func(c *targetConfig) error {
		c.logger = logger
		return nil
	}
}

// NewTarget creates a Target. Every request carries Content-Type and Accept headers of
// application/json, plus any added with WithHeader.
func NewTarget(baseURL string, options ...TargetOption) (*Target, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("base URL must be an http or https URL: %q", baseURL)
	}
	config := targetConfig{
		client:  http.DefaultClient,
		headers: http.Header{},
		logger:  framework.NullLogger(),
	}
	config.headers.Set("Content-Type", "application/json")
	config.headers.Set("Accept", "application/json")
	if err := helpers.ApplyOptions(&config, options...); err != nil {
		return nil, err
	}
	return &Target{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		client:         config.client,
		requestTimeout: config.requestTimeout,
		headers:        config.headers,
		logger:         config.logger,
	}, nil
}

// BaseURL returns the base URL without a trailing slash.
func (t *Target) BaseURL() string { return t.baseURL }

// URL returns the absolute URL for a path.
func (t *Target) URL(path string) string { return t.baseURL + path }

// WithLogger returns a copy of the Target that logs to logger.
func (t *Target) WithLogger(logger framework.Logger) *Target {
	copied := *t
	copied.logger = logger
	return &copied
}

// Response is a completed HTTP exchange. The body has already been read.
type Response struct {
	Method string
	URL    string
	Status int
	Header http.Header
	Body   []byte
}

// JSON parses the body as arbitrary JSON. A body that is not valid JSON gives a null value.
func (r *Response) JSON() ldvalue.Value { return ldvalue.Parse(r.Body) }

// Text returns the body as a string.
func (r *Response) Text() string { return string(r.Body) }

// Expect returns a *StatusError unless the status is one of the given codes.
func (r *Response) Expect(statuses ...int) error {
	if helpers.SliceContains(r.Status, statuses) {
		return nil
	}
	return &StatusError{Method: r.Method, URL: r.URL, Status: r.Status, Expected: statuses, Body: r.Body}
}

// ExpectSuccess returns a *StatusError unless the status is 2xx.
func (r *Response) ExpectSuccess() error {
	if r.Status >= 200 && r.Status < 300 {
		return nil
	}
	return &StatusError{Method: r.Method, URL: r.URL, Status: r.Status, Body: r.Body}
}

// StatusError is returned when the API answers with an unexpected status.
type StatusError struct {
	Method   string
	URL      string
	Status   int
	Expected []int
	Body     []byte
}

func (e *StatusError) Error() string {
	expected := "a success status"
	if len(e.Expected) == 1 {
		expected = fmt.Sprintf("status %d", e.Expected[0])
	} else if len(e.Expected) > 1 {
		expected = fmt.Sprintf("one of %v", e.Expected)
	}
	message := fmt.Sprintf("%s %s returned status %d, expected %s", e.Method, e.URL, e.Status, expected)
	if len(e.Body) != 0 {
		message += ": " + helpers.Abbreviate(e.Body, maxLoggedBodyLength)
	}
	return message
}

// Do sends a request with an optional JSON body. It returns an error only if no response was
// received; any status code is a valid Response.
func (t *Target) Do(ctx context.Context, method, path string, body []byte) (*Response, error) {
	if t.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.requestTimeout)
		defer cancel()
	}
	url := t.URL(path)
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	for name, values := range t.headers {
		req.Header[name] = append([]string(nil), values...)
	}

	if body == nil {
		t.logger.Printf("%s %s", method, url)
	} else {
		t.logger.Printf("%s %s %s", method, url, helpers.Abbreviate(body, maxLoggedBodyLength))
	}
	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Printf("%s %s failed: %s", method, url, err)
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response body: %w", method, url, err)
	}
	t.logger.Printf("  -> %d %s", resp.StatusCode, helpers.Abbreviate(respBody, maxLoggedBodyLength))
	return &Response{
		Method: method,
		URL:    url,
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   respBody,
	}, nil
}

func (t *Target) Get(ctx context.Context, path string) (*Response, error) {
	return t.Do(ctx, http.MethodGet, path, nil)
}

func (t *Target) Post(ctx context.Context, path string, body []byte) (*Response, error) {
	return t.Do(ctx, http.MethodPost, path, body)
}

func (t *Target) Put(ctx context.Context, path string, body []byte) (*Response, error) {
	return t.Do(ctx, http.MethodPut, path, body)
}

func (t *Target) Delete(ctx context.Context, path string) (*Response, error) {
	return t.Do(ctx, http.MethodDelete, path, nil)
}
