package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/moamenhredeen/tcobject/internal/models"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SchemaValidator checks a JSON document against a schema reference such as
// "v1/upload-object-request.json#"
type SchemaValidator interface {
	Validate(ref string, data []byte) ([]models.ValidationError, error)
}

// Retry configures automatic retries of transient failures (transport
// errors and 5xx responses)
type Retry struct {
	// Attempts per call, including the first one
	Retries int

	// Backoff bounds between attempts
	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Timeout for each HTTP request
	Timeout time.Duration
}

// DefaultRetry returns the retry settings used when none are given
func DefaultRetry() Retry {
	return Retry{
		Retries:         5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     60 * time.Second,
		Timeout:         30 * time.Second,
	}
}

// Client executes operations of one service API version. A Client is safe
// for concurrent use once configured.
type Client struct {
	// Credentials used to sign requests; nil for unauthenticated calls
	Credentials *Credentials

	// RootURL of the deployment, e.g. https://tc.example.com
	RootURL     string
	ServiceName string
	APIVersion  string

	// Authenticate controls whether requests are signed
	Authenticate bool

	Retry      Retry
	HTTPClient *http.Client

	// Schemas validates outgoing payloads and incoming bodies; nil disables
	// validation
	Schemas SchemaValidator

	Logger logrus.FieldLogger
}

// Option configures a Client
type Option func(*Client)

// WithRetry overrides the retry settings
func WithRetry(r Retry) Option {
	return func(c *Client) {
		c.Retry = r
	}
}

// WithHTTPClient sets the HTTP client used for requests. Redirects are never
// followed regardless of its settings.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.Logger = l
	}
}

// WithSchemas sets the schema validator
func WithSchemas(s SchemaValidator) Option {
	return func(c *Client) {
		c.Schemas = s
	}
}

// New returns a client for the given service. Pass nil credentials for a
// client without authentication.
func New(rootURL, serviceName, apiVersion string, creds *Credentials, opts ...Option) *Client {
	c := &Client{
		Credentials:  creds,
		RootURL:      rootURL,
		ServiceName:  serviceName,
		APIVersion:   apiVersion,
		Authenticate: creds != nil,
		Retry:        DefaultRetry(),
	}
	for _, opt := range opts {
		opt(c)
	}

	var hc http.Client
	if c.HTTPClient != nil {
		hc = *c.HTTPClient
	}
	if hc.Timeout == 0 {
		hc.Timeout = c.Retry.Timeout
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	c.HTTPClient = &hc

	if c.Logger == nil {
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(logrus.WarnLevel)
		c.Logger = l
	}
	return c
}

// CallOption adjusts a single call
type CallOption func(*callOptions)

type callOptions struct {
	query  url.Values
	header http.Header
}

// WithQuery adds a query parameter to the request
func WithQuery(key, value string) CallOption {
	return func(o *callOptions) {
		o.query.Add(key, value)
	}
}

// WithHeader sets an extra request header
func WithHeader(key, value string) CallOption {
	return func(o *callOptions) {
		o.header.Set(key, value)
	}
}

// CallSummary records what was exchanged during a call
type CallSummary struct {
	Operation    string
	Method       string
	URL          string
	RequestBody  []byte
	StatusCode   int
	Header       http.Header
	ResponseBody []byte
	Attempts     int
	Duration     time.Duration
}

type attempt struct {
	resp *http.Response
	body []byte
}

// APICall executes op. args fill the route placeholders in order, payload is
// the request body (nil for bodyless operations) and, when result is non-nil,
// a 2xx JSON response is decoded into it. Redirects are returned as they are,
// with the Location header in the summary.
//
// Argument and validation problems fail before any request is sent. Transport
// errors and 5xx responses are retried; any other status >= 400 is returned
// at once as an *HTTPError.
func (c *Client) APICall(ctx context.Context, op models.Operation, args []string, payload, result interface{}, opts ...CallOption) (*CallSummary, error) {
	route, err := op.ExpandRoute(args, Escape)
	if err != nil {
		return nil, &ArgumentError{Operation: op.Name, Err: err}
	}

	var body []byte
	switch {
	case op.HasBody() && isNil(payload):
		return nil, &ArgumentError{Operation: op.Name, Err: errors.Errorf("a payload matching %s is required", op.Input)}
	case !op.HasBody() && !isNil(payload):
		return nil, &ArgumentError{Operation: op.Name, Err: errors.New("operation takes no payload")}
	case op.HasBody():
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, &ArgumentError{Operation: op.Name, Err: errors.Wrap(err, "encoding payload")}
		}
		if err := c.validateInput(op, body); err != nil {
			return nil, err
		}
	}

	o := callOptions{query: url.Values{}, header: http.Header{}}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := c.url(route, o.query)
	if err != nil {
		return nil, err
	}

	summary := &CallSummary{
		Operation:   op.Name,
		Method:      op.Method,
		URL:         u.String(),
		RequestBody: body,
	}

	start := time.Now()
	res, err := c.send(ctx, op, u, body, o.header, summary)
	summary.Duration = time.Since(start)
	if err != nil {
		return summary, err
	}

	summary.StatusCode = res.resp.StatusCode
	summary.Header = res.resp.Header
	summary.ResponseBody = res.body

	if res.resp.StatusCode >= 400 {
		return summary, newHTTPError(op.Name, op.Method, summary.URL, res.resp.StatusCode, res.body)
	}

	if result != nil && res.resp.StatusCode < 300 {
		if err := json.Unmarshal(res.body, result); err != nil {
			return summary, errors.Wrapf(err, "%s: decoding response", op.Name)
		}
		c.validateOutput(op, res.body)
	}

	return summary, nil
}

// send performs the request, retrying transient failures
func (c *Client) send(ctx context.Context, op models.Operation, u *url.URL, body []byte, header http.Header, summary *CallSummary) (*attempt, error) {
	log := c.Logger.WithFields(logrus.Fields{
		"operation": op.Name,
		"method":    op.Method,
		"url":       u.Redacted(),
	})

	b := backoff.NewExponentialBackOff()
	if c.Retry.InitialInterval > 0 {
		b.InitialInterval = c.Retry.InitialInterval
	}
	if c.Retry.MaxInterval > 0 {
		b.MaxInterval = c.Retry.MaxInterval
	}
	tries := c.Retry.Retries
	if tries < 1 {
		tries = 1
	}

	return backoff.Retry(ctx, func() (*attempt, error) {
		summary.Attempts++
		summary.StatusCode, summary.Header, summary.ResponseBody = 0, nil, nil

		req, err := c.newRequest(ctx, op.Method, u, body, header)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, errors.Wrapf(err, "%s: %s %s", op.Name, op.Method, u.Redacted())
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: reading response", op.Name)
		}

		log.WithFields(logrus.Fields{
			"attempt": summary.Attempts,
			"status":  resp.StatusCode,
		}).Debug("response received")

		// kept when retries run out
		if resp.StatusCode >= 500 {
			summary.StatusCode = resp.StatusCode
			summary.Header = resp.Header
			summary.ResponseBody = data
			return nil, newHTTPError(op.Name, op.Method, u.String(), resp.StatusCode, data)
		}
		return &attempt{resp: resp, body: data}, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(tries)),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.WithError(err).WithField("retry_in", next).Info("retrying request")
		}),
	)
}

func (c *Client) validateInput(op models.Operation, body []byte) error {
	if c.Schemas == nil {
		return nil
	}
	problems, err := c.Schemas.Validate(op.Input, body)
	if err != nil {
		return &ArgumentError{Operation: op.Name, Err: errors.Wrapf(err, "resolving schema %s", op.Input)}
	}
	if len(problems) > 0 {
		return &ValidationError{Operation: op.Name, Schema: op.Input, Problems: problems}
	}
	return nil
}

// validateOutput only logs: the response has already been accepted
func (c *Client) validateOutput(op models.Operation, body []byte) {
	if c.Schemas == nil || op.Output == "" {
		return
	}
	problems, err := c.Schemas.Validate(op.Output, body)
	if err != nil {
		c.Logger.WithError(err).WithField("operation", op.Name).Warn("cannot validate response")
		return
	}
	for _, p := range problems {
		c.Logger.WithFields(logrus.Fields{
			"operation": op.Name,
			"schema":    op.Output,
			"field":     p.Field,
		}).Warn(p.Message)
	}
}

// BaseURL returns <rootURL>/api/<service>/<version>
func (c *Client) BaseURL() (string, error) {
	root := strings.TrimRight(c.RootURL, "/")
	if root == "" {
		return "", errors.New("client has no root URL")
	}
	if c.ServiceName == "" || c.APIVersion == "" {
		return "", errors.New("client has no service name or API version")
	}
	return root + "/api/" + c.ServiceName + "/" + c.APIVersion, nil
}

func (c *Client) url(route string, query url.Values) (*url.URL, error) {
	base, err := c.BaseURL()
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(base + route)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid URL %s", base+route)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u, nil
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
