package client

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/moamenhredeen/tcobject/internal/hawk"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "tcobject-client/1.0"
)

// newRequest builds one attempt's HTTP request. It is rebuilt for every
// attempt so that the body reader and the Hawk timestamp are fresh.
func (c *Client) newRequest(ctx context.Context, method string, u *url.URL, body []byte, header http.Header) (*http.Request, error) {
	var req *http.Request
	var err error

	// Handle request body for PUT, POST, PATCH
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
		req.Header.Set("Content-Type", contentTypeJSON)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, u.String(), nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}
	}

	// Set default headers
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("User-Agent", userAgent)

	// Add caller headers
	for name, values := range header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	if c.Authenticate && c.Credentials != nil {
		if err := c.sign(req, body); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// sign adds a Hawk Authorization header
func (c *Client) sign(req *http.Request, body []byte) error {
	ext, err := c.Credentials.ext()
	if err != nil {
		return err
	}

	a := hawk.NewArtifacts(req.Method, req.URL)
	a.Ext = ext
	if body != nil {
		a.Hash = hawk.PayloadHash(contentTypeJSON, body)
	}

	header, err := hawk.Header(c.Credentials.hawk(), a, time.Now())
	if err != nil {
		return errors.Wrap(err, "signing request")
	}
	req.Header.Set("Authorization", header)
	return nil
}

// SignedURL returns the URL of route (relative to the service base URL)
// carrying a bewit that authorizes GET requests for the given duration.
// Without credentials the plain URL is returned.
func (c *Client) SignedURL(route string, query url.Values, duration time.Duration) (*url.URL, error) {
	u, err := c.url(route, query)
	if err != nil {
		return nil, err
	}
	if !c.Authenticate || c.Credentials == nil {
		return u, nil
	}

	ext, err := c.Credentials.ext()
	if err != nil {
		return nil, err
	}
	bewit, err := hawk.Bewit(c.Credentials.hawk(), u, ext, time.Now().Add(duration))
	if err != nil {
		return nil, errors.Wrap(err, "creating bewit")
	}

	q := u.Query()
	q.Set("bewit", bewit)
	u.RawQuery = q.Encode()
	return u, nil
}
