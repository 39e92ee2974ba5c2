// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"
)

// maxResponseSize bounds how much of a provider response body is read.
const maxResponseSize = 1 << 20

// Response is the status and body of a provider response.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the response has a 2xx status.
func (r *Response) IsSuccess() bool {
	return r != nil && r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport issues the http requests made to a provider. A non-nil error is
// only returned for transport failures; any status code is returned as a
// Response.
type Transport interface {
	// Get issues a GET to the url with the optional headers.
	Get(ctx context.Context, url string, header http.Header) (*Response, error)

	// PostForm issues a POST to the url with an
	// application/x-www-form-urlencoded body.
	PostForm(ctx context.Context, url string, form url.Values) (*Response, error)
}

// HTTPTransport is the default Transport backed by an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// ensure that HTTPTransport implements the Transport interface
var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a Transport which will use the optional CA
// certificate PEM if provided, otherwise it will use the installed system CA
// chain.
func NewHTTPTransport(caPEM string) (*HTTPTransport, error) {
	const op = "NewHTTPTransport"
	tr := cleanhttp.DefaultPooledTransport()

	if caPEM != "" {
		certPool := x509.NewCertPool()
		if ok := certPool.AppendCertsFromPEM([]byte(caPEM)); !ok {
			return nil, fmt.Errorf("%s: could not parse CA PEM value successfully: %w", op, ErrInvalidCACert)
		}
		tr.TLSClientConfig = &tls.Config{
			RootCAs:    certPool,
			MinVersion: tls.VersionTLS12,
		}
	}

	return &HTTPTransport{
		client: &http.Client{
			Transport: tr,
		},
	}, nil
}

// NewHTTPTransportWithClient wraps an existing *http.Client.
func NewHTTPTransportWithClient(c *http.Client) (*HTTPTransport, error) {
	const op = "NewHTTPTransportWithClient"
	if c == nil {
		return nil, fmt.Errorf("%s: http client is nil: %w", op, ErrNilParameter)
	}
	return &HTTPTransport{client: c}, nil
}

// HTTPClient returns the underlying *http.Client
func (t *HTTPTransport) HTTPClient() *http.Client {
	return t.client
}

// Get implements the Transport.Get interface function.
func (t *HTTPTransport) Get(ctx context.Context, u string, header http.Header) (*Response, error) {
	const op = "HTTPTransport.Get"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	return t.do(op, req)
}

// PostForm implements the Transport.PostForm interface function.
func (t *HTTPTransport) PostForm(ctx context.Context, u string, form url.Values) (*Response, error) {
	const op = "HTTPTransport.PostForm"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return t.do(op, req)
}

func (t *HTTPTransport) do(op string, req *http.Request) (*Response, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request to %s failed: %w", op, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%s: unable to read response body: %w", op, err)
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}, nil
}
