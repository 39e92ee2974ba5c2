// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
)

// Client is a relying party for one provider using the authorization code
// flow. The provider's discovery document is fetched once, by NewClient, and
// the resulting ProviderConfig is used for the Client's lifetime. Create a new
// Client to pick up changes to the provider's metadata.
//
// A Client is safe for concurrent use.
type Client struct {
	config    ClientConfig
	provider  *ProviderConfig
	transport Transport
	logger    hclog.Logger

	// verifier is nil when the provider doesn't publish a jwks_uri.
	verifier *oidc.IDTokenVerifier

	mu sync.Mutex

	// backgroundCtx is the context used by the client for background
	// activities like refreshing the provider's JWKS.
	backgroundCtx context.Context

	// backgroundCtxCancel is used to cancel any background activities.
	backgroundCtxCancel context.CancelFunc
}

// NewClient validates the config, fetches the provider's discovery document
// and returns a Client. Any failure to load the discovery document is
// returned as ErrDiscovery and no Client is created.
//
// See Client.Done() which should be called to release client resources.
//
// Supported options:
//   - WithTransport
//   - WithLogger
func NewClient(ctx context.Context, c *ClientConfig, opt ...Option) (*Client, error) {
	const op = "NewClient"
	if c == nil {
		return nil, fmt.Errorf("%s: client config is nil: %w", op, ErrNilParameter)
	}
	cfg := c.clone()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: client config is invalid: %w", op, err)
	}
	opts := getClientOpts(opt...)

	t := opts.withTransport
	if t == nil {
		var err error
		t, err = NewHTTPTransport(cfg.ProviderCA)
		if err != nil {
			return nil, fmt.Errorf("%s: unable to create transport: %w", op, err)
		}
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	cl := &Client{
		config:              cfg,
		transport:           t,
		logger:              opts.withLogger,
		backgroundCtx:       bgCtx,
		backgroundCtxCancel: cancel,
	}

	cl.logger.Debug("fetching discovery document", "discovery_url", c.DiscoveryURL)
	pc, err := Discover(ctx, t, c.DiscoveryURL)
	if err != nil {
		cl.Done() // release the backgroundCtxCancel resources
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cl.provider = pc

	if pc.JWKSURI() != "" {
		keySetCtx := oidc.ClientContext(cl.backgroundCtx, keySetHTTPClient(t))
		keySet := oidc.NewRemoteKeySet(keySetCtx, pc.JWKSURI())
		cl.verifier = oidc.NewVerifier(pc.Issuer(), keySet, cl.verifierConfig())
	}
	cl.logger.Debug("client ready", "issuer", pc.Issuer(), "end_session", pc.EndSessionEndpoint() != "")
	return cl, nil
}

// Done releases the client's background resources.
func (c *Client) Done() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backgroundCtxCancel != nil {
		c.backgroundCtxCancel()
		c.backgroundCtxCancel = nil
	}
}

// ProviderConfig returns the provider metadata loaded when the client was
// created.
func (c *Client) ProviderConfig() *ProviderConfig {
	return c.provider
}

// ClientID returns the client's relying party id.
func (c *Client) ClientID() string {
	return c.config.ClientID
}

// keySetHTTPClient returns the http client the JWKS is fetched with.
func keySetHTTPClient(t Transport) *http.Client {
	if ht, ok := t.(*HTTPTransport); ok {
		return ht.HTTPClient()
	}
	return cleanhttp.DefaultPooledClient()
}

func (c *ClientConfig) clone() ClientConfig {
	cp := *c
	cp.SupportedSigningAlgs = append([]Alg(nil), c.SupportedSigningAlgs...)
	cp.Audiences = append([]string(nil), c.Audiences...)
	return cp
}

// clientOptions is the set of available options for NewClient
type clientOptions struct {
	withTransport Transport
	withLogger    hclog.Logger
}

// clientDefaults is a handy way to get the defaults at runtime and during
// unit tests.
func clientDefaults() clientOptions {
	return clientOptions{
		withLogger: hclog.NewNullLogger(),
	}
}

// getClientOpts gets the client defaults and applies the opt overrides passed
// in.
func getClientOpts(opt ...Option) clientOptions {
	opts := clientDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}

// WithTransport provides an optional Transport for all provider requests. The
// default is an HTTPTransport using the config's ProviderCA.
func WithTransport(t Transport) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && t != nil {
			o.withTransport = t
		}
	}
}

// WithLogger provides an optional logger.
func WithLogger(l hclog.Logger) Option {
	return func(o interface{}) {
		if o, ok := o.(*clientOptions); ok && l != nil {
			o.withLogger = l
		}
	}
}
