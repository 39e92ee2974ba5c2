// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ProviderConfig is the provider metadata loaded from its discovery document.
// It's never modified after Discover returns it.
type ProviderConfig struct {
	issuer                string
	authorizationEndpoint string
	tokenEndpoint         string
	userInfoEndpoint      string
	endSessionEndpoint    string
	jwksURI               string
	idTokenSigningAlgs    []string
}

// discoveryDocument is the subset of the OIDC discovery document we use.
//
// See: https://openid.net/specs/openid-connect-discovery-1_0.html#ProviderMetadata
type discoveryDocument struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	UserInfoEndpoint      string   `json:"userinfo_endpoint"`
	EndSessionEndpoint    string   `json:"end_session_endpoint"`
	JWKSURI               string   `json:"jwks_uri"`
	IDTokenSigningAlgs    []string `json:"id_token_signing_alg_values_supported"`
}

// Discover fetches the provider's discovery document with a single GET and
// returns its ProviderConfig. It doesn't retry or cache. The issuer,
// authorization, token and userinfo endpoints are required; a document
// missing any of them fails discovery.
func Discover(ctx context.Context, t Transport, discoveryURL string) (*ProviderConfig, error) {
	const op = "Discover"
	if t == nil {
		return nil, fmt.Errorf("%s: transport is nil: %w", op, ErrNilParameter)
	}
	if discoveryURL == "" {
		return nil, fmt.Errorf("%s: discovery URL is empty: %w", op, ErrInvalidParameter)
	}
	resp, err := t.Get(ctx, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: unable to fetch discovery document: %w: %w", op, ErrDiscovery, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s: discovery document request returned %d: %w", op, resp.StatusCode, ErrDiscovery)
	}
	var doc discoveryDocument
	if err := json.Unmarshal(resp.Body, &doc); err != nil {
		return nil, fmt.Errorf("%s: unable to decode discovery document: %w: %w", op, ErrDiscovery, err)
	}
	pc, err := newProviderConfig(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrDiscovery, err)
	}
	return pc, nil
}

func newProviderConfig(doc discoveryDocument) (*ProviderConfig, error) {
	var errs *multierror.Error
	for _, f := range []struct{ name, value string }{
		{"issuer", doc.Issuer},
		{"authorization_endpoint", doc.AuthorizationEndpoint},
		{"token_endpoint", doc.TokenEndpoint},
		{"userinfo_endpoint", doc.UserInfoEndpoint},
	} {
		if f.value == "" {
			errs = multierror.Append(errs, fmt.Errorf("%s is missing: %w", f.name, ErrConfiguration))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	var algs []string
	if len(doc.IDTokenSigningAlgs) > 0 {
		algs = append(algs, doc.IDTokenSigningAlgs...)
	}
	return &ProviderConfig{
		issuer:                doc.Issuer,
		authorizationEndpoint: doc.AuthorizationEndpoint,
		tokenEndpoint:         doc.TokenEndpoint,
		userInfoEndpoint:      doc.UserInfoEndpoint,
		endSessionEndpoint:    doc.EndSessionEndpoint,
		jwksURI:               doc.JWKSURI,
		idTokenSigningAlgs:    algs,
	}, nil
}

func (pc *ProviderConfig) Issuer() string                { return pc.issuer }
func (pc *ProviderConfig) AuthorizationEndpoint() string { return pc.authorizationEndpoint }
func (pc *ProviderConfig) TokenEndpoint() string         { return pc.tokenEndpoint }
func (pc *ProviderConfig) UserInfoEndpoint() string      { return pc.userInfoEndpoint }

// EndSessionEndpoint is optional and returns "" when the provider doesn't
// publish one.
func (pc *ProviderConfig) EndSessionEndpoint() string { return pc.endSessionEndpoint }

// JWKSURI is optional and returns "" when the provider doesn't publish one.
func (pc *ProviderConfig) JWKSURI() string { return pc.jwksURI }

// IDTokenSigningAlgs returns a copy of the algs the provider advertises.
func (pc *ProviderConfig) IDTokenSigningAlgs() []string {
	if len(pc.idTokenSigningAlgs) == 0 {
		return nil
	}
	return append([]string(nil), pc.idTokenSigningAlgs...)
}
