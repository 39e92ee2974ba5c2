// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// oauth2ErrorResponse is an RFC 6749 section 5.2 error response.
type oauth2ErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// describeFailure summarizes a failed response, using the oauth2 error
// fields when the body has them.
func describeFailure(resp *Response) string {
	var e oauth2ErrorResponse
	if err := json.Unmarshal(resp.Body, &e); err == nil && e.Error != "" {
		if e.Description != "" {
			return fmt.Sprintf("status %d: %s: %s", resp.StatusCode, e.Error, e.Description)
		}
		return fmt.Sprintf("status %d: %s", resp.StatusCode, e.Error)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}

// ExchangeCode will request tokens from the provider's token endpoint using
// the authorizationCode it received in a successful authentication response.
// The client credentials are sent in the form body.
//
// A response without an access_token is not an error; the returned
// TokenBundle's AccessToken is empty and the caller decides what to do.
// Failures are never retried.
func (c *Client) ExchangeCode(ctx context.Context, authorizationCode string) (*TokenBundle, error) {
	const op = "Client.ExchangeCode"
	if authorizationCode == "" {
		return nil, fmt.Errorf("%s: authorization code is empty: %w", op, ErrInvalidParameter)
	}
	if c.provider == nil || c.provider.TokenEndpoint() == "" {
		return nil, fmt.Errorf("%s: token endpoint is not configured: %w", op, ErrConfiguration)
	}
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {authorizationCode},
		"redirect_uri":  {c.config.RedirectURL},
		"client_id":     {c.config.ClientID},
		"client_secret": {string(c.config.ClientSecret)},
	}
	resp, err := c.transport.PostForm(ctx, c.provider.TokenEndpoint(), form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenExchange, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s: token endpoint returned %s: %w", op, describeFailure(resp), ErrTokenExchange)
	}
	tk, err := parseTokenBundle(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrTokenExchange, err)
	}
	c.logger.Debug("exchanged authorization code", "has_access_token", tk.HasAccessToken(), "has_id_token", tk.IDToken != "")
	return tk, nil
}

// UserInfo gets the UserInfo claims from the provider using the
// accessToken as a bearer token. A 401 is returned like any other failure,
// no refresh is attempted.
func (c *Client) UserInfo(ctx context.Context, accessToken AccessToken) (Claims, error) {
	const op = "Client.UserInfo"
	if accessToken == "" {
		return nil, fmt.Errorf("%s: access token is empty: %w", op, ErrInvalidParameter)
	}
	if c.provider == nil || c.provider.UserInfoEndpoint() == "" {
		return nil, fmt.Errorf("%s: userinfo endpoint is not configured: %w", op, ErrConfiguration)
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+string(accessToken))
	resp, err := c.transport.Get(ctx, c.provider.UserInfoEndpoint(), header)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUserInfo, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%s: userinfo endpoint returned %s: %w", op, describeFailure(resp), ErrUserInfo)
	}
	var claims Claims
	if err := json.Unmarshal(resp.Body, &claims); err != nil {
		return nil, fmt.Errorf("%s: unable to decode userinfo response: %w: %w", op, ErrUserInfo, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%s: userinfo response is not a json object: %w", op, ErrUserInfo)
	}
	return claims, nil
}
