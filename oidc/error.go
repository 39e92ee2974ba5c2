// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

import (
	"errors"
)

var (
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrNilParameter      = errors.New("nil parameter")
	ErrInvalidCACert     = errors.New("invalid CA certificate")
	ErrIDGeneratorFailed = errors.New("id generation failed")

	// ErrDiscovery means the provider's discovery document could not be
	// fetched or was unusable. A Client can't be created without it.
	ErrDiscovery = errors.New("discovery failed")

	// ErrConfiguration means an endpoint or setting required by an
	// operation is missing from the loaded configuration.
	ErrConfiguration = errors.New("configuration error")

	ErrTokenExchange = errors.New("token exchange failed")
	ErrUserInfo      = errors.New("user info failed")

	// ErrTokenFormat means an id_token is not a three segment compact JWT
	// or its payload can't be decoded.
	ErrTokenFormat = errors.New("invalid token format")

	ErrIDTokenVerificationFailed = errors.New("id_token verification failed")
	ErrInvalidAudience           = errors.New("invalid audience")
	ErrInvalidNonce              = errors.New("invalid nonce")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrLoginFailed      = errors.New("login failed")
	ErrInvalidState     = errors.New("invalid state")
)
