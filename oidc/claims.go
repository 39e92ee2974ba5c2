// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package oidc

// Claims are identity claims decoded from an id_token payload or a userinfo
// response. No claim is guaranteed to be present.
type Claims map[string]interface{}

// Subject returns the "sub" claim or "".
func (c Claims) Subject() string { return c.str("sub") }

// Email returns the "email" claim or "".
func (c Claims) Email() string { return c.str("email") }

// Name returns the "name" claim or "".
func (c Claims) Name() string { return c.str("name") }

func (c Claims) str(k string) string {
	s, _ := c[k].(string)
	return s
}
