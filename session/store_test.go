// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	assert, require := assert.New(t), require.New(t)

	var s MemoryStore
	_, ok, err := s.Get(ctx, "k")
	require.NoError(err)
	assert.False(ok)

	v := []byte("v1")
	require.NoError(s.Set(ctx, "k", v))
	v[0] = 'x'
	got, ok, err := s.Get(ctx, "k")
	require.NoError(err)
	assert.True(ok)
	assert.Equal([]byte("v1"), got)

	require.NoError(s.Set(ctx, "k", []byte("v2")))
	got, ok, err = s.Pop(ctx, "k")
	require.NoError(err)
	assert.True(ok)
	assert.Equal([]byte("v2"), got)

	_, ok, err = s.Pop(ctx, "k")
	require.NoError(err)
	assert.False(ok)
	assert.Equal(0, s.Len())
}
