// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package strutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsAny(t *testing.T) {
	t.Parallel()
	assert := assert.New(t)
	aud := []string{"rp", "api"}
	assert.True(ContainsAny(aud, "rp"))
	assert.True(ContainsAny(aud, "other", "api"))
	assert.False(ContainsAny(aud, "other"))
	assert.False(ContainsAny(aud))
	assert.False(ContainsAny(nil, "rp"))
}

func TestRemoveDuplicatesStable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{name: "empty", items: []string{}, want: []string{}},
		{name: "nil", want: []string{}},
		{name: "dups", items: []string{"a", "b", "a"}, want: []string{"a", "b"}},
		{name: "case-sensitive", items: []string{"A", "b", "a"}, want: []string{"A", "b", "a"}},
		{name: "blank", items: []string{" ", "d", "", "c", "d"}, want: []string{"d", "c"}},
		{name: "trimmed", items: []string{"z ", " z", "y"}, want: []string{"z ", "y"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, RemoveDuplicatesStable(tt.items))
		})
	}
}
