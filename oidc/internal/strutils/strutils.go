// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package strutils has the string list helpers shared by the oidc package.
package strutils

import (
	"slices"
	"strings"
)

// ContainsAny reports whether any of the needles is in the haystack.
func ContainsAny(haystack []string, needles ...string) bool {
	for _, n := range needles {
		if slices.Contains(haystack, n) {
			return true
		}
	}
	return false
}

// RemoveDuplicatesStable removes duplicate and empty elements from items,
// keeping the first occurrence of each. Elements are compared after trimming
// whitespace.
func RemoveDuplicatesStable(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	result := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}
