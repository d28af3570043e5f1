// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package stringutils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizer_CachesTransform(t *testing.T) {
	t.Parallel()

	calls := 0
	n := NewNormalizer(time.Minute, func(s string) string {
		calls++
		return strings.ToUpper(s)
	})

	assert.Equal(t, "ABC", n.Normalize("abc"))
	assert.Equal(t, "ABC", n.Normalize("abc"))
	assert.Equal(t, 1, calls)

	assert.Equal(t, "XYZ", n.Normalize("xyz"))
	assert.Equal(t, 2, calls)
}

func TestNormalizeForMatching(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input    string
		expected string
	}{
		{"Shōgun S01", "shogun s01"},
		{"Bob's Burgers", "bobs burgers"},
		{"CSI: Miami", "csi miami"},
		{"Spider-Man", "spider man"},
		{"His & Hers", "his and hers"},
		{"Show.Name", "show name"},
		{"Ærø", "aero"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, NormalizeForMatching(tt.input))
		})
	}
}

func TestWords(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"the", "office", "us"}, Words("The Office (US)"))
	assert.Empty(t, Words("   "))
}
