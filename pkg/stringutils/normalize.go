// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package stringutils holds the cached text normalizers shared by the title
// parser, the similarity helpers and the ignore-list key builder.
package stringutils

import (
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
)

const normalizerTTL = 10 * time.Minute

// Normalizer memoizes a string transform. A feed repeats most titles on
// every poll, so each distinct title is transformed once per TTL.
type Normalizer struct {
	cache *ttlcache.Cache[string, string]
	fn    func(string) string
}

func NewNormalizer(ttl time.Duration, fn func(string) string) *Normalizer {
	if ttl <= 0 {
		ttl = normalizerTTL
	}
	return &Normalizer{
		cache: ttlcache.New(ttlcache.Options[string, string]{}.SetDefaultTTL(ttl)),
		fn:    fn,
	}
}

func (n *Normalizer) Normalize(s string) string {
	if out, ok := n.cache.Get(s); ok {
		return out
	}
	out := n.fn(s)
	n.cache.Set(s, out, ttlcache.DefaultTTL)
	return out
}
