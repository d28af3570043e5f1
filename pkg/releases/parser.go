// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package releases wraps the rls scene-name tokenizer with a small TTL cache
// and the canonicalization helpers used when comparing parsed attributes.
package releases

import (
	"strings"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	"github.com/moistari/rls"
)

const defaultParserTTL = 5 * time.Minute

// Parser parses release names with rls and caches results by trimmed name.
type Parser struct {
	cache *ttlcache.Cache[string, *rls.Release]
}

// NewParser returns a parser whose cache entries live for ttl.
func NewParser(ttl time.Duration) *Parser {
	if ttl <= 0 {
		ttl = defaultParserTTL
	}
	return &Parser{
		cache: ttlcache.New(ttlcache.Options[string, *rls.Release]{}.SetDefaultTTL(ttl)),
	}
}

// NewDefaultParser returns a parser with the default cache TTL.
func NewDefaultParser() *Parser {
	return NewParser(defaultParserTTL)
}

// Parse returns the rls view of name. It never returns nil.
func (p *Parser) Parse(name string) *rls.Release {
	name = strings.TrimSpace(name)
	if p == nil || name == "" {
		return &rls.Release{}
	}

	if cached, ok := p.cache.Get(name); ok && cached != nil {
		return cached
	}

	r := rls.ParseString(name)
	p.cache.Set(name, &r, ttlcache.DefaultTTL)
	return &r
}

// Clear drops a cached entry.
func (p *Parser) Clear(name string) {
	name = strings.TrimSpace(name)
	if p == nil || name == "" {
		return
	}
	p.cache.Delete(name)
}
