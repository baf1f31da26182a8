/*
 * Copyright 2024 The jtx Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"net/http"

	"github.com/bittoy/jtx/storage"
)

// KVStore models the durable key-value store a State mirrors its
// persisted keys into. The
// host's local storage is the production implementation; it is an
// external collaborator the core only ever touches through this
// interface.
type KVStore interface {
	Get(key string) (string, bool)
	Set(key string, value string)
	Delete(key string)
}

// URLStore models the page's URL query string. Query returns the raw
// query (without the leading "?"); Replace rewrites it without
// triggering navigation.
type URLStore interface {
	Query() string
	Replace(query string)
}

// HTTPDoer narrows *http.Client to the one method sourcedef needs,
// so tests can substitute a fake transport.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config carries every piece of injectable behavior through the
// engine, a functional-options bundle: build one
// with NewConfig(opts...), never construct the struct literal outside
// this package's defaults.
type Config struct {
	Logger Logger
	KV     KVStore
	URL    URLStore
	HTTP   HTTPDoer
	// Sanitizer post-processes the string result of an "html" binding
	// or scalar insert before it replaces an element's HTML. Identity
	// when nil.
	Sanitizer func(string) string
	// Origin is the page's own origin ("https://example.com"), used to
	// normalize a relative/cross-protocol WebSocket URL to an absolute
	// ws(s):// form. The headless domtree has no notion of a
	// page location, so the host supplies this explicitly.
	Origin string
}

// Option configures a Config.
type Option func(*Config)

func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func WithKVStore(kv KVStore) Option {
	return func(c *Config) { c.KV = kv }
}

func WithURLStore(u URLStore) Option {
	return func(c *Config) { c.URL = u }
}

func WithHTTPClient(h HTTPDoer) Option {
	return func(c *Config) { c.HTTP = h }
}

func WithSanitizer(fn func(string) string) Option {
	return func(c *Config) { c.Sanitizer = fn }
}

func WithOrigin(origin string) Option {
	return func(c *Config) { c.Origin = origin }
}

// NewConfig builds a Config with sane zero-configuration defaults
// (standard-library logger, in-memory stores, http.DefaultClient),
// then applies opts, matching engine.NewConfig's "defaults, then
// apply options" shape.
func NewConfig(opts ...Option) Config {
	c := Config{
		Logger: NewDefaultLogger(),
		KV:     storage.NewMemory(),
		URL:    storage.NewMemoryURL(""),
		HTTP:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c Config) Sanitize(html string) string {
	if c.Sanitizer == nil {
		return html
	}
	return c.Sanitizer(html)
}
