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

// Package storage provides the default in-memory implementations of
// the durable key-value store and URL query store the core consumes
// through types.KVStore / types.URLStore. Production embedders are
// expected to supply real adapters (browser localStorage over a JS
// bridge, the page's actual location) via types.WithKVStore /
// types.WithURLStore; these defaults make the engine runnable and
// testable standalone.
package storage

import "sync"

// Memory is a process-local types.KVStore, good enough to exercise
// persistence semantics in tests without a real durable backend.
type Memory struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]string)}
}

func (m *Memory) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *Memory) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// MemoryURL is a process-local types.URLStore standing in for
// location.search.
type MemoryURL struct {
	mu    sync.RWMutex
	query string
}

func NewMemoryURL(initial string) *MemoryURL {
	return &MemoryURL{query: initial}
}

func (u *MemoryURL) Query() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.query
}

func (u *MemoryURL) Replace(query string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.query = query
}
