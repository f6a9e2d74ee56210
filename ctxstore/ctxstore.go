/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package ctxstore is a generic concurrency-safe registry for a name-keyed
// collection shared across goroutines; the node manager uses it for its
// name -> node instance table (spec §4.12).
package ctxstore

import "sync"

// FuncWalk is called for every entry during a Walk; returning false stops
// the iteration early.
type FuncWalk[T comparable, V any] func(key T, val V) bool

// Store is a concurrency-safe map keyed by a comparable type T.
type Store[T comparable, V any] interface {
	Load(key T) (val V, ok bool)
	Store(key T, val V)
	Delete(key T)
	LoadOrStore(key T, val V) (actual V, loaded bool)
	Len() int
	Walk(fct FuncWalk[T, V])
	Clean()
}

type store[T comparable, V any] struct {
	mu sync.RWMutex
	m  map[T]V
}

// New returns an empty Store.
func New[T comparable, V any]() Store[T, V] {
	return &store[T, V]{m: make(map[T]V)}
}

func (s *store[T, V]) Load(key T) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *store[T, V]) Store(key T, val V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = val
}

func (s *store[T, V]) Delete(key T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
}

func (s *store[T, V]) LoadOrStore(key T, val V) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.m[key]; ok {
		return v, true
	}
	s.m[key] = val
	return val, false
}

func (s *store[T, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func (s *store[T, V]) Walk(fct FuncWalk[T, V]) {
	s.mu.RLock()
	snap := make(map[T]V, len(s.m))
	for k, v := range s.m {
		snap[k] = v
	}
	s.mu.RUnlock()

	for k, v := range snap {
		if !fct(k, v) {
			return
		}
	}
}

func (s *store[T, V]) Clean() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = make(map[T]V)
}
