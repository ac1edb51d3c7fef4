// Copyright (c) 2024 The Falcon Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package pipeline

import (
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"corec/internal/diag"
)

// entry is what the cache stores per source hash: either the compiled
// bytes, or the CompileError the last attempt at this exact source text
// produced. Caching the failure avoids re-running a doomed compilation
// every time a watch-mode caller resubmits the same broken file.
type entry struct {
	bytes []byte
	err   *diag.CompileError
}

// Cache is the incremental query cache wrapping CompileToExecutable,
// keyed by the SHA-256 of the source text. It is safe for concurrent use:
// golang-lru's Cache type owns its own lock, and CompileToExecutable
// itself touches no shared state, so distinct sources compile in
// parallel without contention.
type Cache struct {
	lru *lru.Cache
	log *zap.Logger
}

// NewCache builds a Cache holding up to size compiled results.
func NewCache(size int, log *zap.Logger) (*Cache, error) {
	l, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cache{lru: l, log: log}, nil
}

func hashSource(source string) string {
	sum := sha256.Sum256([]byte(source))
	return hex.EncodeToString(sum[:])
}

// CompileCached returns the cached result for source if present, and
// otherwise compiles it, stores the outcome (success or failure), and
// returns it.
func (c *Cache) CompileCached(source string) ([]byte, *diag.CompileError) {
	key := hashSource(source)
	if v, ok := c.lru.Get(key); ok {
		c.log.Debug("cache hit", zap.String("key", key))
		e := v.(entry)
		return e.bytes, e.err
	}

	c.log.Debug("cache miss", zap.String("key", key))
	bytes, err := CompileToExecutable(source, c.log)
	c.lru.Add(key, entry{bytes: bytes, err: err})
	return bytes, err
}

// Purge discards every cached result.
func (c *Cache) Purge() { c.lru.Purge() }

// Len reports how many results are currently cached.
func (c *Cache) Len() int { return c.lru.Len() }
