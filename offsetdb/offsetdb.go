// Copyright (c) 2025 Niema Moshiri and The Zaparoo Project.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of audiocopy.
//
// audiocopy is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// audiocopy is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with audiocopy.  If not, see <https://www.gnu.org/licenses/>.

// Package offsetdb persists the drive read-offset database: a table of
// signed 16-bit sample offsets keyed by the drive's "<vendor> <product>"
// identification string, gzip-encoded gob on disk and fronted by an LRU of
// recently looked-up entries so repeated lookups for the same drive during
// a session never touch the backing store.
package offsetdb

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// cacheSize bounds the in-memory LRU in front of the on-disk table; a
// session rarely touches more than a handful of distinct drives.
const cacheSize = 32

// DB is a drive read-offset database. The zero value is not usable; use
// New or Load.
type DB struct {
	mu      sync.RWMutex
	entries map[string]int16
	cache   *lru.Cache[string, int16]
}

// New creates an empty offset database.
func New() *DB {
	cache, err := lru.New[string, int16](cacheSize)
	if err != nil {
		// Only fails for a non-positive size, which cacheSize never is.
		panic(fmt.Sprintf("offsetdb: unexpected lru.New error: %v", err))
	}
	return &DB{entries: make(map[string]int16), cache: cache}
}

// Key normalizes a drive's vendor/product identification into the database
// lookup key, trimming padding and folding case the way SCSI INQUIRY vendor/
// product strings are conventionally compared.
func Key(vendor, product string) string {
	return strings.ToUpper(strings.TrimSpace(vendor)) + " " + strings.ToUpper(strings.TrimSpace(product))
}

// Load reads a gzip-compressed gob-encoded offset table from fs at path.
func Load(fs afero.Fs, path string) (*DB, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("offsetdb: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("offsetdb: gzip reader: %w", err)
	}
	defer func() { _ = gz.Close() }()

	entries := make(map[string]int16)
	if err := gob.NewDecoder(gz).Decode(&entries); err != nil {
		return nil, fmt.Errorf("offsetdb: decode: %w", err)
	}

	db := New()
	db.entries = entries
	return db, nil
}

// Save writes the database to fs at path as a gzip-compressed gob.
func (db *DB) Save(fs afero.Fs, path string) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("offsetdb: create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	defer func() { _ = gz.Close() }()

	if err := gob.NewEncoder(gz).Encode(db.entries); err != nil {
		return fmt.Errorf("offsetdb: encode: %w", err)
	}
	return nil
}

// Lookup returns the signed sample offset for the given vendor/product
// string, consulting the LRU cache before the backing table.
func (db *DB) Lookup(vendor, product string) (int16, bool) {
	key := Key(vendor, product)

	if offset, ok := db.cache.Get(key); ok {
		return offset, true
	}

	db.mu.RLock()
	offset, ok := db.entries[key]
	db.mu.RUnlock()
	if !ok {
		return 0, false
	}

	db.cache.Add(key, offset)
	return offset, true
}

// Set records the sample offset for the given vendor/product string,
// overwriting any existing entry, and updates the LRU cache to match.
func (db *DB) Set(vendor, product string, offset int16) {
	key := Key(vendor, product)

	db.mu.Lock()
	db.entries[key] = offset
	db.mu.Unlock()

	db.cache.Add(key, offset)
}

// Len returns the number of drive entries in the backing table.
func (db *DB) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.entries)
}
