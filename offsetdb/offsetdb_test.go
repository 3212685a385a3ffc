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

package offsetdb_test

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/bitexact/audiocopy/offsetdb"
)

func TestKeyNormalizes(t *testing.T) {
	t.Parallel()

	got := offsetdb.Key("  PLEXTOR ", "cd-r px-w1210a")
	want := "PLEXTOR CD-R PX-W1210A"
	if got != want {
		t.Errorf("Key() = %q, want %q", got, want)
	}
}

func TestSetAndLookup(t *testing.T) {
	t.Parallel()

	db := offsetdb.New()
	db.Set("PLEXTOR", "CD-R PX-W1210A", 30)

	offset, ok := db.Lookup("plextor", "cd-r px-w1210a")
	if !ok {
		t.Fatal("expected lookup to succeed")
	}
	if offset != 30 {
		t.Errorf("offset = %d, want 30", offset)
	}
}

func TestLookupMiss(t *testing.T) {
	t.Parallel()

	db := offsetdb.New()
	if _, ok := db.Lookup("NONEXISTENT", "DRIVE"); ok {
		t.Error("expected lookup miss")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()

	db := offsetdb.New()
	db.Set("PIONEER", "DVD-RW DVR-216D", -667)
	db.Set("LITE-ON", "DVDRW LH-20A1H", 6)

	if err := db.Save(fs, "/offsets.db.gz"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := offsetdb.Load(fs, "/offsets.db.gz")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}

	offset, ok := loaded.Lookup("PIONEER", "DVD-RW DVR-216D")
	if !ok || offset != -667 {
		t.Errorf("Lookup() = (%d, %v), want (-667, true)", offset, ok)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if _, err := offsetdb.Load(fs, "/does-not-exist.db.gz"); err == nil {
		t.Error("expected error loading missing file")
	}
}
