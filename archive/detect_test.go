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

package archive_test

import (
	"errors"
	"testing"

	"github.com/bitexact/audiocopy/archive"
)

func TestIsImageFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		want     bool
	}{
		{"disc.cue", true},
		{"DISC.CUE", true},
		{"disc.bin", true},
		{"disc.sub", true},
		{"disc.iso", false},
		{"readme.txt", false},
		{"disc.zip", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			t.Parallel()

			got := archive.IsImageFile(tt.filename)
			if got != tt.want {
				t.Errorf("IsImageFile(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestDetectImageSet_FindsCueAndBin(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	files := map[string][]byte{
		"readme.txt": []byte("readme"),
		"disc.cue":   []byte("FILE \"disc.bin\" BINARY\n"),
		"disc.bin":   make([]byte, 100),
	}
	zipPath := createTestZIP(t, tmpDir, "disc.zip", files)

	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = arc.Close() }()

	set, err := archive.DetectImageSet(arc)
	if err != nil {
		t.Fatalf("detect image set: %v", err)
	}

	if set.CuePath != "disc.cue" {
		t.Errorf("got cue %q, want %q", set.CuePath, "disc.cue")
	}
	if set.BinPath != "disc.bin" {
		t.Errorf("got bin %q, want %q", set.BinPath, "disc.bin")
	}
	if set.SubPath != "" {
		t.Errorf("expected no sub path, got %q", set.SubPath)
	}
}

func TestDetectImageSet_IncludesSub(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	files := map[string][]byte{
		"disc.cue": []byte("FILE \"disc.bin\" BINARY\n"),
		"disc.bin": make([]byte, 100),
		"disc.sub": make([]byte, 50),
	}
	zipPath := createTestZIP(t, tmpDir, "disc-with-sub.zip", files)

	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = arc.Close() }()

	set, err := archive.DetectImageSet(arc)
	if err != nil {
		t.Fatalf("detect image set: %v", err)
	}

	if set.SubPath != "disc.sub" {
		t.Errorf("got sub %q, want %q", set.SubPath, "disc.sub")
	}
}

func TestDetectImageSet_NoImages(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	files := map[string][]byte{
		"readme.txt": []byte("readme"),
		"notes.doc":  []byte("notes"),
	}
	zipPath := createTestZIP(t, tmpDir, "noimages.zip", files)

	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = arc.Close() }()

	_, err = archive.DetectImageSet(arc)
	if err == nil {
		t.Error("expected error for archive with no images")
	}

	var noImagesErr archive.NoImageFilesError
	if !errors.As(err, &noImagesErr) {
		t.Errorf("expected NoImageFilesError, got %T", err)
	}
}

func TestDetectImageSet_Ambiguous(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	files := map[string][]byte{
		"disc1.cue": []byte("FILE \"disc1.bin\" BINARY\n"),
		"disc1.bin": make([]byte, 100),
		"disc2.cue": []byte("FILE \"disc2.bin\" BINARY\n"),
		"disc2.bin": make([]byte, 100),
	}
	zipPath := createTestZIP(t, tmpDir, "ambiguous.zip", files)

	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = arc.Close() }()

	_, err = archive.DetectImageSet(arc)
	if err == nil {
		t.Error("expected error for archive with multiple cue sheets")
	}

	var ambigErr archive.AmbiguousImageSetError
	if !errors.As(err, &ambigErr) {
		t.Errorf("expected AmbiguousImageSetError, got %T", err)
	}
}

func TestOpenImageSet(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	binContent := make([]byte, 2352*4)
	files := map[string][]byte{
		"disc.cue": []byte("FILE \"disc.bin\" BINARY\n" +
			"  TRACK 01 AUDIO\n" +
			"    INDEX 01 00:00:00\n"),
		"disc.bin": binContent,
	}
	zipPath := createTestZIP(t, tmpDir, "openset.zip", files)

	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = arc.Close() }()

	sheet, reader, size, closer, err := archive.OpenImageSet(arc)
	if err != nil {
		t.Fatalf("open image set: %v", err)
	}
	defer func() { _ = closer.Close() }()

	if len(sheet.Tracks) != 1 {
		t.Fatalf("expected 1 track, got %d", len(sheet.Tracks))
	}
	if sheet.BinFile != "disc.bin" {
		t.Errorf("BinFile = %q, want %q", sheet.BinFile, "disc.bin")
	}
	if size != int64(len(binContent)) {
		t.Errorf("size = %d, want %d", size, len(binContent))
	}

	buf := make([]byte, 4)
	if _, err := reader.ReadAt(buf, 0); err != nil {
		t.Fatalf("read bin via reader: %v", err)
	}
}

func TestDetectImageSet_MissingBin(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	files := map[string][]byte{
		"disc.cue": []byte("FILE \"disc.bin\" BINARY\n"),
	}
	zipPath := createTestZIP(t, tmpDir, "missingbin.zip", files)

	arc, err := archive.Open(zipPath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer func() { _ = arc.Close() }()

	_, err = archive.DetectImageSet(arc)
	if err == nil {
		t.Error("expected error for cue with no matching bin")
	}

	var notFoundErr archive.FileNotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Errorf("expected FileNotFoundError, got %T", err)
	}
}
