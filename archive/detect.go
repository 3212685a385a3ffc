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

package archive

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/bitexact/audiocopy/cuesheet"
)

// imageExtensions are the file extensions of a prepared bin/cue/sub disc
// image set, the only file kinds this package looks for inside an archive.
var imageExtensions = map[string]bool{
	".cue": true,
	".bin": true,
	".sub": true,
}

// IsImageFile checks if a filename has a recognized disc-image file
// extension (.cue, .bin, or .sub).
func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageExtensions[ext]
}

// ImageSet names the archive-internal paths of a prepared disc image: the
// cue sheet plus its referenced .bin and, when present, .sub files.
type ImageSet struct {
	CuePath string
	BinPath string
	SubPath string // empty if no raw subchannel capture is present
}

// DetectImageSet scans an archive's file list for exactly one .cue file and
// pairs it with the .bin (and optional .sub) file sharing its base name, so
// a prepared image shipped zipped/7z'd/rar'd can be located without a
// manual unpack step. It returns NoImageFilesError if no
// .cue file is present, and AmbiguousImageSetError if more than one is.
func DetectImageSet(arc Archive) (ImageSet, error) {
	files, err := arc.List()
	if err != nil {
		return ImageSet{}, fmt.Errorf("list archive files: %w", err)
	}

	var cues []string
	byBase := map[string]string{}
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name))
		base := strings.TrimSuffix(file.Name, filepath.Ext(file.Name))
		switch ext {
		case ".cue":
			cues = append(cues, file.Name)
		case ".bin", ".sub":
			byBase[base+ext] = file.Name
		}
	}

	switch len(cues) {
	case 0:
		return ImageSet{}, NoImageFilesError{Archive: "archive"}
	case 1:
		// fall through
	default:
		return ImageSet{}, AmbiguousImageSetError{Count: len(cues)}
	}

	cue := cues[0]
	base := strings.TrimSuffix(cue, filepath.Ext(cue))
	set := ImageSet{CuePath: cue, BinPath: byBase[base+".bin"], SubPath: byBase[base+".sub"]}
	if set.BinPath == "" {
		return ImageSet{}, FileNotFoundError{Archive: "archive", InternalPath: base + ".bin"}
	}
	return set, nil
}

// OpenImageSet locates the packaged cue/bin/sub set inside arc (via
// DetectImageSet), parses the cue sheet, and returns an io.ReaderAt over the
// bin file (plus its byte size, needed to fix the last track's end LBA via
// Sheet.ToDiscInfo) ready for the write pipeline or secure-read comparison;
// all without the caller needing to unpack the archive to a temporary
// directory first. The returned closer releases the buffered bin data;
// closing it does not close arc itself.
//
//nolint:revive // 5 return values mirrors Archive.OpenReaderAt's 4 plus the parsed sheet
func OpenImageSet(arc Archive) (*cuesheet.Sheet, io.ReaderAt, int64, io.Closer, error) {
	set, err := DetectImageSet(arc)
	if err != nil {
		return nil, nil, 0, nil, err
	}

	cueReader, _, err := arc.Open(set.CuePath)
	if err != nil {
		return nil, nil, 0, nil, fmt.Errorf("open cue sheet in archive: %w", err)
	}
	defer func() { _ = cueReader.Close() }()

	sheet, err := cuesheet.Parse(cueReader, set.CuePath)
	if err != nil {
		return nil, nil, 0, nil, fmt.Errorf("parse cue sheet from archive: %w", err)
	}
	// The FILE line in an archived cue sheet names a bare filename with no
	// directory to resolve against; override it with the archive-internal
	// bin path DetectImageSet already found.
	sheet.BinFile = set.BinPath

	binReader, size, closer, err := arc.OpenReaderAt(set.BinPath)
	if err != nil {
		return nil, nil, 0, nil, fmt.Errorf("open bin file in archive: %w", err)
	}
	return sheet, binReader, size, closer, nil
}
