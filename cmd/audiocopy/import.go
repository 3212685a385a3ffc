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

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"

	"github.com/bitexact/audiocopy/accuraterip"
	"github.com/bitexact/audiocopy/archive"
	"github.com/bitexact/audiocopy/chd"
	"github.com/bitexact/audiocopy/discmodel"
)

// cmdImport verifies an already-prepared disc image (a CHD, or a
// bin/cue/sub set packaged inside a ZIP/7z/RAR archive) against
// AccurateRip without touching a drive, and stages the recovered bin/cue/log
// under -out exactly as a fresh rip would. This is the same checksum and
// lookup path cmdRip drives, just fed from a file instead of the secure
// read engine.
func cmdImport(args []string) int {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	inPath := fs.String("in", "", "path to a .chd file or a .zip/.7z/.rar archive containing a bin/cue/sub set (required)")
	outName := fs.String("out", "import", "base name for the staged .bin/.cue/.log output files")
	lookupAR := fs.Bool("accuraterip", true, "verify the image against the AccurateRip database")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		return 1
	}

	disc, tracks, err := loadImage(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading image: %v\n", err)
		return 1
	}
	if err := disc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: disc layout invalid: %v\n", err)
		return 1
	}

	checksums := computeChecksums(disc, tracks)

	var arResult *accuraterip.Result
	if *lookupAR {
		arResult = lookupAccurateRip(disc, checksums)
	}

	fs2 := afero.NewOsFs()
	if err := writeRipOutputs(fs2, *outName, disc, discmodel.SecureRipConfig{}, tracks, nil, checksums, arResult); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing outputs: %v\n", err)
		return 1
	}

	fmt.Println("import complete")
	return 0
}

// loadImage dispatches on inPath's extension to either the chd or archive
// package and returns a disc model plus per-track audio, in the same shape
// ReadDiscSecure's result takes, so the AccurateRip and logging code paths
// downstream never need to know which source produced them.
func loadImage(inPath string) (discmodel.DiscInfo, map[int]*discmodel.TrackAudio, error) {
	ext := strings.ToLower(inPath[strings.LastIndex(inPath, ".")+1:])
	switch ext {
	case "chd":
		return loadCHDImage(inPath)
	case "zip", "7z", "rar":
		return loadArchiveImage(inPath)
	default:
		return discmodel.DiscInfo{}, nil, fmt.Errorf("unrecognized image source %q (expected .chd, .zip, .7z, or .rar)", inPath)
	}
}

func loadCHDImage(inPath string) (discmodel.DiscInfo, map[int]*discmodel.TrackAudio, error) {
	c, err := chd.Open(inPath)
	if err != nil {
		return discmodel.DiscInfo{}, nil, fmt.Errorf("open CHD: %w", err)
	}
	defer func() { _ = c.Close() }()

	disc, err := c.ToDiscInfo()
	if err != nil {
		return discmodel.DiscInfo{}, nil, fmt.Errorf("CHD to disc model: %w", err)
	}

	tracks := make(map[int]*discmodel.TrackAudio, len(disc.Tracks))
	for _, t := range disc.Tracks {
		samples, err := c.ReadTrackAudio(t.Number)
		if err != nil {
			return discmodel.DiscInfo{}, nil, fmt.Errorf("read track %d audio: %w", t.Number, err)
		}
		tracks[t.Number] = &discmodel.TrackAudio{Samples: samples}
	}
	return disc, tracks, nil
}

func loadArchiveImage(inPath string) (discmodel.DiscInfo, map[int]*discmodel.TrackAudio, error) {
	arc, err := archive.Open(inPath)
	if err != nil {
		return discmodel.DiscInfo{}, nil, fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = arc.Close() }()

	sheet, binReader, binSize, closer, err := archive.OpenImageSet(arc)
	if err != nil {
		return discmodel.DiscInfo{}, nil, fmt.Errorf("open image set: %w", err)
	}
	defer func() { _ = closer.Close() }()

	binSectors := int32(binSize / discmodel.BytesPerSector)
	disc, err := sheet.ToDiscInfo(binSectors)
	if err != nil {
		return discmodel.DiscInfo{}, nil, fmt.Errorf("cue to disc model: %w", err)
	}

	tracks := make(map[int]*discmodel.TrackAudio, len(disc.Tracks))
	for _, t := range disc.Tracks {
		n := t.SectorCount() * discmodel.BytesPerSector
		buf := make([]byte, n)
		off := int64(t.PregapLBA-disc.Tracks[0].PregapLBA) * discmodel.BytesPerSector
		if _, err := binReader.ReadAt(buf, off); err != nil && err != io.EOF {
			return discmodel.DiscInfo{}, nil, fmt.Errorf("read track %d from archived bin: %w", t.Number, err)
		}
		tracks[t.Number] = &discmodel.TrackAudio{Samples: buf}
	}
	return disc, tracks, nil
}
