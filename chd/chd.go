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

// Package chd provides parsing for CHD (Compressed Hunks of Data) disc
// images. CHD is MAME's compressed disc image format; here it serves as an
// alternate, already-compressed source of a previously ripped audio CD
// (raw 2352-byte sectors plus optional P-W subchannel, compressed per-hunk
// with zlib/LZMA/FLAC/zstd). A CHD opened through this package feeds
// discmodel.DiscInfo and per-track audio bytes into the write pipeline and
// AccurateRip verifier exactly as a freshly ripped disc would; it never
// parses a filesystem out of the data it decodes.
package chd

import (
	"fmt"
	"io"
	"os"

	"github.com/bitexact/audiocopy/discmodel"
)

// CHD represents a CHD (Compressed Hunks of Data) disc image.
type CHD struct {
	file    *os.File
	header  *Header
	hunkMap *HunkMap
	tracks  []Track
}

// Open opens a CHD file and parses its header and metadata.
func Open(path string) (*CHD, error) {
	file, err := os.Open(path) //nolint:gosec // Path from user input is expected
	if err != nil {
		return nil, fmt.Errorf("open CHD file: %w", err)
	}

	chd := &CHD{file: file}

	if err := chd.init(); err != nil {
		_ = file.Close()
		return nil, err
	}

	return chd, nil
}

// init initializes the CHD by parsing header, hunk map, and metadata.
func (c *CHD) init() error {
	header, err := parseHeader(c.file)
	if err != nil {
		return fmt.Errorf("parse header: %w", err)
	}
	if err := header.ValidateCDUnitSize(); err != nil {
		return fmt.Errorf("not a CD image: %w", err)
	}
	c.header = header

	hunkMap, err := NewHunkMap(c.file, header)
	if err != nil {
		return fmt.Errorf("create hunk map: %w", err)
	}
	c.hunkMap = hunkMap

	if header.MetaOffset > 0 {
		entries, parseErr := parseMetadata(c.file, header.MetaOffset)
		if parseErr != nil {
			// Metadata parsing failure is not fatal, continue without track info
			c.tracks = nil
			return nil //nolint:nilerr // Intentional: metadata parsing failure is non-fatal
		}

		tracks, trackErr := parseTracks(entries)
		if trackErr != nil {
			// Track parsing failure is not fatal, continue without track info
			c.tracks = nil
			return nil //nolint:nilerr // Intentional: track parsing failure is non-fatal
		}
		c.tracks = tracks
	}

	return nil
}

// Close closes the CHD file.
func (c *CHD) Close() error {
	if c.file != nil {
		if err := c.file.Close(); err != nil {
			return fmt.Errorf("close CHD file: %w", err)
		}
	}
	return nil
}

// Header returns the parsed CHD header.
func (c *CHD) Header() *Header {
	return c.header
}

// Tracks returns the parsed track information.
func (c *CHD) Tracks() []Track {
	return c.tracks
}

// Size returns the total logical size (uncompressed) of the CHD data.
func (c *CHD) Size() int64 {
	return int64(c.header.LogicalBytes) //nolint:gosec // LogicalBytes is bounded by file size
}

// RawSectorReader returns an io.ReaderAt over raw 2352-byte audio sectors,
// addressed by byte offset (sector N starts at N*2352). This is the CD
// image's system-of-record form: the same 2352-byte-per-sector layout the
// secure read engine produces.
func (c *CHD) RawSectorReader() io.ReaderAt {
	return &sectorReader{chd: c}
}

// ToDiscInfo builds a discmodel.DiscInfo from the CHD's track metadata, so
// a CHD-sourced image can be fed into the write pipeline or AccurateRip
// verifier the same way a freshly decoded TOC would be. Lead-out is the sum
// of every track's pregap+frames+postgap. A CHD with no CD track metadata
// (e.g. a non-CD CHD) yields an error.
func (c *CHD) ToDiscInfo() (discmodel.DiscInfo, error) {
	if len(c.tracks) == 0 {
		return discmodel.DiscInfo{}, ErrNoTracks
	}

	var disc discmodel.DiscInfo
	disc.FirstTrack = 1
	disc.LastTrack = len(c.tracks)
	disc.SessionCount = 1
	disc.SelectedSession = 1

	var cursor int32
	for i := range c.tracks {
		var dt discmodel.Track
		dt, cursor = c.tracks[i].toDiscModelTrack(cursor)
		disc.Tracks = append(disc.Tracks, dt)
	}
	disc.LeadOutLBA = cursor

	return disc, nil
}

// ReadTrackAudio decodes and returns the raw 2352-byte-per-sector audio
// bytes for the pregap-through-end span of the given 1-based track number,
// matching discmodel.TrackAudio.Samples' layout exactly so a CHD-sourced
// image needs no reshaping before AccurateRip or the write pipeline
// consume it.
func (c *CHD) ReadTrackAudio(trackNumber int) ([]byte, error) {
	for _, t := range c.tracks {
		if t.Number != trackNumber {
			continue
		}
		sectorCount := t.Pregap + t.Frames
		startSector := int64(t.StartFrame)
		out := make([]byte, sectorCount*rawSectorSize)
		reader := c.RawSectorReader()
		n, err := reader.ReadAt(out, startSector*rawSectorSize)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("chd: read track %d audio: %w", trackNumber, err)
		}
		return out[:n], nil
	}
	return nil, fmt.Errorf("chd: track %d not found", trackNumber)
}

// sectorReader implements io.ReaderAt over raw 2352-byte CD sectors backed
// by CHD hunks.
type sectorReader struct {
	chd *CHD
}

// rawSectorSize is the size of raw CD sector data (without subchannel),
// matching discmodel.BytesPerSector; kept as a local alias of cdSectorSize
// so this file reads the same as the rest of the package's sector-size
// literals.
const rawSectorSize = cdSectorSize

// ReadAt reads raw sector bytes at the given offset, spanning hunk
// boundaries as needed.
func (sr *sectorReader) ReadAt(dest []byte, off int64) (int, error) {
	if len(dest) == 0 {
		return 0, nil
	}

	hunkBytes := int64(sr.chd.hunkMap.HunkBytes())
	unitBytes := int64(sr.chd.header.UnitBytes)
	if unitBytes == 0 {
		unitBytes = cdSectorSize + cdSubSize // default CD sector + P-W subchannel
	}
	sectorsPerHunk := hunkBytes / unitBytes

	totalRead := 0
	remaining := len(dest)
	currentOff := off

	for remaining > 0 {
		sector := currentOff / rawSectorSize
		offsetInSector := currentOff % rawSectorSize
		hunkIdx := uint32(sector / sectorsPerHunk) //nolint:gosec // sector index bounded by file size
		sectorInHunk := sector % sectorsPerHunk

		hunkData, err := sr.chd.hunkMap.ReadHunk(hunkIdx)
		if err != nil {
			if totalRead > 0 {
				return totalRead, nil
			}
			return 0, fmt.Errorf("read hunk %d: %w", hunkIdx, err)
		}

		sectorOffset := sectorInHunk*unitBytes + offsetInSector
		if sectorOffset >= int64(len(hunkData)) {
			break
		}
		avail := int64(len(hunkData)) - sectorOffset
		if maxInSector := rawSectorSize - offsetInSector; avail > maxInSector {
			avail = maxInSector
		}
		toCopy := int(avail)
		if toCopy > remaining {
			toCopy = remaining
		}

		copy(dest[totalRead:], hunkData[sectorOffset:sectorOffset+int64(toCopy)])
		totalRead += toCopy
		remaining -= toCopy
		currentOff += int64(toCopy)
	}

	if totalRead == 0 {
		return 0, io.EOF
	}
	return totalRead, nil
}
