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

// Package cuesheet parses and emits the textual cue sheet format, and the
// MSF/LBA/BCD conversions (msf.go) that every other component needs. The
// parser's line-scanning shape is generalized from a bare BIN-file finder
// into a full TRACK/INDEX/FLAGS/ISRC/TITLE/PERFORMER reader and writer so
// that writing a Sheet and re-parsing it recovers the same fields.
package cuesheet

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitexact/audiocopy/discmodel"
)

// TrackEntry is one TRACK block within a cue sheet.
type TrackEntry struct {
	Number int
	Type   string // "AUDIO" for everything this package cares about

	PreEmphasis   bool
	CopyPermitted bool

	ISRC string

	Title  string
	Artist string

	// Indices maps index number (0, 1, 2..) to its MSF position, relative
	// to the start of the referenced FILE.
	Indices map[int]MSF
}

// Sheet is a parsed cue sheet.
type Sheet struct {
	Path     string
	BinFile  string // path to the referenced FILE, resolved relative to Path's directory
	BinMode  string // e.g. "BINARY"

	AlbumTitle  string
	AlbumArtist string
	Remarks     []string

	Tracks []TrackEntry
}

// Parse reads and parses a cue sheet from r. path is used only to resolve
// the FILE reference relative to the cue sheet's directory and is not
// otherwise required.
func Parse(r io.Reader, path string) (*Sheet, error) {
	dir := ""
	if path != "" {
		dir = filepath.Dir(path)
	}

	sheet := &Sheet{Path: path}
	var cur *TrackEntry

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := splitCueLine(line)
		if len(fields) == 0 {
			continue
		}

		switch strings.ToUpper(fields[0]) {
		case "FILE":
			if len(fields) < 3 {
				return nil, fmt.Errorf("cuesheet: malformed FILE line %q", line)
			}
			bin := fields[1]
			if !filepath.IsAbs(bin) && dir != "" {
				bin = filepath.Join(dir, bin)
			}
			sheet.BinFile = bin
			sheet.BinMode = fields[2]

		case "TRACK":
			if len(fields) < 3 {
				return nil, fmt.Errorf("cuesheet: malformed TRACK line %q", line)
			}
			num, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("cuesheet: malformed track number %q: %w", fields[1], err)
			}
			if cur != nil {
				sheet.Tracks = append(sheet.Tracks, *cur)
			}
			cur = &TrackEntry{Number: num, Type: fields[2], Indices: map[int]MSF{}}

		case "FLAGS":
			if cur == nil {
				continue
			}
			for _, f := range fields[1:] {
				switch strings.ToUpper(f) {
				case "PRE":
					cur.PreEmphasis = true
				case "DCP":
					cur.CopyPermitted = true
				}
			}

		case "ISRC":
			if cur != nil && len(fields) >= 2 {
				cur.ISRC = fields[1]
			}

		case "INDEX":
			if cur == nil || len(fields) < 3 {
				continue
			}
			idxNum, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, fmt.Errorf("cuesheet: malformed index number %q: %w", fields[1], err)
			}
			msf, err := ParseMSF(fields[2])
			if err != nil {
				return nil, err
			}
			cur.Indices[idxNum] = msf

		case "TITLE":
			title := joinQuoted(fields[1:])
			if cur != nil {
				cur.Title = title
			} else {
				sheet.AlbumTitle = title
			}

		case "PERFORMER":
			performer := joinQuoted(fields[1:])
			if cur != nil {
				cur.Artist = performer
			} else {
				sheet.AlbumArtist = performer
			}

		case "REM":
			sheet.Remarks = append(sheet.Remarks, strings.Join(fields[1:], " "))
		}
	}
	if cur != nil {
		sheet.Tracks = append(sheet.Tracks, *cur)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cuesheet: scan: %w", err)
	}
	if sheet.BinFile == "" {
		return nil, fmt.Errorf("cuesheet: no FILE line found")
	}
	return sheet, nil
}

// ParseFile opens and parses the cue sheet at path.
func ParseFile(path string) (*Sheet, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-supplied by design
	if err != nil {
		return nil, fmt.Errorf("cuesheet: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return Parse(f, path)
}

// IsCueFile reports whether path has a .cue extension.
func IsCueFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cue")
}

// splitCueLine tokenizes a cue line honoring double-quoted fields.
func splitCueLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}

func joinQuoted(fields []string) string {
	return strings.Join(fields, " ")
}

// ToDiscInfo rebuilds a discmodel.DiscInfo from a parsed Sheet, the inverse
// of FromDiscInfo, so a cue sheet recovered from an archive or staged for a
// re-burn can feed the write pipeline and AccurateRip verifier the same way
// a freshly decoded TOC would. binSectors is the referenced bin file's total
// sector count (its byte length / discmodel.BytesPerSector); it fixes the
// last track's end LBA and the disc's lead-out, neither of which a cue sheet
// records directly. A bin always begins at the disc's absolute LBA 0 (the
// first track's pregap, or LBA 0 of a hidden track when one was detected at
// rip time), so FILE-relative INDEX offsets
// (via MSF.FileFrames) equal absolute LBAs directly.
func (s *Sheet) ToDiscInfo(binSectors int32) (discmodel.DiscInfo, error) {
	if len(s.Tracks) == 0 {
		return discmodel.DiscInfo{}, fmt.Errorf("cuesheet: no tracks to convert")
	}

	disc := discmodel.DiscInfo{
		FirstTrack:      s.Tracks[0].Number,
		LastTrack:       s.Tracks[len(s.Tracks)-1].Number,
		SessionCount:    1,
		SelectedSession: 1,
		Text: discmodel.CDText{
			AlbumTitle:  s.AlbumTitle,
			AlbumArtist: s.AlbumArtist,
		},
	}

	for i, te := range s.Tracks {
		startMSF, ok := te.Indices[1]
		if !ok {
			return discmodel.DiscInfo{}, fmt.Errorf("cuesheet: track %d has no INDEX 01", te.Number)
		}
		startLBA := startMSF.FileFrames()
		pregapLBA := startLBA
		if pregapMSF, ok := te.Indices[0]; ok {
			pregapLBA = pregapMSF.FileFrames()
		}

		var endLBA int32
		if i+1 < len(s.Tracks) {
			next := s.Tracks[i+1]
			nextPregap, ok := next.Indices[0]
			if !ok {
				nextPregap = next.Indices[1]
			}
			endLBA = nextPregap.FileFrames() - 1
		} else {
			endLBA = binSectors - 1
		}

		indices := make([]discmodel.Index, 0, len(te.Indices))
		for num, msf := range te.Indices {
			indices = append(indices, discmodel.Index{Number: num, LBA: msf.FileFrames()})
		}

		disc.Tracks = append(disc.Tracks, discmodel.Track{
			Number:        te.Number,
			StartLBA:      startLBA,
			EndLBA:        endLBA,
			PregapLBA:     pregapLBA,
			IsAudio:       te.Type == "AUDIO",
			ISRC:          te.ISRC,
			PreEmphasis:   te.PreEmphasis,
			CopyPermitted: te.CopyPermitted,
			Title:         te.Title,
			Artist:        te.Artist,
			Indices:       indices,
		})
		disc.Text.TrackTitles = append(disc.Text.TrackTitles, te.Title)
		disc.Text.TrackArtists = append(disc.Text.TrackArtists, te.Artist)
	}
	disc.LeadOutLBA = binSectors

	return disc, nil
}

// FromDiscInfo builds a Sheet from a ripped disc model, binName being the
// base name used in the FILE line (e.g. "album.bin").
func FromDiscInfo(disc discmodel.DiscInfo, binName string) *Sheet {
	sheet := &Sheet{
		BinFile:     binName,
		BinMode:     "BINARY",
		AlbumTitle:  disc.Text.AlbumTitle,
		AlbumArtist: disc.Text.AlbumArtist,
	}

	// The bin begins at the first track's pregap LBA (0 when a hidden
	// track was detected), so every MSF below is relative to that.
	var binStart int32
	if len(disc.Tracks) > 0 {
		binStart = disc.Tracks[0].PregapLBA
	}

	for _, t := range disc.Tracks {
		entry := TrackEntry{
			Number:        t.Number,
			Type:          "AUDIO",
			PreEmphasis:   t.PreEmphasis,
			CopyPermitted: t.CopyPermitted,
			ISRC:          t.ISRC,
			Title:         t.Title,
			Artist:        t.Artist,
			Indices:       map[int]MSF{},
		}
		for _, idx := range t.Indices {
			entry.Indices[idx.Number] = FileMSF(idx.LBA - binStart)
		}
		if _, ok := entry.Indices[1]; !ok {
			entry.Indices[1] = FileMSF(t.StartLBA - binStart)
		}
		if _, ok := entry.Indices[0]; !ok {
			entry.Indices[0] = FileMSF(t.PregapLBA - binStart)
		}
		sheet.Tracks = append(sheet.Tracks, entry)
	}

	return sheet
}
