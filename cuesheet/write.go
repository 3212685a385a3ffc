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

package cuesheet

import (
	"fmt"
	"io"
	"sort"
)

// Write emits sheet as a textual cue sheet. Parsing the output of Write
// reproduces the original Sheet modulo whitespace.
func (s *Sheet) Write(w io.Writer) error {
	if s.AlbumTitle != "" {
		if _, err := fmt.Fprintf(w, "TITLE \"%s\"\n", s.AlbumTitle); err != nil {
			return err
		}
	}
	if s.AlbumArtist != "" {
		if _, err := fmt.Fprintf(w, "PERFORMER \"%s\"\n", s.AlbumArtist); err != nil {
			return err
		}
	}
	for _, rem := range s.Remarks {
		if _, err := fmt.Fprintf(w, "REM %s\n", rem); err != nil {
			return err
		}
	}
	binMode := s.BinMode
	if binMode == "" {
		binMode = "BINARY"
	}
	if _, err := fmt.Fprintf(w, "FILE \"%s\" %s\n", s.BinFile, binMode); err != nil {
		return err
	}

	for _, t := range s.Tracks {
		if _, err := fmt.Fprintf(w, "  TRACK %02d %s\n", t.Number, t.Type); err != nil {
			return err
		}
		if t.PreEmphasis || t.CopyPermitted {
			var flags []string
			if t.CopyPermitted {
				flags = append(flags, "DCP")
			}
			if t.PreEmphasis {
				flags = append(flags, "PRE")
			}
			if _, err := fmt.Fprintf(w, "    FLAGS %s\n", joinSpace(flags)); err != nil {
				return err
			}
		}
		if t.ISRC != "" {
			if _, err := fmt.Fprintf(w, "    ISRC %s\n", t.ISRC); err != nil {
				return err
			}
		}
		if t.Title != "" {
			if _, err := fmt.Fprintf(w, "    TITLE \"%s\"\n", t.Title); err != nil {
				return err
			}
		}
		if t.Artist != "" {
			if _, err := fmt.Fprintf(w, "    PERFORMER \"%s\"\n", t.Artist); err != nil {
				return err
			}
		}

		indexNums := make([]int, 0, len(t.Indices))
		for n := range t.Indices {
			indexNums = append(indexNums, n)
		}
		sort.Ints(indexNums)
		for _, n := range indexNums {
			if _, err := fmt.Fprintf(w, "    INDEX %02d %s\n", n, t.Indices[n]); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
