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

package writepipeline

import (
	"fmt"

	"github.com/bitexact/audiocopy/cuesheet"
	"github.com/bitexact/audiocopy/discmodel"
)

// cueEntrySize is the length in bytes of one SEND CUE SHEET entry (MMC-5
// §6.16): CTL/ADR, track number, index number, two reserved bytes, and a
// three-byte BCD absolute MSF.
const cueEntrySize = 8

const (
	leadInTrack  = 0x00
	leadOutTrack = 0xAA
)

// trackControl packs one cue-sheet entry's ADR/CONTROL byte from a track's
// flags (Red Book Q-subchannel CONTROL nibble, ADR fixed at 1: current
// position data).
func trackControl(preEmphasis, copyPermitted bool) byte {
	var ctl byte
	if preEmphasis {
		ctl |= 0x01
	}
	if copyPermitted {
		ctl |= 0x02
	}
	return (0x1 << 4) | ctl
}

func appendCueEntry(buf []byte, ctl, track, index byte, lba int32) []byte {
	msf := cuesheet.LBAToMSF(lba)
	return append(buf,
		ctl,
		track,
		index,
		0x00,
		0x00,
		cuesheet.BCD(msf.Minute),
		cuesheet.BCD(msf.Second),
		cuesheet.BCD(msf.Frame),
	)
}

// BuildCueSheet assembles the SEND CUE SHEET payload for disc: a lead-in
// bracket entry, one entry per track index boundary (pregap INDEX 00 when
// present, then INDEX 01), and a lead-out bracket entry. Subchannel width
// (2352 vs. 2448 bytes/sector) is conveyed separately through the sector
// size WriteTracks sends, not through this payload.
func BuildCueSheet(disc discmodel.DiscInfo) ([]byte, error) {
	if len(disc.Tracks) == 0 {
		return nil, fmt.Errorf("writepipeline: %w", ErrNoTracks)
	}

	buf := make([]byte, 0, cueEntrySize*(len(disc.Tracks)*2+2))
	buf = appendCueEntry(buf, 0x01, leadInTrack, 0x00, -cuesheet.MSFOffset)

	for _, t := range disc.Tracks {
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("writepipeline: track %d: %w", t.Number, err)
		}
		ctl := trackControl(t.PreEmphasis, t.CopyPermitted)
		trackNo := byte(t.Number)
		if t.PregapLBA < t.StartLBA {
			buf = appendCueEntry(buf, ctl, trackNo, 0x00, t.PregapLBA)
		}
		buf = appendCueEntry(buf, ctl, trackNo, 0x01, t.StartLBA)
	}

	buf = appendCueEntry(buf, 0x01, leadOutTrack, 0x01, disc.LeadOutLBA)
	return buf, nil
}
