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

package toc

import (
	"fmt"

	"github.com/bitexact/audiocopy/cuesheet"
	"github.com/bitexact/audiocopy/discmodel"
)

// DecodeFormat0 parses a READ TOC/PMA/ATIP format 0 response (as returned
// by mmc.Drive.ReadTOC with TOCFormatTOC) into a DiscInfo skeleton: track
// numbers and start LBAs, with pregap initially equal to start LBA (refined
// later by RefinePregaps and scanHiddenAudio). Entries whose reported start
// address is not monotonically increasing, or exceeds the lead-out, are
// clamped to the nearest valid boundary and TOCRepaired is set.
func DecodeFormat0(data []byte) (discmodel.DiscInfo, error) {
	if len(data) < 4 {
		return discmodel.DiscInfo{}, fmt.Errorf("toc: format 0 response too short (%d bytes)", len(data))
	}

	firstTrack := int(data[2])
	lastTrack := int(data[3])

	const entrySize = 8
	entries := data[4:]
	if len(entries)%entrySize != 0 {
		return discmodel.DiscInfo{}, fmt.Errorf("toc: format 0 entries not a multiple of %d bytes", entrySize)
	}

	var disc discmodel.DiscInfo
	disc.FirstTrack = firstTrack
	disc.LastTrack = lastTrack

	var starts []int32
	var numbers []int
	var leadOut int32

	for off := 0; off+entrySize <= len(entries); off += entrySize {
		e := entries[off : off+entrySize]
		trackNum := int(e[2])
		adr := e[1] >> 4
		control := e[1] & 0x0F
		lba := int32(uint32(e[4])<<24 | uint32(e[5])<<16 | uint32(e[6])<<8 | uint32(e[7]))

		if trackNum == 0xAA {
			leadOut = lba
			continue
		}
		if trackNum < firstTrack || trackNum > lastTrack {
			continue
		}
		_ = adr

		numbers = append(numbers, trackNum)
		starts = append(starts, lba)

		disc.Tracks = append(disc.Tracks, discmodel.Track{
			Number:    trackNum,
			StartLBA:  lba,
			PregapLBA: lba,
			IsAudio:   control&0x04 == 0, // bit 2 clear = audio track
		})
	}

	disc.LeadOutLBA = leadOut

	repaired := false
	for i := range disc.Tracks {
		t := &disc.Tracks[i]
		var next int32
		if i+1 < len(disc.Tracks) {
			next = disc.Tracks[i+1].StartLBA
		} else {
			next = leadOut
		}
		if next <= t.StartLBA {
			// Clamp a non-monotonic or overrunning entry to a one-sector
			// span ending at its own start.
			next = t.StartLBA + 1
			repaired = true
		}
		t.EndLBA = next - 1
		t.Indices = []discmodel.Index{
			{Number: 0, LBA: t.PregapLBA},
			{Number: 1, LBA: t.StartLBA},
		}
	}
	disc.TOCRepaired = repaired

	return disc, nil
}

// QFrame is one decoded 10-byte Q-subchannel payload (ADR=1 mode, carrying
// current-position information).
type QFrame struct {
	Control     byte
	ADR         byte
	TrackNumber int
	IndexNumber int
	// RelativeMSF is the MSF position within the track/index.
	RelativeMSF [3]byte // M, S, F BCD
	// AbsoluteMSF is the MSF position from the start of the disc.
	AbsoluteMSF [3]byte
}

// DecodeQFrame validates and decodes a 12-byte raw Q-subchannel frame
// (10 data bytes + 2-byte CRC). It returns ok=false, without error, for a
// frame that fails the CRC check or is not ADR=1 (position) data: such
// frames are discarded rather than trusted.
func DecodeQFrame(raw []byte) (QFrame, bool) {
	if len(raw) < 12 || !verifyQCRC(raw) {
		return QFrame{}, false
	}

	adr := raw[0] >> 4
	if adr != 1 {
		return QFrame{}, false
	}

	// Track, index, and MSF fields all travel as BCD in the Q channel.
	return QFrame{
		Control:     raw[0] & 0x0F,
		ADR:         adr,
		TrackNumber: cuesheet.FromBCD(raw[1]),
		IndexNumber: cuesheet.FromBCD(raw[2]),
		RelativeMSF: [3]byte{raw[3], raw[4], raw[5]},
		AbsoluteMSF: [3]byte{raw[7], raw[8], raw[9]},
	}, true
}

// RefinePregaps walks a sequence of raw Q frames (one per sector, in
// ascending LBA order starting at startLBA) and, for the track they belong
// to, records the first LBA where the index transitions from 0 to 1 as the
// track's main start; every index-0 frame before it extends the track's
// pregap backwards, shrinking the previous track's end so the two stay
// adjacent. Frames failing DecodeQFrame are skipped, never used to move a
// boundary.
func RefinePregaps(disc *discmodel.DiscInfo, startLBA int32, rawFrames [][]byte) {
	lastIndexByTrack := map[int]int{}

	for i, raw := range rawFrames {
		frame, ok := DecodeQFrame(raw)
		if !ok {
			continue
		}
		lba := startLBA + int32(i)

		trackIdx := trackPositionOf(disc, frame.TrackNumber)
		if trackIdx < 0 {
			continue
		}
		t := &disc.Tracks[trackIdx]

		if frame.IndexNumber == 0 && lba < t.PregapLBA {
			t.PregapLBA = lba
			for j := range t.Indices {
				if t.Indices[j].Number == 0 {
					t.Indices[j].LBA = lba
				}
			}
			if trackIdx > 0 {
				prev := &disc.Tracks[trackIdx-1]
				if prev.EndLBA >= lba {
					prev.EndLBA = lba - 1
				}
			}
		}

		prevIndex, seen := lastIndexByTrack[frame.TrackNumber]
		lastIndexByTrack[frame.TrackNumber] = frame.IndexNumber

		if seen && prevIndex == 0 && frame.IndexNumber == 1 {
			if lba < t.StartLBA || t.StartLBA == t.PregapLBA {
				t.StartLBA = lba
				for j := range t.Indices {
					if t.Indices[j].Number == 1 {
						t.Indices[j].LBA = lba
					}
				}
			}
		}
	}
}

func trackPositionOf(disc *discmodel.DiscInfo, number int) int {
	for i := range disc.Tracks {
		if disc.Tracks[i].Number == number {
			return i
		}
	}
	return -1
}
