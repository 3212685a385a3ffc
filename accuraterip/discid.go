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

// Package accuraterip implements the disc-identifier derivation, the v1/v2
// block-weighted CRC algorithms, and the AccurateRip database lookup/
// verification loop.
package accuraterip

import (
	"fmt"

	"github.com/bitexact/audiocopy/discmodel"
)

// MaxTracks is the largest track count the AccurateRip protocol's
// zero-padded two-digit track-count field can encode.
const MaxTracks = 99

// DiscIDs is the triad of identifiers AccurateRip uses to locate a pressing
// in its database.
type DiscIDs struct {
	ID1    uint32
	ID2    uint32
	CDDBID uint32
}

// ComputeDiscIDs derives the AR-ID1/AR-ID2/FreeDB triad from a finalized
// DiscInfo. It rejects discs with more than MaxTracks audio tracks.
func ComputeDiscIDs(disc discmodel.DiscInfo) (DiscIDs, error) {
	tracks := audioTracks(disc)
	if len(tracks) > MaxTracks {
		return DiscIDs{}, fmt.Errorf("accuraterip: %d tracks exceeds maximum of %d: %w", len(tracks), MaxTracks, ErrInvalidInput)
	}
	if len(tracks) == 0 {
		return DiscIDs{}, fmt.Errorf("accuraterip: disc has no audio tracks: %w", ErrInvalidInput)
	}

	var id1, id2 uint32
	for _, t := range tracks {
		start := uint32(t.StartLBA) //nolint:gosec // LBA values are disc-bounded
		id1 += start
		id2 += start * uint32(max(t.Number, 1)) //nolint:gosec // track numbers are disc-bounded
	}
	id1 += uint32(disc.LeadOutLBA) //nolint:gosec // LBA values are disc-bounded
	id2 += uint32(disc.LeadOutLBA) * uint32(len(tracks))

	cddbID := freedbID(disc, tracks)

	return DiscIDs{ID1: id1, ID2: id2, CDDBID: cddbID}, nil
}

// freedbID computes the FreeDB/CDDB disc ID: checksum of per-track start
// times in seconds (summed digits mod 0xFF) in the top byte, total seconds
// in the middle two bytes, track count in the low byte.
func freedbID(disc discmodel.DiscInfo, tracks []discmodel.Track) uint32 {
	var checksum uint32
	for _, t := range tracks {
		checksum += digitSum(uint32(t.StartLBA+150) / 75) //nolint:gosec // LBA values are disc-bounded
	}

	firstStart := uint32(tracks[0].StartLBA+150) / 75 //nolint:gosec // LBA values are disc-bounded
	leadOutSeconds := uint32(disc.LeadOutLBA+150) / 75 //nolint:gosec // LBA values are disc-bounded
	totalSeconds := leadOutSeconds - firstStart

	return ((checksum % 0xFF) << 24) | (totalSeconds << 8) | uint32(len(tracks)) //nolint:gosec // track counts are disc-bounded
}

func digitSum(n uint32) uint32 {
	var sum uint32
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

func audioTracks(disc discmodel.DiscInfo) []discmodel.Track {
	var out []discmodel.Track
	for _, t := range disc.Tracks {
		if t.IsAudio {
			out = append(out, t)
		}
	}
	return out
}
