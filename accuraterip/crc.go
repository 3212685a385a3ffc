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

package accuraterip

import "encoding/binary"

// firstTrackSkip and lastTrackSkip are the stereo-sample counts excluded
// from the CRC at the start of the first audio track and the end of the
// last audio track, a concession to read-offset
// uncertainty near the disc edges.
const (
	firstTrackSkip = 2939
	lastTrackSkip  = 2941
)

// CRCv1 computes the AccurateRip v1 checksum of a track's stereo PCM
// samples. samples must be raw 2352-byte-sector-aligned interleaved
// 16-bit stereo audio (discmodel.TrackAudio.Samples' layout). isFirst and
// isLast control whether the edge-skip windows apply.
func CRCv1(samples []byte, isFirst, isLast bool) uint32 {
	n := len(samples) / 4
	skipStart, skipEnd := edgeSkip(n, isFirst, isLast)

	var crc uint32
	for i := skipStart; i < n-skipEnd; i++ {
		s := sampleAt(samples, i)
		// The weight counter restarts at 1 on the first sample of the
		// inner region, not at the track's absolute position.
		crc += uint32(i-skipStart+1) * s //nolint:gosec // sample index is track-bounded
	}
	return crc
}

// CRCv2 computes the AccurateRip v2 checksum, which folds the 64-bit
// product of (index+1)*sample back into 32 bits instead of truncating it.
func CRCv2(samples []byte, isFirst, isLast bool) uint32 {
	n := len(samples) / 4
	skipStart, skipEnd := edgeSkip(n, isFirst, isLast)

	var crc uint32
	for i := skipStart; i < n-skipEnd; i++ {
		s := uint64(sampleAt(samples, i))
		p := uint64(i-skipStart+1) * s //nolint:gosec // sample index is track-bounded
		crc += uint32(p&0xFFFFFFFF) + uint32(p>>32)
	}
	return crc
}

// edgeSkip returns the number of samples to exclude from the start and end
// of a track given its total sample count and edge membership, clamped so a
// short track never skips more samples than it has.
func edgeSkip(n int, isFirst, isLast bool) (int, int) {
	var start, end int
	if isFirst {
		start = firstTrackSkip
	}
	if isLast {
		end = lastTrackSkip
	}
	if start+end > n {
		start, end = 0, 0
	}
	return start, end
}

// sampleAt returns the unsigned 32-bit value (right<<16)|left for the
// stereo sample at index i.
func sampleAt(samples []byte, i int) uint32 {
	off := i * 4
	left := binary.LittleEndian.Uint16(samples[off : off+2])
	right := binary.LittleEndian.Uint16(samples[off+2 : off+4])
	return (uint32(right) << 16) | uint32(left)
}
