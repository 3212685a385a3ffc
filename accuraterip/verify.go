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

// TrackResult records the outcome of matching one local track CRC against
// every returned pressing.
type TrackResult struct {
	TrackNumber int
	LocalCRCv1  uint32
	LocalCRCv2  uint32

	// Matched is true if LocalCRCv1 or LocalCRCv2 equalled some pressing's
	// entry for this track.
	Matched bool

	// Confidence is the matched pressing entry's submission count, or 0
	// if Matched is false.
	Confidence int

	// PressingIndex is the 0-based index into the Pressings slice passed
	// to Verify that produced the match, or -1 if unmatched.
	PressingIndex int
}

// Result is the outcome of verifying every track of a rip against the
// AccurateRip database.
type Result struct {
	Tracks []TrackResult

	// Accurate is true iff every track matched some pressing.
	Accurate bool
}

// LocalCRC is one ripped track's locally computed checksums, in track
// order matching the Pressings' track-count-ordered entries.
type LocalCRC struct {
	TrackNumber int
	CRCv1       uint32
	CRCv2       uint32
}

// Verify matches each local track CRC against every pressing returned by
// the database and records, per track, whether any pressing agreed and
// what confidence that pressing carries.
//
// A pressing whose track count differs from the local rip is skipped for
// matching and is not fatal; Verify itself never reports on mismatched
// pressings (the audiocopy command logs them before calling Verify).
func Verify(local []LocalCRC, pressings []Pressing) Result {
	result := Result{Accurate: true}

	for _, track := range local {
		tr := TrackResult{
			TrackNumber:   track.TrackNumber,
			LocalCRCv1:    track.CRCv1,
			LocalCRCv2:    track.CRCv2,
			PressingIndex: -1,
		}

		idx := track.TrackNumber - 1
		for pi, pressing := range pressings {
			if pressing.TrackCount != len(local) {
				continue
			}
			if idx < 0 || idx >= len(pressing.Tracks) {
				continue
			}
			entry := pressing.Tracks[idx]
			if entry.CRC == track.CRCv1 || entry.CRC == track.CRCv2 {
				tr.Matched = true
				tr.Confidence = entry.Confidence
				tr.PressingIndex = pi
				break
			}
		}

		if !tr.Matched {
			result.Accurate = false
		}
		result.Tracks = append(result.Tracks, tr)
	}

	return result
}
