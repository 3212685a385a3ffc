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

package accuraterip_test

import (
	"testing"

	"github.com/bitexact/audiocopy/accuraterip"
)

// TestVerify_ScenarioE checks the partial-match case: three tracks, two
// pressings; local CRCs match pressing 2 for tracks 1 and 3, pressing 1 for
// track 2; overall accurate is true because every track matched some
// pressing.
func TestVerify_ScenarioE(t *testing.T) {
	t.Parallel()

	local := []accuraterip.LocalCRC{
		{TrackNumber: 1, CRCv1: 0xAAAA0001},
		{TrackNumber: 2, CRCv1: 0xBBBB0002},
		{TrackNumber: 3, CRCv1: 0xCCCC0003},
	}

	pressings := []accuraterip.Pressing{
		{ // pressing 1: matches only track 2
			TrackCount: 3,
			Tracks: []accuraterip.TrackEntry{
				{Confidence: 8, CRC: 0x11110001},
				{Confidence: 8, CRC: 0xBBBB0002},
				{Confidence: 8, CRC: 0x33330003},
			},
		},
		{ // pressing 2: matches tracks 1 and 3
			TrackCount: 3,
			Tracks: []accuraterip.TrackEntry{
				{Confidence: 15, CRC: 0xAAAA0001},
				{Confidence: 15, CRC: 0x22220002},
				{Confidence: 15, CRC: 0xCCCC0003},
			},
		},
	}

	result := accuraterip.Verify(local, pressings)

	if !result.Accurate {
		t.Error("expected overall Accurate = true")
	}
	if len(result.Tracks) != 3 {
		t.Fatalf("got %d track results, want 3", len(result.Tracks))
	}
	if result.Tracks[0].PressingIndex != 1 || result.Tracks[0].Confidence != 15 {
		t.Errorf("track 1: got pressing %d confidence %d, want pressing 1 confidence 15",
			result.Tracks[0].PressingIndex, result.Tracks[0].Confidence)
	}
	if result.Tracks[1].PressingIndex != 0 || result.Tracks[1].Confidence != 8 {
		t.Errorf("track 2: got pressing %d confidence %d, want pressing 0 confidence 8",
			result.Tracks[1].PressingIndex, result.Tracks[1].Confidence)
	}
	if result.Tracks[2].PressingIndex != 1 {
		t.Errorf("track 3: got pressing %d, want pressing 1", result.Tracks[2].PressingIndex)
	}
}

func TestVerify_NotAccurateWhenOneTrackUnmatched(t *testing.T) {
	t.Parallel()

	local := []accuraterip.LocalCRC{
		{TrackNumber: 1, CRCv1: 0x1},
		{TrackNumber: 2, CRCv1: 0xDEADBEEF}, // never matches
	}
	pressings := []accuraterip.Pressing{
		{TrackCount: 2, Tracks: []accuraterip.TrackEntry{
			{Confidence: 1, CRC: 0x1},
			{Confidence: 1, CRC: 0x2},
		}},
	}

	result := accuraterip.Verify(local, pressings)
	if result.Accurate {
		t.Error("expected overall Accurate = false")
	}
	if !result.Tracks[0].Matched {
		t.Error("expected track 1 to match")
	}
	if result.Tracks[1].Matched {
		t.Error("expected track 2 to not match")
	}
}

func TestVerify_SkipsTrackCountMismatchedPressing(t *testing.T) {
	t.Parallel()

	local := []accuraterip.LocalCRC{
		{TrackNumber: 1, CRCv1: 0xABCDEF01},
	}
	// A pressing for a different track count than the local rip is
	// logged and ignored, even
	// though the raw CRC value happens to collide.
	pressings := []accuraterip.Pressing{
		{TrackCount: 5, Tracks: []accuraterip.TrackEntry{
			{Confidence: 1, CRC: 0xABCDEF01},
		}},
	}

	result := accuraterip.Verify(local, pressings)
	if result.Accurate {
		t.Error("expected overall Accurate = false when no pressing track-count matches")
	}
}
