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

package writepipeline_test

import (
	"errors"
	"testing"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/writepipeline"
)

func twoTrackDisc() discmodel.DiscInfo {
	return discmodel.DiscInfo{
		FirstTrack: 1,
		LastTrack:  2,
		LeadOutLBA: 40000,
		Tracks: []discmodel.Track{
			{Number: 1, StartLBA: 0, EndLBA: 19999, PregapLBA: 0, IsAudio: true},
			{Number: 2, StartLBA: 20150, EndLBA: 39999, PregapLBA: 20000, IsAudio: true, CopyPermitted: true},
		},
	}
}

func TestBuildCueSheetNoTracks(t *testing.T) {
	t.Parallel()

	_, err := writepipeline.BuildCueSheet(discmodel.DiscInfo{})
	if !errors.Is(err, writepipeline.ErrNoTracks) {
		t.Errorf("expected ErrNoTracks, got %v", err)
	}
}

func TestBuildCueSheetEntryCount(t *testing.T) {
	t.Parallel()

	// lead-in + (pregap+index01 for track 2, index01-only for track 1) + lead-out
	// track 1 has no pregap (PregapLBA == StartLBA): 1 entry
	// track 2 has a pregap: 2 entries
	// total: 1 (lead-in) + 1 + 2 + 1 (lead-out) = 5
	cue, err := writepipeline.BuildCueSheet(twoTrackDisc())
	if err != nil {
		t.Fatalf("BuildCueSheet() error = %v", err)
	}

	const entrySize = 8
	if len(cue)%entrySize != 0 {
		t.Fatalf("cue sheet length %d is not a multiple of %d", len(cue), entrySize)
	}
	if got, want := len(cue)/entrySize, 5; got != want {
		t.Fatalf("got %d cue entries, want %d", got, want)
	}
}

func TestBuildCueSheetLeadInAndLeadOut(t *testing.T) {
	t.Parallel()

	cue, err := writepipeline.BuildCueSheet(twoTrackDisc())
	if err != nil {
		t.Fatalf("BuildCueSheet() error = %v", err)
	}

	leadIn := cue[0:8]
	if leadIn[1] != 0x00 {
		t.Errorf("lead-in track byte = %x, want 0x00", leadIn[1])
	}
	// lead-in absolute MSF is 00:00:00 (LBA -150).
	if leadIn[5] != 0x00 || leadIn[6] != 0x00 || leadIn[7] != 0x00 {
		t.Errorf("lead-in MSF = %x %x %x, want 00 00 00", leadIn[5], leadIn[6], leadIn[7])
	}

	leadOut := cue[len(cue)-8:]
	if leadOut[1] != 0xAA {
		t.Errorf("lead-out track byte = %x, want 0xAA", leadOut[1])
	}
}

func TestBuildCueSheetTrackControlBits(t *testing.T) {
	t.Parallel()

	cue, err := writepipeline.BuildCueSheet(twoTrackDisc())
	if err != nil {
		t.Fatalf("BuildCueSheet() error = %v", err)
	}

	// Track 2's entries (copy-permitted) start after the lead-in and
	// track 1's single entry: offset 16 (entry index 2).
	track2Entry := cue[16:24]
	if track2Entry[1] != 0x02 {
		t.Fatalf("expected track 2 entry at this offset, got track byte %x", track2Entry[1])
	}
	if track2Entry[0]&0x02 == 0 {
		t.Errorf("expected copy-permitted bit set in control byte %x", track2Entry[0])
	}
}

func TestBuildCueSheetInvalidTrack(t *testing.T) {
	t.Parallel()

	disc := discmodel.DiscInfo{
		Tracks: []discmodel.Track{
			{Number: 1, StartLBA: 100, EndLBA: 50}, // EndLBA before StartLBA
		},
	}
	_, err := writepipeline.BuildCueSheet(disc)
	if err == nil {
		t.Fatal("expected an error for an invalid track")
	}
}
