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

package toc_test

import (
	"testing"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/toc"
)

// fetchConstant returns a sector fetcher producing count sectors filled
// with the given 16-bit sample value on both channels.
func fetchConstant(sample int16) func(lba, count int32) ([]byte, error) {
	return func(lba, count int32) ([]byte, error) {
		buf := make([]byte, int(count)*2352)
		lo, hi := byte(uint16(sample)), byte(uint16(sample)>>8)
		for i := 0; i+4 <= len(buf); i += 4 {
			buf[i], buf[i+1] = lo, hi   // left
			buf[i+2], buf[i+3] = lo, hi // right
		}
		return buf, nil
	}
}

func hiddenTrackDisc() *discmodel.DiscInfo {
	return &discmodel.DiscInfo{
		FirstTrack: 1,
		LastTrack:  1,
		LeadOutLBA: 22500,
		Tracks: []discmodel.Track{{
			Number:    1,
			StartLBA:  450,
			PregapLBA: 450,
			EndLBA:    22499,
			IsAudio:   true,
			Indices: []discmodel.Index{
				{Number: 0, LBA: 450},
				{Number: 1, LBA: 450},
			},
		}},
	}
}

func TestDetectHiddenTrack_LoudPregapExtendsToZero(t *testing.T) {
	t.Parallel()

	disc := hiddenTrackDisc()

	var gotLBA, gotCount int32
	fetch := func(lba, count int32) ([]byte, error) {
		gotLBA, gotCount = lba, count
		return fetchConstant(500)(lba, count)
	}

	if err := toc.DetectHiddenTrack(disc, fetch); err != nil {
		t.Fatalf("DetectHiddenTrack() error = %v", err)
	}

	if !disc.HasHiddenTrack {
		t.Fatalf("HasHiddenTrack = false, want true")
	}
	if disc.Tracks[0].PregapLBA != 0 {
		t.Errorf("PregapLBA = %d, want 0", disc.Tracks[0].PregapLBA)
	}
	if disc.Tracks[0].StartLBA != 450 {
		t.Errorf("StartLBA = %d, want 450 (INDEX 01 must not move)", disc.Tracks[0].StartLBA)
	}
	if disc.Tracks[0].Indices[0].LBA != 0 {
		t.Errorf("index 0 LBA = %d, want 0", disc.Tracks[0].Indices[0].LBA)
	}

	// The scan starts at LBA 150 and is capped at the scan window.
	if gotLBA != 150 {
		t.Errorf("scan start LBA = %d, want 150", gotLBA)
	}
	if gotCount != toc.HiddenAudioScanWindow {
		t.Errorf("scan sector count = %d, want %d", gotCount, toc.HiddenAudioScanWindow)
	}
}

func TestDetectHiddenTrack_SilentPregapUntouched(t *testing.T) {
	t.Parallel()

	disc := hiddenTrackDisc()

	// Samples at exactly the threshold do not count as audio; detection
	// requires magnitudes strictly above it.
	if err := toc.DetectHiddenTrack(disc, fetchConstant(100)); err != nil {
		t.Fatalf("DetectHiddenTrack() error = %v", err)
	}

	if disc.HasHiddenTrack {
		t.Errorf("HasHiddenTrack = true for silent pregap")
	}
	if disc.Tracks[0].PregapLBA != 450 {
		t.Errorf("PregapLBA = %d, want 450", disc.Tracks[0].PregapLBA)
	}
}

func TestDetectHiddenTrack_NegativeSamplesCount(t *testing.T) {
	t.Parallel()

	disc := hiddenTrackDisc()

	if err := toc.DetectHiddenTrack(disc, fetchConstant(-500)); err != nil {
		t.Fatalf("DetectHiddenTrack() error = %v", err)
	}
	if !disc.HasHiddenTrack {
		t.Errorf("HasHiddenTrack = false for loud negative-phase audio")
	}
}

func TestDetectHiddenTrack_NothingToScan(t *testing.T) {
	t.Parallel()

	disc := &discmodel.DiscInfo{
		FirstTrack: 1,
		LastTrack:  1,
		LeadOutLBA: 22500,
		Tracks: []discmodel.Track{{
			Number: 1, StartLBA: 150, PregapLBA: 150, EndLBA: 22499, IsAudio: true,
		}},
	}

	called := false
	fetch := func(lba, count int32) ([]byte, error) {
		called = true
		return nil, nil
	}

	if err := toc.DetectHiddenTrack(disc, fetch); err != nil {
		t.Fatalf("DetectHiddenTrack() error = %v", err)
	}
	if called {
		t.Errorf("fetch called for a track starting at LBA 150")
	}
	if disc.HasHiddenTrack {
		t.Errorf("HasHiddenTrack = true, want false")
	}
}

func TestDetectHiddenLastTrack_TrailingAudio(t *testing.T) {
	t.Parallel()

	disc := &discmodel.DiscInfo{
		FirstTrack: 1,
		LastTrack:  1,
		LeadOutLBA: 22500,
		Tracks: []discmodel.Track{{
			Number: 1, StartLBA: 150, PregapLBA: 150, EndLBA: 22000, IsAudio: true,
		}},
	}

	var gotLBA int32
	fetch := func(lba, count int32) ([]byte, error) {
		gotLBA = lba
		return fetchConstant(2000)(lba, count)
	}

	if err := toc.DetectHiddenLastTrack(disc, fetch); err != nil {
		t.Fatalf("DetectHiddenLastTrack() error = %v", err)
	}
	if !disc.HasHiddenTrack {
		t.Errorf("HasHiddenTrack = false, want true")
	}
	if gotLBA != 22001 {
		t.Errorf("scan start LBA = %d, want 22001", gotLBA)
	}
}
