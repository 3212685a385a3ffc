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
	"errors"
	"testing"

	"github.com/bitexact/audiocopy/accuraterip"
	"github.com/bitexact/audiocopy/discmodel"
)

// canonicalThreeTrackDisc builds a reference disc: track 1
// pregap 0 start 150 end 7499; track 2 start 7500 end 14999; track 3 start
// 15000 end 22499; leadOut 22500.
func canonicalThreeTrackDisc() discmodel.DiscInfo {
	return discmodel.DiscInfo{
		FirstTrack: 1,
		LastTrack:  3,
		LeadOutLBA: 22500,
		Tracks: []discmodel.Track{
			{Number: 1, IsAudio: true, PregapLBA: 0, StartLBA: 150, EndLBA: 7499},
			{Number: 2, IsAudio: true, PregapLBA: 7500, StartLBA: 7500, EndLBA: 14999},
			{Number: 3, IsAudio: true, PregapLBA: 15000, StartLBA: 15000, EndLBA: 22499},
		},
	}
}

func TestComputeDiscIDs_ScenarioA(t *testing.T) {
	t.Parallel()

	ids, err := accuraterip.ComputeDiscIDs(canonicalThreeTrackDisc())
	if err != nil {
		t.Fatalf("ComputeDiscIDs() error = %v", err)
	}

	if ids.ID1 != 45150 {
		t.Errorf("ID1 = %d, want 45150", ids.ID1)
	}
	if ids.ID2 != 127650 {
		t.Errorf("ID2 = %d, want 127650", ids.ID2)
	}
}

func TestComputeDiscIDs_TooManyTracks(t *testing.T) {
	t.Parallel()

	disc := discmodel.DiscInfo{LeadOutLBA: 1000}
	for i := 1; i <= accuraterip.MaxTracks+1; i++ {
		disc.Tracks = append(disc.Tracks, discmodel.Track{
			Number: i, IsAudio: true, StartLBA: int32(i * 10), EndLBA: int32(i*10 + 9),
		})
	}

	_, err := accuraterip.ComputeDiscIDs(disc)
	if !errors.Is(err, accuraterip.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestComputeDiscIDs_NoAudioTracks(t *testing.T) {
	t.Parallel()

	disc := discmodel.DiscInfo{
		LeadOutLBA: 1000,
		Tracks: []discmodel.Track{
			{Number: 1, IsAudio: false, StartLBA: 150, EndLBA: 999},
		},
	}

	_, err := accuraterip.ComputeDiscIDs(disc)
	if !errors.Is(err, accuraterip.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
