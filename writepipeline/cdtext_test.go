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
	"testing"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/writepipeline"
)

func TestHasCDText(t *testing.T) {
	t.Parallel()

	if writepipeline.HasCDText(discmodel.CDText{}) {
		t.Error("empty CDText reported as present")
	}
	if !writepipeline.HasCDText(discmodel.CDText{AlbumTitle: "Moon Safari"}) {
		t.Error("album title alone should count as present")
	}
	if !writepipeline.HasCDText(discmodel.CDText{TrackTitles: []string{"", "Sexy Boy"}}) {
		t.Error("a single non-empty track title should count as present")
	}
}

func TestBuildCDTextPacks(t *testing.T) {
	t.Parallel()

	text := discmodel.CDText{
		AlbumTitle:  "Moon Safari",
		AlbumArtist: "Air",
		TrackTitles: []string{"La Femme d'Argent", "Sexy Boy"},
	}
	packs, err := writepipeline.BuildCDTextPacks(text)
	if err != nil {
		t.Fatalf("BuildCDTextPacks() error = %v", err)
	}
	if len(packs)%18 != 0 {
		t.Errorf("pack stream length %d is not a multiple of the 18-byte pack size", len(packs))
	}
}
