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

import "github.com/bitexact/audiocopy/discmodel"

// HiddenAudioScanWindow is the sector cap on a single hidden-track scan,
// mirroring a conservative 75-sector (one second) lead-in scan window.
const HiddenAudioScanWindow = 75

// SilenceThreshold is the per-channel sample magnitude below which a sector
// is considered silent.
const SilenceThreshold = 100

// scanHiddenAudio checks a run of 2352-byte sectors for non-silent audio,
// testing both the left and right 16-bit sample of every stereo frame, not
// just one channel. It returns true as soon as any
// frame exceeds SilenceThreshold on either channel.
func scanHiddenAudio(sectors []byte) bool {
	for frameOff := 0; frameOff+4 <= len(sectors); frameOff += 4 {
		left := int16(uint16(sectors[frameOff]) | uint16(sectors[frameOff+1])<<8)
		right := int16(uint16(sectors[frameOff+2]) | uint16(sectors[frameOff+3])<<8)
		if abs16(left) > SilenceThreshold || abs16(right) > SilenceThreshold {
			return true
		}
	}
	return false
}

func abs16(v int16) int {
	if v < 0 {
		return int(-v)
	}
	return int(v)
}

// DetectHiddenTrack examines the region before the first audio track's
// start (LBA 150 through track1.StartLBA, capped at HiddenAudioScanWindow
// sectors) using sectorsFetch, a caller-supplied function returning the raw
// 2352-byte-per-sector audio for [lba, lba+count). If non-silent audio is
// found, track 1's pregap is extended to LBA 0 and disc.HasHiddenTrack is
// set, so the rip begins at LBA 0 and captures the hidden audio. A disc
// whose first track already starts at or before LBA 150 is left untouched
// (nothing to scan).
func DetectHiddenTrack(disc *discmodel.DiscInfo, sectorsFetch func(lba int32, count int32) ([]byte, error)) error {
	if len(disc.Tracks) == 0 {
		return nil
	}
	track1 := &disc.Tracks[0]
	if track1.StartLBA <= 150 {
		return nil
	}

	scanEnd := track1.StartLBA
	if scanEnd-150 > HiddenAudioScanWindow {
		scanEnd = 150 + HiddenAudioScanWindow
	}

	data, err := sectorsFetch(150, scanEnd-150)
	if err != nil {
		return err
	}

	if scanHiddenAudio(data) {
		track1.PregapLBA = 0
		disc.HasHiddenTrack = true
		for i := range track1.Indices {
			if track1.Indices[i].Number == 0 {
				track1.Indices[i].LBA = 0
			}
		}
	}
	return nil
}

// DetectHiddenLastTrack applies the same check between the last track's
// end and the lead-out, for trailing hidden audio.
func DetectHiddenLastTrack(disc *discmodel.DiscInfo, sectorsFetch func(lba int32, count int32) ([]byte, error)) error {
	if len(disc.Tracks) == 0 {
		return nil
	}
	last := &disc.Tracks[len(disc.Tracks)-1]
	start := last.EndLBA + 1
	if start >= disc.LeadOutLBA {
		return nil
	}

	scanEnd := disc.LeadOutLBA
	if scanEnd-start > HiddenAudioScanWindow {
		scanEnd = start + HiddenAudioScanWindow
	}

	data, err := sectorsFetch(start, scanEnd-start)
	if err != nil {
		return err
	}

	if scanHiddenAudio(data) {
		disc.HasHiddenTrack = true
	}
	return nil
}
