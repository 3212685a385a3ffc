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

package secureread

import (
	"context"
	"fmt"

	"github.com/bitexact/audiocopy/discmodel"
)

// ReadDiscSecure is the public, disc-wide rip operation: it rips every
// track of disc with cfg, then applies the configured read offset
// across the whole disc-wide concatenated stream, treating the disc as
// one stream before re-slicing it into per-track buffers so a shift near
// a track boundary is handled correctly, before handing each track's
// corrected TrackAudio back to the caller. The engine takes an exclusive
// mutable borrow of disc for the duration of the call, returning
// ownership via the TrackAudio results rather than leaving an ambient
// alias.
func (e *Engine) ReadDiscSecure(ctx context.Context, disc *discmodel.DiscInfo, cfg discmodel.SecureRipConfig, progress ProgressFunc) (map[int]*discmodel.TrackAudio, []discmodel.SecureRipResult, error) {
	if len(disc.Tracks) == 0 {
		return nil, nil, fmt.Errorf("secureread: disc has no tracks")
	}

	rawByTrack := make(map[int][]byte, len(disc.Tracks))
	lengths := make([]int, len(disc.Tracks))
	var order []int
	var results []discmodel.SecureRipResult
	var subByTrack map[int][]byte

	for i, track := range disc.Tracks {
		audio, result, err := e.ReadTrackSecure(ctx, track, cfg, progress)
		results = append(results, result)
		if err != nil {
			return nil, results, fmt.Errorf("secureread: track %d: %w", track.Number, err)
		}
		rawByTrack[track.Number] = audio.Samples
		lengths[i] = len(audio.Samples)
		order = append(order, track.Number)
		if audio.Subchannel != nil {
			if subByTrack == nil {
				subByTrack = make(map[int][]byte)
			}
			subByTrack[track.Number] = audio.Subchannel
		}
	}

	var streams []TrackSamples
	for _, num := range order {
		streams = append(streams, TrackSamples{TrackNumber: num, Samples: rawByTrack[num]})
	}
	discWide := ConcatenateTracks(streams)
	corrected := ApplyReadOffset(discWide, cfg.ReadOffsetSamples)
	sliced := SplitByLengths(corrected, lengths)

	out := make(map[int]*discmodel.TrackAudio, len(order))
	for i, num := range order {
		out[num] = &discmodel.TrackAudio{
			Samples:    sliced[i],
			Subchannel: subByTrack[num],
		}
	}

	return out, results, nil
}
