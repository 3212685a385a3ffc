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

// bytesPerStereoSample is the size of one interleaved L16R16 stereo sample.
const bytesPerStereoSample = 4

// ApplyReadOffset shifts a disc-wide concatenated sample stream by
// offsetSamples stereo samples: positive discards N samples from the
// start and appends N zero samples at the end; negative is the mirror
// image. The shift is applied before slicing back into per-track files
// so a sample landing in one track's pregap is placed in the adjacent
// track when appropriate.
func ApplyReadOffset(stream []byte, offsetSamples int) []byte {
	if offsetSamples == 0 {
		return stream
	}

	shiftBytes := offsetSamples * bytesPerStereoSample
	out := make([]byte, len(stream))

	if shiftBytes > 0 {
		if shiftBytes >= len(stream) {
			return out // entirely discarded
		}
		copy(out, stream[shiftBytes:])
		// trailing shiftBytes of out are already zero
		return out
	}

	drop := -shiftBytes
	if drop >= len(stream) {
		return out
	}
	copy(out[drop:], stream[:len(stream)-drop])
	return out
}

// ConcatenateTracks builds the single disc-wide stream that offset
// correction operates over, in ascending track order.
func ConcatenateTracks(tracks []TrackSamples) []byte {
	total := 0
	for _, t := range tracks {
		total += len(t.Samples)
	}
	out := make([]byte, 0, total)
	for _, t := range tracks {
		out = append(out, t.Samples...)
	}
	return out
}

// TrackSamples pairs a track's ripped bytes with its position so the
// disc-wide stream can be reassembled and re-sliced.
type TrackSamples struct {
	TrackNumber int
	Samples     []byte
}

// SplitByLengths slices a disc-wide stream back into per-track buffers of
// the given byte lengths, in order.
func SplitByLengths(stream []byte, lengths []int) [][]byte {
	out := make([][]byte, len(lengths))
	offset := 0
	for i, l := range lengths {
		end := offset + l
		if end > len(stream) {
			end = len(stream)
		}
		buf := make([]byte, l)
		if offset < len(stream) {
			copy(buf, stream[offset:end])
		}
		out[i] = buf
		offset += l
	}
	return out
}
