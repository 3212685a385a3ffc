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

package secureread_test

import (
	"bytes"
	"testing"

	"github.com/bitexact/audiocopy/secureread"
)

// TestApplyReadOffset_ScenarioC checks the positive-shift case: a 1000-sector
// track's post-correction content is the pre-correction content with the
// first 30 stereo samples (120 bytes) dropped from the stream head and 30
// stereo samples of zero appended at the tail.
func TestApplyReadOffset_ScenarioC(t *testing.T) {
	t.Parallel()

	const sectorBytes = 1000 * 2352
	stream := make([]byte, sectorBytes)
	for i := range stream {
		stream[i] = byte(i)
	}

	shifted := secureread.ApplyReadOffset(stream, 30)
	if len(shifted) != len(stream) {
		t.Fatalf("len(shifted) = %d, want %d", len(shifted), len(stream))
	}

	const shiftBytes = 30 * 4
	if !bytes.Equal(shifted[:len(stream)-shiftBytes], stream[shiftBytes:]) {
		t.Error("shifted head does not match the original stream with the first 120 bytes dropped")
	}
	for _, b := range shifted[len(stream)-shiftBytes:] {
		if b != 0 {
			t.Fatal("expected the trailing 120 bytes to be zero-padded")
		}
	}
}

// TestApplyReadOffset_Reversible checks that applying
// +N then -N recovers the original stream except for the first N samples,
// which become zero.
func TestApplyReadOffset_Reversible(t *testing.T) {
	t.Parallel()

	const n = 10
	stream := make([]byte, 2000*4)
	for i := range stream {
		stream[i] = byte(i + 1) // avoid zero bytes so we can tell edges apart
	}

	forward := secureread.ApplyReadOffset(stream, n)
	back := secureread.ApplyReadOffset(forward, -n)

	edge := n * 4
	if !bytes.Equal(back[edge:len(back)-edge], stream[edge:len(stream)-edge]) {
		t.Error("interior of the stream should be recovered exactly")
	}
	for _, b := range back[:edge] {
		if b != 0 {
			t.Error("expected the leading edge to be zeroed after the round trip")
			break
		}
	}
}

func TestApplyReadOffset_Zero(t *testing.T) {
	t.Parallel()

	stream := []byte{1, 2, 3, 4}
	if got := secureread.ApplyReadOffset(stream, 0); !bytes.Equal(got, stream) {
		t.Errorf("zero offset should return the stream unchanged, got %v", got)
	}
}

func TestConcatenateAndSplit_RoundTrip(t *testing.T) {
	t.Parallel()

	a := bytes.Repeat([]byte{0xAA}, 40)
	b := bytes.Repeat([]byte{0xBB}, 24)

	whole := secureread.ConcatenateTracks([]secureread.TrackSamples{
		{TrackNumber: 1, Samples: a},
		{TrackNumber: 2, Samples: b},
	})
	if len(whole) != len(a)+len(b) {
		t.Fatalf("len(whole) = %d, want %d", len(whole), len(a)+len(b))
	}

	parts := secureread.SplitByLengths(whole, []int{len(a), len(b)})
	if !bytes.Equal(parts[0], a) || !bytes.Equal(parts[1], b) {
		t.Error("SplitByLengths did not reconstruct the original per-track buffers")
	}
}
