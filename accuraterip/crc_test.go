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
	"encoding/binary"
	"testing"

	"github.com/bitexact/audiocopy/accuraterip"
)

func makeSamples(n int) []byte {
	buf := make([]byte, n*4)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(i+1))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(i+2))
	}
	return buf
}

func TestCRCv1Deterministic(t *testing.T) {
	t.Parallel()

	samples := makeSamples(10000)
	a := accuraterip.CRCv1(samples, false, false)
	b := accuraterip.CRCv1(samples, false, false)
	if a != b {
		t.Errorf("CRCv1 not deterministic: %d != %d", a, b)
	}
}

func TestCRCv1DiffersFromCRCv2(t *testing.T) {
	t.Parallel()

	samples := makeSamples(10000)
	v1 := accuraterip.CRCv1(samples, false, false)
	v2 := accuraterip.CRCv2(samples, false, false)
	// Coincidental equality is astronomically unlikely for this input.
	if v1 == v2 {
		t.Errorf("expected CRCv1 and CRCv2 to differ, both = %d", v1)
	}
}

func TestCRCEdgeSkipChangesResult(t *testing.T) {
	t.Parallel()

	samples := makeSamples(10000)
	withSkip := accuraterip.CRCv1(samples, true, true)
	withoutSkip := accuraterip.CRCv1(samples, false, false)
	if withSkip == withoutSkip {
		t.Error("expected edge skip to change the CRC")
	}
}

func TestCRCShortTrackClampsSkip(t *testing.T) {
	t.Parallel()

	// Fewer samples than the combined first+last skip windows; the
	// implementation must not panic or skip negatively.
	samples := makeSamples(100)
	_ = accuraterip.CRCv1(samples, true, true)
	_ = accuraterip.CRCv2(samples, true, true)
}

func TestCRCv1KnownValue(t *testing.T) {
	t.Parallel()

	// Four stereo samples with left channel 1, 2, 3, 4 and a silent right
	// channel: CRC = 1*1 + 2*2 + 3*3 + 4*4 = 30.
	buf := make([]byte, 4*4)
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(i+1))
	}

	if got := accuraterip.CRCv1(buf, false, false); got != 30 {
		t.Errorf("CRCv1 = %d, want 30", got)
	}
}

func TestCRCv1FirstTrackWeightsRestartAfterSkip(t *testing.T) {
	t.Parallel()

	// A first track whose skipped zone is all zeros followed by three
	// samples 5, 6, 7: the weight counter restarts at 1 on the first
	// inner sample, so CRC = 1*5 + 2*6 + 3*7 = 38, not a sum weighted by
	// the samples' absolute track positions.
	const skip = 2939
	buf := make([]byte, (skip+3)*4)
	for i, v := range []uint16{5, 6, 7} {
		binary.LittleEndian.PutUint16(buf[(skip+i)*4:], v)
	}

	if got := accuraterip.CRCv1(buf, true, false); got != 38 {
		t.Errorf("CRCv1 = %d, want 38", got)
	}
	if got := accuraterip.CRCv2(buf, true, false); got != 38 {
		t.Errorf("CRCv2 = %d, want 38", got)
	}
}
