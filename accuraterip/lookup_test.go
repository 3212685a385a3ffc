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
	"errors"
	"testing"

	"github.com/bitexact/audiocopy/accuraterip"
)

func buildResponseBody(trackCount int, id1, id2, cddbID uint32, pressings [][]accuraterip.TrackEntry) []byte {
	var body []byte
	for _, pressing := range pressings {
		header := make([]byte, 13)
		header[0] = byte(trackCount)
		binary.LittleEndian.PutUint32(header[1:5], id1)
		binary.LittleEndian.PutUint32(header[5:9], id2)
		binary.LittleEndian.PutUint32(header[9:13], cddbID)
		body = append(body, header...)

		for _, entry := range pressing {
			rec := make([]byte, 9)
			rec[0] = byte(entry.Confidence)
			binary.LittleEndian.PutUint32(rec[1:5], entry.CRC)
			binary.LittleEndian.PutUint32(rec[5:9], entry.ZeroCRC)
			body = append(body, rec...)
		}
	}
	return body
}

func TestBuildURL(t *testing.T) {
	t.Parallel()

	ids := accuraterip.DiscIDs{ID1: 45150, ID2: 127650, CDDBID: 0x1234}
	url := accuraterip.BuildURL(ids, 3)

	if want := "dBAR-003-0000b05e-0001f2a2-00001234.bin"; !contains(url, want) {
		t.Errorf("BuildURL() = %q, want substring %q", url, want)
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && (func() bool {
		for i := 0; i+len(substr) <= len(s); i++ {
			if s[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	})()
}

func TestParseResponseSinglePressing(t *testing.T) {
	t.Parallel()

	body := buildResponseBody(2, 1, 2, 3, [][]accuraterip.TrackEntry{
		{
			{Confidence: 5, CRC: 0xAABBCCDD},
			{Confidence: 5, CRC: 0x11223344},
		},
	})

	pressings, err := accuraterip.ParseResponse(body)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if len(pressings) != 1 {
		t.Fatalf("got %d pressings, want 1", len(pressings))
	}
	if len(pressings[0].Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(pressings[0].Tracks))
	}
	if pressings[0].Tracks[0].CRC != 0xAABBCCDD {
		t.Errorf("track 0 CRC = %x, want AABBCCDD", pressings[0].Tracks[0].CRC)
	}
}

func TestParseResponseMultiplePressings(t *testing.T) {
	t.Parallel()

	body := buildResponseBody(2, 1, 2, 3, [][]accuraterip.TrackEntry{
		{{Confidence: 10, CRC: 0x1}, {Confidence: 10, CRC: 0x2}},
		{{Confidence: 3, CRC: 0x3}, {Confidence: 3, CRC: 0x4}},
	})

	pressings, err := accuraterip.ParseResponse(body)
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}
	if len(pressings) != 2 {
		t.Fatalf("got %d pressings, want 2", len(pressings))
	}
}

func TestParseResponseTruncated(t *testing.T) {
	t.Parallel()

	_, err := accuraterip.ParseResponse([]byte{1, 2, 3})
	if !errors.Is(err, accuraterip.ErrMalformedResponse) {
		t.Errorf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestFetchTooManyTracks(t *testing.T) {
	t.Parallel()

	_, err := accuraterip.Fetch(nil, accuraterip.DiscIDs{}, accuraterip.MaxTracks+1)
	if !errors.Is(err, accuraterip.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
