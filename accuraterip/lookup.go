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

package accuraterip

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
)

// urlTemplate builds the AccurateRip lookup URL with a plain fmt.Sprintf,
// mirroring the hex-nibble-bucketed endpoint layout AccurateRip expects.
const urlTemplate = "https://www.accuraterip.com/accuraterip/%x/%x/%x/dBAR-%03d-%08x-%08x-%08x.bin"

// responseHeaderSize is the 13-byte header (track count, disc ID1, disc
// ID2, CDDB ID) preceding each pressing's per-track entries.
const responseHeaderSize = 13

// trackEntrySize is the 9-byte per-track-per-pressing record: confidence
// byte, CRC (4 bytes), zero-CRC indicator (4 bytes).
const trackEntrySize = 9

// BuildURL constructs the AccurateRip database URL for the given disc IDs
// and track count.
func BuildURL(ids DiscIDs, trackCount int) string {
	return fmt.Sprintf(urlTemplate,
		ids.ID1%16, ids.ID2%256, ids.CDDBID%256,
		trackCount, ids.ID1, ids.ID2, ids.CDDBID)
}

// TrackEntry is one track's record within one pressing.
type TrackEntry struct {
	Confidence int
	CRC        uint32
	ZeroCRC    uint32
	IsZeroCRC  bool
}

// Pressing is one submitted rip's set of per-track CRC records.
type Pressing struct {
	TrackCount int
	ID1        uint32
	ID2        uint32
	CDDBID     uint32
	Tracks     []TrackEntry
}

// Fetch downloads and parses the AccurateRip response for the given disc
// IDs and track count. A 404 is reported as ErrNoMatch, not a transport
// error.
func Fetch(client *http.Client, ids DiscIDs, trackCount int) ([]Pressing, error) {
	if trackCount > MaxTracks {
		return nil, fmt.Errorf("accuraterip: %d tracks exceeds maximum of %d: %w", trackCount, MaxTracks, ErrInvalidInput)
	}
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(BuildURL(ids, trackCount)) //nolint:gosec,noctx // AccurateRip URL is built from numeric disc IDs only
	if err != nil {
		return nil, fmt.Errorf("accuraterip: fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNoMatch
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("accuraterip: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("accuraterip: read response: %w", err)
	}

	return ParseResponse(body)
}

// ParseResponse decodes the AccurateRip binary response body into one
// Pressing per 13-byte-header block, each followed by trackCount 9-byte
// entries, repeated until the buffer is exhausted.
func ParseResponse(body []byte) ([]Pressing, error) {
	var pressings []Pressing

	for len(body) > 0 {
		if len(body) < responseHeaderSize {
			return nil, fmt.Errorf("accuraterip: truncated header: %w", ErrMalformedResponse)
		}

		trackCount := int(body[0])
		id1 := binary.LittleEndian.Uint32(body[1:5])
		id2 := binary.LittleEndian.Uint32(body[5:9])
		cddbID := binary.LittleEndian.Uint32(body[9:13])
		body = body[responseHeaderSize:]

		need := trackCount * trackEntrySize
		if len(body) < need {
			return nil, fmt.Errorf("accuraterip: truncated track entries: %w", ErrMalformedResponse)
		}

		pressing := Pressing{TrackCount: trackCount, ID1: id1, ID2: id2, CDDBID: cddbID}
		for i := 0; i < trackCount; i++ {
			entry := body[i*trackEntrySize : (i+1)*trackEntrySize]
			crc := binary.LittleEndian.Uint32(entry[1:5])
			zeroCRC := binary.LittleEndian.Uint32(entry[5:9])
			pressing.Tracks = append(pressing.Tracks, TrackEntry{
				Confidence: int(entry[0]),
				CRC:        crc,
				ZeroCRC:    zeroCRC,
				IsZeroCRC:  zeroCRC != 0,
			})
		}
		pressings = append(pressings, pressing)
		body = body[need:]
	}

	return pressings, nil
}
