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

import (
	"bytes"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"

	"github.com/bitexact/audiocopy/discmodel"
)

const (
	packSize        = 18
	packHeaderSize  = 4
	packTextSize    = 12
	packTrailerSize = 2 // CRC

	packTypeTitle     = 0x80
	packTypePerformer = 0x81
)

// CDTextCharset is the character set announced by a CD-Text pack-0 header.
type CDTextCharset byte

const (
	CharsetASCII     CDTextCharset = 0x00
	CharsetISO8859_1 CDTextCharset = 0x00 // same code point; disambiguated by a block's language
	CharsetMSJIS     CDTextCharset = 0x01
	CharsetKorean    CDTextCharset = 0x02
)

func decoderFor(cs CDTextCharset) *encoding.Decoder {
	switch cs {
	case CharsetMSJIS:
		return japanese.ShiftJIS.NewDecoder()
	case CharsetKorean:
		return korean.EUCKR.NewDecoder()
	default:
		return charmap.ISO8859_1.NewDecoder()
	}
}

// DecodeCDText reassembles the CD-Text buffer (as returned by
// mmc.Drive.ReadTOC with TOCFormatCDText, header already stripped) into
// disc- and track-level text. The reassembly runs a "next track"
// counter per pack type, seeded from the first pack's header track-number
// byte, advanced on every NUL boundary found inside a pack's 12-byte
// payload. Track 0 is the disc-level album title/artist.
func DecodeCDText(buf []byte, trackCount int) (discmodel.CDText, error) {
	var text discmodel.CDText
	text.TrackTitles = make([]string, trackCount)
	text.TrackArtists = make([]string, trackCount)

	// nextTrack[0] tracks title packs (0x80), nextTrack[1] tracks
	// performer packs (0x81); -1 means "not yet seen".
	nextTrack := [2]int{-1, -1}
	var charset CDTextCharset

	var pending [2][]byte // bytes accumulated for the in-progress string, per pack type

	assign := func(kind int, trackNum int, raw []byte) {
		decoded, _ := decoderFor(charset).Bytes(raw)
		s := string(decoded)
		if trackNum == 0 {
			if kind == 0 {
				text.AlbumTitle = s
			} else {
				text.AlbumArtist = s
			}
			return
		}
		if trackNum-1 < 0 || trackNum-1 >= trackCount {
			return
		}
		if kind == 0 {
			text.TrackTitles[trackNum-1] = s
		} else {
			text.TrackArtists[trackNum-1] = s
		}
	}

	for off := 0; off+packSize <= len(buf); off += packSize {
		pack := buf[off : off+packSize]
		packType := pack[0]
		trackNum := int(pack[1] & 0x7F)
		payload := pack[packHeaderSize : packHeaderSize+packTextSize]

		var kind int
		switch packType {
		case packTypeTitle:
			kind = 0
		case packTypePerformer:
			kind = 1
		default:
			continue
		}

		if nextTrack[kind] == -1 {
			nextTrack[kind] = trackNum
			if off == 0 {
				charset = decodeCharsetFromHeader(pack)
			}
		}

		start := 0
		for i, b := range payload {
			if b == 0 {
				pending[kind] = append(pending[kind], payload[start:i]...)
				assign(kind, nextTrack[kind], pending[kind])
				pending[kind] = nil
				nextTrack[kind]++
				start = i + 1
			}
		}
		pending[kind] = append(pending[kind], payload[start:]...)
	}

	// Flush any trailing string that never hit a NUL terminator.
	for kind := range pending {
		if len(pending[kind]) > 0 {
			assign(kind, nextTrack[kind], pending[kind])
		}
	}

	return text, nil
}

func decodeCharsetFromHeader(firstPack []byte) CDTextCharset {
	if len(firstPack) < packHeaderSize {
		return CharsetASCII
	}
	// The block/charset nibble lives in the pack header's 4th byte;
	// unknown codes fall back to Latin-1 (CharsetASCII and
	// CharsetISO8859_1 share the zero value).
	return CDTextCharset(firstPack[3] & 0x0F)
}

// EncodeCDText re-encodes disc- and track-level text into a CD-Text pack
// stream mirroring the read format: 18-byte packs (4-byte header + 12-byte
// payload + 2-byte CRC-16 (poly 0x1021, inverted) over the 16 prior bytes), NUL-separated
// strings, counters restarting at track 0 for album-level text. Encoding
// the output of DecodeCDText reproduces a byte-identical stream for ASCII
// input.
func EncodeCDText(text discmodel.CDText) []byte {
	var out bytes.Buffer

	encodeKind := func(packType byte, album string, perTrack []string) {
		var payload []byte
		payload = append(payload, []byte(album)...)
		payload = append(payload, 0)
		for _, s := range perTrack {
			payload = append(payload, []byte(s)...)
			payload = append(payload, 0)
		}

		track := 0
		seq := byte(0)
		for off := 0; off < len(payload); off += packTextSize {
			end := off + packTextSize
			chunk := make([]byte, packTextSize)
			if end > len(payload) {
				end = len(payload)
			}
			copy(chunk, payload[off:end])

			// Track number for this pack is whichever logical track's
			// text the payload slice is currently inside (NUL-crossing
			// chunks keep the earlier track number, as the decoder only
			// advances on an observed NUL boundary).
			header := []byte{packType, byte(track), seq, 0}
			body := append(append([]byte{}, header...), chunk...)
			crc := crc16IBMSDLC(body)
			body = append(body, byte(crc>>8), byte(crc))
			out.Write(body)
			seq++

			for _, b := range payload[off:end] {
				if b == 0 {
					track++
				}
			}
		}
	}

	encodeKind(packTypeTitle, text.AlbumTitle, text.TrackTitles)
	encodeKind(packTypePerformer, text.AlbumArtist, text.TrackArtists)

	return out.Bytes()
}
