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

package writepipeline

import (
	"context"
	"fmt"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/mmc"
	"github.com/bitexact/audiocopy/toc"
)

// cdTextPackSize is the length in bytes of one CD-Text pack (4-byte
// header, 12-byte payload, 2-byte CRC-16 with poly 0x1021), matching the layout
// toc.DecodeCDText reads off a disc.
const cdTextPackSize = 18

// maxCDTextPacks is the largest pack count the CD-Text write-pack area
// can hold (MMC-5's CD-TEXT DATA field).
const maxCDTextPacks = 2048

// HasCDText reports whether disc carries any text worth writing.
func HasCDText(text discmodel.CDText) bool {
	if text.AlbumTitle != "" || text.AlbumArtist != "" {
		return true
	}
	for _, s := range text.TrackTitles {
		if s != "" {
			return true
		}
	}
	for _, s := range text.TrackArtists {
		if s != "" {
			return true
		}
	}
	return false
}

// BuildCDTextPacks re-encodes text into its write-pack byte stream via
// toc.EncodeCDText and checks it against the drive's pack-count ceiling.
func BuildCDTextPacks(text discmodel.CDText) ([]byte, error) {
	packs := toc.EncodeCDText(text)
	if n := len(packs) / cdTextPackSize; n > maxCDTextPacks {
		return nil, fmt.Errorf("writepipeline: CD-Text encodes to %d packs, exceeds the %d-pack limit", n, maxCDTextPacks)
	}
	return packs, nil
}

// LoadCue builds the SEND CUE SHEET payload for disc and uploads it. Most
// drives begin writing the lead-in as soon as the cue sheet is accepted,
// so a successful call also advances the pipeline to StateLeadInWritten.
//
// When disc carries CD-Text, the pack stream is delivered one of two ways
// depending on p.CDTextViaWriteBuffer: drives that accept CD-Text inline
// with SEND CUE SHEET read the track/index entries first and treat any
// trailing bytes as the CD-TEXT DATA block, so by default the packs are
// appended to the cue payload (the vendor convention most drives expect);
// a drive whose feature descriptor asks for WRITE BUFFER instead gets the
// pack stream uploaded separately via mmc.WriteBufferModeVendorSpecific
// after the cue sheet lands.
func (p *Pipeline) LoadCue(ctx context.Context, disc discmodel.DiscInfo) error {
	if err := p.step(StateCueLoaded); err != nil {
		return err
	}
	if len(disc.Tracks) == 0 {
		return p.fail(fmt.Errorf("writepipeline: load cue: %w", ErrNoTracks))
	}
	cueData, err := BuildCueSheet(disc)
	if err != nil {
		return p.fail(fmt.Errorf("writepipeline: build cue sheet: %w", err))
	}

	var textPacks []byte
	if HasCDText(disc.Text) {
		textPacks, err = BuildCDTextPacks(disc.Text)
		if err != nil {
			return p.fail(fmt.Errorf("writepipeline: build CD-Text packs: %w", err))
		}
		if p.CDTextViaWriteBuffer == nil || !p.CDTextViaWriteBuffer(ctx) {
			cueData = append(cueData, textPacks...)
			textPacks = nil
		}
	}

	if err := p.drive.SendCueSheet(ctx, cueData); err != nil {
		return p.fail(fmt.Errorf("writepipeline: send cue sheet: %w", err))
	}
	if len(textPacks) > 0 {
		if err := p.drive.WriteBuffer(ctx, mmc.WriteBufferModeVendorSpecific, textPacks); err != nil {
			return p.fail(fmt.Errorf("writepipeline: write buffer cd-text: %w", err))
		}
	}
	return p.step(StateLeadInWritten)
}
