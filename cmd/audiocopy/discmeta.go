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

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/mmc"
	"github.com/bitexact/audiocopy/toc"
)

// pregapScanWindow is how many sectors before a track's INDEX 01 start the
// Q-subchannel pregap scan covers (two seconds of audio; pregaps are
// conventionally two seconds, and anything longer still announces itself
// inside the window's index-0 frames).
const pregapScanWindow = 150

// qFrameSize is the Q data portion of the formatted-Q subchannel block READ
// CD returns per sector: 10 data bytes plus the 2-byte CRC, with the
// remaining 4 bytes of the 16-byte block reserved.
const qFrameSize = 12

// hiddenScanSpeedKB is the advisory read speed for the hidden-audio scan,
// roughly 4x (176.4 kB/s per 1x); the lead-in edge of a disc reads more
// reliably slowly.
const hiddenScanSpeedKB = 706

// enrichDiscModel fills in everything the format-0 TOC cannot provide:
// Q-subchannel-refined pregap boundaries, CD-Text, the media catalog
// number, per-track ISRCs, and hidden audio before track 1 or after the
// last track. Every step is best-effort: a failure leaves that field at
// its TOC-derived value and prints a warning, since a rip with a coarse
// model is still a rip.
func enrichDiscModel(ctx context.Context, drive *mmc.Drive, disc *discmodel.DiscInfo) {
	refinePregapsFromQ(ctx, drive, disc)
	readCDText(ctx, drive, disc)
	readCatalogAndISRCs(ctx, drive, disc)
	detectHiddenAudio(ctx, drive, disc)
}

// refinePregapsFromQ reads the formatted-Q subchannel over a window before
// each track's reported start and lets the Q decoder move the pregap and
// main-start boundaries to where the index frames actually put them.
func refinePregapsFromQ(ctx context.Context, drive *mmc.Drive, disc *discmodel.DiscInfo) {
	const sectorLen = mmc.CDDASize + 16

	for i := range disc.Tracks {
		t := disc.Tracks[i]
		windowStart := t.StartLBA - pregapScanWindow
		if i > 0 && windowStart <= disc.Tracks[i-1].StartLBA {
			windowStart = disc.Tracks[i-1].StartLBA + 1
		}
		if windowStart < 0 {
			windowStart = 0
		}
		// One sector past the reported start so the 0-to-1 index
		// transition itself lands inside the window.
		count := t.StartLBA - windowStart + 2
		if count <= 1 {
			continue
		}

		raw, err := drive.ReadCD(ctx, windowStart, uint32(count), mmc.SectorTypeCDDA, mmc.SubchannelQOnly)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: pregap scan for track %d: %v\n", t.Number, err)
			continue
		}

		frames := make([][]byte, 0, count)
		for s := 0; s < int(count); s++ {
			off := s*sectorLen + mmc.CDDASize
			frames = append(frames, raw[off:off+qFrameSize])
		}
		toc.RefinePregaps(disc, windowStart, frames)
	}
}

// readCDText pulls the CD-Text packs out of the lead-in and spreads the
// decoded titles and performers over the disc model, where the cue writer
// and the CD-Text burn path pick them up.
func readCDText(ctx context.Context, drive *mmc.Drive, disc *discmodel.DiscInfo) {
	data, err := drive.ReadTOC(ctx, mmc.TOCFormatCDText, 0, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: CD-Text read: %v\n", err)
		return
	}
	if len(data) <= 4 {
		return // no CD-Text on this disc
	}

	text, err := toc.DecodeCDText(data[4:], len(disc.Tracks))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: CD-Text decode: %v\n", err)
		return
	}
	disc.Text = text

	for i := range disc.Tracks {
		n := disc.Tracks[i].Number
		if n >= 1 && n <= len(text.TrackTitles) {
			disc.Tracks[i].Title = text.TrackTitles[n-1]
		}
		if n >= 1 && n <= len(text.TrackArtists) {
			disc.Tracks[i].Artist = text.TrackArtists[n-1]
		}
	}
}

// readCatalogAndISRCs fetches the disc's media catalog number and each
// audio track's ISRC over READ SUB-CHANNEL. Both decoders already treat an
// unset validity bit as "none recorded", so only transport failures warn.
func readCatalogAndISRCs(ctx context.Context, drive *mmc.Drive, disc *discmodel.DiscInfo) {
	sub, err := drive.ReadSubChannel(ctx, mmc.SubQFormatMCN, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: media catalog number read: %v\n", err)
	} else {
		disc.MCN = toc.ParseMCN(sub.Data)
	}

	for i := range disc.Tracks {
		t := &disc.Tracks[i]
		if !t.IsAudio {
			continue
		}
		sub, err := drive.ReadSubChannel(ctx, mmc.SubQFormatISRC, byte(t.Number))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ISRC read for track %d: %v\n", t.Number, err)
			continue
		}
		t.ISRC = toc.ParseISRC(sub.Data)
	}
}

// detectHiddenAudio scans the lead-in region before track 1 and the gap
// after the last track for non-silent audio, at a throttled speed, and
// restores the drive's default speed afterwards. A positive find extends
// track 1's pregap to LBA 0, so the subsequent secure read captures the
// hidden audio at the head of the bin.
func detectHiddenAudio(ctx context.Context, drive *mmc.Drive, disc *discmodel.DiscInfo) {
	fetch := func(lba, count int32) ([]byte, error) {
		return drive.ReadCD(ctx, lba, uint32(count), mmc.SectorTypeCDDA, mmc.SubchannelNone)
	}

	_ = drive.SetSpeed(ctx, hiddenScanSpeedKB, 0)
	if err := toc.DetectHiddenTrack(disc, fetch); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: hidden-track scan: %v\n", err)
	}
	if err := toc.DetectHiddenLastTrack(disc, fetch); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: trailing hidden-audio scan: %v\n", err)
	}
	_ = drive.SetSpeed(ctx, 0, 0)
}
