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
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bitexact/audiocopy/cuesheet"
	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/mmc"
	"github.com/bitexact/audiocopy/transport"
	"github.com/bitexact/audiocopy/writepipeline"
)

// cmdBurn drives the DAO-96 raw write pipeline against a
// prepared bin/cue/(sub) set: blank (if requested), upload the cue sheet
// and CD-Text packs, burn every track, and close the session.
func cmdBurn(args []string) int {
	fs := flag.NewFlagSet("burn", flag.ExitOnError)
	devicePath := fs.String("device", "", "path to the drive's pass-through device (required)")
	cuePath := fs.String("cue", "", "path to the prepared .cue file (required)")
	blank := fs.Bool("blank", false, "blank the disc before writing (CD-RW only)")
	blankFull := fs.Bool("blank-full", false, "use a full blank instead of minimal (implies -blank)")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *devicePath == "" || *cuePath == "" {
		fmt.Fprintln(os.Stderr, "Error: -device and -cue are required")
		return 1
	}

	sheet, err := cuesheet.ParseFile(*cuePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cue sheet: %v\n", err)
		return 1
	}

	binPath := sheet.BinFile
	if !filepath.IsAbs(binPath) {
		binPath = filepath.Join(filepath.Dir(*cuePath), filepath.Base(binPath))
	}
	binInfo, err := os.Stat(binPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot stat bin file %s: %v\n", binPath, err)
		return 1
	}
	binSectors := int32(binInfo.Size() / discmodel.BytesPerSector)

	disc, err := sheet.ToDiscInfo(binSectors)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cue to disc model: %v\n", err)
		return 1
	}
	if err := disc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: disc layout invalid: %v\n", err)
		return 1
	}

	trackData, err := loadBurnTrackData(disc, binPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading track data: %v\n", err)
		return 1
	}

	dev, err := openDevice(*devicePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening device: %v\n", err)
		return 1
	}
	txDrive := transport.Open(dev)
	defer func() { _ = txDrive.Close() }()
	drive := mmc.New(txDrive)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Hour)
	defer cancel()

	pipeline := writepipeline.New(drive)
	if err := pipeline.Inspect(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if *blank || *blankFull {
		bt := writepipeline.BlankTypeMinimal
		if *blankFull {
			bt = writepipeline.BlankTypeFull
		}
		if err := pipeline.Blank(ctx, bt, false); err != nil {
			fmt.Fprintf(os.Stderr, "Error blanking disc: %v\n", err)
			return 1
		}
	}
	if err := pipeline.LoadCue(ctx, disc); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cue sheet: %v\n", err)
		return 1
	}
	progress := func(p writepipeline.Progress) {
		fmt.Printf("\rtrack %d: %d/%d sectors", p.TrackNumber, p.SectorsWritten, p.SectorsTotal)
	}
	if err := pipeline.WriteTracks(ctx, disc.Tracks[0].PregapLBA, trackData, progress); err != nil {
		fmt.Println()
		fmt.Fprintf(os.Stderr, "Error writing tracks: %v\n", err)
		return 1
	}
	fmt.Println()
	if err := pipeline.Close(ctx, 0); err != nil {
		fmt.Fprintf(os.Stderr, "Error closing session: %v\n", err)
		return 1
	}

	fmt.Println("burn complete")
	return 0
}

// loadBurnTrackData reads binPath (and its sibling .sub file, if present)
// and interleaves them into the mmc.RawSectorSize-per-sector layout
// WriteTracks requires: 2352 bytes of CDDA audio followed by 96 bytes of
// P-W subchannel per sector. A disc written without a captured .sub gets a
// zero-filled subchannel, matching the "P-W deinterleaved otherwise"
// fallback (the zero fill stands in for silence since this
// driver writes raw P-W, not synthesized deinterleaved subchannel).
func loadBurnTrackData(disc discmodel.DiscInfo, binPath string) ([][]byte, error) {
	bin, err := os.ReadFile(binPath) //nolint:gosec // path resolved from a user-supplied cue sheet by design
	if err != nil {
		return nil, fmt.Errorf("read bin: %w", err)
	}

	subPath := binPath[:len(binPath)-len(filepath.Ext(binPath))] + ".sub"
	sub, _ := os.ReadFile(subPath) //nolint:gosec,errcheck // optional raw subchannel capture

	binStart := disc.Tracks[0].PregapLBA
	out := make([][]byte, 0, len(disc.Tracks))
	for _, t := range disc.Tracks {
		sectors := int(t.SectorCount())
		binOff := int64(t.PregapLBA-binStart) * discmodel.BytesPerSector
		binEnd := binOff + int64(sectors)*discmodel.BytesPerSector
		if binEnd > int64(len(bin)) {
			return nil, fmt.Errorf("track %d extends past end of bin file", t.Number)
		}
		audio := bin[binOff:binEnd]

		raw := make([]byte, sectors*mmc.RawSectorSize)
		subOff := int64(t.PregapLBA-binStart) * discmodel.SubchannelBytesPerSector
		for s := 0; s < sectors; s++ {
			copy(raw[s*mmc.RawSectorSize:], audio[s*discmodel.BytesPerSector:(s+1)*discmodel.BytesPerSector])
			subStart := subOff + int64(s)*discmodel.SubchannelBytesPerSector
			subEnd := subStart + discmodel.SubchannelBytesPerSector
			if sub != nil && subEnd <= int64(len(sub)) {
				copy(raw[s*mmc.RawSectorSize+discmodel.BytesPerSector:], sub[subStart:subEnd])
			}
		}
		out = append(out, raw)
	}
	return out, nil
}
