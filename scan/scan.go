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

// Package scan implements the drive diagnostic scans: C2, BLER, Q-Check,
// disc-rot, and surface-map/balance. Every scan repeats the same
// per-sector read loop with a different read primitive and a different
// aggregation, so this package exposes one scan abstraction (Run)
// parameterized by a sector-fetch operation and a per-sector Aggregator,
// generalizing the chd.Codec registry pattern (chd/codec.go's name-keyed
// interface table) from decode codecs to scan kinds.
package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/bitexact/audiocopy/mmc"
	"github.com/bitexact/audiocopy/txerr"
)

// Type names one of the diagnostic scans.
type Type int

const (
	TypeC2 Type = iota
	TypeBLER
	TypeQCheck
	TypeDiscRot
	TypeSurfaceMap
	TypeBalance
)

func (t Type) String() string {
	switch t {
	case TypeC2:
		return "c2"
	case TypeBLER:
		return "bler"
	case TypeQCheck:
		return "qcheck"
	case TypeDiscRot:
		return "disc-rot"
	case TypeSurfaceMap:
		return "surface-map"
	case TypeBalance:
		return "balance"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Sample is one sector's raw observation, fed to an Aggregator by Run.
type Sample struct {
	LBA          int32
	C2ErrorCount int           // number of set bits in the 2352-bit C2 pointer bitmap
	ReadTime     time.Duration // wall-clock time the sector's read took

	// nativeBLER and nativeBLERValue carry a drive-native F1/F2 block-error
	// count when the BLER scan's extension fetch reports one; unexported
	// because only scan.BLERAggregator reads them, through the SectorFetch
	// NewBLERScan builds.
	nativeBLER      bool
	nativeBLERValue int
}

// Row is one CSV-able output row; Columns() on the owning Aggregator names
// the fields in the order they appear here.
type Row []string

// Aggregator accumulates Samples and renders them as CSV rows. Each scan
// type in this package supplies its own Aggregator; Run is agnostic to
// which one it drives.
type Aggregator interface {
	Columns() []string
	Observe(Sample)
	Rows() []Row
}

// SectorFetch reads one sector (plus C2 pointers when the scan needs them)
// and reports how long the read took; the fetch is the only piece that
// differs between scan types.
type SectorFetch func(ctx context.Context, lba int32) (Sample, error)

// ProgressFunc reports scan progress. It must not block.
type ProgressFunc func(done, total int)

// Result is a completed scan's output, ready for CSV rendering by a caller
// (e.g. through encoding/csv over an afero.Fs-backed file).
type Result struct {
	Type    Type
	Columns []string
	Rows    []Row
}

// Run drives the shared scan loop: fetch every sector from startLBA through
// endLBA (inclusive) in ascending order, feed each Sample to agg, and
// return the rendered rows. It is the one read loop every sibling scan in
// this package shares.
func Run(ctx context.Context, fetch SectorFetch, agg Aggregator, startLBA, endLBA int32, progress ProgressFunc) (Result, error) {
	if endLBA < startLBA {
		return Result{}, fmt.Errorf("scan: end lba %d before start lba %d: %w", endLBA, startLBA, txerr.ErrInvalidInput)
	}
	total := int(endLBA-startLBA) + 1

	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("scan: %w", txerr.ErrCancelled)
		}

		lba := startLBA + int32(i)
		sample, err := fetch(ctx, lba)
		if err != nil {
			return Result{}, fmt.Errorf("scan: fetch lba %d: %w", lba, err)
		}
		agg.Observe(sample)

		if progress != nil {
			progress(i+1, total)
		}
	}

	return Result{Columns: agg.Columns(), Rows: agg.Rows()}, nil
}

// popcountC2 counts the set bits across a 294-byte (2352-bit) C2 error
// pointer bitmap, one bit per byte of user data in the sector.
func popcountC2(c2 []byte) int {
	count := 0
	for _, b := range c2 {
		for b != 0 {
			count += int(b & 1)
			b >>= 1
		}
	}
	return count
}

// fetchSectorWithC2 is the common READ CD (C2-enabled) primitive the C2,
// BLER-degraded, and disc-rot scans all build their SectorFetch on.
func fetchSectorWithC2(drive *mmc.Drive) SectorFetch {
	return func(ctx context.Context, lba int32) (Sample, error) {
		start := time.Now()
		raw, err := drive.ReadCDWithC2(ctx, lba, 1)
		elapsed := time.Since(start)
		if err != nil {
			return Sample{}, err
		}
		c2 := raw[mmc.CDDASize:]
		return Sample{LBA: lba, C2ErrorCount: popcountC2(c2), ReadTime: elapsed}, nil
	}
}
