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

package scan

import (
	"context"
	"fmt"

	"github.com/bitexact/audiocopy/mmc"
)

// F1F2Fetch retrieves raw F1/F2 frame error counts from a drive-specific
// extension. Most drives do not expose this; a nil fetch means "unavailable"
// and BLERAggregator degrades to a C2-derived estimate.
type F1F2Fetch func(ctx context.Context, lba int32) (blockErrors int, ok bool, err error)

// BLERAggregator estimates block-error-rate per sector. When frames is
// non-nil and reports ok=true for a sector, that drive-native count is
// used; otherwise the estimate is derived from the C2 error count and the
// row is labeled "C2-derived" so a reader knows the number is an estimate,
// not a native BLER reading.
type BLERAggregator struct {
	frames F1F2Fetch
	rows   []Row
}

// NewBLERAggregator constructs a BLER aggregator. frames may be nil.
func NewBLERAggregator(frames F1F2Fetch) *BLERAggregator {
	return &BLERAggregator{frames: frames}
}

func (a *BLERAggregator) Columns() []string { return []string{"lba", "bler_estimate", "source"} }

func (a *BLERAggregator) Rows() []Row { return a.rows }

// Observe implements Aggregator. BLER needs the drive-native frame fetch
// (not exposed by the generic Sample), so NewBLERScan wires a SectorFetch
// that records the F1/F2 result in the Sample's unexported nativeBLER and
// nativeBLERValue fields before calling Observe; without them the row falls
// back to C2ErrorCount. See NewBLERScan.
func (a *BLERAggregator) Observe(s Sample) {
	source := "C2-derived"
	value := s.C2ErrorCount
	if s.nativeBLER {
		source = "native"
		value = s.nativeBLERValue
	}
	a.rows = append(a.rows, Row{fmt.Sprintf("%d", s.LBA), fmt.Sprintf("%d", value), source})
}

// NewBLERScan returns the SectorFetch and aggregator pair for a BLER scan.
// When frames is nil (no drive extension available), every row degrades to
// the C2-derived estimate and its source column is labeled accordingly.
func NewBLERScan(drive *mmc.Drive, frames F1F2Fetch) (SectorFetch, *BLERAggregator) {
	base := fetchSectorWithC2(drive)
	fetch := func(ctx context.Context, lba int32) (Sample, error) {
		sample, err := base(ctx, lba)
		if err != nil {
			return Sample{}, err
		}
		if frames != nil {
			if v, ok, ferr := frames(ctx, lba); ferr == nil && ok {
				sample.nativeBLER = true
				sample.nativeBLERValue = v
			}
		}
		return sample, nil
	}
	return fetch, NewBLERAggregator(frames)
}
