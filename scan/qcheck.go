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
	"github.com/bitexact/audiocopy/transport"
	"github.com/bitexact/audiocopy/txerr"
)

// plextorVendorOpcode is the vendor-specific READ CD-DA extension Plextor
// drives answer. The exact byte layout of the response varies across
// firmware revisions, so this scan only extracts the single quality byte
// every known revision agrees on (offset 0 of the vendor response), rather
// than guessing at the undocumented remainder.
const plextorVendorOpcode = 0xD8

// QCheckAggregator records the Plextor-only per-sector quality byte
// reported by the vendor extension.
type QCheckAggregator struct {
	rows []Row
}

// NewQCheckAggregator constructs an empty Q-Check aggregator.
func NewQCheckAggregator() *QCheckAggregator { return &QCheckAggregator{} }

func (a *QCheckAggregator) Columns() []string { return []string{"lba", "quality"} }
func (a *QCheckAggregator) Rows() []Row       { return a.rows }

func (a *QCheckAggregator) Observe(s Sample) {
	a.rows = append(a.rows, Row{fmt.Sprintf("%d", s.LBA), fmt.Sprintf("%d", s.C2ErrorCount)})
}

// IsPlextor reports whether the drive's INQUIRY vendor string identifies a
// Plextor unit, checked before attempting Q-Check.
func IsPlextor(vendor string) bool {
	return len(vendor) >= 7 && vendor[:7] == "PLEXTOR"
}

// NewQCheckScan returns the SectorFetch and aggregator for a Q-Check scan.
// If vendor does not identify a Plextor drive, it returns
// txerr.ErrFeatureUnsupported immediately without issuing any CDB, so the
// caller reports a feature-unsupported result instead of a failed scan.
func NewQCheckScan(drive *mmc.Drive, vendor string) (SectorFetch, *QCheckAggregator, error) {
	if !IsPlextor(vendor) {
		return nil, nil, fmt.Errorf("scan: qcheck on vendor %q: %w", vendor, txerr.ErrFeatureUnsupported)
	}

	fetch := func(ctx context.Context, lba int32) (Sample, error) {
		cdb := make(transport.CDB, 12)
		cdb[0] = plextorVendorOpcode
		cdb[2] = byte(lba >> 24)
		cdb[3] = byte(lba >> 16)
		cdb[4] = byte(lba >> 8)
		cdb[5] = byte(lba)
		cdb[8] = 1

		buf, err := drive.SendRaw(ctx, cdb, make([]byte, 1))
		if err != nil {
			return Sample{}, err
		}
		return Sample{LBA: lba, C2ErrorCount: int(buf[0])}, nil
	}
	return fetch, NewQCheckAggregator(), nil
}
