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
	"fmt"

	"github.com/bitexact/audiocopy/mmc"
)

// SurfaceMapAggregator records per-sector read wall-clock time, the raw
// material a surface-map visualization is built from.
type SurfaceMapAggregator struct {
	rows []Row
}

// NewSurfaceMapAggregator constructs an empty surface-map aggregator.
func NewSurfaceMapAggregator() *SurfaceMapAggregator { return &SurfaceMapAggregator{} }

func (a *SurfaceMapAggregator) Columns() []string { return []string{"lba", "read_time_us"} }
func (a *SurfaceMapAggregator) Rows() []Row       { return a.rows }

func (a *SurfaceMapAggregator) Observe(s Sample) {
	a.rows = append(a.rows, Row{fmt.Sprintf("%d", s.LBA), fmt.Sprintf("%d", s.ReadTime.Microseconds())})
}

// NewSurfaceMapScan returns the SectorFetch and aggregator for a surface
// map / seek-time scan: a plain C2-enabled read, timed per sector.
func NewSurfaceMapScan(drive *mmc.Drive) (SectorFetch, *SurfaceMapAggregator) {
	return fetchSectorWithC2(drive), NewSurfaceMapAggregator()
}

// BalanceAggregator detects asymmetric slowdowns across a scanned range by
// comparing each sector's read time against the median of the first half
// of the range, computed once when the first second-half sample arrives; a region of the disc whose
// reads are persistently slower than the reference half indicates an
// unbalanced (e.g. warped or off-center) disc.
type BalanceAggregator struct {
	referenceMicros []int64 // first-half read times collected to build the baseline
	halfLBA         int32   // LBA at/after which a sample is compared against the baseline
	rows            []Row
	baseline        int64 // median of referenceMicros, computed once the first half completes
}

// NewBalanceAggregator constructs a balance aggregator. halfLBA should be
// the midpoint LBA of the scanned range: samples before it build the
// reference baseline, samples at or after it are compared against it.
func NewBalanceAggregator(halfLBA int32) *BalanceAggregator {
	return &BalanceAggregator{halfLBA: halfLBA}
}

func (a *BalanceAggregator) Columns() []string {
	return []string{"lba", "read_time_us", "baseline_us", "asymmetric"}
}

func (a *BalanceAggregator) Rows() []Row { return a.rows }

func (a *BalanceAggregator) Observe(s Sample) {
	micros := s.ReadTime.Microseconds()

	if s.LBA < a.halfLBA {
		a.referenceMicros = append(a.referenceMicros, micros)
		a.rows = append(a.rows, Row{fmt.Sprintf("%d", s.LBA), fmt.Sprintf("%d", micros), "", "false"})
		return
	}

	if a.baseline == 0 {
		a.baseline = median(a.referenceMicros)
	}

	// A sector reading more than double the reference-half median is
	// flagged asymmetric; zero baseline (empty reference half) disables
	// the check rather than flagging everything.
	asymmetric := a.baseline > 0 && micros > a.baseline*2
	a.rows = append(a.rows, Row{
		fmt.Sprintf("%d", s.LBA),
		fmt.Sprintf("%d", micros),
		fmt.Sprintf("%d", a.baseline),
		fmt.Sprintf("%t", asymmetric),
	})
}

func median(values []int64) int64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]int64(nil), values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}

// NewBalanceScan returns the SectorFetch and aggregator for a balance scan
// over [startLBA, endLBA]; halfLBA is computed as the range's midpoint.
func NewBalanceScan(drive *mmc.Drive, startLBA, endLBA int32) (SectorFetch, *BalanceAggregator) {
	half := startLBA + (endLBA-startLBA)/2
	return fetchSectorWithC2(drive), NewBalanceAggregator(half)
}
