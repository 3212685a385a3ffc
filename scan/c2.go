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

// c2HistogramBuckets are the upper bounds (inclusive) of the per-sector
// error-count histogram buckets the C2 scan reports, chosen so a handful
// of stray bit errors and a fully unreadable sector (2352 bits) both land
// in a distinct, human-meaningful bucket.
var c2HistogramBuckets = []int{0, 1, 8, 64, 512, 2352}

// C2Aggregator tallies per-sector C2 error-pointer counts and a histogram
// across the whole scanned range.
type C2Aggregator struct {
	rows      []Row
	histogram []int
}

// NewC2Aggregator constructs an empty C2 scan aggregator.
func NewC2Aggregator() *C2Aggregator {
	return &C2Aggregator{histogram: make([]int, len(c2HistogramBuckets))}
}

func (a *C2Aggregator) Columns() []string { return []string{"lba", "c2_errors"} }

func (a *C2Aggregator) Observe(s Sample) {
	a.rows = append(a.rows, Row{fmt.Sprintf("%d", s.LBA), fmt.Sprintf("%d", s.C2ErrorCount)})
	a.histogram[bucketFor(s.C2ErrorCount)]++
}

func (a *C2Aggregator) Rows() []Row { return a.rows }

// Histogram returns the sector count per bucket boundary in
// c2HistogramBuckets, aligned index-for-index.
func (a *C2Aggregator) Histogram() map[int]int {
	out := make(map[int]int, len(c2HistogramBuckets))
	for i, bound := range c2HistogramBuckets {
		out[bound] = a.histogram[i]
	}
	return out
}

func bucketFor(count int) int {
	for i, bound := range c2HistogramBuckets {
		if count <= bound {
			return i
		}
	}
	return len(c2HistogramBuckets) - 1
}

// NewC2Scan returns the SectorFetch and a fresh Aggregator for a C2 scan
// driven by Run.
func NewC2Scan(drive *mmc.Drive) (SectorFetch, *C2Aggregator) {
	return fetchSectorWithC2(drive), NewC2Aggregator()
}
