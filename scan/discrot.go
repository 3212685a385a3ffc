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

// DefaultRotThreshold is the default amount by which a low-speed sector's
// C2 count must exceed its high-speed counterpart before the region is
// flagged as media decay.
const DefaultRotThreshold = 4

// DiscRotRow pairs one LBA's low-speed and high-speed C2 counts.
type DiscRotRow struct {
	LBA         int32
	LowSpeedC2  int
	HighSpeedC2 int
	Flagged     bool
}

// DiscRotAggregator compares two passes of a region read at widely
// different speeds, flagging LBAs where the slow pass shows materially
// more C2 errors than the fast pass.
type DiscRotAggregator struct {
	threshold int
	rows      map[int32]*DiscRotRow
	order     []int32
}

// NewDiscRotAggregator constructs an aggregator using threshold (or
// DefaultRotThreshold if threshold <= 0) as the decay-flag cutoff.
func NewDiscRotAggregator(threshold int) *DiscRotAggregator {
	if threshold <= 0 {
		threshold = DefaultRotThreshold
	}
	return &DiscRotAggregator{threshold: threshold, rows: make(map[int32]*DiscRotRow)}
}

func (a *DiscRotAggregator) Columns() []string {
	return []string{"lba", "c2_low_speed", "c2_high_speed", "flagged"}
}

// Observe records one speed pass's sample. Samples must be fed low-speed
// pass first, then high-speed pass, for each LBA (ObserveLowSpeed/
// ObserveHighSpeed below enforce this explicitly; Observe alone cannot tell
// which pass a bare Sample belongs to, so RunDiscRot drives the two passes
// through the dedicated methods instead of the generic Aggregator
// interface).
func (a *DiscRotAggregator) Observe(s Sample) {
	a.ObserveLowSpeed(s)
}

// ObserveLowSpeed records a sample taken during the low-speed pass.
func (a *DiscRotAggregator) ObserveLowSpeed(s Sample) {
	row, ok := a.rows[s.LBA]
	if !ok {
		row = &DiscRotRow{LBA: s.LBA}
		a.rows[s.LBA] = row
		a.order = append(a.order, s.LBA)
	}
	row.LowSpeedC2 = s.C2ErrorCount
}

// ObserveHighSpeed records a sample taken during the high-speed pass and
// resolves the Flagged verdict for that LBA.
func (a *DiscRotAggregator) ObserveHighSpeed(s Sample) {
	row, ok := a.rows[s.LBA]
	if !ok {
		row = &DiscRotRow{LBA: s.LBA}
		a.rows[s.LBA] = row
		a.order = append(a.order, s.LBA)
	}
	row.HighSpeedC2 = s.C2ErrorCount
	row.Flagged = row.LowSpeedC2-row.HighSpeedC2 > a.threshold
}

func (a *DiscRotAggregator) Rows() []Row {
	rows := make([]Row, 0, len(a.order))
	for _, lba := range a.order {
		r := a.rows[lba]
		rows = append(rows, Row{
			fmt.Sprintf("%d", r.LBA),
			fmt.Sprintf("%d", r.LowSpeedC2),
			fmt.Sprintf("%d", r.HighSpeedC2),
			fmt.Sprintf("%t", r.Flagged),
		})
	}
	return rows
}

// FlaggedLBAs returns every LBA whose low-speed pass exceeded the
// high-speed pass by more than the configured threshold.
func (a *DiscRotAggregator) FlaggedLBAs() []int32 {
	var out []int32
	for _, lba := range a.order {
		if a.rows[lba].Flagged {
			out = append(out, lba)
		}
	}
	return out
}

// RunDiscRot drives the two-speed disc-rot scan over [startLBA, endLBA]:
// one pass at lowSpeedKB, one pass at highSpeedKB, both via the C2-enabled
// read primitive, feeding a fresh DiscRotAggregator.
func RunDiscRot(ctx context.Context, drive *mmc.Drive, startLBA, endLBA int32, lowSpeedKB, highSpeedKB uint16, threshold int, progress ProgressFunc) (*DiscRotAggregator, error) {
	agg := NewDiscRotAggregator(threshold)
	fetch := fetchSectorWithC2(drive)

	if err := drive.SetSpeed(ctx, lowSpeedKB, 0); err != nil {
		return nil, fmt.Errorf("scan: disc-rot: set low speed: %w", err)
	}
	if err := runSpeedPass(ctx, fetch, agg.ObserveLowSpeed, startLBA, endLBA, progress); err != nil {
		return nil, err
	}

	if err := drive.SetSpeed(ctx, highSpeedKB, 0); err != nil {
		return nil, fmt.Errorf("scan: disc-rot: set high speed: %w", err)
	}
	if err := runSpeedPass(ctx, fetch, agg.ObserveHighSpeed, startLBA, endLBA, progress); err != nil {
		return nil, err
	}

	return agg, nil
}

func runSpeedPass(ctx context.Context, fetch SectorFetch, observe func(Sample), startLBA, endLBA int32, progress ProgressFunc) error {
	total := int(endLBA-startLBA) + 1
	for i := 0; i < total; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scan: disc-rot: %w", err)
		}
		lba := startLBA + int32(i)
		sample, err := fetch(ctx, lba)
		if err != nil {
			return fmt.Errorf("scan: disc-rot: fetch lba %d: %w", lba, err)
		}
		observe(sample)
		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}
