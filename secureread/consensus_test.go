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

package secureread

import (
	"bytes"
	"testing"

	"github.com/bitexact/audiocopy/discmodel"
)

func sector(fill byte) []byte {
	s := make([]byte, 2352)
	for i := range s {
		s[i] = fill
	}
	return s
}

func TestTallyResolve_FlakySectorConverges(t *testing.T) {
	t.Parallel()

	// Five reads of one sector return three distinct values: A three
	// times (clean C2 each time), B once, C once. With an agreement
	// threshold of 2, A wins as verified because no competitor has more
	// than one vote.
	a, b, c := sector('A'), sector('B'), sector('C')

	tally := newSectorTally()
	tally.observe(a, true)
	tally.observe(b, false)
	tally.observe(a, true)
	tally.observe(c, false)
	tally.observe(a, true)

	data, conf := tally.resolve(2)
	if conf != discmodel.ConfidenceVerified {
		t.Fatalf("resolve() confidence = %v, want verified", conf)
	}
	if !bytes.Equal(data, a) {
		t.Errorf("resolve() returned wrong winning value")
	}
}

func TestTallyResolve_PluralityIsBestEffort(t *testing.T) {
	t.Parallel()

	// A leads 2-1 but misses a threshold of 3: plurality without
	// verification.
	a, b := sector('A'), sector('B')

	tally := newSectorTally()
	tally.observe(a, true)
	tally.observe(b, true)
	tally.observe(a, true)

	data, conf := tally.resolve(3)
	if conf != discmodel.ConfidenceBestEffort {
		t.Fatalf("resolve() confidence = %v, want best-effort", conf)
	}
	if !bytes.Equal(data, a) {
		t.Errorf("resolve() returned wrong plurality value")
	}
}

func TestTallyResolve_CompetitorWithTwoVotesBlocksVerified(t *testing.T) {
	t.Parallel()

	// A leads 3-2, meeting the threshold, but the competitor's two votes
	// demote the result to best-effort.
	a, b := sector('A'), sector('B')

	tally := newSectorTally()
	for i := 0; i < 3; i++ {
		tally.observe(a, true)
	}
	tally.observe(b, true)
	tally.observe(b, true)

	_, conf := tally.resolve(2)
	if conf != discmodel.ConfidenceBestEffort {
		t.Errorf("resolve() confidence = %v, want best-effort", conf)
	}
}

func TestTallyResolve_TieIsUnresolved(t *testing.T) {
	t.Parallel()

	a, b := sector('A'), sector('B')

	tally := newSectorTally()
	tally.observe(a, true)
	tally.observe(b, true)
	tally.observe(a, true)
	tally.observe(b, true)

	data, conf := tally.resolve(2)
	if conf != discmodel.ConfidenceUnresolved {
		t.Fatalf("resolve() confidence = %v, want unresolved", conf)
	}
	if data != nil {
		t.Errorf("resolve() returned data for a contested sector")
	}
}

func TestTallyResolve_EmptyIsUnresolved(t *testing.T) {
	t.Parallel()

	data, conf := newSectorTally().resolve(2)
	if conf != discmodel.ConfidenceUnresolved || data != nil {
		t.Errorf("resolve() on empty tally = (%v, %v), want (nil, unresolved)", data, conf)
	}
}

func TestTallyC2CleanStreak(t *testing.T) {
	t.Parallel()

	a := sector('A')

	tally := newSectorTally()
	tally.observe(a, true)
	tally.observe(a, true)
	if got := tally.c2CleanStreak(); got != 2 {
		t.Fatalf("c2CleanStreak() = %d, want 2", got)
	}

	// A dirty read of the same value resets the streak.
	tally.observe(a, false)
	if got := tally.c2CleanStreak(); got != 0 {
		t.Errorf("c2CleanStreak() after dirty read = %d, want 0", got)
	}
}
