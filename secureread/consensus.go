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
	"crypto/sha256"

	"github.com/bitexact/audiocopy/discmodel"
)

// sectorTally keeps a small multiset of observed sector contents, keyed by
// content hash rather than the raw bytes so repeated passes over an
// unresolved sector don't re-copy 2352 bytes per vote.
type sectorTally struct {
	votes   map[[32]byte]int
	samples map[[32]byte][]byte
	c2Clean map[[32]byte]int // consecutive clean-C2 reads observed for this value
}

func newSectorTally() *sectorTally {
	return &sectorTally{
		votes:   map[[32]byte]int{},
		samples: map[[32]byte][]byte{},
		c2Clean: map[[32]byte]int{},
	}
}

func (t *sectorTally) observe(data []byte, c2Clean bool) {
	h := sha256.Sum256(data)
	t.votes[h]++
	if _, ok := t.samples[h]; !ok {
		cp := make([]byte, len(data))
		copy(cp, data)
		t.samples[h] = cp
	}
	if c2Clean {
		t.c2Clean[h]++
	} else {
		t.c2Clean[h] = 0
	}
}

// resolve applies the consensus rule: verified when
// the winning value has >= threshold votes and no competitor has more than
// one vote; best-effort when a plurality exists without meeting that bar;
// unresolved when no value has been observed, or the tally is still
// contested after the caller's re-read budget (the caller decides when to
// stop calling observe and invoke resolve).
func (t *sectorTally) resolve(threshold int) ([]byte, discmodel.Confidence) {
	var winner [32]byte
	winnerVotes := 0
	runnerUpVotes := 0

	for h, v := range t.votes {
		if v > winnerVotes {
			runnerUpVotes = winnerVotes
			winner = h
			winnerVotes = v
		} else if v > runnerUpVotes {
			runnerUpVotes = v
		}
	}

	if winnerVotes == 0 {
		return nil, discmodel.ConfidenceUnresolved
	}
	if winnerVotes >= threshold && runnerUpVotes <= 1 {
		return t.samples[winner], discmodel.ConfidenceVerified
	}
	if winnerVotes > runnerUpVotes {
		return t.samples[winner], discmodel.ConfidenceBestEffort
	}
	return nil, discmodel.ConfidenceUnresolved
}

// c2CleanStreak returns the longest current clean-C2 streak among all
// observed values: how many consecutive observations of that value arrived
// with a clean C2 bitmap. Used to
// decide when a C2-quarantined sector can be released.
func (t *sectorTally) c2CleanStreak() int {
	best := 0
	for h, v := range t.votes {
		if v == 0 {
			continue
		}
		if c := t.c2Clean[h]; c > best {
			best = c
		}
	}
	return best
}
