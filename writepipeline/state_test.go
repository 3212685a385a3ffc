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

package writepipeline

import "testing"

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		from State
		to   State
		want bool
	}{
		{"idle to inspected", StateIdle, StateMediaInspected, true},
		{"idle to cue loaded skips inspection", StateIdle, StateCueLoaded, false},
		{"inspected to blanked", StateMediaInspected, StateBlanked, true},
		{"inspected to cue loaded skips blank", StateMediaInspected, StateCueLoaded, true},
		{"blanked to cue loaded", StateBlanked, StateCueLoaded, true},
		{"blanked to lead-in skips cue", StateBlanked, StateLeadInWritten, false},
		{"cue loaded to lead-in", StateCueLoaded, StateLeadInWritten, true},
		{"lead-in to tracks writing", StateLeadInWritten, StateTracksWriting, true},
		{"tracks writing to lead-out", StateTracksWriting, StateLeadOutWritten, true},
		{"lead-out to closed", StateLeadOutWritten, StateClosed, true},
		{"closed to idle is not a step backward", StateClosed, StateIdle, false},
		{"any state to failed", StateTracksWriting, StateFailed, true},
		{"idle to failed", StateIdle, StateFailed, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			if got := canTransition(c.from, c.to); got != c.want {
				t.Errorf("canTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	if got := StateTracksWriting.String(); got != "TracksWriting" {
		t.Errorf("String() = %q, want %q", got, "TracksWriting")
	}
	if got := State(99).String(); got != "State(99)" {
		t.Errorf("String() on unknown state = %q, want %q", got, "State(99)")
	}
}
