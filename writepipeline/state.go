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

// Package writepipeline implements the DAO-96 raw write state machine:
// blanking, cue-sheet upload, CD-Text pack assembly, the paced burn, and
// session close, as a fixed sequence of fallible steps each wrapping its
// own error, modeled as an explicit State enum instead of ambient
// bool-and-out-param calls.
package writepipeline

import "fmt"

// State is a step of the write pipeline's state machine.
type State int

const (
	StateIdle State = iota
	StateMediaInspected
	StateBlanked
	StateCueLoaded
	StateLeadInWritten
	StateTracksWriting
	StateLeadOutWritten
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMediaInspected:
		return "MediaInspected"
	case StateBlanked:
		return "Blanked"
	case StateCueLoaded:
		return "CueLoaded"
	case StateLeadInWritten:
		return "LeadInWritten"
	case StateTracksWriting:
		return "TracksWriting"
	case StateLeadOutWritten:
		return "LeadOutWritten"
	case StateClosed:
		return "Closed"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// transitions lists, for each state, the states reachable by a single
// successful step. Blanked is optional (CD-R media skips straight from
// MediaInspected to CueLoaded).
var transitions = map[State][]State{
	StateIdle:           {StateMediaInspected},
	StateMediaInspected: {StateBlanked, StateCueLoaded},
	StateBlanked:        {StateCueLoaded},
	StateCueLoaded:      {StateLeadInWritten},
	StateLeadInWritten:  {StateTracksWriting},
	StateTracksWriting:  {StateLeadOutWritten},
	StateLeadOutWritten: {StateClosed},
}

// canTransition reports whether moving from 'from' to 'to' is a legal
// single step. Any state can transition to Failed (a transport error can
// strike at any step).
func canTransition(from, to State) bool {
	if to == StateFailed {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
