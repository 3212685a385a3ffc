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

import "errors"

// ErrWrongState indicates an operation was attempted from a State that
// does not permit it.
var ErrWrongState = errors.New("writepipeline: operation not valid in current state")

// ErrIndeterminateMedia indicates a burn was cancelled mid-write; the media
// is left in an unknown state.
var ErrIndeterminateMedia = errors.New("writepipeline: media left in indeterminate state")

// ErrNoTracks indicates a write was attempted with an empty track list.
var ErrNoTracks = errors.New("writepipeline: no tracks to write")
