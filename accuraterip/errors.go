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

package accuraterip

import "errors"

// ErrInvalidInput reports a disc ID or lookup request malformed enough
// that retrying would never help (e.g. more than MaxTracks audio tracks).
var ErrInvalidInput = errors.New("accuraterip: invalid input")

// ErrNoMatch indicates the AccurateRip database has no record for the
// disc (an HTTP 404), treated as a non-error empty result rather than a
// failure.
var ErrNoMatch = errors.New("accuraterip: no match in database")

// ErrMalformedResponse indicates the database response body could not be
// parsed as the documented header+entries binary layout.
var ErrMalformedResponse = errors.New("accuraterip: malformed response")
