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

//go:build unix

package transport

import (
	"os"
	"strings"
	"syscall"
)

// IsBlockDevice reports whether path names a block special file, the shape
// optical drives take on Unix (e.g. /dev/sr0). It is the boundary check used
// before attempting to open a path as a raw drive handle rather than a
// regular disc-image file; the pass-through handle itself (SG_IO) is outside
// this module's scope.
func IsBlockDevice(path string) bool {
	if !strings.HasPrefix(path, "/dev/") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return false
	}
	return stat.Mode&syscall.S_IFMT == syscall.S_IFBLK
}
