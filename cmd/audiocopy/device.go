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

package main

import (
	"fmt"

	"github.com/bitexact/audiocopy/transport"
	"github.com/bitexact/audiocopy/txerr"
)

// openDevice resolves path to a transport.Device. The actual SG_IO/MMC
// pass-through ioctl exchange is host-platform code outside this module's
// scope; a real build wires in the OS-specific constructor here (e.g. a
// Linux sg device or a Windows SPTI handle) and this function becomes a
// thin switch over path. Until that constructor is linked in, opening any
// path reports FeatureUnsupported rather than silently returning a device
// that can never answer a CDB.
func openDevice(path string) (transport.Device, error) {
	return nil, fmt.Errorf("audiocopy: no pass-through driver linked in for %q: %w", path, txerr.ErrFeatureUnsupported)
}
