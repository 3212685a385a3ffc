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

// Package txerr collects the cross-package error taxonomy shared by every
// component that drives a drive or reports a rip/write outcome:
// DeviceGone, IoTimeout, CheckCondition, ProtocolMismatch, MediaNotReady,
// MediaNotWritable, FeatureUnsupported, Cancelled, InvalidInput, NotFound,
// and Io. transport already defines the low-level DeviceGone/IoTimeout/
// ShortTransfer sentinels it needs directly; this package is the shared
// vocabulary for everything above the transport layer.
package txerr

import "errors"

var (
	// ErrProtocolMismatch indicates a READ CD sector size did not match the
	// requested flags.
	ErrProtocolMismatch = errors.New("txerr: protocol mismatch")

	// ErrMediaNotReady indicates no usable media is present.
	ErrMediaNotReady = errors.New("txerr: media not ready")

	// ErrMediaNotWritable indicates the loaded media cannot accept a burn
	// (e.g. a pressed disc, or a CD-RW that needs blanking).
	ErrMediaNotWritable = errors.New("txerr: media not writable")

	// ErrFeatureUnsupported indicates the drive does not implement a
	// requested vendor or MMC feature (e.g. Q-Check on a non-Plextor drive).
	ErrFeatureUnsupported = errors.New("txerr: feature unsupported")

	// ErrCancelled indicates a cooperative interrupt flag was observed.
	ErrCancelled = errors.New("txerr: cancelled")

	// ErrInvalidInput indicates a caller-supplied argument violates an
	// invariant (e.g. an AccurateRip lookup with track count > 99).
	ErrInvalidInput = errors.New("txerr: invalid input")

	// ErrNotFound indicates a lookup had no matching record. Callers must
	// treat this as a normal empty result, not a failure, per spec.
	ErrNotFound = errors.New("txerr: not found")
)
