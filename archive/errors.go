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

package archive

import "fmt"

// MaxImageMemberSize is the largest single archive member this package will
// open for a bin/cue/sub disc image: generous for even an 80-minute CD's
// 2352-byte-sector .bin (~847MB), while still bounding the in-memory buffer
// OpenReaderAt allocates against a malicious or corrupt archive claiming an
// absurd uncompressed size. Mirrors the allocation limits chd/errors.go
// applies to CHD hunk/metadata sizes for the same reason.
const MaxImageMemberSize = 4 << 30 // 4GiB

// FormatError indicates an unsupported or invalid archive format.
type FormatError struct {
	Format string
	Reason string
}

func (e FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unsupported archive format %s: %s", e.Format, e.Reason)
	}
	return fmt.Sprintf("unsupported archive format: %s", e.Format)
}

// FileNotFoundError indicates a file was not found in the archive.
type FileNotFoundError struct {
	Archive      string
	InternalPath string
}

func (e FileNotFoundError) Error() string {
	return fmt.Sprintf("file %q not found in archive %q", e.InternalPath, e.Archive)
}

// NoImageFilesError indicates no cue sheet was found in the archive.
type NoImageFilesError struct {
	Archive string
}

func (e NoImageFilesError) Error() string {
	return fmt.Sprintf("no disc image files found in archive %q", e.Archive)
}

// AmbiguousImageSetError indicates an archive contained more than one cue
// sheet, so the packaged image set could not be resolved unambiguously.
type AmbiguousImageSetError struct {
	Count int
}

func (e AmbiguousImageSetError) Error() string {
	return fmt.Sprintf("archive contains %d cue sheets, expected exactly one", e.Count)
}

// MemberTooLargeError indicates an archive member exceeded
// MaxImageMemberSize and was refused rather than buffered into memory.
type MemberTooLargeError struct {
	Archive      string
	InternalPath string
	Size         int64
}

func (e MemberTooLargeError) Error() string {
	return fmt.Sprintf("file %q in archive %q is %d bytes, exceeds max of %d",
		e.InternalPath, e.Archive, e.Size, MaxImageMemberSize)
}
