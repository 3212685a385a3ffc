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

// Package discmodel holds the in-memory representation of a Red Book audio
// disc: tracks, indices, CD-Text, and the ripped sample buffers that the TOC
// decoder, secure read engine, AccurateRip module, and write pipeline all
// share, following a familiar field-merge-result shape generalized from
// flat metadata records to disc/track audio metadata.
package discmodel

import "fmt"

// BytesPerSector is the size of one raw audio/user-data sector (2352 bytes:
// 588 stereo 16-bit LE PCM frames at 44,100 Hz).
const BytesPerSector = 2352

// SubchannelBytesPerSector is the size of the P-W subchannel appended to a
// raw sector (2448 total per sector).
const SubchannelBytesPerSector = 96

// Confidence describes how well-supported a ripped sector's content is.
type Confidence int

const (
	// ConfidenceUnresolved means contested reads remained after the
	// re-read budget was exhausted.
	ConfidenceUnresolved Confidence = iota
	// ConfidenceBestEffort means a plurality value was chosen without
	// reaching the agreement threshold.
	ConfidenceBestEffort
	// ConfidenceVerified means the winning value reached the configured
	// agreement threshold with no real competitor.
	ConfidenceVerified
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceVerified:
		return "verified"
	case ConfidenceBestEffort:
		return "best-effort"
	default:
		return "unresolved"
	}
}

// Index is one INDEX entry within a track (00 = pregap, 01 = main audio,
// 02..99 = optional sub-indices), stored as an absolute LBA.
type Index struct {
	Number int
	LBA    int32
}

// Track describes one audio track on the disc.
type Track struct {
	Number int // 1-based

	StartLBA      int32 // first main-audio (INDEX 01) sector
	EndLBA        int32 // last sector, inclusive
	PregapLBA     int32 // start of the pregap (INDEX 00); equals StartLBA when none
	IsAudio       bool
	ISRC          string // empty if unread, else exactly 12 uppercase alphanumeric chars
	PreEmphasis   bool
	CopyPermitted bool
	Indices       []Index

	Title  string
	Artist string

	Audio *TrackAudio
}

// SectorCount returns the number of sectors spanned by the track's ripped
// region, counting from the pregap through EndLBA inclusive.
func (t Track) SectorCount() int64 {
	return int64(t.EndLBA) - int64(t.PregapLBA) + 1
}

// Validate checks the per-track invariants from the data model: a non-empty
// span, monotonic boundaries, and a well-formed ISRC.
func (t Track) Validate() error {
	if t.EndLBA < t.StartLBA {
		return fmt.Errorf("discmodel: track %d has end LBA %d before start LBA %d", t.Number, t.EndLBA, t.StartLBA)
	}
	if t.PregapLBA > t.StartLBA {
		return fmt.Errorf("discmodel: track %d pregap LBA %d is after start LBA %d", t.Number, t.PregapLBA, t.StartLBA)
	}
	if t.SectorCount() <= 0 {
		return fmt.Errorf("discmodel: track %d has zero or negative sector count", t.Number)
	}
	if t.ISRC != "" && !isValidISRC(t.ISRC) {
		return fmt.Errorf("discmodel: track %d has malformed ISRC %q", t.Number, t.ISRC)
	}
	return nil
}

func isValidISRC(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z')) {
			return false
		}
	}
	return true
}

// TrackAudio is the ripped, offset-corrected sample buffer for one track.
// It is exclusively owned by the DiscInfo in memory until written to disk;
// the .bin file becomes the system of record thereafter.
type TrackAudio struct {
	// Samples holds (EndLBA-PregapLBA+1) * BytesPerSector bytes of
	// interleaved L16R16 little-endian stereo PCM.
	Samples []byte

	// Subchannel holds the matching raw P-W data, SubchannelBytesPerSector
	// bytes per sector, or nil if no .sub capture was requested.
	Subchannel []byte

	// Confidence is indexed by sector offset within Samples (sector i
	// covers Samples[i*BytesPerSector:(i+1)*BytesPerSector]).
	Confidence []Confidence
}

// CDText holds disc- and track-level textual metadata decoded from (or to
// be encoded into) CD-Text packs.
type CDText struct {
	AlbumTitle  string
	AlbumArtist string
	// TrackTitles and TrackArtists are indexed by track.Number-1.
	TrackTitles  []string
	TrackArtists []string
}

// DiscInfo is the complete reconstructed disc model.
type DiscInfo struct {
	FirstTrack int
	LastTrack  int
	LeadOutLBA int32

	SessionCount   int
	SelectedSession int

	Tracks []Track

	Text CDText

	HasHiddenTrack bool
	TOCRepaired    bool

	// MCN is the 13-digit media catalog number, or empty if unread.
	MCN string
}

// Validate checks the disc-level invariants: monotonic track starts, each
// track individually valid, and tracks packed against the lead-out.
func (d DiscInfo) Validate() error {
	if len(d.Tracks) == 0 {
		return fmt.Errorf("discmodel: disc has no tracks")
	}
	var prevEnd int32 = -1
	for i, t := range d.Tracks {
		if err := t.Validate(); err != nil {
			return err
		}
		if i > 0 && t.PregapLBA < prevEnd {
			return fmt.Errorf("discmodel: track %d starts before track %d ends", t.Number, d.Tracks[i-1].Number)
		}
		if t.EndLBA >= d.LeadOutLBA {
			return fmt.Errorf("discmodel: track %d end LBA %d is at or past lead-out %d", t.Number, t.EndLBA, d.LeadOutLBA)
		}
		prevEnd = t.EndLBA + 1
	}
	return nil
}

// TrackByNumber returns the track with the given 1-based number, or false
// if it does not exist.
func (d DiscInfo) TrackByNumber(n int) (Track, bool) {
	for _, t := range d.Tracks {
		if t.Number == n {
			return t, true
		}
	}
	return Track{}, false
}

// SecureRipMode selects the pass/agreement policy of the secure read
// engine.
type SecureRipMode int

const (
	ModeDisabled SecureRipMode = iota
	ModeFast
	ModeStandard
	ModeParanoid
	ModeBurst
)

func (m SecureRipMode) String() string {
	switch m {
	case ModeFast:
		return "Fast"
	case ModeStandard:
		return "Standard"
	case ModeParanoid:
		return "Paranoid"
	case ModeBurst:
		return "Burst"
	default:
		return "Disabled"
	}
}

// SecureRipConfig parameterizes a ReadDiscSecure call.
type SecureRipConfig struct {
	Mode               SecureRipMode
	MinPasses          int
	MaxPasses          int
	AgreementThreshold int
	CacheDefeat        bool
	C2Guided           bool

	// ReadOffsetSamples is the signed drive read-offset correction, in
	// stereo samples, applied across the whole disc-wide stream before
	// slicing into tracks.
	ReadOffsetSamples int
}

// DefaultSecureRipConfig returns the Standard-mode configuration used when
// the caller does not override any field.
func DefaultSecureRipConfig() SecureRipConfig {
	return SecureRipConfig{
		Mode:               ModeStandard,
		MinPasses:          2,
		MaxPasses:          8,
		AgreementThreshold: 2,
		CacheDefeat:        true,
		C2Guided:           true,
	}
}

// SecureRipResult summarizes one track's ripping outcome.
type SecureRipResult struct {
	TrackNumber     int
	PassesPerformed int
	TotalRereads    int
	UnresolvedLBAs  []int32
	Confidence      []Confidence // per-sector, same indexing as TrackAudio.Confidence
	Cancelled       bool
}

// Accurate reports whether the track ripped with zero unresolved sectors.
func (r SecureRipResult) Accurate() bool {
	return !r.Cancelled && len(r.UnresolvedLBAs) == 0
}
