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

package cuesheet

import "fmt"

// FramesPerSecond is the MSF frame rate (75 frames/second).
const FramesPerSecond = 75

// MSFOffset is the frame offset of LBA 0 from 00:00:00 MSF.
const MSFOffset = 150

// MSF is a Minute:Second:Frame address.
type MSF struct {
	Minute int
	Second int
	Frame  int
}

func (m MSF) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", m.Minute, m.Second, m.Frame)
}

// LBA converts m to a logical block address: LBA = (M*60+S)*75+F-150.
func (m MSF) LBA() int32 {
	return int32((m.Minute*60+m.Second)*FramesPerSecond+m.Frame) - MSFOffset
}

// LBAToMSF converts a logical block address to its MSF representation.
// Round-trips with MSF.LBA for all lba in [-150, 400000).
func LBAToMSF(lba int32) MSF {
	total := int(lba) + MSFOffset
	frame := total % FramesPerSecond
	totalSeconds := total / FramesPerSecond
	second := totalSeconds % 60
	minute := totalSeconds / 60
	return MSF{Minute: minute, Second: second, Frame: frame}
}

// FileMSF converts a frame offset measured from the start of a cue sheet's
// referenced FILE (not a disc-absolute LBA) into the MM:SS:FF an INDEX line
// records. A .bin file carries no lead-in, so offset 0 maps to 00:00:00
// with no 150-frame shift, unlike LBAToMSF's disc-absolute convention.
func FileMSF(frames int32) MSF {
	f := int(frames) % FramesPerSecond
	totalSeconds := int(frames) / FramesPerSecond
	return MSF{Minute: totalSeconds / 60, Second: totalSeconds % 60, Frame: f}
}

// FileFrames is FileMSF's inverse, converting a cue sheet INDEX's MM:SS:FF
// back to a frame offset relative to the FILE's start.
func (m MSF) FileFrames() int32 {
	return int32((m.Minute*60+m.Second)*FramesPerSecond + m.Frame)
}

// ParseMSF parses a "MM:SS:FF" string as found in a cue sheet INDEX line.
func ParseMSF(s string) (MSF, error) {
	var m MSF
	n, err := fmt.Sscanf(s, "%d:%d:%d", &m.Minute, &m.Second, &m.Frame)
	if err != nil || n != 3 {
		return MSF{}, fmt.Errorf("cuesheet: malformed MSF %q", s)
	}
	if m.Second < 0 || m.Second >= 60 || m.Frame < 0 || m.Frame >= FramesPerSecond {
		return MSF{}, fmt.Errorf("cuesheet: MSF %q out of range", s)
	}
	return m, nil
}

// BCD encodes a value 0-99 as a binary-coded-decimal byte, the form MSF and
// track/index fields take inside raw Q-subchannel and TOC format 2 frames.
func BCD(v int) byte {
	return byte(((v / 10) << 4) | (v % 10))
}

// FromBCD decodes a binary-coded-decimal byte back to its integer value.
func FromBCD(b byte) int {
	return int(b>>4)*10 + int(b&0x0F)
}
