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

// Package mmc builds and decodes the MMC-5 command set used to pull audio
// and subchannel data off an optical drive: READ CD, READ SUB-CHANNEL, READ
// TOC/PMA/ATIP, SET CD SPEED, and the DAO write commands (BLANK, CLOSE
// TRACK/SESSION, SEND CUE SHEET, WRITE BUFFER, WRITE, START STOP UNIT).
// Every command here is a pure CDB-builder plus a response decoder; the
// actual exchange goes through a
// *transport.Drive.
package mmc

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/bitexact/audiocopy/transport"
)

// Sector sizes in bytes, per Red Book / MMC-5.
const (
	UserDataSize   = 2048 // mode-1 data sector, logical payload
	CDDASize       = 2352 // raw audio/mode-1 sector including sync+header
	SubchannelSize = 96   // P-W subchannel per sector
	RawSectorSize  = CDDASize + SubchannelSize
)

// ReadCDSectorType selects which sector fields READ CD returns.
type ReadCDSectorType byte

const (
	SectorTypeAllTypes ReadCDSectorType = 0
	SectorTypeCDDA     ReadCDSectorType = 1
)

// SubchannelFormat selects the sub-channel data returned by READ CD / READ
// SUB-CHANNEL.
type SubchannelFormat byte

const (
	SubchannelNone  SubchannelFormat = iota
	SubchannelRaw                    // raw P-W, 96 bytes
	SubchannelQOnly                  // formatted Q only, 16 bytes
)

// Drive is the MMC command surface over a single transport.Drive.
type Drive struct {
	dev *transport.Drive
}

// New wraps a transport.Drive with the MMC-5 command builders.
func New(dev *transport.Drive) *Drive {
	return &Drive{dev: dev}
}

// ReadCD issues READ CD (0xBE) for count sectors starting at startLBA, with
// the user data plus the requested subchannel form appended per sector.
// The returned slice is exactly count*sectorLen(sub) bytes on success.
func (d *Drive) ReadCD(ctx context.Context, startLBA int32, count uint32, sectorType ReadCDSectorType, sub SubchannelFormat) ([]byte, error) {
	sectorLen := CDDASize
	switch sub {
	case SubchannelRaw:
		sectorLen += SubchannelSize
	case SubchannelQOnly:
		sectorLen += 16
	}

	cdb := make(transport.CDB, 12)
	cdb[0] = 0xBE
	cdb[1] = byte(sectorType) << 2
	cdb[2] = byte(startLBA >> 24)
	cdb[3] = byte(startLBA >> 16)
	cdb[4] = byte(startLBA >> 8)
	cdb[5] = byte(startLBA)
	cdb[6] = byte(count >> 16)
	cdb[7] = byte(count >> 8)
	cdb[8] = byte(count)
	// byte 9: sync(7) header-codes(6-5) user-data(4) edc-ecc(3) error-field(2-1)
	cdb[9] = 0xF8 // sync + all headers + user data + EDC/ECC, no C2/error flags
	switch sub {
	case SubchannelRaw:
		cdb[10] = 0x01 // raw P-W
	case SubchannelQOnly:
		cdb[10] = 0x02 // formatted Q
	default:
		cdb[10] = 0x00
	}

	buf := make([]byte, int(count)*sectorLen)
	_, err := d.dev.Send(ctx, transport.Request{
		CDB:     cdb,
		DataIn:  buf,
		Timeout: transport.ReadCDTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("mmc: read cd at lba %d (%d sectors): %w", startLBA, count, err)
	}
	return buf, nil
}

// ReadCDWithC2 is ReadCD with the C2 error-pointer bitmap appended per
// sector (294 bytes, one bit per byte of user data) for the Secure Read
// Engine's cache-defeat/consensus pass.
func (d *Drive) ReadCDWithC2(ctx context.Context, startLBA int32, count uint32) ([]byte, error) {
	const c2Size = 294
	sectorLen := CDDASize + c2Size

	cdb := make(transport.CDB, 12)
	cdb[0] = 0xBE
	cdb[2] = byte(startLBA >> 24)
	cdb[3] = byte(startLBA >> 16)
	cdb[4] = byte(startLBA >> 8)
	cdb[5] = byte(startLBA)
	cdb[6] = byte(count >> 16)
	cdb[7] = byte(count >> 8)
	cdb[8] = byte(count)
	cdb[9] = 0xF8
	cdb[10] = 0x02 << 1 // C2 error block, 294-byte form

	buf := make([]byte, int(count)*sectorLen)
	_, err := d.dev.Send(ctx, transport.Request{
		CDB:     cdb,
		DataIn:  buf,
		Timeout: transport.ReadCDTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("mmc: read cd with c2 at lba %d (%d sectors): %w", startLBA, count, err)
	}
	return buf, nil
}

// READ SUB-CHANNEL (0x42) sub-channel data format codes.
const (
	SubQFormatPosition byte = 1
	SubQFormatMCN      byte = 2
	SubQFormatISRC     byte = 3
)

// SubChannelData is the decoded response of READ SUB-CHANNEL format 1/2/3.
type SubChannelData struct {
	AudioStatus byte
	Format      byte
	Data        []byte
}

// ReadSubChannel issues READ SUB-CHANNEL (0x42) for the given subQ format
// (1 = current position, 2 = media catalog number, 3 = ISRC) and, when
// trackNumber is non-zero, targets that track (used for per-track
// ISRC lookup).
func (d *Drive) ReadSubChannel(ctx context.Context, format byte, trackNumber byte) (SubChannelData, error) {
	const respLen = 24

	cdb := make(transport.CDB, 10)
	cdb[0] = 0x42
	cdb[2] = 0x40 // SUBQ bit: return subchannel data
	cdb[3] = format
	cdb[6] = trackNumber
	cdb[7] = byte(respLen >> 8)
	cdb[8] = byte(respLen)

	buf := make([]byte, respLen)
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, DataIn: buf})
	if err != nil {
		return SubChannelData{}, fmt.Errorf("mmc: read sub-channel format %d: %w", format, err)
	}

	return SubChannelData{
		AudioStatus: buf[1],
		Format:      buf[4] & 0x7F,
		Data:        buf[4:],
	}, nil
}

// TOCFormat selects the layout returned by READ TOC/PMA/ATIP.
type TOCFormat byte

const (
	TOCFormatTOC       TOCFormat = 0
	TOCFormatSessionNo TOCFormat = 1
	TOCFormatFullTOC   TOCFormat = 2
	TOCFormatCDText    TOCFormat = 5
)

// ReadTOC issues READ TOC/PMA/ATIP (0x43) in two shots: first a 4-byte probe
// to learn the reported data length, then a full read of exactly that many
// bytes. CD-Text responses especially need this length-then-body pattern.
func (d *Drive) ReadTOC(ctx context.Context, format TOCFormat, trackOrSession byte, msf bool) ([]byte, error) {
	probe := make([]byte, 4)
	if err := d.readTOCInto(ctx, format, trackOrSession, msf, probe); err != nil {
		return nil, fmt.Errorf("mmc: read toc format %d (probe): %w", format, err)
	}
	total := int(probe[0])<<8 | int(probe[1])
	total += 2 // the length field itself is excluded from TOC Data Length
	if total <= 4 {
		return probe[:4], nil
	}

	full := make([]byte, total)
	if err := d.readTOCInto(ctx, format, trackOrSession, msf, full); err != nil {
		return nil, fmt.Errorf("mmc: read toc format %d (full): %w", format, err)
	}
	return full, nil
}

func (d *Drive) readTOCInto(ctx context.Context, format TOCFormat, trackOrSession byte, msf bool, buf []byte) error {
	cdb := make(transport.CDB, 10)
	cdb[0] = 0x43
	if msf {
		cdb[1] = 0x02
	}
	cdb[2] = byte(format) & 0x0F
	cdb[6] = trackOrSession
	cdb[7] = byte(len(buf) >> 8)
	cdb[8] = byte(len(buf))

	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, DataIn: buf})
	return err
}

// SetSpeed issues SET CD SPEED (0xBB). A speed of 0xFFFF requests maximum
// drive speed; secureread and the hidden-track scan both throttle this down
// for more reliable reads.
func (d *Drive) SetSpeed(ctx context.Context, readSpeedKB, writeSpeedKB uint16) error {
	cdb := make(transport.CDB, 12)
	cdb[0] = 0xBB
	cdb[2] = byte(readSpeedKB >> 8)
	cdb[3] = byte(readSpeedKB)
	cdb[4] = byte(writeSpeedKB >> 8)
	cdb[5] = byte(writeSpeedKB)

	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb})
	if err != nil {
		return fmt.Errorf("mmc: set cd speed: %w", err)
	}
	return nil
}

// PreventMediaRemoval issues PREVENT ALLOW MEDIUM REMOVAL (0x1E). Locking
// the tray is required before a DAO burn sequence begins.
func (d *Drive) PreventMediaRemoval(ctx context.Context, prevent bool) error {
	cdb := make(transport.CDB, 6)
	cdb[0] = 0x1E
	if prevent {
		cdb[4] = 0x01
	}
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb})
	if err != nil {
		return fmt.Errorf("mmc: prevent allow medium removal: %w", err)
	}
	return nil
}

// FlushCache issues SYNCHRONIZE CACHE (0x35), committing the drive's write
// buffer to media before a session is closed.
func (d *Drive) FlushCache(ctx context.Context) error {
	cdb := make(transport.CDB, 10)
	cdb[0] = 0x35
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, Timeout: transport.DefaultTimeout * 3})
	if err != nil {
		return fmt.Errorf("mmc: synchronize cache: %w", err)
	}
	return nil
}

// StopUnit issues START STOP UNIT (0x1B) with start=0 (stop the motor) and
// the immediate bit set, so the command returns without waiting for the
// motor to actually spin down. This is the drive's cleanest way to abort a
// burn in progress: it terminates media access without the implication of
// SYNCHRONIZE CACHE that a pending write buffer should still be committed.
func (d *Drive) StopUnit(ctx context.Context) error {
	cdb := make(transport.CDB, 6)
	cdb[0] = 0x1B
	cdb[1] = 0x01 // immediate
	cdb[4] = 0x00 // start=0, loej=0: stop the motor, leave media loaded
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb})
	if err != nil {
		return fmt.Errorf("mmc: start stop unit: %w", err)
	}
	return nil
}

// Blank issues BLANK (0xA1). blankType 0 blanks the full disc, 1 performs a
// minimal (fast) blank of the lead-out/PMA only, matching the two modes
// used before a DAO rewrite.
func (d *Drive) Blank(ctx context.Context, blankType byte, immediate bool) error {
	cdb := make(transport.CDB, 12)
	cdb[0] = 0xA1
	cdb[1] = blankType & 0x07
	if immediate {
		cdb[1] |= 0x10
	}
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, Timeout: transport.DefaultTimeout * 18})
	if err != nil {
		return fmt.Errorf("mmc: blank: %w", err)
	}
	return nil
}

// CloseTrackSession issues CLOSE TRACK/SESSION (0x5B). function 0x02 closes
// a track, 0x03 closes a session and writes the lead-out.
func (d *Drive) CloseTrackSession(ctx context.Context, function byte, trackNumber uint16) error {
	cdb := make(transport.CDB, 10)
	cdb[0] = 0x5B
	cdb[2] = function & 0x07
	cdb[4] = byte(trackNumber >> 8)
	cdb[5] = byte(trackNumber)
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, Timeout: transport.DefaultTimeout * 6})
	if err != nil {
		return fmt.Errorf("mmc: close track/session: %w", err)
	}
	return nil
}

// SendCueSheet issues SEND CUE SHEET (0x5D), uploading the DAO table of
// contents the drive will burn from.
func (d *Drive) SendCueSheet(ctx context.Context, cueData []byte) error {
	cdb := make(transport.CDB, 10)
	cdb[0] = 0x5D
	cdb[6] = byte(len(cueData) >> 16)
	cdb[7] = byte(len(cueData) >> 8)
	cdb[8] = byte(len(cueData))

	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, DataOut: cueData, Direction: transport.DirectionOut})
	if err != nil {
		return fmt.Errorf("mmc: send cue sheet: %w", err)
	}
	return nil
}

// WriteBufferModeVendorSpecific is the WRITE BUFFER mode field value some
// drives use to accept a CD-TEXT pack stream outside the cue sheet, as an
// alternative to trailing the packs onto SEND CUE SHEET.
const WriteBufferModeVendorSpecific = 0x07

// WriteBuffer issues WRITE BUFFER (0x3B) with bufferID 0 and offset 0,
// the shape vendor CD-TEXT-via-write-buffer conventions expect.
func (d *Drive) WriteBuffer(ctx context.Context, mode byte, data []byte) error {
	cdb := make(transport.CDB, 10)
	cdb[0] = 0x3B
	cdb[1] = mode & 0x1F
	cdb[6] = byte(len(data) >> 16)
	cdb[7] = byte(len(data) >> 8)
	cdb[8] = byte(len(data))

	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, DataOut: data, Direction: transport.DirectionOut})
	if err != nil {
		return fmt.Errorf("mmc: write buffer: %w", err)
	}
	return nil
}

// Write issues WRITE (0x2A), transferring count raw 2448-byte sectors
// starting at startLBA during the TracksWriting state.
func (d *Drive) Write(ctx context.Context, startLBA int32, count uint32, data []byte) error {
	if len(data) != int(count)*RawSectorSize {
		return fmt.Errorf("mmc: write: expected %d bytes for %d sectors, got %d", int(count)*RawSectorSize, count, len(data))
	}

	cdb := make(transport.CDB, 10)
	cdb[0] = 0x2A
	cdb[2] = byte(startLBA >> 24)
	cdb[3] = byte(startLBA >> 16)
	cdb[4] = byte(startLBA >> 8)
	cdb[5] = byte(startLBA)
	cdb[7] = byte(count >> 8)
	cdb[8] = byte(count)

	_, err := d.dev.Send(ctx, transport.Request{
		CDB:       cdb,
		DataOut:   data,
		Direction: transport.DirectionOut,
		Timeout:   transport.DefaultTimeout * 3,
	})
	if err != nil {
		return fmt.Errorf("mmc: write at lba %d (%d sectors): %w", startLBA, count, err)
	}
	return nil
}

// SendRaw issues a CDB not covered by the typed wrappers above and returns
// the filled dataIn buffer. It exists for vendor/firmware-specific
// extensions such as the Plextor Q-Check command that cannot be given a
// stable typed wrapper across drive revisions.
func (d *Drive) SendRaw(ctx context.Context, cdb transport.CDB, dataIn []byte) ([]byte, error) {
	_, err := d.dev.Send(ctx, transport.Request{CDB: cdb, DataIn: dataIn})
	if err != nil {
		return nil, fmt.Errorf("mmc: vendor cdb %x: %w", []byte(cdb), err)
	}
	return dataIn, nil
}

// ReadBufferCapacity issues READ BUFFER CAPACITY (0x5C), used by the write
// pipeline to pace WRITE bursts against the drive's remaining buffer.
func (d *Drive) ReadBufferCapacity(ctx context.Context) (total, free uint32, err error) {
	buf := make([]byte, 12)
	cdb := make(transport.CDB, 10)
	cdb[0] = 0x5C
	cdb[7] = byte(len(buf) >> 8)
	cdb[8] = byte(len(buf))

	_, err = d.dev.Send(ctx, transport.Request{CDB: cdb, DataIn: buf})
	if err != nil {
		return 0, 0, fmt.Errorf("mmc: read buffer capacity: %w", err)
	}

	total = binary.BigEndian.Uint32(buf[4:8])
	free = binary.BigEndian.Uint32(buf[8:12])
	return total, free, nil
}
