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

import (
	"context"
	"fmt"

	"github.com/bitexact/audiocopy/mmc"
)

// Progress reports burn progress after each written chunk.
type Progress struct {
	TrackNumber    int
	SectorsWritten uint32
	SectorsTotal   uint32
}

// ProgressFunc is called after each paced burn chunk. It may be nil.
type ProgressFunc func(Progress)

// CDTextCapability reports whether the drive advertises a feature
// descriptor asking for CD-Text to be delivered via WRITE BUFFER instead
// of trailing it onto SEND CUE SHEET. A nil detector is treated as "not
// advertised", which keeps the SEND CUE SHEET-trailer convention most
// drives expect.
type CDTextCapability func(ctx context.Context) bool

// Pipeline drives one blank-to-closed write session on a single drive. It
// is not safe for concurrent use; one Pipeline models one disc in one
// drive, matching the original PrepareDriveForWrite/BuildAndSendCueSheet
// call boundary but as explicit steps instead of a single monolithic
// WriteDisc entry point.
type Pipeline struct {
	drive *mmc.Drive
	state State

	CDTextViaWriteBuffer CDTextCapability
}

// New returns a Pipeline in StateIdle bound to drive.
func New(drive *mmc.Drive) *Pipeline {
	return &Pipeline{drive: drive, state: StateIdle}
}

// State returns the pipeline's current step.
func (p *Pipeline) State() State {
	return p.state
}

func (p *Pipeline) step(to State) error {
	if !canTransition(p.state, to) {
		return fmt.Errorf("writepipeline: cannot move from %s to %s: %w", p.state, to, ErrWrongState)
	}
	p.state = to
	return nil
}

func (p *Pipeline) fail(cause error) error {
	p.state = StateFailed
	return cause
}

// Inspect marks the loaded media as inspected (capacity/type checked by the
// caller via mmc.Drive's TOC/capability reads before calling in). It must
// be the first call on a fresh Pipeline.
func (p *Pipeline) Inspect() error {
	return p.step(StateMediaInspected)
}

// BlankType selects the BLANK command's type field (MMC-5 Table 159).
type BlankType byte

const (
	// BlankTypeFull erases the entire disc; slow, required only for
	// media with a damaged or foreign TOC.
	BlankTypeFull BlankType = 0
	// BlankTypeMinimal erases only the PMA, TOC, and lead-in; the usual
	// choice before a fresh DAO-96 write.
	BlankTypeMinimal BlankType = 1
)

// Blank erases a CD-RW disc. Skipping this call is valid for write-once
// media; the Blanked step is optional in the state machine.
func (p *Pipeline) Blank(ctx context.Context, blankType BlankType, immediate bool) error {
	if err := p.step(StateBlanked); err != nil {
		return err
	}
	if err := p.drive.Blank(ctx, byte(blankType), immediate); err != nil {
		return p.fail(fmt.Errorf("writepipeline: blank: %w", err))
	}
	return nil
}

// bufferTargetLow and bufferTargetHigh bound the fraction of the drive's
// write buffer the burn loop tries to keep occupied: full enough to avoid a buffer underrun,
// empty enough to absorb a slow host read without stalling the drive.
const (
	bufferTargetLow  = 0.40
	bufferTargetHigh = 0.80
)

// WriteTracks streams trackData (one entry per track, in track order, raw
// mmc.RawSectorSize-byte sectors: CDDA audio plus the P-W subchannel DAO-96
// writing always carries) to the drive, pacing writes against the drive's
// buffer fill level so the host never overruns or starves it. progress, if
// non-nil, is invoked after each chunk.
func (p *Pipeline) WriteTracks(ctx context.Context, startLBA int32, trackData [][]byte, progress ProgressFunc) error {
	if err := p.step(StateTracksWriting); err != nil {
		return err
	}
	if len(trackData) == 0 {
		return p.fail(fmt.Errorf("writepipeline: write tracks: %w", ErrNoTracks))
	}

	const bytesPerSector = mmc.RawSectorSize
	lba := startLBA
	for trackIdx, data := range trackData {
		if len(data)%bytesPerSector != 0 {
			return p.fail(fmt.Errorf("writepipeline: track %d data is not a whole number of sectors", trackIdx+1))
		}
		total := uint32(len(data)) / bytesPerSector
		var written uint32
		for written < total {
			select {
			case <-ctx.Done():
				return p.cancel(ctx)
			default:
			}

			chunk, err := p.paceChunk(ctx, total-written)
			if err != nil {
				return p.fail(fmt.Errorf("writepipeline: pace burn: %w", err))
			}
			off := written * bytesPerSector
			end := (written + chunk) * bytesPerSector
			if err := p.drive.Write(ctx, lba, chunk, data[off:end]); err != nil {
				return p.fail(fmt.Errorf("writepipeline: write track %d: %w", trackIdx+1, err))
			}
			written += chunk
			lba += int32(chunk)
			if progress != nil {
				progress(Progress{TrackNumber: trackIdx + 1, SectorsWritten: written, SectorsTotal: total})
			}
		}
	}
	return p.step(StateLeadOutWritten)
}

// maxBurnChunkSectors caps a single WRITE(10) burst so buffer-capacity
// feedback stays responsive; large transfers are split into chunks of at
// most this many sectors.
const maxBurnChunkSectors = 64

// paceChunk queries the drive's write-buffer fill level and returns how
// many sectors (up to remaining) to send next so the buffer tracks the
// configured utilization band.
func (p *Pipeline) paceChunk(ctx context.Context, remaining uint32) (uint32, error) {
	total, free, err := p.drive.ReadBufferCapacity(ctx)
	if err != nil {
		// Not every drive supports READ BUFFER CAPACITY mid-burn;
		// fall back to a fixed chunk size rather than failing the burn.
		return min32(remaining, maxBurnChunkSectors), nil
	}
	if total == 0 {
		return min32(remaining, maxBurnChunkSectors), nil
	}
	used := float64(total-free) / float64(total)
	switch {
	case used < bufferTargetLow:
		return min32(remaining, maxBurnChunkSectors), nil
	case used > bufferTargetHigh:
		return min32(remaining, maxBurnChunkSectors/4), nil
	default:
		return min32(remaining, maxBurnChunkSectors/2), nil
	}
}

func min32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// cancel aborts an in-progress burn. The media is left in an indeterminate
// state: a DAO-96 write cannot be safely resumed, and the
// disc may or may not be readable depending on how much of the lead-out
// already landed.
func (p *Pipeline) cancel(ctx context.Context) error {
	p.state = StateFailed
	_ = p.drive.StopUnit(ctx)
	return ErrIndeterminateMedia
}

// Close issues CLOSE TRACK/SESSION to finalize the disc, making it
// readable in ordinary drives.
func (p *Pipeline) Close(ctx context.Context, function byte) error {
	if err := p.step(StateClosed); err != nil {
		return err
	}
	if err := p.drive.CloseTrackSession(ctx, function, 0); err != nil {
		return p.fail(fmt.Errorf("writepipeline: close session: %w", err))
	}
	return nil
}
