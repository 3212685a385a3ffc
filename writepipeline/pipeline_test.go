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

package writepipeline_test

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/mmc"
	"github.com/bitexact/audiocopy/transport"
	"github.com/bitexact/audiocopy/writepipeline"
)

// fakeDrive is a simulated transport.Device standing in for a real burner,
// tracking the CDBs it receives so tests can assert on command sequencing
// without any hardware.
type fakeDrive struct {
	blanks      int
	cueSheets   [][]byte
	written     [][]byte
	closed       []byte
	stopUnits    int
	writeBuffers [][]byte
	bufferTotal  uint32
	bufferFree   uint32
	failWriteAt  int // 0-based WRITE call index to fail, or -1 for never
	writeCalls   int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{bufferTotal: 1 << 20, bufferFree: 1 << 20, failWriteAt: -1}
}

func (f *fakeDrive) SendCDB(_ context.Context, req transport.Request) (transport.Response, error) {
	switch req.CDB[0] {
	case 0xA1: // BLANK
		f.blanks++
		return transport.Response{}, nil
	case 0x5D: // SEND CUE SHEET
		f.cueSheets = append(f.cueSheets, append([]byte(nil), req.DataOut...))
		return transport.Response{}, nil
	case 0x2A: // WRITE
		idx := f.writeCalls
		f.writeCalls++
		if f.failWriteAt == idx {
			return transport.Response{}, errors.New("fake drive: simulated write failure")
		}
		f.written = append(f.written, append([]byte(nil), req.DataOut...))
		return transport.Response{Transferred: len(req.DataOut)}, nil
	case 0x5C: // READ BUFFER CAPACITY
		binary.BigEndian.PutUint32(req.DataIn[4:8], f.bufferTotal)
		binary.BigEndian.PutUint32(req.DataIn[8:12], f.bufferFree)
		return transport.Response{Transferred: len(req.DataIn)}, nil
	case 0x5B: // CLOSE TRACK/SESSION
		f.closed = req.CDB
		return transport.Response{}, nil
	case 0x1B: // START STOP UNIT
		f.stopUnits++
		return transport.Response{}, nil
	case 0x3B: // WRITE BUFFER
		f.writeBuffers = append(f.writeBuffers, append([]byte(nil), req.DataOut...))
		return transport.Response{}, nil
	default:
		return transport.Response{}, nil
	}
}

func (f *fakeDrive) Close() error { return nil }

func newTestPipeline(dev *fakeDrive) *writepipeline.Pipeline {
	return writepipeline.New(mmc.New(transport.Open(dev)))
}

func oneTrackDisc() discmodel.DiscInfo {
	return discmodel.DiscInfo{
		FirstTrack: 1,
		LastTrack:  1,
		LeadOutLBA: 300,
		Tracks: []discmodel.Track{
			{Number: 1, StartLBA: 0, EndLBA: 299, IsAudio: true},
		},
	}
}

func TestPipelineHappyPath(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	ctx := context.Background()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if err := p.Blank(ctx, writepipeline.BlankTypeMinimal, false); err != nil {
		t.Fatalf("Blank() error = %v", err)
	}
	if dev.blanks != 1 {
		t.Errorf("expected 1 BLANK call, got %d", dev.blanks)
	}

	disc := oneTrackDisc()
	if err := p.LoadCue(ctx, disc); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}
	if len(dev.cueSheets) != 1 {
		t.Fatalf("expected 1 SEND CUE SHEET call, got %d", len(dev.cueSheets))
	}
	if p.State() != writepipeline.StateLeadInWritten {
		t.Errorf("state after LoadCue = %s, want %s", p.State(), writepipeline.StateLeadInWritten)
	}

	sectorCount := 300
	track := make([]byte, sectorCount*mmc.RawSectorSize)
	if err := p.WriteTracks(ctx, 0, [][]byte{track}, nil); err != nil {
		t.Fatalf("WriteTracks() error = %v", err)
	}
	if p.State() != writepipeline.StateLeadOutWritten {
		t.Errorf("state after WriteTracks = %s, want %s", p.State(), writepipeline.StateLeadOutWritten)
	}

	var totalWritten int
	for _, w := range dev.written {
		totalWritten += len(w)
	}
	if totalWritten != len(track) {
		t.Errorf("drive received %d bytes across WRITE calls, want %d", totalWritten, len(track))
	}

	if err := p.Close(ctx, 0x03); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if p.State() != writepipeline.StateClosed {
		t.Errorf("state after Close = %s, want %s", p.State(), writepipeline.StateClosed)
	}
	if dev.closed == nil {
		t.Error("expected a CLOSE TRACK/SESSION CDB to have been sent")
	}
}

func TestLoadCue_CDTextTrailedOnCueSheetByDefault(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	ctx := context.Background()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	disc := oneTrackDisc()
	disc.Text.AlbumTitle = "Moon Safari"
	if err := p.LoadCue(ctx, disc); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}
	if len(dev.writeBuffers) != 0 {
		t.Errorf("expected no WRITE BUFFER calls when CDTextViaWriteBuffer is unset, got %d", len(dev.writeBuffers))
	}
	plainCue, err := writepipeline.BuildCueSheet(oneTrackDisc())
	if err != nil {
		t.Fatalf("BuildCueSheet() error = %v", err)
	}
	if len(dev.cueSheets[0]) <= len(plainCue) {
		t.Error("expected the CD-Text packs to be trailed onto the SEND CUE SHEET payload")
	}
}

func TestLoadCue_CDTextViaWriteBufferWhenAdvertised(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	p.CDTextViaWriteBuffer = func(context.Context) bool { return true }
	ctx := context.Background()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	disc := oneTrackDisc()
	disc.Text.AlbumTitle = "Moon Safari"
	if err := p.LoadCue(ctx, disc); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}

	plainCue, err := writepipeline.BuildCueSheet(oneTrackDisc())
	if err != nil {
		t.Fatalf("BuildCueSheet() error = %v", err)
	}
	if len(dev.cueSheets) != 1 || len(dev.cueSheets[0]) != len(plainCue) {
		t.Error("expected the SEND CUE SHEET payload to carry no CD-Text trailer")
	}
	if len(dev.writeBuffers) != 1 {
		t.Fatalf("expected 1 WRITE BUFFER call, got %d", len(dev.writeBuffers))
	}
	packs, err := writepipeline.BuildCDTextPacks(disc.Text)
	if err != nil {
		t.Fatalf("BuildCDTextPacks() error = %v", err)
	}
	if string(dev.writeBuffers[0]) != string(packs) {
		t.Error("WRITE BUFFER payload did not match the encoded CD-Text packs")
	}
}

func TestPipelineSkipsBlankForWriteOnceMedia(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	ctx := context.Background()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if err := p.LoadCue(ctx, oneTrackDisc()); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}
	if dev.blanks != 0 {
		t.Errorf("expected no BLANK call when Blank() is never invoked, got %d", dev.blanks)
	}
}

func TestPipelineRejectsOutOfOrderStep(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	ctx := context.Background()

	// LoadCue before Inspect is out of order.
	err := p.LoadCue(ctx, oneTrackDisc())
	if !errors.Is(err, writepipeline.ErrWrongState) {
		t.Errorf("expected ErrWrongState, got %v", err)
	}
	if p.State() != writepipeline.StateIdle {
		t.Errorf("state should remain Idle after a rejected transition, got %s", p.State())
	}
}

func TestPipelineWriteFailureEntersFailedState(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	dev.failWriteAt = 0
	p := newTestPipeline(dev)
	ctx := context.Background()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if err := p.LoadCue(ctx, oneTrackDisc()); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}

	track := make([]byte, 300*mmc.RawSectorSize)
	err := p.WriteTracks(ctx, 0, [][]byte{track}, nil)
	if err == nil {
		t.Fatal("expected an error from a failed WRITE")
	}
	if p.State() != writepipeline.StateFailed {
		t.Errorf("state after a failed write = %s, want %s", p.State(), writepipeline.StateFailed)
	}
}

func TestPipelineCancellationLeavesMediaIndeterminate(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if err := p.LoadCue(context.Background(), oneTrackDisc()); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}

	track := make([]byte, 300*mmc.RawSectorSize)
	err := p.WriteTracks(ctx, 0, [][]byte{track}, nil)
	if !errors.Is(err, writepipeline.ErrIndeterminateMedia) {
		t.Errorf("expected ErrIndeterminateMedia, got %v", err)
	}
	if p.State() != writepipeline.StateFailed {
		t.Errorf("state after cancellation = %s, want %s", p.State(), writepipeline.StateFailed)
	}
	if dev.stopUnits != 1 {
		t.Errorf("stop unit CDBs sent = %d, want 1", dev.stopUnits)
	}
}

func TestPipelineProgressCallback(t *testing.T) {
	t.Parallel()

	dev := newFakeDrive()
	p := newTestPipeline(dev)
	ctx := context.Background()

	if err := p.Inspect(); err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}
	if err := p.LoadCue(ctx, oneTrackDisc()); err != nil {
		t.Fatalf("LoadCue() error = %v", err)
	}

	track := make([]byte, 300*mmc.RawSectorSize)
	var lastSeen writepipeline.Progress
	err := p.WriteTracks(ctx, 0, [][]byte{track}, func(pr writepipeline.Progress) {
		lastSeen = pr
	})
	if err != nil {
		t.Fatalf("WriteTracks() error = %v", err)
	}
	if lastSeen.SectorsWritten != lastSeen.SectorsTotal {
		t.Errorf("final progress callback: written %d != total %d", lastSeen.SectorsWritten, lastSeen.SectorsTotal)
	}
	if lastSeen.TrackNumber != 1 {
		t.Errorf("progress callback track number = %d, want 1", lastSeen.TrackNumber)
	}
}
