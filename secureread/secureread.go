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

// Package secureread implements the multi-pass, cache-defeating,
// C2-guided secure read engine: repeated full passes build a per-sector
// vote tally, C2-flagged sectors are quarantined and re-read in
// isolation, and the read-offset correction is applied disc-wide before
// the corrected stream is re-sliced into per-track buffers.
package secureread

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/mmc"
	"github.com/bitexact/audiocopy/transport"
)

// DefaultRereadBudget is the per-sector re-read cap before a contested
// sector is declared unresolved.
const DefaultRereadBudget = 16

// retryBackoffs is the exponential backoff ladder for transport-error
// retries.
var retryBackoffs = []time.Duration{50 * time.Millisecond, 200 * time.Millisecond, 800 * time.Millisecond}

// cacheDefeatDistanceSectors is the minimum offset (modulo disc size) a purge read
// must be issued at before re-reading the same LBA.
const cacheDefeatDistanceSectors = (64 * 1024 * 1024) / mmc.CDDASize

// ProgressEvent reports incremental status to a non-blocking caller
// callback.
type ProgressEvent struct {
	TrackNumber  int
	Pass         int
	SectorsDone  int
	SectorsTotal int
}

// ProgressFunc receives ProgressEvent updates. It must not block.
type ProgressFunc func(ProgressEvent)

// AccurateStreamDetector reports whether the drive advertises jitter-free
// consecutive reads (MMC feature 0x0107), which auto-disables cache defeat
//. A nil detector is treated as "not advertised".
type AccurateStreamDetector func(ctx context.Context) bool

// Engine drives the secure read algorithm over a single drive handle.
type Engine struct {
	drive    *mmc.Drive
	discSize int32 // total sectors, used for cache-defeat distance wraparound

	AccurateStream AccurateStreamDetector
}

// New constructs an Engine bound to drive. discSizeSectors should be the
// disc's lead-out LBA (the total addressable sector count).
func New(drive *mmc.Drive, discSizeSectors int32) *Engine {
	return &Engine{drive: drive, discSize: discSizeSectors}
}

// ErrCancelled is returned (wrapped) when the context is cancelled
// mid-operation; the accompanying SecureRipResult carries partial results.
var ErrCancelled = errors.New("secureread: cancelled")

// ReadTrackSecure rips one track according to cfg, returning the
// offset-uncorrected sample buffer (offset correction is applied across the
// whole disc by ReadDiscSecure, since it can move samples across track
// boundaries) plus the per-track result.
func (e *Engine) ReadTrackSecure(ctx context.Context, track discmodel.Track, cfg discmodel.SecureRipConfig, progress ProgressFunc) (*discmodel.TrackAudio, discmodel.SecureRipResult, error) {
	startLBA := track.PregapLBA
	sectorCount := int(track.EndLBA-startLBA) + 1
	if sectorCount <= 0 {
		return nil, discmodel.SecureRipResult{}, fmt.Errorf("secureread: track %d has non-positive sector count", track.Number)
	}

	requiredAgreements := passesRequiredToAgree(cfg.Mode)
	cacheDefeat := cfg.CacheDefeat
	if e.AccurateStream != nil && e.AccurateStream(ctx) {
		cacheDefeat = false
	}

	tallies := make([]*sectorTally, sectorCount)
	c2Dirty := make([]bool, sectorCount)
	for i := range tallies {
		tallies[i] = newSectorTally()
	}

	result := discmodel.SecureRipResult{TrackNumber: track.Number}
	agreeingPasses := 0

	for pass := 1; pass <= cfg.MaxPasses; pass++ {
		if err := ctx.Err(); err != nil {
			result.Cancelled = true
			return nil, result, fmt.Errorf("%w", ErrCancelled)
		}

		changed, err := e.runPass(ctx, startLBA, sectorCount, cfg, cacheDefeat, tallies, c2Dirty, track.Number, pass, progress, &result)
		if err != nil {
			if errors.Is(err, ErrCancelled) {
				result.Cancelled = true
			}
			return nil, result, err
		}
		result.PassesPerformed = pass

		if !changed && pass >= cfg.MinPasses {
			agreeingPasses++
		} else {
			agreeingPasses = 1
		}
		if pass >= cfg.MinPasses && agreeingPasses >= requiredAgreements {
			break
		}
	}

	if cfg.C2Guided {
		if err := e.quarantineRereads(ctx, startLBA, sectorCount, tallies, c2Dirty, track.Number, progress, &result); err != nil {
			if errors.Is(err, ErrCancelled) {
				result.Cancelled = true
			}
			return nil, result, err
		}
	}

	audio := &discmodel.TrackAudio{
		Samples:    make([]byte, sectorCount*mmc.CDDASize),
		Confidence: make([]discmodel.Confidence, sectorCount),
	}

	for i, tally := range tallies {
		data, conf := tally.resolve(cfg.AgreementThreshold)
		audio.Confidence[i] = conf
		result.Confidence = append(result.Confidence, conf)
		if data != nil {
			copy(audio.Samples[i*mmc.CDDASize:], data)
		} else {
			result.UnresolvedLBAs = append(result.UnresolvedLBAs, startLBA+int32(i))
		}
	}

	return audio, result, nil
}

// runPass reads every sector in [startLBA, startLBA+sectorCount) once, in
// ascending order, recording each observation in its tally. It returns
// changed=true if any sector's winning value changed relative to the start
// of the pass (used to detect pass-to-pass agreement).
func (e *Engine) runPass(ctx context.Context, startLBA int32, sectorCount int, cfg discmodel.SecureRipConfig, cacheDefeat bool, tallies []*sectorTally, c2Dirty []bool, trackNumber, pass int, progress ProgressFunc, result *discmodel.SecureRipResult) (bool, error) {
	changed := false

	for i := 0; i < sectorCount; i++ {
		if err := ctx.Err(); err != nil {
			return changed, ErrCancelled
		}

		lba := startLBA + int32(i)
		priorWinner, _ := tallies[i].resolve(cfg.AgreementThreshold)

		if cacheDefeat {
			e.purgeRead(ctx, lba)
		}

		data, c2Clean, err := e.readSectorWithRetry(ctx, lba, cfg.C2Guided, result)
		if err != nil {
			if errors.Is(err, ErrCancelled) || errors.Is(err, transport.ErrDeviceGone) {
				return changed, err
			}
			// Transport error budget exhausted: mark unresolved and
			// continue the pass.
			continue
		}
		if cfg.C2Guided && !c2Clean {
			c2Dirty[i] = true
		}

		tallies[i].observe(data, c2Clean)

		newWinner, _ := tallies[i].resolve(cfg.AgreementThreshold)
		if priorWinner == nil || !bytesEqual(priorWinner, newWinner) {
			changed = true
		}

		if progress != nil {
			progress(ProgressEvent{TrackNumber: trackNumber, Pass: pass, SectorsDone: i + 1, SectorsTotal: sectorCount})
		}
	}

	return changed, nil
}

// quarantineRereads re-reads, in isolation, every sector flagged dirty by
// C2 during the main passes, until the C2 bitmap clears for two successive
// reads or DefaultRereadBudget is exhausted.
func (e *Engine) quarantineRereads(ctx context.Context, startLBA int32, sectorCount int, tallies []*sectorTally, c2Dirty []bool, trackNumber int, progress ProgressFunc, result *discmodel.SecureRipResult) error {
	for i := 0; i < sectorCount; i++ {
		if !c2Dirty[i] {
			continue
		}
		lba := startLBA + int32(i)

		for attempt := 0; attempt < DefaultRereadBudget; attempt++ {
			if err := ctx.Err(); err != nil {
				return ErrCancelled
			}
			if tallies[i].c2CleanStreak() >= 2 {
				break
			}

			data, c2Clean, err := e.readSectorWithRetry(ctx, lba, true, result)
			if err != nil {
				if errors.Is(err, ErrCancelled) || errors.Is(err, transport.ErrDeviceGone) {
					return err
				}
				continue
			}
			tallies[i].observe(data, c2Clean)
			result.TotalRereads++
		}

		if progress != nil {
			progress(ProgressEvent{TrackNumber: trackNumber, Pass: -1, SectorsDone: i + 1, SectorsTotal: sectorCount})
		}
	}
	return nil
}

// readSectorWithRetry reads one sector (with C2 if requested), retrying
// transport errors up to 3 times with exponential backoff before giving up
// on the sector. A DeviceGone error aborts immediately.
func (e *Engine) readSectorWithRetry(ctx context.Context, lba int32, withC2 bool, result *discmodel.SecureRipResult) ([]byte, bool, error) {
	var lastErr error
	for attempt := 0; attempt <= len(retryBackoffs); attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, false, ErrCancelled
			case <-time.After(retryBackoffs[attempt-1]):
			}
			result.TotalRereads++
		}

		if withC2 {
			raw, err := e.drive.ReadCDWithC2(ctx, lba, 1)
			if err != nil {
				if errors.Is(err, transport.ErrDeviceGone) {
					return nil, false, fmt.Errorf("secureread: %w", err)
				}
				lastErr = err
				continue
			}
			sector := raw[:mmc.CDDASize]
			c2 := raw[mmc.CDDASize:]
			return sector, isC2Clean(c2), nil
		}

		raw, err := e.drive.ReadCD(ctx, lba, 1, mmc.SectorTypeCDDA, mmc.SubchannelNone)
		if err != nil {
			if errors.Is(err, transport.ErrDeviceGone) {
				return nil, false, fmt.Errorf("secureread: %w", err)
			}
			lastErr = err
			continue
		}
		return raw, true, nil
	}
	return nil, false, fmt.Errorf("secureread: read lba %d: %w", lba, lastErr)
}

func isC2Clean(c2Bitmap []byte) bool {
	for _, b := range c2Bitmap {
		if b != 0 {
			return false
		}
	}
	return true
}

// purgeRead issues a throwaway read at a distant LBA to defeat drive-side
// caching before re-reading the target sector, plus a cache flush where the
// transport layer supports it.
func (e *Engine) purgeRead(ctx context.Context, targetLBA int32) {
	purgeLBA := targetLBA + cacheDefeatDistanceSectors
	if e.discSize > 0 {
		purgeLBA %= e.discSize
	}
	if purgeLBA < 0 {
		purgeLBA = 0
	}
	_, _ = e.drive.ReadCD(ctx, purgeLBA, 1, mmc.SectorTypeCDDA, mmc.SubchannelNone)
	_ = e.drive.FlushCache(ctx)
}

// passesRequiredToAgree returns how many consecutive passes must agree
// before the engine stops early, per mode.
func passesRequiredToAgree(mode discmodel.SecureRipMode) int {
	switch mode {
	case discmodel.ModeParanoid:
		return 3
	case discmodel.ModeFast, discmodel.ModeBurst:
		return 1
	default: // Standard, Disabled
		return 2
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
