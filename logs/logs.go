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

// Package logs renders the human-readable read log, secure-rip log, and
// CSV scan logs. Every report is plain text or CSV written through an
// io.Writer (no structured logging library pulled in for this), with
// files opened append-only through an afero.Fs, the same injectable
// filesystem offsetdb reads and writes its backing store through.
package logs

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pierrec/lz4/v4"
	"github.com/spf13/afero"

	"github.com/bitexact/audiocopy/accuraterip"
	"github.com/bitexact/audiocopy/discmodel"
	"github.com/bitexact/audiocopy/scan"
)

// fileAppendFlags: log files are opened append-only.
const fileAppendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

// OpenAppend opens path on fs for append-only writing, creating it if
// necessary. Log files are only ever appended to, never rewritten.
func OpenAppend(fs afero.Fs, path string) (afero.File, error) {
	f, err := fs.OpenFile(path, fileAppendFlags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("logs: open %s: %w", path, err)
	}
	return f, nil
}

// ReadLogEntry is everything a <name>.log report needs about one rip.
type ReadLogEntry struct {
	ToolVersion string
	DriveID     string
	Config      discmodel.SecureRipConfig
	Disc        discmodel.DiscInfo

	TrackCRC32 map[int]uint32
	TrackARv1  map[int]uint32
	TrackARv2  map[int]uint32

	AccurateRip *accuraterip.Result

	UnresolvedLBAs map[int][]int32 // by track number
}

// WriteReadLog renders the human-readable read log: tool version, drive
// ID, config, TOC, per-track CRC32/AR-v1/AR-v2,
// AccurateRip match counts, and the unresolved-LBA list.
func WriteReadLog(w io.Writer, e ReadLogEntry) error {
	if _, err := fmt.Fprintf(w, "audiocopy %s\n", e.ToolVersion); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Drive: %s\n", e.DriveID); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Mode: %v  MinPasses=%d MaxPasses=%d AgreementThreshold=%d CacheDefeat=%t C2Guided=%t\n",
		e.Config.Mode, e.Config.MinPasses, e.Config.MaxPasses, e.Config.AgreementThreshold, e.Config.CacheDefeat, e.Config.C2Guided); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nTOC:\n"); err != nil {
		return err
	}
	for _, t := range e.Disc.Tracks {
		if _, err := fmt.Fprintf(w, "  Track %2d: pregap=%d start=%d end=%d isrc=%q\n",
			t.Number, t.PregapLBA, t.StartLBA, t.EndLBA, t.ISRC); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "  Lead-out: %d\n", e.Disc.LeadOutLBA); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nPer-track checksums:\n"); err != nil {
		return err
	}
	for _, t := range e.Disc.Tracks {
		if _, err := fmt.Fprintf(w, "  Track %2d: CRC32=%08X AR-v1=%08X AR-v2=%08X\n",
			t.Number, e.TrackCRC32[t.Number], e.TrackARv1[t.Number], e.TrackARv2[t.Number]); err != nil {
			return err
		}
	}

	if e.AccurateRip != nil {
		if _, err := fmt.Fprintf(w, "\nAccurateRip: overall accurate=%t\n", e.AccurateRip.Accurate); err != nil {
			return err
		}
		for _, tr := range e.AccurateRip.Tracks {
			status := "no match"
			if tr.Matched {
				status = fmt.Sprintf("matched pressing %d, confidence %d", tr.PressingIndex+1, tr.Confidence)
			}
			if _, err := fmt.Fprintf(w, "  Track %2d: %s\n", tr.TrackNumber, status); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "\nUnresolved sectors:\n"); err != nil {
		return err
	}
	tracks := make([]int, 0, len(e.UnresolvedLBAs))
	for tn := range e.UnresolvedLBAs {
		tracks = append(tracks, tn)
	}
	sort.Ints(tracks)
	any := false
	for _, tn := range tracks {
		lbas := e.UnresolvedLBAs[tn]
		if len(lbas) == 0 {
			continue
		}
		any = true
		if _, err := fmt.Fprintf(w, "  Track %2d: %v\n", tn, lbas); err != nil {
			return err
		}
	}
	if !any {
		if _, err := fmt.Fprintf(w, "  (none)\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteSecureLog renders the <name>_secure.log report: pass count,
// re-read count, and per-track confidence breakdown.
func WriteSecureLog(w io.Writer, results []discmodel.SecureRipResult) error {
	for _, r := range results {
		verified, bestEffort, unresolved := 0, 0, 0
		for _, c := range r.Confidence {
			switch c {
			case discmodel.ConfidenceVerified:
				verified++
			case discmodel.ConfidenceBestEffort:
				bestEffort++
			default:
				unresolved++
			}
		}
		if _, err := fmt.Fprintf(w, "Track %2d: passes=%d rereads=%d verified=%d best-effort=%d unresolved=%d cancelled=%t\n",
			r.TrackNumber, r.PassesPerformed, r.TotalRereads, verified, bestEffort, unresolved, r.Cancelled); err != nil {
			return err
		}
	}
	return nil
}

// WriteScanCSV renders a scan.Result as CSV, one row per LBA plus a header
// naming the scan-specific columns.
func WriteScanCSV(w io.Writer, result scan.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(result.Columns); err != nil {
		return fmt.Errorf("logs: write csv header: %w", err)
	}
	for _, row := range result.Rows {
		if err := cw.Write([]string(row)); err != nil {
			return fmt.Errorf("logs: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("logs: flush csv: %w", err)
	}
	return nil
}

// WriteScanCSVLZ4 renders result as CSV through an LZ4 frame writer, for the
// surface-map and disc-rot scans whose per-LBA row count can reach into the
// hundreds of thousands on a long disc. Callers name the output
// "<name>.csv.lz4"; the frame is self-describing, so any standard lz4 tool
// decompresses it without out-of-band metadata.
func WriteScanCSVLZ4(w io.Writer, result scan.Result) error {
	zw := lz4.NewWriter(w)
	if err := WriteScanCSV(zw, result); err != nil {
		_ = zw.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("logs: close lz4 writer: %w", err)
	}
	return nil
}
