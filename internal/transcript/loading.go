// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import "unicode/utf8"

// =============================================================================
// LOADING MARKER
// =============================================================================

// InsertLoading appends the loading marker and records its offsets.
// A second insert overwrites the recorded offsets; only the latest marker
// can be removed.
func (t *Transcript) InsertLoading() {
	start := t.Len()
	t.Append(LoadingText, Plain)
	t.loading = true
	t.loadingStart = start
	t.loadingEnd = start + utf8.RuneCountInString(LoadingText)
}

// RemoveLoading deletes the marker if one is recorded and the buffer still
// reaches its end offset. It reports whether anything was removed.
func (t *Transcript) RemoveLoading() bool {
	if !t.loading || t.Len() < t.loadingEnd {
		return false
	}
	if err := t.Delete(t.loadingStart, t.loadingEnd); err != nil {
		return false
	}
	t.loading = false
	t.loadingStart, t.loadingEnd = 0, 0
	return true
}

// LoadingActive reports whether a loading marker is currently recorded.
func (t *Transcript) LoadingActive() bool {
	return t.loading
}

// loadingRange returns the recorded marker offsets.
func (t *Transcript) loadingRange() (start, end int, ok bool) {
	return t.loadingStart, t.loadingEnd, t.loading
}
