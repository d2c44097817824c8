// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package transcript holds the conversation buffer shown in the chat window.
//
// A Transcript is an ordered sequence of styled segments. Offsets are counted
// in characters (runes), never bytes, so they line up with what the user sees.
// The only in-place edit is removal of the loading marker; everything else
// appends at the end.
//
// A Transcript is not safe for concurrent use. It is owned by the UI event
// loop and every mutation is expected to arrive through that loop.
package transcript

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// SEGMENTS
// =============================================================================

// Style selects how a segment is rendered.
type Style int

const (
	// Plain is used for assistant output and markers.
	Plain Style = iota
	// Bold is used for user-authored text.
	Bold
)

// String returns the style name.
func (s Style) String() string {
	switch s {
	case Bold:
		return "bold"
	default:
		return "plain"
	}
}

// Segment is a run of text sharing one style.
type Segment struct {
	Text  string
	Style Style
}

// Len returns the segment length in characters.
func (s Segment) Len() int {
	return utf8.RuneCountInString(s.Text)
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// LoadingText is the placeholder shown until the first token arrives.
const LoadingText = "Loading..."

// Transcript is the append-only conversation buffer.
type Transcript struct {
	segments []Segment
	length   int

	// Loading marker offsets, valid only while loading is true.
	loading      bool
	loadingStart int
	loadingEnd   int
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{}
}

// Append adds text at the end of the buffer. Empty text is ignored and
// adjacent segments with the same style are merged.
func (t *Transcript) Append(text string, style Style) {
	if text == "" {
		return
	}
	n := utf8.RuneCountInString(text)
	if last := len(t.segments) - 1; last >= 0 && t.segments[last].Style == style {
		t.segments[last].Text += text
	} else {
		t.segments = append(t.segments, Segment{Text: text, Style: style})
	}
	t.length += n
}

// Len returns the buffer length in characters.
func (t *Transcript) Len() int {
	return t.length
}

// String returns the full buffer text without styling.
func (t *Transcript) String() string {
	var b strings.Builder
	for _, seg := range t.segments {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Segments returns a copy of the buffer's segments.
func (t *Transcript) Segments() []Segment {
	out := make([]Segment, len(t.segments))
	copy(out, t.segments)
	return out
}

// Delete removes the characters in [start, end).
func (t *Transcript) Delete(start, end int) error {
	if start < 0 || end < start || end > t.length {
		return fmt.Errorf("delete range [%d,%d) outside buffer of length %d", start, end, t.length)
	}
	if start == end {
		return nil
	}

	kept := t.segments[:0:0]
	pos := 0
	for _, seg := range t.segments {
		segLen := seg.Len()
		segStart, segEnd := pos, pos+segLen
		pos = segEnd

		if segEnd <= start || segStart >= end {
			kept = append(kept, seg)
			continue
		}

		runes := []rune(seg.Text)
		cutFrom := max(start-segStart, 0)
		cutTo := min(end-segStart, segLen)
		remaining := string(runes[:cutFrom]) + string(runes[cutTo:])
		if remaining != "" {
			kept = append(kept, Segment{Text: remaining, Style: seg.Style})
		}
	}

	t.segments = coalesce(kept)
	t.length -= end - start
	return nil
}

// coalesce merges neighbouring segments that ended up with the same style
// after a deletion.
func coalesce(segs []Segment) []Segment {
	if len(segs) < 2 {
		return segs
	}
	out := segs[:1]
	for _, seg := range segs[1:] {
		last := &out[len(out)-1]
		if last.Style == seg.Style {
			last.Text += seg.Text
			continue
		}
		out = append(out, seg)
	}
	return out
}
