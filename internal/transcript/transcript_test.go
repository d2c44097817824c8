// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package transcript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// APPEND TESTS
// =============================================================================

func TestAppend_MergesSameStyle(t *testing.T) {
	tr := New()
	tr.Append("Assistant: ", Plain)
	tr.Append("Hi", Plain)
	tr.Append("You: x\n", Bold)

	segs := tr.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, Segment{Text: "Assistant: Hi", Style: Plain}, segs[0])
	assert.Equal(t, Segment{Text: "You: x\n", Style: Bold}, segs[1])
	assert.Equal(t, "Assistant: HiYou: x\n", tr.String())
}

func TestAppend_EmptyIsNoop(t *testing.T) {
	tr := New()
	tr.Append("", Bold)

	assert.Equal(t, 0, tr.Len())
	assert.Empty(t, tr.Segments())
}

func TestLen_CountsCharacters(t *testing.T) {
	tr := New()
	tr.Append("héllo ☃", Plain)

	assert.Equal(t, 7, tr.Len())
}

func TestSegments_ReturnsCopy(t *testing.T) {
	tr := New()
	tr.Append("abc", Plain)

	segs := tr.Segments()
	segs[0].Text = "changed"

	assert.Equal(t, "abc", tr.String())
}

// =============================================================================
// DELETE TESTS
// =============================================================================

func TestDelete(t *testing.T) {
	tests := []struct {
		name       string
		start, end int
		want       string
		wantSegs   int
	}{
		{"inside first segment", 1, 3, "aBBcc", 3},
		{"whole middle segment", 3, 5, "aaacc", 1},
		{"across boundary", 2, 4, "aaBcc", 3},
		{"empty range", 2, 2, "aaaBBcc", 3},
		{"everything", 0, 7, "", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New()
			tr.Append("aaa", Plain)
			tr.Append("BB", Bold)
			tr.Append("cc", Plain)

			require.NoError(t, tr.Delete(tc.start, tc.end))
			assert.Equal(t, tc.want, tr.String())
			assert.Equal(t, len([]rune(tc.want)), tr.Len())
			assert.Len(t, tr.Segments(), tc.wantSegs)
		})
	}
}

func TestDelete_OutOfRange(t *testing.T) {
	tr := New()
	tr.Append("abc", Plain)

	assert.Error(t, tr.Delete(-1, 2))
	assert.Error(t, tr.Delete(2, 1))
	assert.Error(t, tr.Delete(0, 4))
	assert.Equal(t, "abc", tr.String())
}

func TestDelete_MultibyteOffsets(t *testing.T) {
	tr := New()
	tr.Append("☃☃abc", Plain)

	require.NoError(t, tr.Delete(1, 3))
	assert.Equal(t, "☃bc", tr.String())
}

// =============================================================================
// LOADING MARKER TESTS
// =============================================================================

func TestLoadingMarker_InsertAndRemove(t *testing.T) {
	tr := New()
	tr.Append("You: hi\n", Bold)
	tr.Append("Assistant: ", Plain)
	tr.InsertLoading()

	assert.True(t, tr.LoadingActive())
	assert.Contains(t, tr.String(), "Assistant: Loading...")

	start, end, ok := tr.loadingRange()
	require.True(t, ok)
	assert.Equal(t, 19, start)
	assert.Equal(t, 29, end)

	assert.True(t, tr.RemoveLoading())
	tr.Append("Hello", Plain)

	assert.False(t, tr.LoadingActive())
	assert.NotContains(t, tr.String(), LoadingText)
	assert.Equal(t, "You: hi\nAssistant: Hello", tr.String())
}

func TestLoadingMarker_RemoveOnlyOnce(t *testing.T) {
	tr := New()
	tr.Append("Assistant: ", Plain)
	tr.InsertLoading()

	assert.True(t, tr.RemoveLoading())
	tr.Append("Loading...", Plain)

	assert.False(t, tr.RemoveLoading(), "second removal must be a no-op")
	assert.Equal(t, "Assistant: Loading...", tr.String())
}

func TestLoadingMarker_RemoveWithoutInsert(t *testing.T) {
	tr := New()
	tr.Append("text", Plain)

	assert.False(t, tr.RemoveLoading())
	assert.Equal(t, "text", tr.String())
}

func TestLoadingMarker_GuardAgainstTruncation(t *testing.T) {
	tr := New()
	tr.Append("Assistant: ", Plain)
	tr.InsertLoading()
	require.NoError(t, tr.Delete(5, tr.Len()))

	assert.False(t, tr.RemoveLoading())
	assert.True(t, tr.LoadingActive())
	assert.Equal(t, "Assis", tr.String())
}

func TestLoadingMarker_SecondInsertOverwritesOffsets(t *testing.T) {
	tr := New()
	tr.Append("Assistant: ", Plain)
	tr.InsertLoading()
	tr.Append("\nAssistant: ", Plain)
	tr.InsertLoading()

	assert.True(t, tr.RemoveLoading())
	assert.Equal(t, "Assistant: Loading...\nAssistant: ", tr.String())
}
