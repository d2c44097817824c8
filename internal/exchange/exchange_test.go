// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/transcript"
)

// =============================================================================
// HELPERS
// =============================================================================

type fakeGenerator struct {
	body   io.Reader
	inputs []string
}

func (f *fakeGenerator) Generate(_ context.Context, input string) *ollama.TokenStream {
	f.inputs = append(f.inputs, input)
	return ollama.NewTokenStream(io.NopCloser(f.body))
}

func lines(ls ...string) io.Reader {
	return strings.NewReader(strings.Join(ls, "\n") + "\n")
}

type recorder struct {
	muts []Mutation
}

func (r *recorder) post(m Mutation) {
	r.muts = append(r.muts, m)
}

func (r *recorder) kinds() []Kind {
	out := make([]Kind, len(r.muts))
	for i, m := range r.muts {
		out[i] = m.Kind
	}
	return out
}

// =============================================================================
// INPUT TESTS
// =============================================================================

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"hello", "hello", true},
		{"  spaced out \t", "spaced out", true},
		{"", "", false},
		{"   ", "", false},
		{"\t\n", "", false},
	}
	for _, tc := range tests {
		got, ok := Normalize(tc.raw)
		assert.Equal(t, tc.want, got, "%q", tc.raw)
		assert.Equal(t, tc.ok, ok, "%q", tc.raw)
	}
}

func TestBegin_PostsBoldUserLine(t *testing.T) {
	var r recorder
	Begin("id-1", "What time is it?", r.post)

	require.Len(t, r.muts, 1)
	assert.Equal(t, Mutation{Exchange: "id-1", Kind: AppendUser, Text: "You: What time is it?\n"}, r.muts[0])

	tr := transcript.New()
	r.muts[0].Apply(tr)
	assert.Equal(t, []transcript.Segment{{Text: "You: What time is it?\n", Style: transcript.Bold}}, tr.Segments())
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}

// =============================================================================
// WORKER TESTS
// =============================================================================

func TestRespond_MutationOrder(t *testing.T) {
	gen := &fakeGenerator{body: lines(`{"response":"Hi"}`, `{"response":" there"}`, `{"done":true}`)}
	var r recorder

	Respond(context.Background(), gen, "x", "hello", r.post)

	assert.Equal(t, []string{"hello"}, gen.inputs)
	assert.Equal(t, []Kind{AppendText, InsertLoading, RemoveLoading, AppendText, AppendText, AppendText}, r.kinds())
	assert.Equal(t, AssistantPrefix, r.muts[0].Text)
	assert.Equal(t, "Hi", r.muts[3].Text)
	assert.Equal(t, " there", r.muts[4].Text)
	assert.Equal(t, "\n", r.muts[5].Text)
	for _, m := range r.muts {
		assert.Equal(t, "x", m.Exchange)
	}
}

func TestRespond_FullExchangeTranscript(t *testing.T) {
	gen := &fakeGenerator{body: lines(`{"response":"Hi"}`, `{"response":" there"}`, `{"done":true}`)}
	var r recorder
	tr := transcript.New()

	Begin("x", "hello", r.post)
	Respond(context.Background(), gen, "x", "hello", r.post)
	for _, m := range r.muts {
		m.Apply(tr)
	}

	assert.Equal(t, "You: hello\nAssistant: Hi there\n", tr.String())
	assert.False(t, tr.LoadingActive())
	segs := tr.Segments()
	require.Len(t, segs, 2)
	assert.Equal(t, transcript.Bold, segs[0].Style)
	assert.Equal(t, transcript.Plain, segs[1].Style)
}

func TestRespond_ErrorTokenReplacesMarker(t *testing.T) {
	gen := &fakeGenerator{body: lines("not json", `{"done":true}`)}
	var r recorder
	tr := transcript.New()

	Respond(context.Background(), gen, "x", "hello", r.post)
	for _, m := range r.muts {
		m.Apply(tr)
	}

	assert.Equal(t, "Assistant: not json\n", tr.String())
}

func TestRespond_NoTokensLeavesMarker(t *testing.T) {
	gen := &fakeGenerator{body: lines(`{"done":true}`)}
	var r recorder
	tr := transcript.New()

	Respond(context.Background(), gen, "x", "hello", r.post)
	for _, m := range r.muts {
		m.Apply(tr)
	}

	assert.Equal(t, []Kind{AppendText, InsertLoading, AppendText}, r.kinds())
	assert.Equal(t, "Assistant: Loading...\n", tr.String())
}

func TestRespond_LoadingMarkerVisibleUntilFirstToken(t *testing.T) {
	pr, pw := io.Pipe()
	gen := &fakeGenerator{body: pr}
	posted := make(chan Mutation, 16)
	done := make(chan struct{})

	go func() {
		Respond(context.Background(), gen, "x", "hello", func(m Mutation) { posted <- m })
		close(done)
	}()

	tr := transcript.New()
	(<-posted).Apply(tr)
	(<-posted).Apply(tr)
	assert.Equal(t, "Assistant: Loading...", tr.String())

	_, err := io.WriteString(pw, `{"response":"Paris"}`+"\n")
	require.NoError(t, err)
	pw.Close()
	<-done
	close(posted)

	for m := range posted {
		m.Apply(tr)
	}
	assert.NotContains(t, tr.String(), transcript.LoadingText)
	assert.Equal(t, "Assistant: Paris\n", tr.String())
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "append-user", AppendUser.String())
	assert.Equal(t, "remove-loading", RemoveLoading.String())
	assert.Equal(t, "unknown", Kind(42).String())
}
