// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange implements one user-message/assistant-reply round trip.
//
// An exchange never touches the transcript directly. It describes every
// change as a Mutation and hands it to a post function; the owner of the
// transcript applies mutations in the order they were posted. The chat window
// posts them onto its event loop, the line-mode REPL renders them straight
// to the terminal.
package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/aiassistant/internal/ollama"
	"github.com/jeranaias/aiassistant/internal/transcript"
)

// AssistantPrefix starts every assistant reply.
const AssistantPrefix = "Assistant: "

// =============================================================================
// MUTATIONS
// =============================================================================

// Kind identifies a transcript change.
type Kind int

const (
	// AppendUser appends bold user text.
	AppendUser Kind = iota
	// AppendText appends plain assistant text.
	AppendText
	// InsertLoading appends the loading marker.
	InsertLoading
	// RemoveLoading removes the loading marker.
	RemoveLoading
)

func (k Kind) String() string {
	switch k {
	case AppendUser:
		return "append-user"
	case AppendText:
		return "append-text"
	case InsertLoading:
		return "insert-loading"
	case RemoveLoading:
		return "remove-loading"
	default:
		return "unknown"
	}
}

// Mutation is one scheduled change to the transcript.
type Mutation struct {
	Exchange string
	Kind     Kind
	Text     string
}

// Apply performs the mutation on t.
func (m Mutation) Apply(t *transcript.Transcript) {
	switch m.Kind {
	case AppendUser:
		t.Append(m.Text, transcript.Bold)
	case AppendText:
		t.Append(m.Text, transcript.Plain)
	case InsertLoading:
		t.InsertLoading()
	case RemoveLoading:
		t.RemoveLoading()
	}
}

// PostFunc schedules a mutation. It must not block.
type PostFunc func(Mutation)

// =============================================================================
// INPUT
// =============================================================================

// Normalize trims raw input. ok is false when nothing is left to send.
func Normalize(raw string) (input string, ok bool) {
	input = strings.TrimSpace(raw)
	return input, input != ""
}

// UserLine is the transcript text for a submitted message.
func UserLine(input string) string {
	return "You: " + input + "\n"
}

// NewID returns a fresh exchange identifier.
func NewID() string {
	return uuid.NewString()
}

// =============================================================================
// WORKER
// =============================================================================

// Generator produces the token stream for one prompt.
type Generator interface {
	Generate(ctx context.Context, input string) *ollama.TokenStream
}

// Begin schedules the user's line. Call it on the goroutine that owns the
// input field, before starting the worker.
func Begin(id, input string, post PostFunc) {
	post(Mutation{Exchange: id, Kind: AppendUser, Text: UserLine(input)})
}

// Respond is the body of the background worker. It blocks until the stream
// ends and schedules, in order: the assistant prefix, the loading marker,
// marker removal before the first token, every token, and a closing newline.
func Respond(ctx context.Context, gen Generator, id, input string, post PostFunc) {
	logger := log.With().Str("exchange", id).Logger()
	ctx = logger.WithContext(ctx)
	start := time.Now()

	post(Mutation{Exchange: id, Kind: AppendText, Text: AssistantPrefix})
	post(Mutation{Exchange: id, Kind: InsertLoading})

	stream := gen.Generate(ctx, input)
	defer stream.Close()

	first := true
	for token := range stream.All() {
		if first {
			post(Mutation{Exchange: id, Kind: RemoveLoading})
			logger.Debug().Dur("ttft", time.Since(start)).Msg("first token")
			first = false
		}
		post(Mutation{Exchange: id, Kind: AppendText, Text: token})
	}
	post(Mutation{Exchange: id, Kind: AppendText, Text: "\n"})

	logExchangeDone(logger, stream, time.Since(start))
}

func logExchangeDone(logger zerolog.Logger, stream *ollama.TokenStream, elapsed time.Duration) {
	ev := logger.Info().
		Int("tokens", stream.Count()).
		Dur("elapsed", elapsed)
	if final, ok := stream.Final(); ok {
		ev = ev.Str("done_reason", final.DoneReason).Int("eval_count", final.EvalCount)
	}
	ev.Msg("exchange finished")
}
