// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"iter"
)

// =============================================================================
// TOKEN STREAM
// =============================================================================

// TokenStream yields the text fragments of one generate response.
// It is consumed exactly once and is not safe for concurrent use.
type TokenStream struct {
	body    io.ReadCloser
	reader  *bufio.Reader
	pending []string
	done    bool
	count   int
	last    *GenerateChunk
}

// NewTokenStream reads newline-delimited generate objects from body.
// The stream closes body when it finishes.
func NewTokenStream(body io.ReadCloser) *TokenStream {
	return &TokenStream{
		body:   body,
		reader: bufio.NewReader(body),
	}
}

// errorStream is a stream that yields a single descriptive token.
func errorStream(token string) *TokenStream {
	return &TokenStream{pending: []string{token}}
}

// Next returns the next token. The second result is false once the stream
// has ended, after which Next keeps returning ("", false).
func (s *TokenStream) Next() (string, bool) {
	if len(s.pending) > 0 {
		token := s.pending[0]
		s.pending = s.pending[1:]
		s.count++
		return token, true
	}
	if s.done || s.reader == nil {
		s.finish()
		return "", false
	}

	for {
		line, err := s.reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)

		if len(line) > 0 {
			token, stop := s.decode(line)
			if stop {
				s.finish()
				return "", false
			}
			if err != nil && err != io.EOF {
				s.pending = append(s.pending, "Exception: "+err.Error())
				s.done = true
			} else if err == io.EOF {
				s.done = true
			}
			s.count++
			return token, true
		}

		if err != nil {
			s.finish()
			if err != io.EOF {
				s.count++
				return "Exception: " + err.Error(), true
			}
			return "", false
		}
	}
}

// decode turns one line into a token. stop is true for the terminating
// object. Only response and done are read strictly; a line that is not a
// JSON object is returned verbatim.
func (s *TokenStream) decode(line []byte) (token string, stop bool) {
	var ctl controlChunk
	if err := json.Unmarshal(line, &ctl); err != nil {
		return string(line), false
	}
	if truthy(ctl.Done) {
		// The remaining fields only feed the exchange log.
		var chunk GenerateChunk
		_ = json.Unmarshal(line, &chunk)
		chunk.Done = true
		s.last = &chunk
		return "", true
	}
	return responseText(ctl.Response), false
}

// controlChunk holds the two fields that decide what a line yields.
type controlChunk struct {
	Response json.RawMessage `json:"response"`
	Done     json.RawMessage `json:"done"`
}

// truthy reports whether a JSON value counts as set: anything except
// null, false, zero, "", [] and {}.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	switch raw[0] {
	case 'n', 'f':
		return false
	case 't':
		return true
	case '"':
		return len(raw) > 2
	case '[':
		var v []json.RawMessage
		return json.Unmarshal(raw, &v) == nil && len(v) > 0
	case '{':
		var m map[string]json.RawMessage
		return json.Unmarshal(raw, &m) == nil && len(m) > 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return true
	}
	return n != 0
}

// responseText returns the response field as text. A missing or null field
// is empty; a non-string value is returned as its JSON text.
func responseText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(raw)
}

// All returns the remaining tokens as an iterator. Breaking out of the loop
// closes the stream.
func (s *TokenStream) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		defer s.Close()
		for {
			token, ok := s.Next()
			if !ok {
				return
			}
			if !yield(token) {
				return
			}
		}
	}
}

// Close releases the response body. Further calls to Next return no tokens.
func (s *TokenStream) Close() error {
	s.pending = nil
	s.finish()
	return nil
}

// Count returns how many tokens have been produced so far.
func (s *TokenStream) Count() int {
	return s.count
}

// Final returns the terminating object, if the server sent one.
func (s *TokenStream) Final() (GenerateChunk, bool) {
	if s.last == nil {
		return GenerateChunk{}, false
	}
	return *s.last, true
}

func (s *TokenStream) finish() {
	s.done = true
	if s.body != nil {
		s.body.Close()
		s.body = nil
	}
}
