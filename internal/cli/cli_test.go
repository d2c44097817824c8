// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aiassistant/internal/exchange"
	"github.com/jeranaias/aiassistant/internal/ollama"
)

// =============================================================================
// HELPERS
// =============================================================================

const replyBody = `{"response":"Hi"}` + "\n" + `{"response":" there"}` + "\n" + `{"done":true}` + "\n"

// fakeOllama serves the three endpoints the commands use.
func fakeOllama(t *testing.T, models string, prompts *[]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			io.WriteString(w, "Ollama is running")
		case "/api/tags":
			io.WriteString(w, models)
		case "/api/generate":
			var req ollama.GenerateRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if prompts != nil {
				*prompts = append(*prompts, req.Prompt)
			}
			io.WriteString(w, replyBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// run executes the command tree with an isolated home directory.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := NewRootCommand()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

type fakeReader struct {
	lines   []string
	history []string
}

func (f *fakeReader) Prompt(string) (string, error) {
	if len(f.lines) == 0 {
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeReader) AppendHistory(item string) { f.history = append(f.history, item) }

func (f *fakeReader) Close() error { return nil }

type fakeGenerator struct {
	inputs []string
}

func (g *fakeGenerator) Generate(_ context.Context, input string) *ollama.TokenStream {
	g.inputs = append(g.inputs, input)
	return ollama.NewTokenStream(io.NopCloser(strings.NewReader(replyBody)))
}

// =============================================================================
// ASK TESTS
// =============================================================================

func TestAsk_StreamsReply(t *testing.T) {
	var prompts []string
	srv := fakeOllama(t, `{"models":[]}`, &prompts)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "--url", srv.URL, "ask", "hello", "world")

	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)
	require.Len(t, prompts, 1)
	assert.True(t, strings.HasSuffix(prompts[0], "\nUser: hello world\nAssistant:"), prompts[0])
}

func TestAsk_ReadsStdin(t *testing.T) {
	var prompts []string
	srv := fakeOllama(t, `{"models":[]}`, &prompts)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "  from stdin \n", "--config", cfgPath, "--url", srv.URL, "ask", "-")

	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "User: from stdin\n")
}

func TestAsk_EmptyMessage(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	_, err := run(t, "", "--config", cfgPath, "ask", "   ")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "message is empty")
}

func TestInvalidFlagRejected(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	_, err := run(t, "", "--config", cfgPath, "--url", "not-a-url", "ask", "hi")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama.url")
}

func TestFlagOverridesInvalidFileValue(t *testing.T) {
	srv := fakeOllama(t, `{"models":[]}`, nil)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[ollama]\nurl = \"not-a-url\"\n"), 0600))

	out, err := run(t, "", "--config", cfgPath, "--url", srv.URL, "ask", "hi")

	require.NoError(t, err)
	assert.Equal(t, "Hi there\n", out)

	_, err = run(t, "", "--config", cfgPath, "ask", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama.url")
}

// =============================================================================
// STATUS TESTS
// =============================================================================

func TestStatus_ListsModels(t *testing.T) {
	srv := fakeOllama(t, `{"models":[{"name":"llama3.1:8b","size":4920753328},{"name":"phi3:mini","size":2048}]}`, nil)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "--url", srv.URL, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "[+] running")
	assert.Contains(t, out, "Installed models (2)")
	assert.Contains(t, out, "* llama3.1:8b")
	assert.Contains(t, out, "4.6 GB")
	assert.NotContains(t, out, "not installed")
}

func TestStatus_MissingModel(t *testing.T) {
	srv := fakeOllama(t, `{"models":[{"name":"phi3:mini","size":2048}]}`, nil)
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "--url", srv.URL, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Model llama3.1:8b is not installed")
}

func TestStatus_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "--url", url, "status")

	require.Error(t, err)
	assert.Contains(t, out, "[-] unreachable")
	assert.Contains(t, out, "ollama serve")
}

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestConfigPath(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.toml")

	out, err := run(t, "", "--config", cfgPath, "config", "path")

	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+cfgPath)

	info, err := os.Stat(cfgPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = run(t, "", "--config", cfgPath, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = run(t, "", "--config", cfgPath, "config", "init", "--force")
	assert.NoError(t, err)
}

func TestConfigShow_AppliesFlags(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "--model", "mistral:7b", "config", "show")

	require.NoError(t, err)
	assert.Contains(t, out, "[ollama]")
	assert.Contains(t, out, `model = "mistral:7b"`)
	assert.Contains(t, out, "temperature = 0.5")
}

func TestConfigSetGet(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")

	out, err := run(t, "", "--config", cfgPath, "config", "set", "ollama.model", "gemma2:9b")
	require.NoError(t, err)
	assert.Equal(t, "ollama.model = gemma2:9b\n", out)

	out, err = run(t, "", "--config", cfgPath, "config", "get", "ollama.model")
	require.NoError(t, err)
	assert.Equal(t, "gemma2:9b\n", out)

	_, err = run(t, "", "--config", cfgPath, "config", "set", "ollama.temperature", "7")
	assert.Error(t, err)
}

func TestConfigCommandsIgnoreInvalidFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[ollama]\ntemperature = 9.0\n"), 0600))

	out, err := run(t, "", "--config", cfgPath, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfgPath+"\n", out)

	_, err = run(t, "", "--config", cfgPath, "config", "init", "--force")
	assert.NoError(t, err)
}

// =============================================================================
// LINE MODE TESTS
// =============================================================================

func TestLineRenderer_WithoutErase(t *testing.T) {
	var buf bytes.Buffer
	r := newLineRenderer(&buf, false)

	for _, m := range []exchange.Mutation{
		{Kind: exchange.AppendUser, Text: "You: hi\n"},
		{Kind: exchange.AppendText, Text: exchange.AssistantPrefix},
		{Kind: exchange.InsertLoading},
		{Kind: exchange.RemoveLoading},
		{Kind: exchange.AppendText, Text: "Yo"},
		{Kind: exchange.AppendText, Text: "\n"},
	} {
		r.Apply(m)
	}

	assert.Equal(t, "You: hi\nAssistant: Yo\n", buf.String())
	assert.Equal(t, "You: hi\nAssistant: Yo\n", r.transcript.String())
}

func TestLineRenderer_ErasesLoadingMarker(t *testing.T) {
	var buf bytes.Buffer
	r := newLineRenderer(&buf, true)

	r.Apply(exchange.Mutation{Kind: exchange.AppendText, Text: exchange.AssistantPrefix})
	r.Apply(exchange.Mutation{Kind: exchange.InsertLoading})
	assert.Equal(t, "Assistant: Loading...", buf.String())

	r.Apply(exchange.Mutation{Kind: exchange.RemoveLoading})
	back := strings.Repeat("\b", 10)
	assert.Equal(t, "Assistant: Loading..."+back+strings.Repeat(" ", 10)+back, buf.String())

	// A second removal writes nothing.
	before := buf.Len()
	r.Apply(exchange.Mutation{Kind: exchange.RemoveLoading})
	assert.Equal(t, before, buf.Len())
}

func TestChatLoop(t *testing.T) {
	var buf bytes.Buffer
	reader := &fakeReader{lines: []string{"", "   ", "hello", "/quit", "never"}}
	gen := &fakeGenerator{}

	err := chatLoop(context.Background(), reader, gen, newLineRenderer(&buf, false), "AI Assistant")

	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, gen.inputs)
	assert.Equal(t, []string{"hello", "/quit"}, reader.history)
	assert.Contains(t, buf.String(), "You: hello\nAssistant: Hi there\n")
	assert.Equal(t, []string{"never"}, reader.lines)
}

func TestChatLoop_EOFExits(t *testing.T) {
	var buf bytes.Buffer
	gen := &fakeGenerator{}

	err := chatLoop(context.Background(), &fakeReader{lines: []string{"one", "two"}}, gen, newLineRenderer(&buf, false), "AI Assistant")

	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, gen.inputs)
	assert.Equal(t, 2, strings.Count(buf.String(), "Assistant: Hi there\n"))
}
