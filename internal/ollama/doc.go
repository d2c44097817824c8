// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for the Ollama generate API.
//
// Generation is exposed as a TokenStream: a lazy, single-use sequence of text
// fragments read from the newline-delimited JSON body of /api/generate.
// Failures never surface as Go errors on that path. They become tokens:
//
//   - a non-200 status yields one token "Error: <code> <body>"
//   - a transport failure yields one token "Exception: <error>"
//   - a line that is not JSON is yielded verbatim
//
// # Usage
//
//	client := ollama.NewClient()
//	stream := client.Generate(ctx, "What is the capital of France?")
//	defer stream.Close()
//	for token := range stream.All() {
//	    fmt.Print(token)
//	}
//
// The health check and model listing return ordinary errors of type
// *ClientError.
package ollama
