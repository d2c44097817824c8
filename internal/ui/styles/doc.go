// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the assistant window.

# Color System (colors.go)

Every color is a Lip Gloss AdaptiveColor so the window follows the terminal's
light or dark background:

	Cyan, Blue        - Title, prompt, Send button
	Emerald, Amber    - Server status
	Rose              - Server unreachable
	Slate             - Transcript background
	TextPrimary       - Transcript text

# Theme (theme.go)

NewTheme detects the terminal color profile with termenv and builds the
styles used by the chat view:

	theme := styles.NewTheme()
	theme.SetSize(width, height)
	header := theme.HeaderTitle.Render("AI Assistant")

User lines in the transcript are rendered with UserText (bold); assistant
text uses AssistantText (plain).
*/
package styles
