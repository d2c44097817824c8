// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the chat window of the assistant TUI.

The window is a single Bubble Tea model with a header, a scrolling transcript,
a one-line input field, and a Send button row.

# Model (model.go)

Model owns the transcript. Nothing else writes to it: background workers
describe their changes as exchange.Mutation values and hand them to the
Post function given in Options. The program wiring feeds Post into a
dispatch.Queue whose pump delivers each mutation back as a MutationMsg, so
all transcript changes happen on the event loop, in posting order.

# Update Loop (update.go)

  - Enter, C-s, or a click on Send submits the input
  - MutationMsg applies one change and scrolls to the bottom
  - ExchangeDoneMsg decrements the in-flight counter
  - HealthMsg updates the server indicator
  - ConfigReloadedMsg rebuilds the backend for later submissions
  - Esc or C-c quits without waiting for workers

# View Rendering (view.go)

User lines are bold, assistant text is plain. The transcript is wrapped to
the window width.

# Usage

	queue := dispatch.NewQueue[exchange.Mutation]()
	m := chat.New(chat.Options{
		Backend: client,
		Post:    func(mu exchange.Mutation) { queue.Post(mu) },
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	go queue.Run(ctx, func(mu exchange.Mutation) { p.Send(chat.MutationMsg(mu)) })
*/
package chat
