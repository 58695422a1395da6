// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
	"github.com/matt-FFFFFF/supportctl/internal/runbatch"
)

const (
	reservedLines    = 6 // title, border and help
	durationRounding = 100 * time.Millisecond
	ellipsis         = "..."
)

// EventMsg carries a progress event into the program.
type EventMsg struct {
	Event progress.Event
}

// DoneMsg tells the program that the run has finished.
type DoneMsg struct {
	Report *runbatch.Report
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.viewport.Width = max(msg.Width-2, 20)
		m.viewport.Height = max(msg.Height-reservedLines, 1)

		return m, nil

	case EventMsg:
		m.apply(msg.Event)
		m.refresh()

		return m, nil

	case DoneMsg:
		m.completed = true
		if msg.Report != nil {
			m.success = msg.Report.Success()
			m.summary = msg.Report.Summary()
		}

		m.refresh()

		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()

		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return m, cmd
}

// handleKey quits once the run is complete. Before that, Ctrl-C and q request an
// interrupt and the program keeps running until the run reports completion.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		if m.completed {
			return tea.Quit
		}

		if !m.interrupted && m.onInterrupt != nil {
			m.onInterrupt()
		}

		m.interrupted = true
		m.refresh()

		return nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)

	return cmd
}

// refresh re-renders the tree into the viewport, following the bottom while running.
func (m *Model) refresh() {
	var b strings.Builder

	for i, child := range m.root.Children {
		m.renderTree(&b, child, "", i == len(m.root.Children)-1)
	}

	if m.completed && m.summary != "" {
		b.WriteString("\n")

		if m.success {
			b.WriteString(m.styles.Success.Render("✅ " + m.summary))
		} else {
			b.WriteString(m.styles.Failed.Render("⚠️  " + m.summary))
		}

		b.WriteString("\n")
	}

	m.viewport.SetContent(b.String())

	if !m.completed {
		m.viewport.GotoBottom()
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("supportctl " + m.title))
	b.WriteString("\n")
	b.WriteString(m.styles.Border.Render(m.viewport.View()))
	b.WriteString("\n")

	switch {
	case m.completed:
		b.WriteString(m.styles.Help.Render("↑/↓ to scroll, 'q' to quit and show the output"))
	case m.interrupted:
		b.WriteString(m.styles.Failed.Render("Interrupt requested, waiting for the current item to finish..."))
	default:
		b.WriteString(m.styles.Help.Render("↑/↓ to scroll, ctrl+c or 'q' to interrupt"))
	}

	return b.String()
}

func (m *Model) renderTree(b *strings.Builder, n *Node, prefix string, last bool) {
	m.renderNode(b, n, prefix, last)

	childPrefix := prefix + "│   "
	if last {
		childPrefix = prefix + "    "
	}

	for i, c := range n.Children {
		m.renderTree(b, c, childPrefix, i == len(n.Children)-1)
	}
}

func (m *Model) renderNode(b *strings.Builder, n *Node, prefix string, last bool) {
	connector := "├── "
	if last {
		connector = "└── "
	}

	var icon, name string

	switch n.Status {
	case StatusRunning:
		icon, name = m.spinner.View(), m.styles.Running.Render(n.Name)
	case StatusSuccess:
		icon, name = "✅", m.styles.Success.Render(n.Name)
	case StatusFailed:
		icon, name = "❌", m.styles.Failed.Render(n.Name)
	case StatusTimedOut:
		icon, name = "⏰", m.styles.Failed.Render(n.Name)
	case StatusCancelled:
		icon, name = "🛑", m.styles.Failed.Render(n.Name)
	default:
		icon, name = "⏳", m.styles.Pending.Render(n.Name)
	}

	line := fmt.Sprintf("%s %s", icon, name)

	if d := n.elapsed(m.now()); d > 0 {
		line += m.styles.Output.Render(fmt.Sprintf(" (%v)", d.Round(durationRounding)))
	}

	var detail string

	switch {
	case n.Err != "" && n.Status != StatusSuccess:
		detail = m.styles.Error.Render(truncate("Error: "+n.Err, m.detailWidth(prefix)))
	case n.LastOutput != "" && n.Status == StatusRunning:
		detail = m.styles.Output.Render(truncate(n.LastOutput, m.detailWidth(prefix)))
	}

	b.WriteString(m.styles.Branch.Render(prefix + connector))
	b.WriteString(line)

	if detail != "" {
		b.WriteString("  ")
		b.WriteString(detail)
	}

	b.WriteString("\n")
}

func (m *Model) detailWidth(prefix string) int {
	return max(m.viewport.Width/2-len(prefix), 10)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}

	return string(r[:width-len(ellipsis)]) + ellipsis
}
