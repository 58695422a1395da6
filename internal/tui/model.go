// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/matt-FFFFFF/supportctl/internal/progress"
)

// Status is the display state of an item.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailed
	StatusTimedOut
	StatusCancelled
)

// String returns a string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	case StatusTimedOut:
		return "timed-out"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func statusFor(t progress.EventType) (Status, bool) {
	switch t {
	case progress.EventStarted:
		return StatusRunning, true
	case progress.EventCompleted:
		return StatusSuccess, true
	case progress.EventFailed:
		return StatusFailed, true
	case progress.EventTimedOut:
		return StatusTimedOut, true
	case progress.EventCancelled:
		return StatusCancelled, true
	default:
		return StatusPending, false
	}
}

// Node is one row of the tree: a collection or an item within it.
type Node struct {
	Path       []string
	Name       string
	Status     Status
	Started    time.Time
	Finished   time.Time
	LastOutput string
	Err        string
	Children   []*Node
}

func (n *Node) setStatus(s Status, at time.Time) {
	n.Status = s

	switch s {
	case StatusRunning:
		if n.Started.IsZero() {
			n.Started = at
		}
	case StatusPending:
	default:
		if n.Finished.IsZero() {
			n.Finished = at
		}
	}
}

func (n *Node) elapsed(now time.Time) time.Duration {
	switch {
	case n.Started.IsZero():
		return 0
	case n.Finished.IsZero():
		return now.Sub(n.Started)
	default:
		return n.Finished.Sub(n.Started)
	}
}

// Styles contains the styling of the TUI.
type Styles struct {
	Title   lipgloss.Style
	Pending lipgloss.Style
	Running lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style
	Output  lipgloss.Style
	Error   lipgloss.Style
	Help    lipgloss.Style
	Branch  lipgloss.Style
	Border  lipgloss.Style
}

// NewStyles returns the default styles.
func NewStyles() *Styles {
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Pending: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Running: lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Output:  lipgloss.NewStyle().Foreground(lipgloss.Color("7")).Italic(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Italic(true),
		Help:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Branch:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Border: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
	}
}

// Model is the bubbletea model. It is only touched from the program's event loop.
type Model struct {
	title       string
	root        *Node
	nodes       map[string]*Node
	spinner     spinner.Model
	viewport    viewport.Model
	styles      *Styles
	onInterrupt func()

	width, height int
	interrupted   bool
	completed     bool
	success       bool
	summary       string
	now           func() time.Time
}

// NewModel returns an empty model titled title. onInterrupt may be nil.
func NewModel(title string, onInterrupt func()) *Model {
	styles := NewStyles()

	return &Model{
		title:       title,
		root:        &Node{Name: title},
		nodes:       make(map[string]*Node),
		spinner:     spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Running)),
		viewport:    viewport.New(80, 20),
		styles:      styles,
		onInterrupt: onInterrupt,
		now:         time.Now,
	}
}

// Node returns the node at path, or nil.
func (m *Model) Node(path ...string) *Node {
	return m.nodes[strings.Join(path, "/")]
}

// node returns the node at path, creating it and its parents in arrival order.
func (m *Model) node(path []string) *Node {
	key := strings.Join(path, "/")
	if n, ok := m.nodes[key]; ok {
		return n
	}

	parent := m.root
	if len(path) > 1 {
		parent = m.node(path[:len(path)-1])
	}

	n := &Node{Path: append([]string(nil), path...), Name: path[len(path)-1]}
	m.nodes[key] = n
	parent.Children = append(parent.Children, n)

	return n
}

func (m *Model) apply(ev progress.Event) {
	if len(ev.Path) == 0 {
		return
	}

	n := m.node(ev.Path)
	at := ev.Timestamp

	if at.IsZero() {
		at = m.now()
	}

	if ev.Type == progress.EventOutput {
		if line := strings.TrimSpace(ev.Data.OutputLine); line != "" {
			n.LastOutput = line
		}

		return
	}

	s, ok := statusFor(ev.Type)
	if !ok {
		return
	}

	n.setStatus(s, at)

	if ev.Data.Error != nil {
		n.Err = ev.Data.Error.Error()
	}

	// a collection node is running while any of its items is
	if len(ev.Path) > 1 && s == StatusRunning {
		m.node(ev.Path[:1]).setStatus(StatusRunning, at)
	}
}
