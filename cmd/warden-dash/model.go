package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// tickMsg is sent by Bubble Tea on every tick interval.
// Used to trigger periodic data refresh as a fallback to fsnotify.
type tickMsg time.Time

// snapshotMsg carries a fetched snapshot, or the fetch error.
type snapshotMsg struct {
	snap *Snapshot
	err  error
}

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchCmd returns a tea.Cmd that fetches the coordination snapshot.
func fetchCmd() tea.Cmd {
	return func() tea.Msg {
		snap, err := fetchSnapshot(context.Background())
		return snapshotMsg{snap: snap, err: err}
	}
}

// Model is the Bubble Tea model for the warden dashboard.
type Model struct {
	snap     *Snapshot
	fetchErr error
	width    int

	watcher *fsnotify.Watcher
	styles  styles
}

func newModel() Model {
	return Model{
		watcher: initWatcher(wardenHome()),
		styles:  newStyles(DefaultTheme()),
	}
}

// Init starts the tick loop, the first fetch, and the fs watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{fetchCmd(), tickCmd()}
	if m.watcher != nil {
		cmds = append(cmds, runWatcher(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.watcher != nil {
				_ = m.watcher.Close()
			}
			return m, tea.Quit
		case "r":
			return m, fetchCmd()
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		return m, tea.Batch(fetchCmd(), tickCmd())
	case fsChangeMsg:
		cmds := []tea.Cmd{fetchCmd()}
		if m.watcher != nil {
			cmds = append(cmds, runWatcher(m.watcher))
		}
		return m, tea.Batch(cmds...)
	case snapshotMsg:
		m.snap = msg.snap
		m.fetchErr = msg.err
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder
	s := m.styles

	b.WriteString(s.title.Render("warden") + "  " + s.muted.Render("q quit · r refresh") + "\n\n")

	if m.fetchErr != nil {
		b.WriteString(s.errText.Render(fmt.Sprintf("cannot read state: %v", m.fetchErr)) + "\n")
		return b.String()
	}
	if m.snap == nil {
		b.WriteString(s.muted.Render("loading...") + "\n")
		return b.String()
	}

	b.WriteString(s.header.Render("Module locks") + "\n")
	if len(m.snap.Locks.Locks) == 0 {
		b.WriteString(s.free.Render("  all modules available") + "\n")
	}
	for _, l := range m.snap.Locks.Locks {
		line := fmt.Sprintf("  %-14s %-12s %-6s ttl %s", l.Module, l.AgentID, l.Operation, fmtMs(l.RemainingMs))
		if l.ManagedBy != "" {
			line += "  via " + l.ManagedBy
		}
		b.WriteString(s.held.Render(line) + "\n")
	}

	if len(m.snap.Locks.Queue) > 0 {
		b.WriteString("\n" + s.header.Render("Wait queue") + "\n")
		for _, q := range m.snap.Locks.Queue {
			b.WriteString(s.waiting.Render(fmt.Sprintf("  %-14s %-12s #%d waiting %s",
				q.Module, q.AgentID, q.Position, fmtMs(q.WaitingMs))) + "\n")
		}
	}

	if len(m.snap.Locks.DomainLocks) > 0 {
		b.WriteString("\n" + s.header.Render("Domain locks") + "\n")
		for _, d := range m.snap.Locks.DomainLocks {
			b.WriteString(s.held.Render(fmt.Sprintf("  %-14s %-12s ttl %s",
				d.Domain, d.ManagerID, fmtMs(d.RemainingMs))) + "\n")
		}
	}

	b.WriteString("\n" + s.header.Render("Managers") + "\n")
	if len(m.snap.Managers.Managers) == 0 {
		b.WriteString(s.muted.Render("  none active") + "\n")
	}
	for _, mgr := range m.snap.Managers.Managers {
		b.WriteString(fmt.Sprintf("  %-14s workers %-3d subtasks %d\n",
			mgr.ManagerID, len(mgr.AssignedWorkers), mgr.SubtaskCount))
	}

	if len(m.snap.Managers.RecentEscalations) > 0 {
		b.WriteString("\n" + s.header.Render("Recent escalations") + "\n")
		for _, e := range m.snap.Managers.RecentEscalations {
			b.WriteString(s.errText.Render(fmt.Sprintf("  %-14s %s", e.ManagerID, e.Reason)) + "\n")
		}
	}

	return b.String()
}

// fmtMs renders a millisecond count as a compact duration.
func fmtMs(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Truncate(time.Second).String()
}
