package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/plsync/internal/server"
)

// pollEvery is the dashboard refresh cadence.
const pollEvery = 2 * time.Second

// StatusFetcher retrieves the coordinator snapshot, typically over HTTP from
// the running daemon.
type StatusFetcher func() (server.Status, error)

// sessionItem wraps a session entry to implement [list.Item].
type sessionItem struct {
	userID    string
	surfaceID int
	slot      int
	tier      string
}

func (i sessionItem) FilterValue() string { return i.userID }
func (i sessionItem) Title() string       { return i.userID }
func (i sessionItem) Description() string {
	return fmt.Sprintf("surface %d • slot %d • %s", i.surfaceID, i.slot, i.tier)
}

// Msg types for the dashboard.
type statusMsg struct {
	status server.Status
	err    error
}

type pollMsg struct{}

// Model is the status dashboard state.
type Model struct {
	fetch    StatusFetcher
	status   server.Status
	err      error
	sessions list.Model
	help     help.Model
	keys     keyMap
	width    int
	height   int
}

// NewModel creates a dashboard polling the given fetcher.
func NewModel(fetch StatusFetcher) Model {
	delegate := list.NewDefaultDelegate()
	sessions := list.New([]list.Item{}, delegate, 0, 0)
	sessions.Title = "Sessions"
	sessions.SetShowHelp(false)

	return Model{
		fetch:    fetch,
		sessions: sessions,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.pollCmd())
}

func (m Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		status, err := m.fetch()
		return statusMsg{status: status, err: err}
	}
}

func (m Model) pollCmd() tea.Cmd {
	return tea.Tick(pollEvery, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.sessions.SetSize(msg.Width, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.refresh):
			return m, m.fetchCmd()
		}

	case pollMsg:
		return m, tea.Batch(m.fetchCmd(), m.pollCmd())

	case statusMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = msg.status
			items := make([]list.Item, 0, len(msg.status.Sessions))
			for _, entry := range msg.status.Sessions {
				items = append(items, sessionItem{
					userID:    entry.UserID,
					surfaceID: entry.SurfaceID,
					slot:      entry.SessionIndex,
					tier:      entry.Tier.String(),
				})
			}
			m.sessions.SetItems(items)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.sessions, cmd = m.sessions.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := styles.title.Render("plsync status")

	var schedule string
	if m.err != nil {
		schedule = styles.err.Render(fmt.Sprintf("daemon unreachable: %v", m.err))
	} else {
		line := fmt.Sprintf("schedule: %s • interval %dms", m.status.State, m.status.IntervalMs)
		if !m.status.LastSyncAt.IsZero() {
			line += fmt.Sprintf(" • last sync %s", m.status.LastSyncAt.Format(time.RFC3339))
		}
		switch m.status.State {
		case "running":
			schedule = styles.ok.Render(line)
		case "paused":
			schedule = styles.warn.Render(line)
		default:
			schedule = styles.help.Render(line)
		}
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n%s", header, schedule, m.sessions.View(), m.help.View(m.keys))
}
