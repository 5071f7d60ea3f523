// Package watch provides the live terminal dashboard for one field:
// current conditions, a short forecast and frost alerts, refreshed on an
// interval.
package watch

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	awhere "github.com/MwendaMugendi/awhere-go"
	"github.com/MwendaMugendi/awhere-go/internal/credentials"
	"github.com/MwendaMugendi/awhere-go/internal/render"
)

const (
	fetchTimeout = 45 * time.Second

	// forecastDays is how far ahead the dashboard looks. Frost alerting
	// scans the same window.
	forecastDays = 5
)

type refreshTickMsg time.Time

func refreshTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return refreshTickMsg(t)
	})
}

// dataMsg carries one completed fetch round.
type dataMsg struct {
	conditions *awhere.CurrentConditions
	forecast   *awhere.Table
	err        error
}

type credsMsg credentials.Event

// waitForCreds returns a tea.Cmd that waits for the next credential event.
func waitForCreds(ch <-chan credentials.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return credsMsg(ev)
	}
}

// keyMap defines the key bindings for the dashboard.
type keyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// Model represents the dashboard state.
type Model struct {
	client   *awhere.Client
	fieldID  string
	interval time.Duration
	alerts   *FrostAlerter

	creds   *credentials.Service
	credsCh <-chan credentials.Event

	keys keyMap
	spin spinner.Model

	width  int
	height int

	conditions  *awhere.CurrentConditions
	forecast    *awhere.Table
	lastUpdated time.Time
	err         error
	loading     bool
}

// New creates the dashboard model. creds may be nil when credential
// rotation is not watched.
func New(client *awhere.Client, fieldID string, interval time.Duration, frostThreshold float64, creds *credentials.Service) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(render.Primary)

	return &Model{
		client:   client,
		fieldID:  fieldID,
		interval: interval,
		alerts:   NewFrostAlerter(frostThreshold),
		creds:    creds,
		keys:     defaultKeyMap(),
		spin:     s,
		loading:  true,
	}
}

// Init starts the first fetch and, when configured, the credential watch.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spin.Tick, m.fetchCmd()}
	if m.creds != nil {
		m.credsCh = m.creds.Events()
		cmds = append(cmds, waitForCreds(m.credsCh))
	}
	return tea.Batch(cmds...)
}

// fetchCmd loads current conditions and a daily-block forecast off the
// Update loop.
func (m *Model) fetchCmd() tea.Cmd {
	client, fieldID := m.client, m.fieldID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		var msg dataMsg
		msg.conditions, msg.err = client.Weather.CurrentConditions(ctx, fieldID)
		if msg.err != nil {
			return msg
		}

		start := time.Now().UTC()
		end := start.AddDate(0, 0, forecastDays-1)
		msg.forecast, msg.err = client.Weather.Forecasts(ctx, fieldID,
			start.Format("2006-01-02"), end.Format("2006-01-02"),
			awhere.BlockSize(24))
		return msg
	}
}

// Update handles messages and updates the model.
//
// Exactly one refresh chain stays armed: every completed fetch schedules
// the next tick, and a tick that lands mid-fetch is dropped rather than
// rescheduled.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, tea.Batch(m.spin.Tick, m.fetchCmd())
		}
		return m, nil

	case refreshTickMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(m.spin.Tick, m.fetchCmd())

	case dataMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.conditions = msg.conditions
			m.forecast = msg.forecast
			m.lastUpdated = time.Now()
			m.alerts.Check(m.fieldID, msg.forecast)
		}
		return m, refreshTickCmd(m.interval)

	case credsMsg:
		cmds := []tea.Cmd{waitForCreds(m.credsCh)}
		if msg.Type == credentials.EventChanged && msg.Creds.Valid() {
			m.client.SetCredentials(msg.Creds.APIKey, msg.Creds.APISecret)
			if !m.loading {
				m.loading = true
				cmds = append(cmds, m.spin.Tick, m.fetchCmd())
			}
		}
		return m, tea.Batch(cmds...)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

// Run starts the dashboard and blocks until the user quits.
func Run(client *awhere.Client, fieldID string, interval time.Duration, frostThreshold float64, creds *credentials.Service) error {
	p := tea.NewProgram(New(client, fieldID, interval, frostThreshold, creds), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
