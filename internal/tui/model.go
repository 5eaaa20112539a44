package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/loqalabs/loqa-interview/internal/session"
)

type stateMsg struct{}
type errMsg struct{ err error }
type tickMsg time.Time

// Model is the bubbletea model of the terminal interview client.
type Model struct {
	ctrl        *session.Controller
	state       session.State
	speech      bool
	autoAdvance time.Duration
	feedbackAt  time.Time
	now         func() time.Time
	err         error
	width       int
}

func New(ctrl *session.Controller, autoAdvance time.Duration) Model {
	return Model{
		ctrl:        ctrl,
		state:       ctrl.State(),
		speech:      ctrl.SpeechAvailable(),
		autoAdvance: autoAdvance,
		now:         time.Now,
	}
}

// Attach forwards controller state changes to a running program.
func Attach(p *tea.Program, ctrl *session.Controller) (detach func()) {
	return ctrl.Subscribe(func(session.State) {
		p.Send(stateMsg{})
	})
}

func tick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tick()

	case stateMsg:
		m = m.refresh()

	case errMsg:
		m.err = msg.err
		m = m.refresh()
	}
	return m, nil
}

func (m Model) refresh() Model {
	prev := m.state
	m.state = m.ctrl.State()
	if m.state.Phase == session.FeedbackShown {
		if prev.Phase != session.FeedbackShown || prev.Cycle != m.state.Cycle {
			m.feedbackAt = m.now()
		}
	} else {
		m.feedbackAt = time.Time{}
	}
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.ctrl
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "s":
		m.err = nil
		return m, func() tea.Msg {
			ctrl.Shuffle()
			return stateMsg{}
		}
	case "r", " ":
		m.err = nil
		return m, func() tea.Msg {
			if err := ctrl.ToggleRecording(context.Background()); err != nil {
				return errMsg{err: err}
			}
			return stateMsg{}
		}
	case "enter":
		if !session.CanSubmit(m.state) {
			return m, nil
		}
		m.err = nil
		return m, func() tea.Msg {
			err := ctrl.Submit(context.Background())
			if err != nil && !errors.Is(err, session.ErrCannotSubmit) {
				return errMsg{err: err}
			}
			return stateMsg{}
		}
	}
	return m, nil
}

// remaining reports the time left before the next auto-advance.
func (m Model) remaining() time.Duration {
	if m.feedbackAt.IsZero() {
		return 0
	}
	left := m.autoAdvance - m.now().Sub(m.feedbackAt)
	if left < 0 {
		return 0
	}
	return left
}

func (m Model) View() string {
	return Render(m.state, ViewOptions{
		SpeechAvailable: m.speech,
		Remaining:       m.remaining(),
		Err:             m.err,
		Width:           m.width,
	})
}
