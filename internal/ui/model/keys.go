package model

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/trivia-rush/internal/ui/common"
)

// handleKey reports whether the key was consumed.
func (m *OnlineModel) handleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.conn.Close()
		return true, tea.Quit
	}

	switch m.phase {
	case PhaseConnecting:
		if msg.Type == tea.KeyEsc {
			m.conn.Close()
			return true, tea.Quit
		}
		return true, nil
	case PhaseMenu:
		return m.handleMenuKey(msg)
	case PhaseLobby:
		switch msg.String() {
		case "r":
			me, ok := m.state.Me()
			if ok {
				m.report(m.conn.SetReady(!me.Ready))
			}
		case "l":
			m.leave()
		}
	case PhaseGame:
		switch key := msg.String(); key {
		case "1", "2", "3", "4":
			m.answer(int(key[0] - '0'))
		case "l":
			m.leave()
		}
	case PhaseGameOver:
		switch msg.String() {
		case "r":
			m.report(m.conn.Restart())
		case "l":
			m.leave()
		}
	}
	return true, nil
}

func (m *OnlineModel) handleMenuKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.err = ""
		m.resetMenu()
		return true, nil
	case tea.KeyEnter:
		m.submitMenu(strings.TrimSpace(m.input.Value()))
		return true, nil
	}
	return false, nil
}

func (m *OnlineModel) submitMenu(value string) {
	m.err = ""
	switch m.step {
	case stepChoose:
		switch value {
		case "1":
			m.creating = true
			m.toStep(stepName, "nickname")
		case "2":
			m.toStep(stepCode, "6 digits")
		default:
			m.err = "Enter 1 or 2"
			m.input.Reset()
		}
	case stepCode:
		code, err := common.ParseCode(value)
		if err != nil {
			m.err = err.Error()
			m.input.Reset()
			return
		}
		m.code = code
		m.toStep(stepName, "nickname")
	case stepName:
		if m.creating {
			m.report(m.conn.CreateSession(value, 0))
		} else {
			m.report(m.conn.JoinSession(m.code, value))
		}
	}
}

func (m *OnlineModel) toStep(step menuStep, placeholder string) {
	m.step = step
	m.input.Reset()
	m.input.Placeholder = placeholder
}

func (m *OnlineModel) answer(n int) {
	if !m.state.Answering() {
		return
	}
	id, ok := m.state.AnswerAt(n)
	if !ok {
		return
	}
	if err := m.conn.SubmitAnswer(id); err != nil {
		m.report(err)
		return
	}
	m.state.Selected = id
}

func (m *OnlineModel) leave() {
	m.report(m.conn.LeaveSession())
	m.state.Reset()
	m.phase = PhaseMenu
	m.resetMenu()
}

func (m *OnlineModel) report(err error) {
	if err != nil {
		m.err = err.Error()
	}
}
