package model

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/palemoky/trivia-rush/internal/client"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/ui/common"
	"github.com/palemoky/trivia-rush/internal/ui/view"
)

const (
	connectTimeout = 10 * time.Second
	defaultWidth   = 80
)

// OnlineModel is the main model for online game mode.
type OnlineModel struct {
	conn  Conn
	phase Phase
	state *client.GameState
	err   string

	// menu flow
	step     menuStep
	creating bool
	code     int

	input  textinput.Model
	timer  timer.Model
	width  int
	height int
}

// NewOnlineModel creates a new OnlineModel speaking through conn.
func NewOnlineModel(conn Conn) *OnlineModel {
	ti := textinput.New()
	ti.CharLimit = 32
	ti.Width = 30

	m := &OnlineModel{
		conn:  conn,
		phase: PhaseConnecting,
		state: client.NewGameState(),
		input: ti,
	}
	m.resetMenu()
	return m
}

func (m *OnlineModel) Init() tea.Cmd {
	return tea.Batch(m.connectToServer(), textinput.Blink)
}

func (m *OnlineModel) connectToServer() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := m.conn.Connect(ctx); err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ConnectedMsg{}
	}
}

func (m *OnlineModel) listenForMessages() tea.Cmd {
	return func() tea.Msg {
		msg, err := m.conn.Receive()
		if err != nil {
			return ConnectionErrorMsg{Err: err}
		}
		return ServerMessage{Msg: msg}
	}
}

// Phase the current screen
func (m *OnlineModel) Phase() Phase { return m.phase }

// State the assembled game state
func (m *OnlineModel) State() *client.GameState { return m.state }

// Error the message shown under the current screen
func (m *OnlineModel) Error() string { return m.err }

// Update handles tea messages.
func (m *OnlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case ConnectedMsg:
		m.err = ""
		m.phase = PhaseMenu
		m.resetMenu()
		m.conn.StartHeartbeat()
		cmds = append(cmds, m.listenForMessages())

	case ConnectionErrorMsg:
		if m.phase == PhaseConnecting {
			m.err = fmt.Sprintf("Cannot connect to server: %v", msg.Err)
		} else {
			m.err = "Connection lost"
		}
		m.phase = PhaseConnecting
		m.state.Reset()

	case ServerMessage:
		if cmd := m.handleServerMessage(msg.Msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		cmds = append(cmds, m.listenForMessages())

	case tea.KeyMsg:
		handled, cmd := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if handled {
			return m, tea.Batch(cmds...)
		}

	case timer.TickMsg, timer.StartStopMsg, timer.TimeoutMsg:
		var cmd tea.Cmd
		m.timer, cmd = m.timer.Update(msg)
		return m, cmd
	}

	if m.phase == PhaseMenu {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *OnlineModel) handleServerMessage(msg *protocol.Message) tea.Cmd {
	if !m.state.Apply(msg) {
		return nil
	}

	var cmd tea.Cmd
	switch msg.Type {
	case protocol.MsgError:
		if m.state.Error != nil {
			m.err = m.state.Error.Message
		}
		return nil
	case protocol.MsgTimer:
		m.timer = timer.NewWithInterval(time.Duration(m.state.TimeLeft)*time.Second, time.Second)
		cmd = m.timer.Init()
	case protocol.MsgRoundExpired:
		cmd = m.timer.Stop()
	case protocol.MsgSessionInfo:
		m.err = ""
	}
	m.syncPhase()
	return cmd
}

// syncPhase derives the screen from the latest snapshot.
func (m *OnlineModel) syncPhase() {
	s := m.state.Session
	switch {
	case s == nil:
		if m.phase != PhaseConnecting {
			m.phase = PhaseMenu
		}
	case s.IsGameOver:
		m.phase = PhaseGameOver
	case s.ArePlayersReady:
		m.phase = PhaseGame
	default:
		m.phase = PhaseLobby
	}
	if m.phase == PhaseMenu {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *OnlineModel) resetMenu() {
	m.step = stepChoose
	m.creating = false
	m.code = 0
	m.input.Reset()
	m.input.Placeholder = "1 or 2"
	m.input.Focus()
}

func (m *OnlineModel) menuPrompt() string {
	switch m.step {
	case stepCode:
		return "Invitation code:"
	case stepName:
		return "Your nickname:"
	default:
		return "Choose an option:"
	}
}

// View renders the model.
func (m *OnlineModel) View() string {
	width := m.width
	if width == 0 {
		width = defaultWidth
	}

	var content string
	switch m.phase {
	case PhaseConnecting:
		content = view.ConnectingView(width, m.err)
	case PhaseMenu:
		content = view.MenuView(width, m.menuPrompt(), m.input.View(), m.err)
	case PhaseLobby:
		content = view.LobbyView(width, m.state, m.err)
	case PhaseGame:
		countdown := ""
		if m.state.Answering() && m.timer.Running() {
			countdown = m.timer.View()
		}
		content = view.GameView(width, m.state, countdown, m.err)
	case PhaseGameOver:
		content = view.GameOverView(width, m.state, m.err)
	}

	if lat := m.conn.Latency(); lat > 0 && m.phase != PhaseConnecting {
		content += "\n" + common.DimStyle.Render(fmt.Sprintf("📶 %dms", lat))
	}
	return common.DocStyle.Render(content)
}
