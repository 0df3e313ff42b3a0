// Package view renders the client screens.
package view

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/trivia-rush/internal/client"
	"github.com/palemoky/trivia-rush/internal/protocol"
	"github.com/palemoky/trivia-rush/internal/ui/common"
)

const title = "🧠 Trivia Rush"

func header(width int, sub string) string {
	var sb strings.Builder
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, common.TitleStyle(title)))
	sb.WriteString("\n")
	if sub != "" {
		sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, common.DimStyle.Render(sub)))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func footer(width int, errText, hint string) string {
	var sb strings.Builder
	if errText != "" {
		sb.WriteString("\n")
		sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, common.ErrorStyle.Render(errText)))
	}
	sb.WriteString("\n")
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, common.DimStyle.Render(hint)))
	return sb.String()
}

// ConnectingView is shown until the websocket is up
func ConnectingView(width int, errText string) string {
	body := "Connecting to server..."
	if errText != "" {
		body = "Could not reach the server"
	}
	return header(width, "") +
		lipgloss.PlaceHorizontal(width, lipgloss.Center, body) +
		footer(width, errText, "ESC to quit")
}

// MenuView the create/join menu with the current prompt
func MenuView(width int, prompt, input, errText string) string {
	menu := common.BoxStyle.Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left,
		"1. Create a game",
		"2. Join a game",
	))
	var sb strings.Builder
	sb.WriteString(header(width, ""))
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, menu))
	sb.WriteString("\n")
	sb.WriteString(common.PromptStyle.Render(lipgloss.PlaceHorizontal(width, lipgloss.Center, prompt)))
	sb.WriteString("\n")
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, input))
	sb.WriteString(footer(width, errText, "Enter to confirm • ESC to go back • Ctrl+C to quit"))
	return sb.String()
}

// LobbyView the forming lobby
func LobbyView(width int, gs *client.GameState, errText string) string {
	var sb strings.Builder
	sb.WriteString(header(width, inviteLine(gs)))
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, Scoreboard(gs, false)))
	sb.WriteString("\n")
	sb.WriteString(statusLines(width, gs))

	hint := "R toggle ready • L leave"
	if me, ok := gs.Me(); ok && me.Ready {
		hint = "Waiting for everyone to be ready • R not ready • L leave"
	}
	sb.WriteString(footer(width, errText, hint))
	return sb.String()
}

// GameView a running game: question, answers, countdown and scores
func GameView(width int, gs *client.GameState, countdown, errText string) string {
	var sb strings.Builder
	sb.WriteString(header(width, inviteLine(gs)))

	if gs.Round != nil {
		q := []string{
			common.HighlightStyle.Render(fmt.Sprintf("Round %d • %s", gs.Round.RoundCounter, gs.Round.CategoryName)),
			"",
			gs.Round.QuestionContent,
			"",
		}
		for i, a := range gs.Round.Answers {
			q = append(q, answerLine(gs, i, a))
		}
		if gs.LastResult != nil {
			q = append(q, "", resultLine(gs))
		} else if countdown != "" {
			q = append(q, "", fmt.Sprintf("⏱  %s", countdown))
		}
		sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			common.BoxStyle.Padding(0, 2).Render(lipgloss.JoinVertical(lipgloss.Left, q...))))
		sb.WriteString("\n")
	}

	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, Scoreboard(gs, true)))
	sb.WriteString("\n")
	sb.WriteString(statusLines(width, gs))
	sb.WriteString(footer(width, errText, "1-4 answer • L leave"))
	return sb.String()
}

// GameOverView final standings
func GameOverView(width int, gs *client.GameState, errText string) string {
	var sb strings.Builder
	sb.WriteString(header(width, inviteLine(gs)))

	var winners []string
	if gs.Session != nil {
		for _, p := range gs.Session.Players {
			if p.Winner {
				winners = append(winners, p.Name)
			}
		}
	}
	banner := "Game over, nobody won"
	switch len(winners) {
	case 0:
	case 1:
		banner = fmt.Sprintf("%s %s wins!", common.WinnerIcon, winners[0])
	default:
		banner = fmt.Sprintf("%s Draw between %s", common.WinnerIcon, strings.Join(winners, ", "))
	}
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, common.HighlightStyle.Render(banner)))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, Scoreboard(gs, true)))
	sb.WriteString(footer(width, errText, "R play again with this lobby • L leave"))
	return sb.String()
}

// Scoreboard players ordered by score, ties kept in join order
func Scoreboard(gs *client.GameState, withScores bool) string {
	if gs.Session == nil {
		return ""
	}
	players := slices.Clone(gs.Session.Players)
	if withScores {
		slices.SortStableFunc(players, func(a, b protocol.PlayerInfo) int { return b.Score - a.Score })
	}

	lines := make([]string, 0, len(players))
	for _, p := range players {
		name := p.Name
		if p.ID == gs.PlayerID {
			name = common.HighlightStyle.Render(name + " (you)")
		}
		var line string
		if withScores {
			line = fmt.Sprintf("%-18s %s", name, common.Plural(p.Score, "point"))
			if p.Streak > 1 {
				line += fmt.Sprintf("  🔥%d", p.Streak)
			}
			if p.HasAnswered {
				line += "  " + common.AnsweredIcon
			}
			if p.Winner {
				line += "  " + common.WinnerIcon
			}
		} else {
			icon := common.WaitingIcon
			if p.Ready {
				icon = common.ReadyIcon
			}
			line = fmt.Sprintf("%s %s", icon, name)
		}
		lines = append(lines, line)
	}
	return common.BoxStyle.Padding(0, 1).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func inviteLine(gs *client.GameState) string {
	if gs.Session == nil {
		return ""
	}
	return fmt.Sprintf("Invitation code %06d", gs.Session.InvitationCode)
}

func answerLine(gs *client.GameState, i int, a protocol.AnswerInfo) string {
	line := fmt.Sprintf("%d. %s", i+1, a.Content)
	switch {
	case gs.LastResult != nil && a.Content == gs.LastResult.CorrectAnswer:
		return common.CorrectStyle.Render(line + "  ✔")
	case gs.LastResult != nil && a.ID == gs.Selected:
		return common.WrongStyle.Render(line + "  ✘")
	case a.ID == gs.Selected:
		return common.HighlightStyle.Render("▶ " + line)
	default:
		return line
	}
}

func resultLine(gs *client.GameState) string {
	if gs.LastResult.CorrectAnswer == "" {
		return common.DimStyle.Render("Round over")
	}
	return fmt.Sprintf("Correct answer: %s", common.CorrectStyle.Render(gs.LastResult.CorrectAnswer))
}

func statusLines(width int, gs *client.GameState) string {
	var sb strings.Builder
	for _, s := range gs.Status {
		sb.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, common.DimStyle.Render(s)))
		sb.WriteString("\n")
	}
	return sb.String()
}
