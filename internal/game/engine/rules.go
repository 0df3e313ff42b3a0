package engine

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/palemoky/trivia-rush/internal/apperrors"
	"github.com/palemoky/trivia-rush/internal/config"
)

// Rules are the game constants. AnswerWindow and BreakTicks count scheduler ticks.
type Rules struct {
	RoundLimit      int
	LobbyCapacity   int
	AnswerWindow    int
	BreakTicks      int
	FormingTimeout  time.Duration
	GameOverTimeout time.Duration
	PlayerIdle      time.Duration
	MinWinningScore int
	NicknameMinLen  int
	NicknameMaxLen  int
}

// DefaultRules ten rounds, six players, ten-second answers.
func DefaultRules() Rules {
	return RulesFromConfig(config.Default().Game)
}

// RulesFromConfig maps the game config block.
func RulesFromConfig(c config.GameConfig) Rules {
	return Rules{
		RoundLimit:      c.RoundLimit,
		LobbyCapacity:   c.LobbyCapacity,
		AnswerWindow:    c.AnswerWindow,
		BreakTicks:      c.BreakTickCount(),
		FormingTimeout:  c.FormingTimeoutDuration(),
		GameOverTimeout: c.GameOverTimeoutDuration(),
		PlayerIdle:      c.PlayerIdleDuration(),
		MinWinningScore: c.WinningScore(),
		NicknameMinLen:  c.NicknameMinLen,
		NicknameMaxLen:  c.NicknameMaxLen,
	}
}

// ValidateNickname trims name and checks its length in runes.
func (r Rules) ValidateNickname(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < r.NicknameMinLen || n > r.NicknameMaxLen {
		return "", apperrors.ErrInvalidNickname
	}
	return name, nil
}
