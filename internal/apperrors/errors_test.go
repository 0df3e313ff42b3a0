package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

func TestGameError_WrappedKeepsIdentity(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("join 123456: %w", ErrLobbyFull)

	assert.ErrorIs(t, err, ErrLobbyFull)
	assert.NotErrorIs(t, err, ErrGameAlreadyStarted)
	assert.Equal(t, protocol.ErrCodeLobbyFull, As(err).Code)
	assert.Equal(t, KindPolicy, KindOf(err))
}

func TestAs_ForeignError(t *testing.T) {
	t.Parallel()

	got := As(errors.New("boom"))
	assert.Same(t, ErrInternal, got)
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestSentinels_HaveMessages(t *testing.T) {
	t.Parallel()

	for _, e := range []*GameError{
		ErrInvalidID, ErrInvalidNickname, ErrSessionNotFound, ErrPlayerNotFound,
		ErrAnswerNotFound, ErrLobbyFull, ErrGameAlreadyStarted, ErrGameAlreadyOver,
		ErrTooLateToChange, ErrAnswerWindowClosed, ErrAnswerNotInQuestion, ErrInternal,
	} {
		assert.NotEmpty(t, e.Error(), "code %d", e.Code)
		assert.NotEqual(t, "unknown", e.Kind.String())
	}
}
