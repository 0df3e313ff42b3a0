package apperrors

import (
	"errors"

	"github.com/palemoky/trivia-rush/internal/protocol"
)

// Kind groups errors by how the caller should treat them.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindPolicy
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindPolicy:
		return "policy"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// GameError is reported to the originating connection only.
type GameError struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *GameError) Error() string {
	return e.Message
}

var (
	ErrInvalidID       = newError(protocol.ErrCodeInvalidID, KindValidation)
	ErrInvalidNickname = newError(protocol.ErrCodeInvalidNickname, KindValidation)

	ErrSessionNotFound = newError(protocol.ErrCodeSessionNotFound, KindNotFound)
	ErrPlayerNotFound  = newError(protocol.ErrCodePlayerNotFound, KindNotFound)
	ErrAnswerNotFound  = newError(protocol.ErrCodeAnswerNotFound, KindNotFound)

	ErrLobbyFull           = newError(protocol.ErrCodeLobbyFull, KindPolicy)
	ErrGameAlreadyStarted  = newError(protocol.ErrCodeGameStarted, KindPolicy)
	ErrGameAlreadyOver     = newError(protocol.ErrCodeGameOver, KindPolicy)
	ErrTooLateToChange     = newError(protocol.ErrCodeTooLateToChange, KindPolicy)
	ErrAnswerWindowClosed  = newError(protocol.ErrCodeAnswerWindowClosed, KindPolicy)
	ErrAnswerNotInQuestion = newError(protocol.ErrCodeAnswerNotInQuestion, KindPolicy)

	ErrInternal = newError(protocol.ErrCodeInternal, KindInternal)
)

func newError(code int, kind Kind) *GameError {
	return &GameError{Code: code, Kind: kind, Message: protocol.ErrorMessages[code]}
}

// As extracts a GameError from err. Anything else is reported as internal.
func As(err error) *GameError {
	var gameErr *GameError
	if errors.As(err, &gameErr) {
		return gameErr
	}
	return ErrInternal
}

// KindOf returns the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	return As(err).Kind
}
