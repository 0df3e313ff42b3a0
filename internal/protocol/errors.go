package protocol

// Error codes
const (
	ErrCodeUnknown         = 1000
	ErrCodeInvalidMsg      = 1001
	ErrCodeInvalidID       = 1002
	ErrCodeInvalidNickname = 1003

	ErrCodeSessionNotFound = 2001
	ErrCodePlayerNotFound  = 2002
	ErrCodeAnswerNotFound  = 2003

	ErrCodeLobbyFull           = 3001
	ErrCodeGameStarted         = 3002
	ErrCodeGameOver            = 3003
	ErrCodeTooLateToChange     = 3004
	ErrCodeAnswerWindowClosed  = 3005
	ErrCodeAnswerNotInQuestion = 3006

	ErrCodeRateLimit = 4001

	ErrCodeInternal       = 5000
	ErrCodeServerShutdown = 5003
)

// ErrorMessages default text per error code
var ErrorMessages = map[int]string{
	ErrCodeUnknown:             "Unknown error",
	ErrCodeInvalidMsg:          "Invalid message format",
	ErrCodeInvalidID:           "Malformed identifier",
	ErrCodeInvalidNickname:     "Nickname must be between 3 and 10 characters",
	ErrCodeSessionNotFound:     "Game session not found",
	ErrCodePlayerNotFound:      "Player not found",
	ErrCodeAnswerNotFound:      "Answer not found",
	ErrCodeLobbyFull:           "Lobby is full",
	ErrCodeGameStarted:         "Game has already started",
	ErrCodeGameOver:            "Game is already over",
	ErrCodeTooLateToChange:     "Too late to change ready state",
	ErrCodeAnswerWindowClosed:  "No question is open for answers",
	ErrCodeAnswerNotInQuestion: "Answer does not belong to the current question",
	ErrCodeRateLimit:           "Too many messages, slow down",
	ErrCodeInternal:            "Internal server error",
	ErrCodeServerShutdown:      "Server is shutting down",
}
