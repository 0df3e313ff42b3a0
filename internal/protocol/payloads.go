package protocol

// --- client requests ---

// CreateSessionPayload opens a lobby. A non-zero InvitationCode reuses that code
// when a live session currently holds it.
type CreateSessionPayload struct {
	PlayerName     string `json:"player_name"`
	InvitationCode int    `json:"invitation_code"`
}

// JoinSessionPayload joins an existing lobby
type JoinSessionPayload struct {
	InvitationCode int    `json:"invitation_code"`
	PlayerName     string `json:"player_name"`
}

// SetReadyPayload toggles the player's ready flag
type SetReadyPayload struct {
	PlayerID       string `json:"player_id"`
	InvitationCode int    `json:"invitation_code"`
	Ready          bool   `json:"ready"`
}

// SubmitAnswerPayload selects an answer for the current question
type SubmitAnswerPayload struct {
	PlayerID       string `json:"player_id"`
	AnswerID       string `json:"answer_id"`
	InvitationCode int    `json:"invitation_code"`
}

// LeaveSessionPayload leaves a lobby or game
type LeaveSessionPayload struct {
	InvitationCode int    `json:"invitation_code"`
	PlayerID       string `json:"player_id"`
}

// RestartSameLobbyPayload asks for a new game with the same people
type RestartSameLobbyPayload struct {
	PlayerID       string `json:"player_id"`
	InvitationCode int    `json:"invitation_code"`
}

// PingPayload heartbeat
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // client clock, ms
}

// --- server responses ---

// PongPayload heartbeat reply
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"`
	ServerTimestamp int64 `json:"server_timestamp"`
}

// PlayerIDPayload tells a connection which player it now speaks for
type PlayerIDPayload struct {
	PlayerID string `json:"player_id"`
}

// ErrorPayload error reply
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// SessionInfo is the full session snapshot broadcast to the group.
type SessionInfo struct {
	ID              string        `json:"id"`
	InvitationCode  int           `json:"invitation_code"`
	Players         []PlayerInfo  `json:"players"`
	Round           *RoundSummary `json:"round,omitempty"`
	ArePlayersReady bool          `json:"are_players_ready"`
	IsGameOver      bool          `json:"is_game_over"`
}

// PlayerInfo public view of a player
type PlayerInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Streak      int    `json:"streak"`
	Ready       bool   `json:"ready"`
	Winner      bool   `json:"winner"`
	HasAnswered bool   `json:"has_answered"`
}

// RoundSummary state of the current round inside a snapshot
type RoundSummary struct {
	RoundCounter    int          `json:"round_counter"`
	CategoryName    string       `json:"category_name,omitempty"`
	QuestionContent string       `json:"question_content,omitempty"`
	Answers         []AnswerInfo `json:"answers,omitempty"`
	TimeLeft        int          `json:"time_left"`
	Ongoing         bool         `json:"ongoing"`
	Ending          bool         `json:"ending"`
}

// RoundInfo is broadcast when a question is revealed.
type RoundInfo struct {
	RoundCounter    int          `json:"round_counter"`
	CategoryName    string       `json:"category_name"`
	QuestionID      string       `json:"question_id"`
	QuestionContent string       `json:"question_content"`
	Answers         []AnswerInfo `json:"answers"`
}

// AnswerInfo one selectable answer
type AnswerInfo struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// TimerPayload seconds left in the answer window
type TimerPayload struct {
	Seconds int `json:"seconds"`
}

// RoundExpiredPayload closes a round and reveals the correct answer
type RoundExpiredPayload struct {
	RoundCounter    int    `json:"round_counter"`
	CorrectAnswerID string `json:"correct_answer_id,omitempty"`
	CorrectAnswer   string `json:"correct_answer,omitempty"`
}

// StatusPayload free-text status line
type StatusPayload struct {
	Text string `json:"text"`
}

// LobbyResetPayload acknowledges a restart request
type LobbyResetPayload struct {
	InvitationCode int `json:"invitation_code"`
}
