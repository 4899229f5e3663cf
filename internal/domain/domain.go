package domain

import "time"

// SessionState is the round-lifecycle state of a session.
type SessionState string

const (
	// StateLobby: created, collecting players, not started.
	StateLobby SessionState = "lobby"
	// StateInRound: a question is active, answers are being collected.
	StateInRound SessionState = "in-round"
	// StateRevealed: the correct answer is shown, waiting for the host.
	StateRevealed SessionState = "revealed"
	// StateGameOver: terminal, final standings published.
	StateGameOver SessionState = "game-over"
)

// Question is one quiz item: a prompt with exactly four options,
// addressed by 1-based position.
type Question struct {
	ID            int64
	Prompt        string
	Options       [4]string
	CorrectOption int // in [1,4]
}

// Player is one participant in a session.
type Player struct {
	ConnectionID string `json:"connection_id"`
	Nickname     string `json:"nickname"`
	Score        int    `json:"score"`
}

// RoundQuestion is the outward view of the active question. It never
// carries the correct option.
type RoundQuestion struct {
	Prompt  string    `json:"prompt"`
	Options [4]string `json:"options"`
}

// Session is an outward snapshot of one active game. Snapshots are
// copies; mutating one never affects the live session.
type Session struct {
	Code            string         `json:"code"`
	Host            string         `json:"host"`
	State           SessionState   `json:"state"`
	Players         []Player       `json:"players"`
	QuestionCount   int            `json:"question_count"`
	CurrentQuestion int            `json:"current_question"`
	Question        *RoundQuestion `json:"question,omitempty"`
}

// Score represents a player's total score within a session.
type Score struct {
	SessionCode string
	Nickname    string
	TotalScore  int
	UpdateTime  time.Time
}

// Leaderboard represents the players of a session and their scores,
// sorted by score in descending order.
type Leaderboard struct {
	SessionCode string
	Entries     []LeaderboardEntry
}

type LeaderboardEntry struct {
	Nickname string
	Score    int
}
