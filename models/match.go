package models

import (
	"time"

	"github.com/Dosada05/snake-arena/engine"
)

type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusRunning   MatchStatus = "running"
	MatchStatusCompleted MatchStatus = "completed"
	MatchStatusError     MatchStatus = "error"
)

// MatchSide is the slot assignment inside one match. Red always maps to
// the engine's snake1, blue to snake2.
type MatchSide string

const (
	SideRed  MatchSide = "red"
	SideBlue MatchSide = "blue"
)

type Match struct {
	ID                int         `json:"id"`
	TournamentID      int         `json:"tournament_id"`
	RedParticipantID  int         `json:"red_participant_id"`
	BlueParticipantID int         `json:"blue_participant_id"`
	Status            MatchStatus `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`

	// Result fields, populated once terminal.
	Winner      engine.Winner     `json:"winner,omitempty"`
	ResultType  engine.ResultType `json:"result_type,omitempty"`
	RedScore    int               `json:"red_score"`
	BlueScore   int               `json:"blue_score"`
	Rounds      int               `json:"rounds"`
	Duration    time.Duration     `json:"duration"`
	Seed        int64             `json:"seed"`
	ErrorReason *string           `json:"error_reason,omitempty"`

	// Replay is the full record; omitted from listings and loaded on
	// demand. Immutable once the match is terminal.
	Replay *engine.Replay `json:"replay,omitempty"`

	Red  *Participant `json:"red,omitempty"`
	Blue *Participant `json:"blue,omitempty"`
}

// Outcome is the per-side result used for aggregate stat increments.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeDraw Outcome = "draw"
)
