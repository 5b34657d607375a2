package models

import (
	"time"

	"github.com/Dosada05/snake-arena/engine"
)

// TournamentStatus follows the registering -> running -> completed state
// machine. There is no cancellation state: once started, a tournament
// always reaches completed, even if individual matches error.
type TournamentStatus string

const (
	StatusRegistering TournamentStatus = "registering"
	StatusRunning     TournamentStatus = "running"
	StatusCompleted   TournamentStatus = "completed"
)

type Tournament struct {
	ID              int              `json:"id"`
	Name            string           `json:"name"`
	OrganizerID     int              `json:"organizer_id"`
	Status          TournamentStatus `json:"status"`
	MaxParticipants int              `json:"max_participants"`
	Settings        engine.Settings  `json:"settings"`
	CreatedAt       time.Time        `json:"created_at"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`

	// Derived after every match is terminal.
	WinnerParticipantID *int `json:"winner_participant_id,omitempty"`

	Participants []*Participant `json:"participants,omitempty"`
	Matches      []*Match       `json:"matches,omitempty"`
}
