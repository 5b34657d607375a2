package models

import "time"

// Participant is a (user, script) pair registered to a tournament. Seat is
// the registration order within the tournament, starting at 0; pair
// generation and winner tie-breaking both rely on it being stable.
type Participant struct {
	ID           int       `json:"id"`
	TournamentID int       `json:"tournament_id"`
	UserID       int       `json:"user_id"`
	ScriptID     int       `json:"script_id"`
	Seat         int       `json:"seat"`
	CreatedAt    time.Time `json:"created_at"`

	User   *User   `json:"user,omitempty"`
	Script *Script `json:"script,omitempty"`
}
