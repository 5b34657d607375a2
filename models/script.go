package models

import "time"

// Script is a user-authored strategy: an opaque text blob to everything
// except the sandbox. Scripts are immutable for the lifetime of a
// tournament once its registration closes.
type Script struct {
	ID        int       `json:"id"`
	OwnerID   int       `json:"owner_id"`
	Name      string    `json:"name"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Draws  int `json:"draws"`
}
