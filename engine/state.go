package engine

import (
	"errors"
	"strings"
	"time"
)

// Direction is one of the four moves a script may return.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ParseDirection normalizes raw script output into a Direction.
// Anything other than the four direction tokens (case-insensitive,
// surrounding whitespace ignored) is rejected.
func ParseDirection(raw string) (Direction, bool) {
	switch Direction(strings.ToLower(strings.TrimSpace(raw))) {
	case DirectionUp:
		return DirectionUp, true
	case DirectionDown:
		return DirectionDown, true
	case DirectionLeft:
		return DirectionLeft, true
	case DirectionRight:
		return DirectionRight, true
	}
	return "", false
}

// Delta returns the unit vector of the move in (row, col) terms.
func (d Direction) Delta() (dRow, dCol int) {
	switch d {
	case DirectionUp:
		return -1, 0
	case DirectionDown:
		return 1, 0
	case DirectionLeft:
		return 0, -1
	case DirectionRight:
		return 0, 1
	}
	return 0, 0
}

// Position is a board cell, 0-indexed, row-major.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Snake is an ordered body, head at index 0.
type Snake []Position

// Head returns the snake's head segment.
func (s Snake) Head() Position {
	return s[0]
}

// Contains reports whether any segment occupies p.
func (s Snake) Contains(p Position) bool {
	for _, seg := range s {
		if seg == p {
			return true
		}
	}
	return false
}

// ContainsBody reports whether a non-head segment occupies p.
// A snake of length 1 has no body to collide with.
func (s Snake) ContainsBody(p Position) bool {
	for _, seg := range s[1:] {
		if seg == p {
			return true
		}
	}
	return false
}

func (s Snake) clone() Snake {
	out := make(Snake, len(s))
	copy(out, s)
	return out
}

// Difficulty selects the board hazard set.
type Difficulty string

const (
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Settings are the per-match knobs shared by every match of a tournament.
// A nil Seed means the engine picks one; the chosen seed always ends up in
// the replay so the match stays reproducible.
type Settings struct {
	GridWidth   int           `json:"grid_width"`
	GridHeight  int           `json:"grid_height"`
	Difficulty  Difficulty    `json:"difficulty"`
	MaxRounds   int           `json:"max_rounds"`
	MoveTimeout time.Duration `json:"move_timeout"`
	Seed        *int64        `json:"seed,omitempty"`
}

const (
	minGridSide      = 5
	defaultGridSide  = 20
	defaultMaxRounds = 200
	// DefaultMoveTimeout bounds a single script invocation.
	DefaultMoveTimeout = time.Second
)

// DefaultSettings returns the reference configuration: 20x20 grid, normal
// difficulty, 200 rounds, one second per move.
func DefaultSettings() Settings {
	return Settings{
		GridWidth:   defaultGridSide,
		GridHeight:  defaultGridSide,
		Difficulty:  DifficultyNormal,
		MaxRounds:   defaultMaxRounds,
		MoveTimeout: DefaultMoveTimeout,
	}
}

var (
	ErrGridTooSmall       = errors.New("engine: grid must be at least 5x5")
	ErrInvalidMaxRounds   = errors.New("engine: max rounds must be positive")
	ErrInvalidMoveTimeout = errors.New("engine: move timeout must be positive")
	ErrInvalidDifficulty  = errors.New("engine: difficulty must be normal or hard")
)

// Validate checks the ranges the orchestrator must enforce before a match
// is allowed to run.
func (s Settings) Validate() error {
	if s.GridWidth < minGridSide || s.GridHeight < minGridSide {
		return ErrGridTooSmall
	}
	if s.MaxRounds <= 0 {
		return ErrInvalidMaxRounds
	}
	if s.MoveTimeout <= 0 {
		return ErrInvalidMoveTimeout
	}
	if s.Difficulty != DifficultyNormal && s.Difficulty != DifficultyHard {
		return ErrInvalidDifficulty
	}
	return nil
}

func (s Settings) inside(p Position) bool {
	return p.Row >= 0 && p.Row < s.GridHeight && p.Col >= 0 && p.Col < s.GridWidth
}
