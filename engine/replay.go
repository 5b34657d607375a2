package engine

// Side identifies which snake an event or result refers to.
type Side string

const (
	SideSnake1 Side = "snake1"
	SideSnake2 Side = "snake2"
)

// EventType tags a per-round replay event.
type EventType string

const (
	EventFoodEaten     EventType = "food_eaten"
	EventNewFood       EventType = "new_food"
	EventCollision     EventType = "collision"
	EventHeadCollision EventType = "head_collision"
	EventBombHit       EventType = "bomb_hit"
)

// Event is one tagged record inside a replay action. Side and Position are
// omitted where they do not apply (a head collision has no single side, a
// new_food event has no side).
type Event struct {
	Type     EventType `json:"type"`
	Side     Side      `json:"side,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// Frame is the per-round board snapshot a replay consumer needs to redraw
// the grid without re-running any script.
type Frame struct {
	Snake1 Snake    `json:"snake1"`
	Snake2 Snake    `json:"snake2"`
	Food   Position `json:"food"`
	Score1 int      `json:"score1"`
	Score2 int      `json:"score2"`
}

// ReplayAction records one round: both chosen moves, the events the round
// produced, and the resulting frame.
type ReplayAction struct {
	Round  int       `json:"round"`
	Move1  Direction `json:"move1"`
	Move2  Direction `json:"move2"`
	Events []Event   `json:"events"`
	State  Frame     `json:"state"`
}

// InitialState is the board as it stood before round 0.
type InitialState struct {
	GridWidth  int        `json:"grid_width"`
	GridHeight int        `json:"grid_height"`
	Snake1     Snake      `json:"snake1"`
	Snake2     Snake      `json:"snake2"`
	Food       Position   `json:"food"`
	Bombs      []Position `json:"bombs,omitempty"`
}

// Replay is the full, append-only match record. Together with deterministic
// scripts it reproduces the match; on its own it reconstructs every frame.
type Replay struct {
	Seed         int64          `json:"seed"`
	InitialState InitialState   `json:"initial_state"`
	Actions      []ReplayAction `json:"actions"`
}

// recorder accumulates the replay while a match runs. The engine owns it
// exclusively; once the match is terminal the replay is handed out and
// never touched again.
type recorder struct {
	replay Replay
}

func (r *recorder) start(seed int64, initial InitialState) {
	r.replay = Replay{Seed: seed, InitialState: initial}
}

func (r *recorder) record(a ReplayAction) {
	r.replay.Actions = append(r.replay.Actions, a)
}
