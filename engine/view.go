package engine

// SnakeView is one side's snake as exposed to a script.
type SnakeView struct {
	Body      Snake     `json:"body"`
	Direction Direction `json:"direction"`
	Score     int       `json:"score"`
}

// StateView is the read-only snapshot handed to a script each round. It is
// symmetric: each side sees itself as Me regardless of its internal slot,
// and it exposes nothing beyond this contract. Every slice is a deep copy,
// so a script mutating its view cannot reach engine state.
type StateView struct {
	Me         SnakeView  `json:"me"`
	Opponent   SnakeView  `json:"opponent"`
	Food       Position   `json:"food"`
	Bombs      []Position `json:"bombs"`
	Round      int        `json:"round"`
	GridWidth  int        `json:"grid_width"`
	GridHeight int        `json:"grid_height"`
}

func (e *Engine) viewFor(side Side) StateView {
	me := SnakeView{Body: e.snake1.clone(), Direction: e.dir1, Score: e.score1}
	opp := SnakeView{Body: e.snake2.clone(), Direction: e.dir2, Score: e.score2}
	if side == SideSnake2 {
		me, opp = opp, me
	}
	bombs := make([]Position, len(e.bombs))
	copy(bombs, e.bombs)
	return StateView{
		Me:         me,
		Opponent:   opp,
		Food:       e.food,
		Bombs:      bombs,
		Round:      e.round,
		GridWidth:  e.settings.GridWidth,
		GridHeight: e.settings.GridHeight,
	}
}
