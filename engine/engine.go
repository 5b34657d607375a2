// Package engine owns one match's board state and advances it round by
// round until a terminal condition or the round cap. Scripts are consulted
// through the ScriptRunner boundary; the engine itself never interprets
// script source.
package engine

import (
	"errors"
	"math/rand"
	"time"
)

// ScriptRunner turns a script plus a read-only state view into a single
// direction under a hard wall-clock budget. Implementations must never
// panic into the engine: timeout, invalid output and script errors are all
// reported as a non-nil error, and the engine substitutes the side's
// previous direction.
type ScriptRunner interface {
	Execute(source string, view StateView, budget time.Duration) (Direction, error)
}

// Winner discriminates the terminal outcome of a match.
type Winner string

const (
	WinnerSnake1 Winner = "snake1"
	WinnerSnake2 Winner = "snake2"
	WinnerDraw   Winner = "draw"
	WinnerNone   Winner = ""
)

// ResultType is the reason a match ended, distinct from who won.
type ResultType string

const (
	ResultWin     ResultType = "win"
	ResultDraw    ResultType = "draw"
	ResultTimeout ResultType = "timeout"
)

// Result summarizes a finished match.
type Result struct {
	Winner   Winner        `json:"winner"`
	Type     ResultType    `json:"type"`
	Rounds   int           `json:"rounds"`
	Duration time.Duration `json:"duration"`
	Score1   int           `json:"score1"`
	Score2   int           `json:"score2"`
	Seed     int64         `json:"seed"`
}

// Engine runs a single match between two scripts. One instance owns its
// game state exclusively for the duration of the match and is not safe for
// concurrent use.
type Engine struct {
	settings Settings
	runner   ScriptRunner
	source1  string
	source2  string

	rng  *RNG
	seed int64

	snake1, snake2 Snake
	dir1, dir2     Direction
	score1, score2 int
	food           Position
	bombs          []Position
	round          int

	done       bool
	winner     Winner
	resultType ResultType

	rec recorder

	// OnAction, when set, observes every recorded round. Used by the
	// orchestrator to stream live matches; must not mutate the action.
	OnAction func(ReplayAction)
}

var errNilRunner = errors.New("engine: script runner is required")

// New validates settings, resolves the match seed and places the initial
// board. The seed is taken from settings when supplied, otherwise chosen
// randomly; either way it is recorded in the replay.
func New(settings Settings, runner ScriptRunner, source1, source2 string) (*Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, errNilRunner
	}

	seed := rand.Int63()
	if settings.Seed != nil {
		seed = *settings.Seed
	}

	e := &Engine{
		settings: settings,
		runner:   runner,
		source1:  source1,
		source2:  source2,
		rng:      NewRNG(seed),
		seed:     seed,
	}
	e.initialize()
	return e, nil
}

// initialize places both snakes at fixed symmetric starting positions of
// length 3, generates bombs for hard mode, then the initial food.
func (e *Engine) initialize() {
	w, h := e.settings.GridWidth, e.settings.GridHeight

	// Snake 1 starts on the upper third heading right, snake 2 mirrored on
	// the lower third heading left. Rows differ for any grid >= 5x5, so the
	// starts never overlap.
	r1 := h / 3
	r2 := h - 1 - h/3
	e.snake1 = Snake{{r1, 2}, {r1, 1}, {r1, 0}}
	e.snake2 = Snake{{r2, w - 3}, {r2, w - 2}, {r2, w - 1}}
	e.dir1 = DirectionRight
	e.dir2 = DirectionLeft

	if e.settings.Difficulty == DifficultyHard {
		count := (w * h) / 50
		if count < 3 {
			count = 3
		}
		for i := 0; i < count; i++ {
			cell, ok := e.pickFreeCell()
			if !ok {
				break
			}
			e.bombs = append(e.bombs, cell)
		}
	}

	e.food = e.placeFood()

	e.rec.start(e.seed, InitialState{
		GridWidth:  w,
		GridHeight: h,
		Snake1:     e.snake1.clone(),
		Snake2:     e.snake2.clone(),
		Food:       e.food,
		Bombs:      append([]Position(nil), e.bombs...),
	})
}

// pickFreeCell selects a uniformly random cell occupied by neither snake
// nor any bomb. The free list is built in row-major order so the RNG draw
// maps to the same cell on every run.
func (e *Engine) pickFreeCell() (Position, bool) {
	free := e.freeCells()
	if len(free) == 0 {
		return Position{}, false
	}
	return free[e.rng.Intn(len(free))], true
}

func (e *Engine) freeCells() []Position {
	free := make([]Position, 0, e.settings.GridWidth*e.settings.GridHeight)
	for row := 0; row < e.settings.GridHeight; row++ {
		for col := 0; col < e.settings.GridWidth; col++ {
			p := Position{row, col}
			if e.snake1.Contains(p) || e.snake2.Contains(p) {
				continue
			}
			if e.onBomb(p) {
				continue
			}
			free = append(free, p)
		}
	}
	return free
}

// placeFood returns a fresh food cell. When the board has no free cell
// left it falls back to the fixed center cell rather than leaving the
// board foodless.
func (e *Engine) placeFood() Position {
	if cell, ok := e.pickFreeCell(); ok {
		return cell
	}
	return Position{e.settings.GridHeight / 2, e.settings.GridWidth / 2}
}

func (e *Engine) onBomb(p Position) bool {
	for _, b := range e.bombs {
		if b == p {
			return true
		}
	}
	return false
}

// resolveMove obtains a side's direction for this round. Any sandbox
// failure (timeout, invalid output, script error) degrades to the side's
// previous direction; at round 0 that is the side's starting default.
func (e *Engine) resolveMove(source string, view StateView, prev Direction) Direction {
	d, err := e.runner.Execute(source, view, e.settings.MoveTimeout)
	if err != nil {
		return prev
	}
	if _, ok := ParseDirection(string(d)); !ok {
		return prev
	}
	return d
}

// advance moves a snake onto newHead, dropping the tail unless the snake
// ate this round.
func advance(s Snake, newHead Position, ate bool) Snake {
	body := make(Snake, 0, len(s)+1)
	body = append(body, newHead)
	if ate {
		body = append(body, s...)
	} else {
		body = append(body, s[:len(s)-1]...)
	}
	return body
}

// Step advances exactly one round. It is a no-op once the match is
// terminal.
func (e *Engine) Step() {
	if e.done {
		return
	}

	view1 := e.viewFor(SideSnake1)
	view2 := e.viewFor(SideSnake2)
	move1 := e.resolveMove(e.source1, view1, e.dir1)
	move2 := e.resolveMove(e.source2, view2, e.dir2)
	e.dir1, e.dir2 = move1, move2

	dr, dc := move1.Delta()
	head1 := Position{e.snake1.Head().Row + dr, e.snake1.Head().Col + dc}
	dr, dc = move2.Delta()
	head2 := Position{e.snake2.Head().Row + dr, e.snake2.Head().Col + dc}

	ate1 := head1 == e.food
	ate2 := head2 == e.food

	e.snake1 = advance(e.snake1, head1, ate1)
	e.snake2 = advance(e.snake2, head2, ate2)

	events := []Event{}
	if ate1 {
		e.score1++
		p := head1
		events = append(events, Event{Type: EventFoodEaten, Side: SideSnake1, Position: &p})
	}
	if ate2 {
		e.score2++
		p := head2
		events = append(events, Event{Type: EventFoodEaten, Side: SideSnake2, Position: &p})
	}
	if ate1 || ate2 {
		// Regenerated after both heads have moved, so a cell occupied by
		// either new head is excluded.
		e.food = e.placeFood()
		p := e.food
		events = append(events, Event{Type: EventNewFood, Position: &p})
	}

	if head1 == head2 {
		p := head1
		events = append(events, Event{Type: EventHeadCollision, Position: &p})
		e.finish(WinnerDraw, ResultDraw)
	} else {
		dead1, ev1 := e.deadly(SideSnake1, head1, e.snake1, e.snake2)
		dead2, ev2 := e.deadly(SideSnake2, head2, e.snake2, e.snake1)
		events = append(events, ev1...)
		events = append(events, ev2...)
		switch {
		case dead1 && dead2:
			e.finish(WinnerDraw, ResultDraw)
		case dead1:
			e.finish(WinnerSnake2, ResultWin)
		case dead2:
			e.finish(WinnerSnake1, ResultWin)
		}
	}

	e.round++
	if !e.done && e.round >= e.settings.MaxRounds {
		// Undecided at the round cap: higher score wins, reported as a
		// timeout result rather than a win.
		switch {
		case e.score1 > e.score2:
			e.finish(WinnerSnake1, ResultTimeout)
		case e.score2 > e.score1:
			e.finish(WinnerSnake2, ResultTimeout)
		default:
			e.finish(WinnerDraw, ResultTimeout)
		}
	}

	action := ReplayAction{
		Round:  e.round - 1,
		Move1:  move1,
		Move2:  move2,
		Events: events,
		State: Frame{
			Snake1: e.snake1.clone(),
			Snake2: e.snake2.clone(),
			Food:   e.food,
			Score1: e.score1,
			Score2: e.score2,
		},
	}
	e.rec.record(action)
	if e.OnAction != nil {
		e.OnAction(action)
	}
}

// deadly applies the non-head-to-head death rules for one side, in order:
// off-grid, bomb (hard mode), own non-head body, opponent body.
func (e *Engine) deadly(side Side, head Position, own, opponent Snake) (bool, []Event) {
	p := head
	switch {
	case !e.settings.inside(head):
		return true, []Event{{Type: EventCollision, Side: side, Position: &p}}
	case e.onBomb(head):
		return true, []Event{{Type: EventBombHit, Side: side, Position: &p}}
	case own.ContainsBody(head):
		return true, []Event{{Type: EventCollision, Side: side, Position: &p}}
	case opponent.Contains(head):
		return true, []Event{{Type: EventCollision, Side: side, Position: &p}}
	}
	return false, nil
}

func (e *Engine) finish(w Winner, t ResultType) {
	e.done = true
	e.winner = w
	e.resultType = t
}

// Done reports whether the match has reached a terminal state.
func (e *Engine) Done() bool {
	return e.done
}

// Run steps the match to completion and returns the result together with
// the immutable replay.
func (e *Engine) Run() (Result, *Replay) {
	start := time.Now()
	for !e.done {
		e.Step()
	}
	result := Result{
		Winner:   e.winner,
		Type:     e.resultType,
		Rounds:   e.round,
		Duration: time.Since(start),
		Score1:   e.score1,
		Score2:   e.score2,
		Seed:     e.seed,
	}
	replay := e.rec.replay
	return result, &replay
}
