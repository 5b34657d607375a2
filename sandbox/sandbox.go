// Package sandbox executes untrusted strategy scripts. A script sees only
// the state view it is handed and can produce only a single direction; it
// has no ambient I/O and no shared mutable state with the engine process.
package sandbox

import (
	"errors"
	"time"

	"github.com/Dosada05/snake-arena/engine"
)

// EntryPoint is the single well-known function every script must define:
//
//	function decide(state) { return "up" | "down" | "left" | "right"; }
//
// Scripts lacking it are an immediate no-decision; there is no probing for
// alternative names.
const EntryPoint = "decide"

// ErrNoDecision is the sentinel returned for every script-level failure:
// budget exceeded, missing entry point, runtime error, or output that is
// not one of the four direction tokens. The sandbox never decides what a
// failed move means for the match; that substitution policy lives in the
// engine.
var ErrNoDecision = errors.New("sandbox: script produced no decision")

// Sandbox is the isolated execution boundary between the engine and
// third-party code.
type Sandbox interface {
	Execute(source string, view engine.StateView, budget time.Duration) (engine.Direction, error)
}
