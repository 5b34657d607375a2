package sandbox

import (
	"time"

	"github.com/dop251/goja"

	"github.com/Dosada05/snake-arena/engine"
)

// GojaSandbox runs scripts on a fresh goja (pure Go JavaScript) runtime per
// invocation. A fresh runtime means no state leaks between rounds or
// between players, and a bare runtime exposes no host functions at all: no
// filesystem, no network, no console, no timers. The only input is the
// state view passed to the entry point.
type GojaSandbox struct{}

func NewGoja() *GojaSandbox {
	return &GojaSandbox{}
}

// budgetExceeded is the value handed to vm.Interrupt so a timed-out run is
// distinguishable in principle, though callers only ever see ErrNoDecision.
type budgetExceeded struct{}

// Execute evaluates the script and calls its entry point under a hard
// wall-clock budget. The interrupt fires on the goja instruction loop, so
// even a busy-looping script cannot starve the round loop.
func (s *GojaSandbox) Execute(source string, view engine.StateView, budget time.Duration) (dir engine.Direction, err error) {
	// goja surfaces some internal failures as panics; none of them may
	// escape into the engine.
	defer func() {
		if r := recover(); r != nil {
			dir, err = "", ErrNoDecision
		}
	}()

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))

	timer := time.AfterFunc(budget, func() {
		vm.Interrupt(budgetExceeded{})
	})
	defer timer.Stop()

	if _, err := vm.RunString(source); err != nil {
		return "", ErrNoDecision
	}

	entry, ok := goja.AssertFunction(vm.Get(EntryPoint))
	if !ok {
		return "", ErrNoDecision
	}

	result, err := entry(goja.Undefined(), vm.ToValue(view))
	if err != nil {
		return "", ErrNoDecision
	}

	raw, ok := result.Export().(string)
	if !ok {
		return "", ErrNoDecision
	}
	d, ok := engine.ParseDirection(raw)
	if !ok {
		return "", ErrNoDecision
	}
	return d, nil
}
