package services

import (
	"github.com/Dosada05/snake-arena/engine"
	"github.com/Dosada05/snake-arena/sandbox"
)

// MatchRunner drives one match to completion. The orchestrator depends on
// this interface rather than the engine directly so tests can substitute
// scripted or failing runners.
type MatchRunner interface {
	Run(settings engine.Settings, redSource, blueSource string, onAction func(engine.ReplayAction)) (engine.Result, *engine.Replay, error)
}

type engineRunner struct {
	sandbox sandbox.Sandbox
}

func NewEngineRunner(sb sandbox.Sandbox) MatchRunner {
	return &engineRunner{sandbox: sb}
}

func (r *engineRunner) Run(settings engine.Settings, redSource, blueSource string, onAction func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
	e, err := engine.New(settings, r.sandbox, redSource, blueSource)
	if err != nil {
		return engine.Result{}, nil, err
	}
	e.OnAction = onAction
	result, replay := e.Run()
	return result, replay, nil
}
