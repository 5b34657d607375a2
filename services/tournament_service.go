package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/snake-arena/engine"
	"github.com/Dosada05/snake-arena/live"
	"github.com/Dosada05/snake-arena/models"
	"github.com/Dosada05/snake-arena/repositories"
	"github.com/Dosada05/snake-arena/schedule"
	"github.com/Dosada05/snake-arena/storage"
)

// Broadcaster is the live-update boundary; *live.Hub satisfies it. A nil
// Broadcaster disables streaming.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msg live.Message)
}

type CreateTournamentInput struct {
	Name            string          `json:"name"`
	MaxParticipants int             `json:"max_participants"`
	Settings        engine.Settings `json:"settings"`
}

type TournamentService interface {
	Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	RegisterParticipant(ctx context.Context, tournamentID, userID, scriptID int) (*models.Participant, error)
	Start(ctx context.Context, tournamentID, userID int) error
	// ExecuteAll runs every scheduled pair sequentially. A single match's
	// failure is contained: the match is marked errored with a reason and
	// the loop continues. Once every pair has been attempted the
	// tournament is completed and its winner derived.
	ExecuteAll(ctx context.Context, tournamentID int) error
}

type tournamentService struct {
	defaults        engine.Settings
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	scriptRepo      repositories.ScriptRepository
	userRepo        repositories.UserRepository
	generator       schedule.Generator
	runner          MatchRunner
	hub             Broadcaster
	archive         storage.FileUploader
	logger          *slog.Logger
}

func NewTournamentService(
	defaults engine.Settings,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	scriptRepo repositories.ScriptRepository,
	userRepo repositories.UserRepository,
	generator schedule.Generator,
	runner MatchRunner,
	hub Broadcaster,
	archive storage.FileUploader,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		defaults:        defaults,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		scriptRepo:      scriptRepo,
		userRepo:        userRepo,
		generator:       generator,
		runner:          runner,
		hub:             hub,
		archive:         archive,
		logger:          logger,
	}
}

func roomID(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

func (s *tournamentService) Create(ctx context.Context, organizerID int, input CreateTournamentInput) (*models.Tournament, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if input.MaxParticipants < 2 {
		return nil, fmt.Errorf("%w: max participants must be at least 2", ErrValidationFailed)
	}
	// Omitted settings fields take the configured defaults. Ranges are
	// enforced here, before any match can run.
	settings := s.mergeSettings(input.Settings)
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	t := &models.Tournament{
		Name:            input.Name,
		OrganizerID:     organizerID,
		Status:          models.StatusRegistering,
		MaxParticipants: input.MaxParticipants,
		Settings:        settings,
	}
	if err := s.tournamentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

// GetByID loads the tournament and hydrates participants and matches
// concurrently.
func (s *tournamentService) mergeSettings(in engine.Settings) engine.Settings {
	out := in
	if out.GridWidth == 0 {
		out.GridWidth = s.defaults.GridWidth
	}
	if out.GridHeight == 0 {
		out.GridHeight = s.defaults.GridHeight
	}
	if out.Difficulty == "" {
		out.Difficulty = s.defaults.Difficulty
	}
	if out.MaxRounds == 0 {
		out.MaxRounds = s.defaults.MaxRounds
	}
	if out.MoveTimeout == 0 {
		out.MoveTimeout = s.defaults.MoveTimeout
	}
	return out
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.loadTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, id)
		if err != nil {
			return err
		}
		t.Participants = participants
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, id)
		if err != nil {
			return err
		}
		t.Matches = matches
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to hydrate tournament %d: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	tournaments, err := s.tournamentRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

func (s *tournamentService) loadTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}
	return t, nil
}

func (s *tournamentService) RegisterParticipant(ctx context.Context, tournamentID, userID, scriptID int) (*models.Participant, error) {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.Status != models.StatusRegistering {
		return nil, ErrRegistrationClosed
	}

	count, err := s.participantRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count participants: %w", err)
	}
	if count >= t.MaxParticipants {
		return nil, ErrTournamentFull
	}

	script, err := s.scriptRepo.GetByID(ctx, scriptID)
	if err != nil {
		if errors.Is(err, repositories.ErrScriptNotFound) {
			return nil, ErrScriptNotFound
		}
		return nil, fmt.Errorf("failed to load script %d: %w", scriptID, err)
	}
	if script.OwnerID != userID {
		return nil, ErrScriptNotOwned
	}

	p := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
		ScriptID:     scriptID,
	}
	if err := s.participantRepo.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrDuplicateParticipant
		}
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}
	return p, nil
}

func (s *tournamentService) Start(ctx context.Context, tournamentID, userID int) error {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.OrganizerID != userID {
		return ErrForbiddenOperation
	}
	if t.Status != models.StatusRegistering {
		return fmt.Errorf("%w: tournament is %s", ErrInvalidTransition, t.Status)
	}

	count, err := s.participantRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to count participants: %w", err)
	}
	if count < 2 {
		return fmt.Errorf("%w: at least 2 participants required, found %d", ErrInvalidTransition, count)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusRegistering, models.StatusRunning, time.Now()); err != nil {
		return fmt.Errorf("failed to start tournament %d: %w", tournamentID, err)
	}
	s.logger.Info("tournament started",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participants", count),
	)
	return nil
}

func (s *tournamentService) ExecuteAll(ctx context.Context, tournamentID int) error {
	t, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if t.Status != models.StatusRunning {
		return ErrTournamentNotRunning
	}

	participants, err := s.participantRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to list participants: %w", err)
	}

	sources, err := s.loadScriptSources(ctx, participants)
	if err != nil {
		return err
	}

	pairings, err := s.generator.Generate(participants)
	if err != nil {
		return fmt.Errorf("failed to generate schedule: %w", err)
	}

	s.logger.Info("executing tournament",
		slog.Int("tournament_id", tournamentID),
		slog.Int("matches", len(pairings)),
		slog.String("format", s.generator.Name()),
	)

	for _, pairing := range pairings {
		// Cooperative cancellation: never abort a match mid-round, only
		// stop before picking up the next pair.
		if ctx.Err() != nil {
			return fmt.Errorf("tournament %d execution interrupted: %w", tournamentID, ctx.Err())
		}
		s.runPairing(ctx, t, pairing, sources)
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, models.StatusRunning, models.StatusCompleted, time.Now()); err != nil {
		return fmt.Errorf("failed to complete tournament %d: %w", tournamentID, err)
	}

	if winnerID, ok := s.deriveWinner(ctx, tournamentID, participants); ok {
		if err := s.tournamentRepo.SetWinner(ctx, tournamentID, winnerID); err != nil {
			s.logger.Error("failed to persist tournament winner",
				slog.Int("tournament_id", tournamentID),
				slog.Any("error", err),
			)
		}
	}

	s.broadcast(tournamentID, live.EventTournamentCompleted, map[string]interface{}{
		"tournament_id": tournamentID,
	})
	s.logger.Info("tournament completed", slog.Int("tournament_id", tournamentID))
	return nil
}

func (s *tournamentService) loadScriptSources(ctx context.Context, participants []*models.Participant) (map[int]string, error) {
	sources := make(map[int]string, len(participants))
	for _, p := range participants {
		script, err := s.scriptRepo.GetByID(ctx, p.ScriptID)
		if err != nil {
			return nil, fmt.Errorf("failed to load script %d for participant %d: %w", p.ScriptID, p.ID, err)
		}
		sources[p.ID] = script.Source
	}
	return sources, nil
}

// runPairing creates, runs and persists one match. Every failure mode,
// including runner errors and panics, is contained here so the remaining
// pairs still run.
func (s *tournamentService) runPairing(ctx context.Context, t *models.Tournament, pairing schedule.Pairing, sources map[int]string) {
	m := &models.Match{
		TournamentID:      t.ID,
		RedParticipantID:  pairing.Red.ID,
		BlueParticipantID: pairing.Blue.ID,
		Status:            models.MatchStatusPending,
	}
	if err := s.matchRepo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create match record, skipping pair",
			slog.Int("tournament_id", t.ID),
			slog.Int("red", pairing.Red.ID),
			slog.Int("blue", pairing.Blue.ID),
			slog.Any("error", err),
		)
		return
	}

	defer func() {
		if p := recover(); p != nil {
			reason := fmt.Sprintf("panic during match execution: %v", p)
			s.failMatch(ctx, t.ID, m.ID, reason)
		}
	}()

	if err := s.matchRepo.MarkRunning(ctx, m.ID); err != nil {
		s.failMatch(ctx, t.ID, m.ID, fmt.Sprintf("failed to mark running: %v", err))
		return
	}
	s.broadcast(t.ID, live.EventMatchStarted, map[string]interface{}{
		"match_id": m.ID,
		"red":      pairing.Red.ID,
		"blue":     pairing.Blue.ID,
	})

	onAction := func(a engine.ReplayAction) {
		s.broadcast(t.ID, live.EventRoundPlayed, map[string]interface{}{
			"match_id": m.ID,
			"action":   a,
		})
	}

	result, replay, err := s.runner.Run(t.Settings, sources[pairing.Red.ID], sources[pairing.Blue.ID], onAction)
	if err != nil {
		s.failMatch(ctx, t.ID, m.ID, err.Error())
		return
	}

	m.Winner = result.Winner
	m.ResultType = result.Type
	m.RedScore = result.Score1
	m.BlueScore = result.Score2
	m.Rounds = result.Rounds
	m.Duration = result.Duration
	m.Seed = result.Seed
	m.Replay = replay

	if err := s.matchRepo.SaveResult(ctx, m); err != nil {
		s.failMatch(ctx, t.ID, m.ID, fmt.Sprintf("failed to persist result: %v", err))
		return
	}

	s.applyStats(ctx, pairing, result)
	s.archiveReplay(ctx, m)

	s.broadcast(t.ID, live.EventMatchFinished, map[string]interface{}{
		"match_id":    m.ID,
		"winner":      result.Winner,
		"result_type": result.Type,
		"red_score":   result.Score1,
		"blue_score":  result.Score2,
		"rounds":      result.Rounds,
	})
}

func (s *tournamentService) failMatch(ctx context.Context, tournamentID, matchID int, reason string) {
	s.logger.Error("match failed",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.String("reason", reason),
	)
	if err := s.matchRepo.MarkError(ctx, matchID, reason); err != nil {
		s.logger.Error("failed to mark match as errored",
			slog.Int("match_id", matchID),
			slog.Any("error", err),
		)
	}
	s.broadcast(tournamentID, live.EventMatchFailed, map[string]interface{}{
		"match_id": matchID,
		"reason":   reason,
	})
}

// applyStats bumps the aggregate win/loss/draw counters on both users and
// both scripts. Increments are atomic at the repository, so the contract
// holds even if match execution is ever parallelized. Failed increments
// are logged, never fatal to the tournament.
func (s *tournamentService) applyStats(ctx context.Context, pairing schedule.Pairing, result engine.Result) {
	redOutcome, blueOutcome := models.OutcomeDraw, models.OutcomeDraw
	switch result.Winner {
	case engine.WinnerSnake1:
		redOutcome, blueOutcome = models.OutcomeWin, models.OutcomeLoss
	case engine.WinnerSnake2:
		redOutcome, blueOutcome = models.OutcomeLoss, models.OutcomeWin
	}

	for _, upd := range []struct {
		participant *models.Participant
		outcome     models.Outcome
	}{
		{pairing.Red, redOutcome},
		{pairing.Blue, blueOutcome},
	} {
		if err := s.userRepo.IncrementStats(ctx, upd.participant.UserID, upd.outcome); err != nil {
			s.logger.Error("failed to increment user stats",
				slog.Int("user_id", upd.participant.UserID),
				slog.Any("error", err),
			)
		}
		if err := s.scriptRepo.IncrementStats(ctx, upd.participant.ScriptID, upd.outcome); err != nil {
			s.logger.Error("failed to increment script stats",
				slog.Int("script_id", upd.participant.ScriptID),
				slog.Any("error", err),
			)
		}
	}
}

// archiveReplay uploads the replay blob to object storage when an archive
// is configured. Best effort: the database copy is authoritative.
func (s *tournamentService) archiveReplay(ctx context.Context, m *models.Match) {
	if s.archive == nil || m.Replay == nil {
		return
	}
	data, err := json.Marshal(m.Replay)
	if err != nil {
		s.logger.Error("failed to encode replay for archive",
			slog.Int("match_id", m.ID),
			slog.Any("error", err),
		)
		return
	}
	key := fmt.Sprintf("replays/tournament_%d/match_%d.json", m.TournamentID, m.ID)
	if _, err := s.archive.Upload(ctx, key, "application/json", bytes.NewReader(data)); err != nil {
		s.logger.Error("failed to archive replay",
			slog.Int("match_id", m.ID),
			slog.Any("error", err),
		)
	}
}

// deriveWinner picks the best aggregate record among participants: most
// wins, tie-broken by total score across the tournament's matches, then by
// earliest registration (lowest seat).
func (s *tournamentService) deriveWinner(ctx context.Context, tournamentID int, participants []*models.Participant) (int, bool) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		s.logger.Error("failed to list matches for winner derivation",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err),
		)
		return 0, false
	}

	type record struct {
		wins  int
		score int
	}
	records := make(map[int]*record, len(participants))
	for _, p := range participants {
		records[p.ID] = &record{}
	}

	for _, m := range matches {
		if m.Status != models.MatchStatusCompleted {
			continue
		}
		if red, ok := records[m.RedParticipantID]; ok {
			red.score += m.RedScore
			if m.Winner == engine.WinnerSnake1 {
				red.wins++
			}
		}
		if blue, ok := records[m.BlueParticipantID]; ok {
			blue.score += m.BlueScore
			if m.Winner == engine.WinnerSnake2 {
				blue.wins++
			}
		}
	}

	var winner *models.Participant
	for _, p := range participants {
		if winner == nil {
			winner = p
			continue
		}
		current, best := records[p.ID], records[winner.ID]
		switch {
		case current.wins > best.wins:
			winner = p
		case current.wins == best.wins && current.score > best.score:
			winner = p
		case current.wins == best.wins && current.score == best.score && p.Seat < winner.Seat:
			winner = p
		}
	}
	if winner == nil {
		return 0, false
	}
	return winner.ID, true
}

func (s *tournamentService) broadcast(tournamentID int, eventType string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(roomID(tournamentID), live.Message{
		Type:    eventType,
		Payload: payload,
	})
}
