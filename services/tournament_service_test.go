package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/snake-arena/engine"
	"github.com/Dosada05/snake-arena/live"
	"github.com/Dosada05/snake-arena/models"
	"github.com/Dosada05/snake-arena/repositories"
	"github.com/Dosada05/snake-arena/schedule"
)

// In-memory repository fakes. Each implements just enough of its postgres
// counterpart's contract for the orchestrator paths under test.

type fakeTournamentRepo struct {
	mu          sync.Mutex
	seq         int
	tournaments map[int]*models.Tournament
}

func newFakeTournamentRepo() *fakeTournamentRepo {
	return &fakeTournamentRepo{tournaments: make(map[int]*models.Tournament)}
}

func (r *fakeTournamentRepo) Create(_ context.Context, t *models.Tournament) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	t.ID = r.seq
	t.CreatedAt = time.Now()
	stored := *t
	r.tournaments[t.ID] = &stored
	return nil
}

func (r *fakeTournamentRepo) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	out := *t
	return &out, nil
}

func (r *fakeTournamentRepo) List(_ context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Tournament, 0)
	for _, t := range r.tournaments {
		if status == nil || t.Status == *status {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeTournamentRepo) UpdateStatus(_ context.Context, id int, from, to models.TournamentStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	if t.Status != from {
		return repositories.ErrTournamentStatusConflict
	}
	t.Status = to
	switch to {
	case models.StatusRunning:
		t.StartedAt = &at
	case models.StatusCompleted:
		t.CompletedAt = &at
	}
	return nil
}

func (r *fakeTournamentRepo) SetWinner(_ context.Context, id int, participantID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.WinnerParticipantID = &participantID
	return nil
}

type fakeParticipantRepo struct {
	mu           sync.Mutex
	seq          int
	participants map[int]*models.Participant
}

func newFakeParticipantRepo() *fakeParticipantRepo {
	return &fakeParticipantRepo{participants: make(map[int]*models.Participant)}
}

func (r *fakeParticipantRepo) Create(_ context.Context, p *models.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seat := 0
	for _, existing := range r.participants {
		if existing.TournamentID == p.TournamentID {
			if existing.UserID == p.UserID {
				return repositories.ErrParticipantConflict
			}
			seat++
		}
	}
	r.seq++
	p.ID = r.seq
	p.Seat = seat
	p.CreatedAt = time.Now()
	stored := *p
	r.participants[p.ID] = &stored
	return nil
}

func (r *fakeParticipantRepo) GetByID(_ context.Context, id int) (*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	out := *p
	return &out, nil
}

func (r *fakeParticipantRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Participant, 0)
	for seat := 0; ; seat++ {
		found := false
		for _, p := range r.participants {
			if p.TournamentID == tournamentID && p.Seat == seat {
				copied := *p
				out = append(out, &copied)
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) CountByTournament(_ context.Context, tournamentID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.participants {
		if p.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	seq     int
	matches map[int]*models.Match
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.Match)}
}

func (r *fakeMatchRepo) Create(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = r.seq
	m.CreatedAt = time.Now()
	stored := *m
	r.matches[m.ID] = &stored
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	out := *m
	return &out, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, tournamentID int) ([]*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Match, 0)
	for id := 1; id <= r.seq; id++ {
		if m, ok := r.matches[id]; ok && m.TournamentID == tournamentID {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) GetReplay(_ context.Context, id int) (*engine.Replay, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	if m.Replay == nil {
		return nil, repositories.ErrReplayNotAvailable
	}
	return m.Replay, nil
}

func (r *fakeMatchRepo) MarkRunning(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchStatusRunning
	return nil
}

func (r *fakeMatchRepo) SaveResult(_ context.Context, m *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[m.ID]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	copied := *m
	copied.Status = models.MatchStatusCompleted
	copied.CreatedAt = stored.CreatedAt
	r.matches[m.ID] = &copied
	return nil
}

func (r *fakeMatchRepo) MarkError(_ context.Context, id int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Status = models.MatchStatusError
	m.ErrorReason = &reason
	return nil
}

type fakeScriptRepo struct {
	mu      sync.Mutex
	seq     int
	scripts map[int]*models.Script
	stats   map[int][]models.Outcome
}

func newFakeScriptRepo() *fakeScriptRepo {
	return &fakeScriptRepo{
		scripts: make(map[int]*models.Script),
		stats:   make(map[int][]models.Outcome),
	}
}

func (r *fakeScriptRepo) Create(_ context.Context, s *models.Script) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	s.ID = r.seq
	stored := *s
	r.scripts[s.ID] = &stored
	return nil
}

func (r *fakeScriptRepo) GetByID(_ context.Context, id int) (*models.Script, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.scripts[id]
	if !ok {
		return nil, repositories.ErrScriptNotFound
	}
	out := *s
	return &out, nil
}

func (r *fakeScriptRepo) ListByOwner(_ context.Context, ownerID int) ([]*models.Script, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.Script, 0)
	for _, s := range r.scripts {
		if s.OwnerID == ownerID {
			copied := *s
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeScriptRepo) Update(_ context.Context, s *models.Script) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scripts[s.ID]; !ok {
		return repositories.ErrScriptNotFound
	}
	stored := *s
	r.scripts[s.ID] = &stored
	return nil
}

func (r *fakeScriptRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.scripts[id]; !ok {
		return repositories.ErrScriptNotFound
	}
	delete(r.scripts, id)
	return nil
}

func (r *fakeScriptRepo) IncrementStats(_ context.Context, scriptID int, outcome models.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[scriptID] = append(r.stats[scriptID], outcome)
	return nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[int]*models.User
	stats map[int][]models.Outcome
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users: make(map[int]*models.User),
		stats: make(map[int][]models.Outcome),
	}
}

func (r *fakeUserRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return repositories.ErrUserEmailConflict
		}
		if existing.Nickname == u.Nickname {
			return repositories.ErrUserNicknameConflict
		}
	}
	r.seq++
	u.ID = r.seq
	stored := *u
	r.users[u.ID] = &stored
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			out := *u
			return &out, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

func (r *fakeUserRepo) IncrementStats(_ context.Context, userID int, outcome models.Outcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats[userID] = append(r.stats[userID], outcome)
	return nil
}

// funcRunner lets each test script the runner's behavior per match.
type funcRunner struct {
	fn func(settings engine.Settings, redSource, blueSource string, onAction func(engine.ReplayAction)) (engine.Result, *engine.Replay, error)
}

func (r *funcRunner) Run(settings engine.Settings, redSource, blueSource string, onAction func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
	return r.fn(settings, redSource, blueSource, onAction)
}

type fakeHub struct {
	mu       sync.Mutex
	messages []live.Message
}

func (h *fakeHub) BroadcastToRoom(_ string, msg live.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

func (h *fakeHub) countByType(eventType string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	count := 0
	for _, m := range h.messages {
		if m.Type == eventType {
			count++
		}
	}
	return count
}

type testEnv struct {
	svc          TournamentService
	tournaments  *fakeTournamentRepo
	participants *fakeParticipantRepo
	matches      *fakeMatchRepo
	scripts      *fakeScriptRepo
	users        *fakeUserRepo
	runner       *funcRunner
	hub          *fakeHub
}

func redAlwaysWins(engine.Settings, string, string, func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
	return engine.Result{
		Winner: engine.WinnerSnake1,
		Type:   engine.ResultWin,
		Rounds: 10,
		Score1: 3,
		Score2: 1,
		Seed:   42,
	}, &engine.Replay{Seed: 42}, nil
}

func newTestEnv() *testEnv {
	env := &testEnv{
		tournaments:  newFakeTournamentRepo(),
		participants: newFakeParticipantRepo(),
		matches:      newFakeMatchRepo(),
		scripts:      newFakeScriptRepo(),
		users:        newFakeUserRepo(),
		runner:       &funcRunner{fn: redAlwaysWins},
		hub:          &fakeHub{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.svc = NewTournamentService(
		engine.DefaultSettings(),
		env.tournaments,
		env.participants,
		env.matches,
		env.scripts,
		env.users,
		schedule.NewRoundRobin(),
		env.runner,
		env.hub,
		nil,
		logger,
	)
	return env
}

// seedTournament creates a registering tournament owned by a fresh user and
// registers n participants, each a distinct user with their own script.
func (env *testEnv) seedTournament(t *testing.T, n int) *models.Tournament {
	t.Helper()
	ctx := context.Background()

	organizer := &models.User{Nickname: "organizer", Email: "organizer@example.com", Role: models.RoleAdmin}
	require.NoError(t, env.users.Create(ctx, organizer))

	tournament, err := env.svc.Create(ctx, organizer.ID, CreateTournamentInput{
		Name:            "weekly arena",
		MaxParticipants: n + 2,
	})
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		env.addParticipant(t, tournament.ID, i)
	}
	return tournament
}

func (env *testEnv) addParticipant(t *testing.T, tournamentID, i int) *models.Participant {
	t.Helper()
	ctx := context.Background()

	user := &models.User{
		Nickname: "player" + string(rune('a'+i)),
		Email:    "player" + string(rune('a'+i)) + "@example.com",
		Role:     models.RolePlayer,
	}
	require.NoError(t, env.users.Create(ctx, user))

	script := &models.Script{OwnerID: user.ID, Name: "bot", Source: `function decide(s){return "up";}`}
	require.NoError(t, env.scripts.Create(ctx, script))

	p, err := env.svc.RegisterParticipant(ctx, tournamentID, user.ID, script.ID)
	require.NoError(t, err)
	return p
}

func (env *testEnv) start(t *testing.T, tournament *models.Tournament) {
	t.Helper()
	require.NoError(t, env.svc.Start(context.Background(), tournament.ID, tournament.OrganizerID))
}

func TestCreateTournamentValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Create(ctx, 1, CreateTournamentInput{Name: "  ", MaxParticipants: 4})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.svc.Create(ctx, 1, CreateTournamentInput{Name: "x", MaxParticipants: 1})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = env.svc.Create(ctx, 1, CreateTournamentInput{
		Name:            "x",
		MaxParticipants: 4,
		Settings:        engine.Settings{GridWidth: 3, GridHeight: 3, MaxRounds: 10, MoveTimeout: time.Second, Difficulty: engine.DifficultyNormal},
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateTournamentAppliesDefaults(t *testing.T) {
	env := newTestEnv()

	tournament, err := env.svc.Create(context.Background(), 1, CreateTournamentInput{
		Name:            "defaults",
		MaxParticipants: 4,
	})
	require.NoError(t, err)

	defaults := engine.DefaultSettings()
	assert.Equal(t, defaults.GridWidth, tournament.Settings.GridWidth)
	assert.Equal(t, defaults.MaxRounds, tournament.Settings.MaxRounds)
	assert.Equal(t, defaults.MoveTimeout, tournament.Settings.MoveTimeout)
	assert.Equal(t, models.StatusRegistering, tournament.Status)
}

func TestRegisterParticipantErrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)
	first, _ := env.participants.ListByTournament(ctx, tournament.ID)

	t.Run("script not owned", func(t *testing.T) {
		stranger := &models.User{Nickname: "stranger", Email: "stranger@example.com"}
		require.NoError(t, env.users.Create(ctx, stranger))
		_, err := env.svc.RegisterParticipant(ctx, tournament.ID, stranger.ID, first[0].ScriptID)
		assert.ErrorIs(t, err, ErrScriptNotOwned)
	})

	t.Run("duplicate user", func(t *testing.T) {
		script := &models.Script{OwnerID: first[0].UserID, Name: "second bot", Source: "x"}
		require.NoError(t, env.scripts.Create(ctx, script))
		_, err := env.svc.RegisterParticipant(ctx, tournament.ID, first[0].UserID, script.ID)
		assert.ErrorIs(t, err, ErrDuplicateParticipant)
	})

	t.Run("missing script", func(t *testing.T) {
		u := &models.User{Nickname: "noscript", Email: "noscript@example.com"}
		require.NoError(t, env.users.Create(ctx, u))
		_, err := env.svc.RegisterParticipant(ctx, tournament.ID, u.ID, 9999)
		assert.ErrorIs(t, err, ErrScriptNotFound)
	})

	t.Run("registration closed", func(t *testing.T) {
		env.start(t, tournament)
		u := &models.User{Nickname: "late", Email: "late@example.com"}
		require.NoError(t, env.users.Create(ctx, u))
		script := &models.Script{OwnerID: u.ID, Name: "late bot", Source: "x"}
		require.NoError(t, env.scripts.Create(ctx, script))
		_, err := env.svc.RegisterParticipant(ctx, tournament.ID, u.ID, script.ID)
		assert.ErrorIs(t, err, ErrRegistrationClosed)
	})
}

func TestRegisterParticipantFullTournament(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	organizer := &models.User{Nickname: "org", Email: "org@example.com"}
	require.NoError(t, env.users.Create(ctx, organizer))
	tournament, err := env.svc.Create(ctx, organizer.ID, CreateTournamentInput{Name: "tiny", MaxParticipants: 2})
	require.NoError(t, err)

	env.addParticipant(t, tournament.ID, 0)
	env.addParticipant(t, tournament.ID, 1)

	u := &models.User{Nickname: "overflow", Email: "overflow@example.com"}
	require.NoError(t, env.users.Create(ctx, u))
	script := &models.Script{OwnerID: u.ID, Name: "bot", Source: "x"}
	require.NoError(t, env.scripts.Create(ctx, script))

	_, err = env.svc.RegisterParticipant(ctx, tournament.ID, u.ID, script.ID)
	assert.ErrorIs(t, err, ErrTournamentFull)
}

func TestStartRequirements(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)

	t.Run("only organizer can start", func(t *testing.T) {
		err := env.svc.Start(ctx, tournament.ID, tournament.OrganizerID+100)
		assert.ErrorIs(t, err, ErrForbiddenOperation)
	})

	t.Run("start succeeds and is not repeatable", func(t *testing.T) {
		require.NoError(t, env.svc.Start(ctx, tournament.ID, tournament.OrganizerID))
		stored, err := env.svc.GetByID(ctx, tournament.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRunning, stored.Status)

		err = env.svc.Start(ctx, tournament.ID, tournament.OrganizerID)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestStartRequiresTwoParticipants(t *testing.T) {
	env := newTestEnv()
	tournament := env.seedTournament(t, 1)

	err := env.svc.Start(context.Background(), tournament.ID, tournament.OrganizerID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestExecuteAllRequiresRunningStatus(t *testing.T) {
	env := newTestEnv()
	tournament := env.seedTournament(t, 2)

	err := env.svc.ExecuteAll(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrTournamentNotRunning)
}

func TestExecuteAllRunsFullRoundRobin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 3)
	env.start(t, tournament)

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	matches, err := env.matches.ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3, "3 participants must produce 3 matches")
	for _, m := range matches {
		assert.Equal(t, models.MatchStatusCompleted, m.Status)
		assert.Equal(t, engine.WinnerSnake1, m.Winner)
		assert.Equal(t, 3, m.RedScore)
		assert.Equal(t, 1, m.BlueScore)
	}

	stored, err := env.svc.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)

	// Red always wins, so seat 0 finishes 2-0 and takes the tournament.
	participants, _ := env.participants.ListByTournament(ctx, tournament.ID)
	require.NotNil(t, stored.WinnerParticipantID)
	assert.Equal(t, participants[0].ID, *stored.WinnerParticipantID)

	assert.Equal(t, 3, env.hub.countByType(live.EventMatchStarted))
	assert.Equal(t, 3, env.hub.countByType(live.EventMatchFinished))
	assert.Equal(t, 1, env.hub.countByType(live.EventTournamentCompleted))
}

func TestExecuteAllPairOrderIsDeterministic(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 3)
	env.start(t, tournament)

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	participants, _ := env.participants.ListByTournament(ctx, tournament.ID)
	matches, _ := env.matches.ListByTournament(ctx, tournament.ID)
	wantPairs := [][2]int{
		{participants[0].ID, participants[1].ID},
		{participants[0].ID, participants[2].ID},
		{participants[1].ID, participants[2].ID},
	}
	for i, m := range matches {
		assert.Equal(t, wantPairs[i][0], m.RedParticipantID, "match %d red", i)
		assert.Equal(t, wantPairs[i][1], m.BlueParticipantID, "match %d blue", i)
	}
}

func TestExecuteAllContainsRunnerErrors(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 3)
	env.start(t, tournament)

	calls := 0
	env.runner.fn = func(settings engine.Settings, red, blue string, onAction func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
		calls++
		if calls == 2 {
			return engine.Result{}, nil, errors.New("script exploded")
		}
		return redAlwaysWins(settings, red, blue, onAction)
	}

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	matches, _ := env.matches.ListByTournament(ctx, tournament.ID)
	require.Len(t, matches, 3)
	assert.Equal(t, models.MatchStatusCompleted, matches[0].Status)
	assert.Equal(t, models.MatchStatusError, matches[1].Status)
	require.NotNil(t, matches[1].ErrorReason)
	assert.Contains(t, *matches[1].ErrorReason, "script exploded")
	assert.Equal(t, models.MatchStatusCompleted, matches[2].Status)

	stored, err := env.svc.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status, "one failed match must not block completion")
	assert.Equal(t, 1, env.hub.countByType(live.EventMatchFailed))
}

func TestExecuteAllContainsRunnerPanics(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)
	env.start(t, tournament)

	env.runner.fn = func(engine.Settings, string, string, func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
		panic("runner blew up")
	}

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	matches, _ := env.matches.ListByTournament(ctx, tournament.ID)
	require.Len(t, matches, 1)
	assert.Equal(t, models.MatchStatusError, matches[0].Status)
	require.NotNil(t, matches[0].ErrorReason)
	assert.Contains(t, *matches[0].ErrorReason, "panic")

	stored, err := env.svc.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestExecuteAllStreamsRounds(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)
	env.start(t, tournament)

	env.runner.fn = func(settings engine.Settings, red, blue string, onAction func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
		onAction(engine.ReplayAction{Round: 0})
		onAction(engine.ReplayAction{Round: 1})
		return redAlwaysWins(settings, red, blue, onAction)
	}

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))
	assert.Equal(t, 2, env.hub.countByType(live.EventRoundPlayed))
}

func TestExecuteAllAppliesStats(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)
	env.start(t, tournament)

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	participants, _ := env.participants.ListByTournament(ctx, tournament.ID)
	red, blue := participants[0], participants[1]

	assert.Equal(t, []models.Outcome{models.OutcomeWin}, env.users.stats[red.UserID])
	assert.Equal(t, []models.Outcome{models.OutcomeLoss}, env.users.stats[blue.UserID])
	assert.Equal(t, []models.Outcome{models.OutcomeWin}, env.scripts.stats[red.ScriptID])
	assert.Equal(t, []models.Outcome{models.OutcomeLoss}, env.scripts.stats[blue.ScriptID])
}

func TestExecuteAllDrawStats(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)
	env.start(t, tournament)

	env.runner.fn = func(engine.Settings, string, string, func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
		return engine.Result{Winner: engine.WinnerDraw, Type: engine.ResultDraw}, &engine.Replay{}, nil
	}

	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	participants, _ := env.participants.ListByTournament(ctx, tournament.ID)
	for _, p := range participants {
		assert.Equal(t, []models.Outcome{models.OutcomeDraw}, env.users.stats[p.UserID])
	}
}

func TestWinnerTieBrokenByScoreThenSeat(t *testing.T) {
	t.Run("score breaks win tie", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		tournament := env.seedTournament(t, 2)
		env.start(t, tournament)

		// A draw leaves both on zero wins; blue's higher score decides.
		env.runner.fn = func(engine.Settings, string, string, func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
			return engine.Result{Winner: engine.WinnerDraw, Type: engine.ResultTimeout, Score1: 2, Score2: 5}, &engine.Replay{}, nil
		}
		require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

		participants, _ := env.participants.ListByTournament(ctx, tournament.ID)
		stored, _ := env.svc.GetByID(ctx, tournament.ID)
		require.NotNil(t, stored.WinnerParticipantID)
		assert.Equal(t, participants[1].ID, *stored.WinnerParticipantID)
	})

	t.Run("seat breaks full tie", func(t *testing.T) {
		env := newTestEnv()
		ctx := context.Background()
		tournament := env.seedTournament(t, 2)
		env.start(t, tournament)

		env.runner.fn = func(engine.Settings, string, string, func(engine.ReplayAction)) (engine.Result, *engine.Replay, error) {
			return engine.Result{Winner: engine.WinnerDraw, Type: engine.ResultTimeout, Score1: 2, Score2: 2}, &engine.Replay{}, nil
		}
		require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

		participants, _ := env.participants.ListByTournament(ctx, tournament.ID)
		stored, _ := env.svc.GetByID(ctx, tournament.ID)
		require.NotNil(t, stored.WinnerParticipantID)
		assert.Equal(t, participants[0].ID, *stored.WinnerParticipantID)
	})
}

func TestGetByIDHydratesParticipantsAndMatches(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	tournament := env.seedTournament(t, 2)
	env.start(t, tournament)
	require.NoError(t, env.svc.ExecuteAll(ctx, tournament.ID))

	stored, err := env.svc.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Participants, 2)
	assert.Len(t, stored.Matches, 1)
}

func TestGetByIDUnknownTournament(t *testing.T) {
	env := newTestEnv()
	_, err := env.svc.GetByID(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}
