package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/snake-arena/engine"
	"github.com/Dosada05/snake-arena/models"
)

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrReplayNotAvailable = errors.New("match has no replay")
)

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// ListByTournament returns matches in creation order, without replays.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	GetReplay(ctx context.Context, id int) (*engine.Replay, error)
	MarkRunning(ctx context.Context, id int) error
	// SaveResult stores the terminal outcome and the immutable replay in
	// one statement.
	SaveResult(ctx context.Context, m *models.Match) error
	MarkError(ctx context.Context, id int, reason string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, red_participant_id, blue_participant_id, status,
	winner, result_type, red_score, blue_score, rounds, duration_ms, seed, error_reason, created_at`

func scanMatch(scanner interface{ Scan(...interface{}) error }) (*models.Match, error) {
	m := &models.Match{}
	var (
		winner     sql.NullString
		resultType sql.NullString
		durationMS int64
	)
	err := scanner.Scan(
		&m.ID,
		&m.TournamentID,
		&m.RedParticipantID,
		&m.BlueParticipantID,
		&m.Status,
		&winner,
		&resultType,
		&m.RedScore,
		&m.BlueScore,
		&m.Rounds,
		&durationMS,
		&m.Seed,
		&m.ErrorReason,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	m.Winner = engine.Winner(winner.String)
	m.ResultType = engine.ResultType(resultType.String)
	m.Duration = time.Duration(durationMS) * time.Millisecond
	return m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, m *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, red_participant_id, blue_participant_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		m.TournamentID,
		m.RedParticipantID,
		m.BlueParticipantID,
		m.Status,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate matches: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) GetReplay(ctx context.Context, id int) (*engine.Replay, error) {
	var replayJSON []byte
	err := r.db.QueryRowContext(ctx, `SELECT replay FROM matches WHERE id = $1`, id).Scan(&replayJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load replay for match %d: %w", id, err)
	}
	if len(replayJSON) == 0 {
		return nil, ErrReplayNotAvailable
	}
	replay := &engine.Replay{}
	if err := json.Unmarshal(replayJSON, replay); err != nil {
		return nil, fmt.Errorf("failed to decode replay for match %d: %w", id, err)
	}
	return replay, nil
}

func (r *postgresMatchRepository) MarkRunning(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE id = $2`,
		models.MatchStatusRunning, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark match %d running: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SaveResult(ctx context.Context, m *models.Match) error {
	replayJSON, err := json.Marshal(m.Replay)
	if err != nil {
		return fmt.Errorf("failed to encode replay for match %d: %w", m.ID, err)
	}

	query := `
		UPDATE matches
		SET status = $1, winner = $2, result_type = $3, red_score = $4, blue_score = $5,
		    rounds = $6, duration_ms = $7, seed = $8, replay = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		models.MatchStatusCompleted,
		string(m.Winner),
		string(m.ResultType),
		m.RedScore,
		m.BlueScore,
		m.Rounds,
		m.Duration.Milliseconds(),
		m.Seed,
		replayJSON,
		m.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save result for match %d: %w", m.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) MarkError(ctx context.Context, id int, reason string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE matches SET status = $1, error_reason = $2 WHERE id = $3`,
		models.MatchStatusError, reason, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark match %d as errored: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}
