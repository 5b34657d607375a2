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
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentStatusConflict = errors.New("tournament status changed concurrently")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error)
	// UpdateStatus transitions status only when the stored status still
	// matches from; a concurrent transition surfaces as
	// ErrTournamentStatusConflict.
	UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus, at time.Time) error
	SetWinner(ctx context.Context, id int, participantID int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, name, organizer_id, status, max_participants, settings, winner_participant_id, created_at, started_at, completed_at`

func scanTournament(scanner interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	t := &models.Tournament{}
	var settingsJSON []byte
	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&t.OrganizerID,
		&t.Status,
		&t.MaxParticipants,
		&settingsJSON,
		&t.WinnerParticipantID,
		&t.CreatedAt,
		&t.StartedAt,
		&t.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament: %w", err)
	}
	if err := json.Unmarshal(settingsJSON, &t.Settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings for tournament %d: %w", t.ID, err)
	}
	return t, nil
}

func marshalSettings(s engine.Settings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode settings: %w", err)
	}
	return data, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	settingsJSON, err := marshalSettings(t.Settings)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tournaments (name, organizer_id, status, max_participants, settings)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.db.QueryRowContext(ctx, query,
		t.Name,
		t.OrganizerID,
		t.Status,
		t.MaxParticipants,
		settingsJSON,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) List(ctx context.Context, status *models.TournamentStatus, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	args := []interface{}{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, *status)
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT %d OFFSET %d`, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tournaments: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus, at time.Time) error {
	var column string
	switch to {
	case models.StatusRunning:
		column = "started_at"
	case models.StatusCompleted:
		column = "completed_at"
	default:
		return fmt.Errorf("unsupported status transition target %q", to)
	}

	query := fmt.Sprintf(`UPDATE tournaments SET status = $1, %s = $2 WHERE id = $3 AND status = $4`, column)
	result, err := r.db.ExecContext(ctx, query, to, at, id, from)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d status: %w", id, err)
	}
	if err := checkAffectedRows(result, ErrTournamentStatusConflict); err != nil {
		// Distinguish a missing row from a lost transition race.
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) SetWinner(ctx context.Context, id int, participantID int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE tournaments SET winner_participant_id = $1 WHERE id = $2`,
		participantID, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set winner for tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
