package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/snake-arena/models"
)

var ErrScriptNotFound = errors.New("script not found")

type ScriptRepository interface {
	Create(ctx context.Context, script *models.Script) error
	GetByID(ctx context.Context, id int) (*models.Script, error)
	ListByOwner(ctx context.Context, ownerID int) ([]*models.Script, error)
	Update(ctx context.Context, script *models.Script) error
	Delete(ctx context.Context, id int) error
	IncrementStats(ctx context.Context, scriptID int, outcome models.Outcome) error
}

type postgresScriptRepository struct {
	db *sql.DB
}

func NewPostgresScriptRepository(db *sql.DB) ScriptRepository {
	return &postgresScriptRepository{db: db}
}

const scriptColumns = `id, owner_id, name, source, wins, losses, draws, created_at, updated_at`

func scanScript(scanner interface{ Scan(...interface{}) error }) (*models.Script, error) {
	script := &models.Script{}
	err := scanner.Scan(
		&script.ID,
		&script.OwnerID,
		&script.Name,
		&script.Source,
		&script.Wins,
		&script.Losses,
		&script.Draws,
		&script.CreatedAt,
		&script.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScriptNotFound
		}
		return nil, fmt.Errorf("failed to scan script: %w", err)
	}
	return script, nil
}

func (r *postgresScriptRepository) Create(ctx context.Context, script *models.Script) error {
	query := `
		INSERT INTO scripts (owner_id, name, source)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		script.OwnerID,
		script.Name,
		script.Source,
	).Scan(&script.ID, &script.CreatedAt, &script.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create script: %w", err)
	}
	return nil
}

func (r *postgresScriptRepository) GetByID(ctx context.Context, id int) (*models.Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE id = $1`
	return scanScript(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresScriptRepository) ListByOwner(ctx context.Context, ownerID int) ([]*models.Script, error) {
	query := `SELECT ` + scriptColumns + ` FROM scripts WHERE owner_id = $1 ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	scripts := make([]*models.Script, 0)
	for rows.Next() {
		script, err := scanScript(rows)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, script)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scripts: %w", err)
	}
	return scripts, nil
}

func (r *postgresScriptRepository) Update(ctx context.Context, script *models.Script) error {
	query := `
		UPDATE scripts
		SET name = $1, source = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, script.Name, script.Source, script.ID).Scan(&script.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrScriptNotFound
		}
		return fmt.Errorf("failed to update script %d: %w", script.ID, err)
	}
	return nil
}

func (r *postgresScriptRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM scripts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete script %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrScriptNotFound)
}

func (r *postgresScriptRepository) IncrementStats(ctx context.Context, scriptID int, outcome models.Outcome) error {
	column, err := outcomeColumn(outcome)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE scripts SET %s = %s + 1 WHERE id = $1`, column, column)
	result, err := r.db.ExecContext(ctx, query, scriptID)
	if err != nil {
		return fmt.Errorf("failed to increment script %d stats: %w", scriptID, err)
	}
	return checkAffectedRows(result, ErrScriptNotFound)
}
