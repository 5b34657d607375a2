package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/snake-arena/models"
	"github.com/Dosada05/snake-arena/repositories"
)

// maxScriptSource bounds stored script size. Scripts are opaque text; the
// sandbox is the only component that interprets them, at match time.
const maxScriptSource = 64 * 1024

type ScriptInput struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

type ScriptService interface {
	Create(ctx context.Context, ownerID int, input ScriptInput) (*models.Script, error)
	GetByID(ctx context.Context, id int) (*models.Script, error)
	ListByOwner(ctx context.Context, ownerID int) ([]*models.Script, error)
	Update(ctx context.Context, ownerID, scriptID int, input ScriptInput) (*models.Script, error)
	Delete(ctx context.Context, ownerID, scriptID int) error
}

type scriptService struct {
	scriptRepo repositories.ScriptRepository
}

func NewScriptService(scriptRepo repositories.ScriptRepository) ScriptService {
	return &scriptService{scriptRepo: scriptRepo}
}

func validateScriptInput(input ScriptInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: script name is required", ErrValidationFailed)
	}
	if strings.TrimSpace(input.Source) == "" {
		return fmt.Errorf("%w: script source is required", ErrValidationFailed)
	}
	if len(input.Source) > maxScriptSource {
		return fmt.Errorf("%w: script source exceeds %d bytes", ErrValidationFailed, maxScriptSource)
	}
	return nil
}

func (s *scriptService) Create(ctx context.Context, ownerID int, input ScriptInput) (*models.Script, error) {
	if err := validateScriptInput(input); err != nil {
		return nil, err
	}
	script := &models.Script{
		OwnerID: ownerID,
		Name:    strings.TrimSpace(input.Name),
		Source:  input.Source,
	}
	if err := s.scriptRepo.Create(ctx, script); err != nil {
		return nil, fmt.Errorf("failed to create script: %w", err)
	}
	return script, nil
}

func (s *scriptService) GetByID(ctx context.Context, id int) (*models.Script, error) {
	script, err := s.scriptRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrScriptNotFound) {
			return nil, ErrScriptNotFound
		}
		return nil, fmt.Errorf("failed to load script %d: %w", id, err)
	}
	return script, nil
}

func (s *scriptService) ListByOwner(ctx context.Context, ownerID int) ([]*models.Script, error) {
	scripts, err := s.scriptRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}
	return scripts, nil
}

func (s *scriptService) Update(ctx context.Context, ownerID, scriptID int, input ScriptInput) (*models.Script, error) {
	if err := validateScriptInput(input); err != nil {
		return nil, err
	}
	script, err := s.GetByID(ctx, scriptID)
	if err != nil {
		return nil, err
	}
	if script.OwnerID != ownerID {
		return nil, ErrScriptNotOwned
	}

	script.Name = strings.TrimSpace(input.Name)
	script.Source = input.Source
	if err := s.scriptRepo.Update(ctx, script); err != nil {
		if errors.Is(err, repositories.ErrScriptNotFound) {
			return nil, ErrScriptNotFound
		}
		return nil, fmt.Errorf("failed to update script %d: %w", scriptID, err)
	}
	return script, nil
}

func (s *scriptService) Delete(ctx context.Context, ownerID, scriptID int) error {
	script, err := s.GetByID(ctx, scriptID)
	if err != nil {
		return err
	}
	if script.OwnerID != ownerID {
		return ErrScriptNotOwned
	}
	if err := s.scriptRepo.Delete(ctx, scriptID); err != nil {
		if errors.Is(err, repositories.ErrScriptNotFound) {
			return ErrScriptNotFound
		}
		return fmt.Errorf("failed to delete script %d: %w", scriptID, err)
	}
	return nil
}
