package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/snake-arena/engine"
	"github.com/Dosada05/snake-arena/models"
	"github.com/Dosada05/snake-arena/repositories"
)

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error)
	GetReplay(ctx context.Context, matchID int) (*engine.Replay, error)
}

type matchService struct {
	matchRepo repositories.MatchRepository
}

func NewMatchService(matchRepo repositories.MatchRepository) MatchService {
	return &matchService{matchRepo: matchRepo}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, err := s.matchRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to load match %d: %w", id, err)
	}
	return m, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	return matches, nil
}

// GetReplay returns the full recorded replay of a completed match. Matches
// that errored or have not finished yet have no replay.
func (s *matchService) GetReplay(ctx context.Context, matchID int) (*engine.Replay, error) {
	replay, err := s.matchRepo.GetReplay(ctx, matchID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrMatchNotFound):
			return nil, ErrMatchNotFound
		case errors.Is(err, repositories.ErrReplayNotAvailable):
			return nil, ErrReplayNotAvailable
		}
		return nil, fmt.Errorf("failed to load replay for match %d: %w", matchID, err)
	}
	return replay, nil
}
