package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/snake-arena/engine"
	"github.com/Dosada05/snake-arena/models"
)

func TestMatchServiceGetReplay(t *testing.T) {
	matches := newFakeMatchRepo()
	svc := NewMatchService(matches)
	ctx := context.Background()

	withReplay := &models.Match{TournamentID: 1, Status: models.MatchStatusPending}
	require.NoError(t, matches.Create(ctx, withReplay))
	withReplay.Replay = &engine.Replay{Seed: 7}
	require.NoError(t, matches.SaveResult(ctx, withReplay))

	errored := &models.Match{TournamentID: 1, Status: models.MatchStatusPending}
	require.NoError(t, matches.Create(ctx, errored))
	require.NoError(t, matches.MarkError(ctx, errored.ID, "boom"))

	replay, err := svc.GetReplay(ctx, withReplay.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(7), replay.Seed)

	_, err = svc.GetReplay(ctx, errored.ID)
	assert.ErrorIs(t, err, ErrReplayNotAvailable)

	_, err = svc.GetReplay(ctx, 9999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestMatchServiceGetByID(t *testing.T) {
	matches := newFakeMatchRepo()
	svc := NewMatchService(matches)
	ctx := context.Background()

	m := &models.Match{TournamentID: 1, Status: models.MatchStatusPending}
	require.NoError(t, matches.Create(ctx, m))

	got, err := svc.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = svc.GetByID(ctx, 404)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
