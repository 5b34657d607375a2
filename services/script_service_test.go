package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptCreateValidation(t *testing.T) {
	svc := NewScriptService(newFakeScriptRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, ScriptInput{Name: "", Source: "x"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(ctx, 1, ScriptInput{Name: "bot", Source: "  "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.Create(ctx, 1, ScriptInput{Name: "bot", Source: strings.Repeat("a", maxScriptSource+1)})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestScriptOwnershipEnforced(t *testing.T) {
	svc := NewScriptService(newFakeScriptRepo())
	ctx := context.Background()

	script, err := svc.Create(ctx, 1, ScriptInput{Name: "bot", Source: `function decide(s){return "up";}`})
	require.NoError(t, err)

	_, err = svc.Update(ctx, 2, script.ID, ScriptInput{Name: "stolen", Source: "x"})
	assert.ErrorIs(t, err, ErrScriptNotOwned)

	err = svc.Delete(ctx, 2, script.ID)
	assert.ErrorIs(t, err, ErrScriptNotOwned)

	require.NoError(t, svc.Delete(ctx, 1, script.ID))
	_, err = svc.GetByID(ctx, script.ID)
	assert.ErrorIs(t, err, ErrScriptNotFound)
}

func TestScriptUpdate(t *testing.T) {
	svc := NewScriptService(newFakeScriptRepo())
	ctx := context.Background()

	script, err := svc.Create(ctx, 1, ScriptInput{Name: "bot", Source: "v1"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, 1, script.ID, ScriptInput{Name: "bot v2", Source: "v2"})
	require.NoError(t, err)
	assert.Equal(t, "bot v2", updated.Name)
	assert.Equal(t, "v2", updated.Source)
}
