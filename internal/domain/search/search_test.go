package search

import (
	"context"
	"testing"

	"procurement-hub/internal/adapters/storage/memory"
	"procurement-hub/internal/domain/projects"
	"procurement-hub/internal/domain/users"
	"procurement-hub/internal/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	prj := projects.NewService(memory.NewStore[projects.Project](), resource.Deps{})
	usr := users.NewService(memory.NewStore[users.User](), resource.Deps{})
	_, err := prj.Seed(ctx)
	require.NoError(t, err)
	_, err = usr.Seed(ctx)
	require.NoError(t, err)
	return NewService(prj, usr)
}

func TestSearch_Validation(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	user := resource.Actor{ID: 3, Role: resource.RoleUser}

	_, err := svc.Search(ctx, resource.Actor{}, "edificio", nil, 5)
	assert.ErrorIs(t, err, resource.ErrUnauthorized)

	_, err = svc.Search(ctx, user, " e ", nil, 5)
	assert.ErrorIs(t, err, resource.ErrValidation)

	_, err = svc.Search(ctx, user, "edificio", []string{"pets"}, 5)
	assert.ErrorIs(t, err, resource.ErrValidation)

	_, err = svc.Search(ctx, user, "edificio", nil, 0)
	assert.ErrorIs(t, err, resource.ErrValidation)
}

func TestSearch_SkipsForbiddenTypes(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	res, err := svc.Search(ctx, resource.Actor{ID: 3, Role: resource.RoleUser}, "EDIFICIO", nil, 5)
	require.NoError(t, err)
	require.Contains(t, res.Results, "projects")
	assert.NotContains(t, res.Results, "users")
	require.NotEmpty(t, res.Results["projects"])
	assert.Equal(t, "projects", res.Results["projects"][0].Type)
	assert.Equal(t, len(res.Results["projects"]), res.Total)

	res, err = svc.Search(ctx, resource.Actor{ID: 1, Role: resource.RoleAdmin}, "admin", []string{"users"}, 5)
	require.NoError(t, err)
	assert.NotContains(t, res.Results, "projects")
	assert.Contains(t, res.Results, "users")
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{"projects", "users"}, setup(t).Types())
}
