package repo

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pulseo/internal/models"
	"github.com/Skotchmaster/pulseo/internal/testutil"
)

func newTestRepo(t *testing.T) *GormRepo {
	t.Helper()
	return New(testutil.NewDB(t))
}

func mustUser(t *testing.T, r *GormRepo, name string) *models.User {
	t.Helper()
	u, err := r.CreateUser(context.Background(), name, fmt.Sprintf("%s@example.com", name), "hash")
	require.NoError(t, err)
	return u
}

func ids(tasks []models.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}
