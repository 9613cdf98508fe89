package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pulseo/internal/events"
	"github.com/Skotchmaster/pulseo/internal/hash"
	"github.com/Skotchmaster/pulseo/internal/models"
	"github.com/Skotchmaster/pulseo/internal/repo"
	"github.com/Skotchmaster/pulseo/internal/testutil"
	"github.com/Skotchmaster/pulseo/internal/tokens"
)

const strongPassword = "Str0ng!Passw0rd12"

var fastParams = hash.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type fixture struct {
	Repo   *repo.GormRepo
	Auth   *AuthService
	Tasks  *TaskService
	Cols   *ColumnService
	Events *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	r := repo.New(testutil.NewDB(t))
	rec := &events.Recorder{}
	return &fixture{
		Repo: r,
		Auth: &AuthService{
			Users:    r,
			Sessions: r,
			Hasher:   hash.New(4, fastParams),
			Tokens:   tokens.NewIssuer([]byte("test-secret")),
			Events:   rec,
		},
		Tasks:  &TaskService{Repo: r, Events: rec},
		Cols:   &ColumnService{Repo: r},
		Events: rec,
	}
}

func (f *fixture) register(t *testing.T, username, email string) *Session {
	t.Helper()
	sess, err := f.Auth.Register(context.Background(), RegisterInput{Username: username, Email: email, Password: strongPassword})
	require.NoError(t, err)
	return sess
}

func requireCode(t *testing.T, err error, kind error, code string) *Error {
	t.Helper()
	require.Error(t, err)
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *service.Error, got %T: %v", err, err)
	assert.ErrorIs(t, err, kind)
	assert.Equal(t, code, svcErr.Code)
	return svcErr
}

// blindUsers hides existing users from the prechecks so the insert itself has
// to detect duplicates.
type blindUsers struct {
	UserStore
}

func (blindUsers) FindUserByUsername(context.Context, string) (*models.User, error) {
	return nil, repo.ErrNotFound
}

func (blindUsers) FindUserByEmail(context.Context, string) (*models.User, error) {
	return nil, repo.ErrNotFound
}

// vanishedUsers pretends every user has been deleted.
type vanishedUsers struct {
	UserStore
}

func (vanishedUsers) FindUserByID(context.Context, uuid.UUID) (*models.User, error) {
	return nil, repo.ErrNotFound
}
