package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/pulseo/internal/events"
	"github.com/Skotchmaster/pulseo/internal/models"
)

type memIndex struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]models.Task
	removed []uuid.UUID
	fail    error
}

func newMemIndex() *memIndex {
	return &memIndex{docs: map[uuid.UUID]models.Task{}}
}

func (m *memIndex) IndexTask(_ context.Context, task models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[task.ID] = task
	return nil
}

func (m *memIndex) RemoveTask(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	m.removed = append(m.removed, id)
	return nil
}

// SearchTasks returns every indexed task of the user whose title equals query.
func (m *memIndex) SearchTasks(_ context.Context, userID uuid.UUID, query string, _, _ int) (int64, []uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, nil, m.fail
	}
	var ids []uuid.UUID
	for id, d := range m.docs {
		if d.UserID == userID && d.Title == query {
			ids = append(ids, id)
		}
	}
	return int64(len(ids)), ids, nil
}

func (m *memIndex) has(id uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.docs[id]
	return ok
}

func TestTaskService_CreateValidates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice", "alice@x.com").User

	_, err := f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "  "})
	requireCode(t, err, ErrValidation, CodeValidation)

	_, err = f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "ok", Status: "nowhere"})
	svcErr := requireCode(t, err, ErrValidation, CodeValidation)
	assert.Equal(t, MsgUnknownStatus, svcErr.Message)

	desc := "<i>soon</i>"
	task, err := f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "<b>ship</b>", Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "ship", task.Title)
	assert.Equal(t, "soon", *task.Description)
	assert.Equal(t, "todo", task.Status)

	assert.Contains(t, f.Events.Types(), events.TaskCreated)
}

func TestTaskService_UpdateDeleteRestore(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	idx := newMemIndex()
	f.Tasks.Index = idx
	u := f.register(t, "alice", "alice@x.com").User

	task, err := f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "draft"})
	require.NoError(t, err)
	assert.True(t, idx.has(task.ID))

	title := "final"
	status := "done"
	updated, err := f.Tasks.Update(ctx, u.ID, task.ID, UpdateTaskInput{Title: &title, Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Title)
	assert.Equal(t, "done", updated.Status)

	bad := "nope"
	_, err = f.Tasks.Update(ctx, u.ID, task.ID, UpdateTaskInput{Status: &bad})
	requireCode(t, err, ErrValidation, CodeValidation)

	_, err = f.Tasks.Update(ctx, u.ID, uuid.New(), UpdateTaskInput{Title: &title})
	requireCode(t, err, ErrNotFound, CodeNotFound)

	deletedAt, err := f.Tasks.Delete(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.False(t, deletedAt.IsZero())
	assert.False(t, idx.has(task.ID))

	_, err = f.Tasks.Update(ctx, u.ID, task.ID, UpdateTaskInput{Title: &title})
	requireCode(t, err, ErrNotFound, CodeNotFound)

	_, err = f.Tasks.Delete(ctx, u.ID, task.ID)
	requireCode(t, err, ErrNotFound, CodeNotFound)

	restored, err := f.Tasks.Restore(ctx, u.ID, task.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	assert.True(t, idx.has(task.ID))

	_, err = f.Tasks.Restore(ctx, u.ID, task.ID)
	svcErr := requireCode(t, err, ErrNotFound, CodeNotFound)
	assert.Equal(t, MsgTaskNotRestorable, svcErr.Message)

	assert.Equal(t, []string{events.UserRegistered, events.TaskCreated, events.TaskDeleted, events.TaskRestored}, f.Events.Types())
}

func TestTaskService_Reorder(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	u := f.register(t, "alice", "alice@x.com").User

	a, err := f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "a"})
	require.NoError(t, err)
	b, err := f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "b"})
	require.NoError(t, err)

	err = f.Tasks.Reorder(ctx, u.ID, nil, "")
	svcErr := requireCode(t, err, ErrValidation, CodeValidation)
	assert.Equal(t, "taskIds array is required", svcErr.Message)

	err = f.Tasks.Reorder(ctx, u.ID, []string{"not-a-uuid"}, "")
	requireCode(t, err, ErrValidation, CodeValidation)

	require.NoError(t, f.Tasks.Reorder(ctx, u.ID, []string{b.ID.String(), a.ID.String()}, "in-progress"))
	got, err := f.Tasks.List(ctx, u.ID, "in-progress")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)

	empty, err := f.Tasks.List(ctx, u.ID, "todo")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskService_SearchUsesIndexThenFallsBack(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	idx := newMemIndex()
	f.Tasks.Index = idx
	u := f.register(t, "alice", "alice@x.com").User

	report, err := f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "report"})
	require.NoError(t, err)
	_, err = f.Tasks.Create(ctx, u.ID, CreateTaskInput{Title: "quarterly report draft"})
	require.NoError(t, err)

	res, err := f.Tasks.Search(ctx, u.ID, "report", 1, 10)
	require.NoError(t, err)
	require.Len(t, res.Tasks, 1, "exact-title index answers")
	assert.Equal(t, report.ID, res.Tasks[0].ID)
	assert.Equal(t, int64(1), res.Meta.Total)

	idx.fail = errors.New("cluster down")
	res, err = f.Tasks.Search(ctx, u.ID, "report", 1, 10)
	require.NoError(t, err)
	assert.Len(t, res.Tasks, 2, "database LIKE answers")
	assert.Equal(t, int64(2), res.Meta.Total)
	assert.Equal(t, 1, res.Meta.Page)
	assert.False(t, res.Meta.HasNext)

	blank, err := f.Tasks.Search(ctx, u.ID, "  ", 0, 0)
	require.NoError(t, err)
	assert.Empty(t, blank.Tasks)
	assert.Equal(t, int64(0), blank.Meta.Total)
}
