package todo

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidylist/tidylist/internal/models"
	"go.uber.org/zap"
)

// fakeAPI implements API over an in-memory slice, mimicking the backend's
// contract of returning the stored representation.
type fakeAPI struct {
	todos  []models.Todo
	nextID int
	fail   error // when set, every call returns it
	calls  int
}

func (f *fakeAPI) GetTodos(ctx context.Context) ([]models.Todo, error) {
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]models.Todo, len(f.todos))
	copy(out, f.todos)
	return out, nil
}

func (f *fakeAPI) CreateTodo(ctx context.Context, req models.CreateTodoRequest) (models.Todo, error) {
	f.calls++
	if f.fail != nil {
		return models.Todo{}, f.fail
	}
	f.nextID++
	t := models.Todo{ID: strconv.Itoa(f.nextID), Title: req.Title}
	f.todos = append(f.todos, t)
	return t, nil
}

func (f *fakeAPI) UpdateTodo(ctx context.Context, id string, req models.UpdateTodoRequest) (models.Todo, error) {
	f.calls++
	if f.fail != nil {
		return models.Todo{}, f.fail
	}
	for i, t := range f.todos {
		if t.ID != id {
			continue
		}
		if req.Title != nil {
			t.Title = *req.Title
		}
		if req.Completed != nil {
			t.Completed = *req.Completed
		}
		f.todos[i] = t
		return t, nil
	}
	return models.Todo{}, errors.New("not found")
}

func (f *fakeAPI) DeleteTodo(ctx context.Context, id string) error {
	f.calls++
	if f.fail != nil {
		return f.fail
	}
	for i, t := range f.todos {
		if t.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func newTestList(api API) *List {
	return NewList(api, zap.NewNop())
}

func TestAdd_RejectsBlankTitle(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)

	for _, title := range []string{"", "  ", "\t"} {
		_, err := l.Add(context.Background(), title)
		assert.ErrorIs(t, err, ErrEmptyTitle)
	}
	assert.Zero(t, api.calls, "blank titles must be rejected before any call")
	assert.Empty(t, l.Todos())
}

func TestAdd_ThenLoadObservesSameTodo(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)

	created, err := l.Add(context.Background(), "buy milk")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", created.Title)
	require.Len(t, l.Todos(), 1)

	require.NoError(t, l.Load(context.Background()))
	todos := l.Todos()
	require.Len(t, todos, 1)
	assert.Equal(t, created.ID, todos[0].ID)
	assert.Equal(t, "buy milk", todos[0].Title)
}

func TestToggle_DoubleToggleRestoresState(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)
	created, err := l.Add(context.Background(), "water plants")
	require.NoError(t, err)

	first, err := l.Toggle(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, first.Completed)

	second, err := l.Toggle(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, second.Completed)

	todos := l.Todos()
	require.Len(t, todos, 1)
	assert.False(t, todos[0].Completed)
}

func TestToggle_UnknownID(t *testing.T) {
	l := newTestList(&fakeAPI{})
	_, err := l.Toggle(context.Background(), "missing")
	assert.Error(t, err)
}

func TestRename(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)
	created, err := l.Add(context.Background(), "old")
	require.NoError(t, err)

	renamed, err := l.Rename(context.Background(), created.ID, "new")
	require.NoError(t, err)
	assert.Equal(t, "new", renamed.Title)
	assert.Equal(t, "new", l.Todos()[0].Title)

	_, err = l.Rename(context.Background(), created.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyTitle)
}

func TestMutationFailureLeavesStateUntouched(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)
	created, err := l.Add(context.Background(), "keep me")
	require.NoError(t, err)
	before := l.Todos()

	api.fail = errors.New("backend down")

	_, err = l.Add(context.Background(), "another")
	assert.Error(t, err)
	_, err = l.Toggle(context.Background(), created.ID)
	assert.Error(t, err)
	_, err = l.Rename(context.Background(), created.ID, "renamed")
	assert.Error(t, err)
	err = l.Remove(context.Background(), created.ID)
	assert.Error(t, err)

	assert.Equal(t, before, l.Todos(), "a failed call must not mutate local state")
}

func TestRemove_DeletesLocallyAfterConfirmation(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)
	created, err := l.Add(context.Background(), "ephemeral")
	require.NoError(t, err)

	require.NoError(t, l.Remove(context.Background(), created.ID))
	assert.Empty(t, l.Todos())
	assert.Empty(t, api.todos)
}

func TestFilter(t *testing.T) {
	api := &fakeAPI{}
	l := newTestList(api)
	a, err := l.Add(context.Background(), "A")
	require.NoError(t, err)
	_, err = l.Add(context.Background(), "B")
	require.NoError(t, err)
	_, err = l.Toggle(context.Background(), a.ID)
	require.NoError(t, err)

	titles := func(todos []models.Todo) []string {
		var out []string
		for _, t := range todos {
			out = append(out, t.Title)
		}
		return out
	}

	assert.Equal(t, []string{"B"}, titles(l.Filter(FilterActive)))
	assert.Equal(t, []string{"A"}, titles(l.Filter(FilterCompleted)))
	assert.Equal(t, []string{"A", "B"}, titles(l.Filter(FilterAll)))
}

func TestLoad_ReplacesCollection(t *testing.T) {
	api := &fakeAPI{todos: []models.Todo{{ID: "9", Title: "server-side"}}}
	l := newTestList(api)

	require.NoError(t, l.Load(context.Background()))
	require.Len(t, l.Todos(), 1)
	assert.Equal(t, "server-side", l.Todos()[0].Title)

	api.todos = nil
	require.NoError(t, l.Load(context.Background()))
	assert.Empty(t, l.Todos())
}
