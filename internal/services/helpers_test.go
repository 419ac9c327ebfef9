package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-tasklists/internal/models"
	"github.com/adanyl0v/go-tasklists/internal/storage/sqlite"
)

type testEnv struct {
	store *sqlite.Store
	lists ListService
	tasks TaskService
	boot  BootstrapService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "services.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	return &testEnv{
		store: store,
		lists: NewListService(logger, store),
		tasks: NewTaskService(logger, store),
		boot:  NewBootstrapService(logger, store),
	}
}

func (e *testEnv) mustCreateList(t *testing.T, userID, name string) *models.List {
	t.Helper()

	list, err := e.lists.CreateList(context.Background(), CreateListParams{UserID: userID, Name: name})
	if err != nil {
		t.Fatalf("create list %q: %v", name, err)
	}
	return list
}

func (e *testEnv) mustCreateTask(t *testing.T, userID string, listID int64, title string) *models.Task {
	t.Helper()

	task, err := e.tasks.CreateTask(context.Background(), CreateTaskParams{
		UserID: userID,
		ListID: listID,
		Title:  title,
	})
	if err != nil {
		t.Fatalf("create task %q: %v", title, err)
	}
	return task
}

// listPositions returns id -> position for every list of the user.
func (e *testEnv) listPositions(t *testing.T, userID string) map[int64]int {
	t.Helper()

	lists, err := e.lists.GetLists(context.Background(), userID)
	if err != nil {
		t.Fatalf("get lists: %v", err)
	}
	positions := make(map[int64]int, len(lists))
	for _, l := range lists {
		positions[l.ID] = l.Position
	}
	return positions
}

// taskPositions returns id -> position for every task of the list.
func (e *testEnv) taskPositions(t *testing.T, userID string, listID int64) map[int64]int {
	t.Helper()

	tasks, err := e.tasks.GetTasksByList(context.Background(), userID, listID)
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	positions := make(map[int64]int, len(tasks))
	for _, task := range tasks {
		positions[task.ID] = task.Position
	}
	return positions
}

func equalPositions(a, b map[int64]int) bool {
	if len(a) != len(b) {
		return false
	}
	for id, pos := range a {
		if other, ok := b[id]; !ok || other != pos {
			return false
		}
	}
	return true
}
