package services

import (
	"context"
	"errors"
	"slices"
	"testing"
)

func TestCreateListAppendsAtEnd(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := env.mustCreateList(t, "user-1", "Inbox")
	second := env.mustCreateList(t, "user-1", "Work")
	other := env.mustCreateList(t, "user-2", "Elsewhere")

	if first.Position != 0 || second.Position != 1 {
		t.Fatalf("positions = %d, %d, want 0, 1", first.Position, second.Position)
	}
	if other.Position != 0 {
		t.Fatalf("other user's position = %d, want 0", other.Position)
	}
	if second.Slug != "work" {
		t.Fatalf("slug = %q, want %q", second.Slug, "work")
	}

	third := env.mustCreateList(t, "user-1", "Home")
	if third.Position != 2 {
		t.Fatalf("third position = %d, want 2", third.Position)
	}
	want := map[int64]int{first.ID: 0, second.ID: 1, third.ID: 2}
	if got := env.listPositions(t, "user-1"); !equalPositions(got, want) {
		t.Fatalf("positions = %v, want %v", got, want)
	}
}

func TestCreateListValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.lists.CreateList(ctx, CreateListParams{UserID: "", Name: "Inbox"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("empty user error = %v, want %v", err, ErrUnauthenticated)
	}

	_, err = env.lists.CreateList(ctx, CreateListParams{UserID: "user-1", Name: "   "})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("blank name error = %v, want %v", err, ErrInvalidArgument)
	}
}

func TestReorderListsAssignsIndexPositions(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	a := env.mustCreateList(t, "user-1", "A")
	b := env.mustCreateList(t, "user-1", "B")
	c := env.mustCreateList(t, "user-1", "C")

	order := []int64{c.ID, a.ID, b.ID}
	err := env.lists.ReorderLists(context.Background(), ReorderListsParams{UserID: "user-1", Order: order})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	got := env.listPositions(t, "user-1")
	for i, id := range order {
		if got[id] != i {
			t.Fatalf("position of %d = %d, want %d", id, got[id], i)
		}
	}

	lists, err := env.lists.GetLists(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("get lists: %v", err)
	}
	var names []string
	for _, l := range lists {
		names = append(names, l.Name)
	}
	if !slices.Equal(names, []string{"C", "A", "B"}) {
		t.Fatalf("names = %v, want [C A B]", names)
	}
}

func TestReorderListsWithForeignIDChangesNothing(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	a := env.mustCreateList(t, "user-1", "A")
	b := env.mustCreateList(t, "user-1", "B")
	foreign := env.mustCreateList(t, "user-2", "Foreign")

	before := env.listPositions(t, "user-1")
	err := env.lists.ReorderLists(context.Background(), ReorderListsParams{
		UserID: "user-1",
		Order:  []int64{b.ID, foreign.ID, a.ID, 9999},
	})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("reorder error = %v, want %v", err, ErrInvalidArgument)
	}
	var missing *MissingIDsError
	if !errors.As(err, &missing) {
		t.Fatalf("reorder error = %T, want *MissingIDsError", err)
	}
	if !slices.Equal(missing.IDs, []int64{foreign.ID, 9999}) {
		t.Fatalf("missing ids = %v, want [%d 9999]", missing.IDs, foreign.ID)
	}

	after := env.listPositions(t, "user-1")
	if !equalPositions(before, after) {
		t.Fatalf("positions changed: before %v, after %v", before, after)
	}
	if got := env.listPositions(t, "user-2"); got[foreign.ID] != 0 {
		t.Fatalf("foreign list position = %d, want 0", got[foreign.ID])
	}
}

func TestReorderListsRejectsMalformedOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	a := env.mustCreateList(t, "user-1", "A")

	tests := []struct {
		name  string
		order []int64
	}{
		{name: "nil", order: nil},
		{name: "duplicate", order: []int64{a.ID, a.ID}},
		{name: "non positive", order: []int64{0}},
	}
	for _, tt := range tests {
		err := env.lists.ReorderLists(context.Background(), ReorderListsParams{UserID: "user-1", Order: tt.order})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("%s: error = %v, want %v", tt.name, err, ErrInvalidArgument)
		}
	}
}

func TestReorderListsToleratesPartialOrder(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	a := env.mustCreateList(t, "user-1", "A")
	b := env.mustCreateList(t, "user-1", "B")
	c := env.mustCreateList(t, "user-1", "C")

	err := env.lists.ReorderLists(context.Background(), ReorderListsParams{
		UserID: "user-1",
		Order:  []int64{c.ID, b.ID},
	})
	if err != nil {
		t.Fatalf("reorder: %v", err)
	}

	// a is left out and keeps its stale position, colliding with c.
	want := map[int64]int{a.ID: 0, b.ID: 1, c.ID: 0}
	if got := env.listPositions(t, "user-1"); !equalPositions(got, want) {
		t.Fatalf("positions = %v, want %v", got, want)
	}
}

func TestUpdateListKeepsPosition(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.mustCreateList(t, "user-1", "A")
	b := env.mustCreateList(t, "user-1", "B")

	updated, err := env.lists.UpdateList(context.Background(), UpdateListParams{
		UserID: "user-1",
		ListID: b.ID,
		Name:   "Béta Projects",
	})
	if err != nil {
		t.Fatalf("update list: %v", err)
	}
	if updated.Name != "Béta Projects" || updated.Slug != "beta-projects" {
		t.Fatalf("updated = %+v", updated)
	}
	if updated.Position != 1 {
		t.Fatalf("position = %d, want 1", updated.Position)
	}

	_, err = env.lists.UpdateList(context.Background(), UpdateListParams{
		UserID: "user-2",
		ListID: b.ID,
		Name:   "Stolen",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update error = %v, want %v", err, ErrNotFound)
	}
}

func TestDeleteListCascadesToItsTasksOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	doomed := env.mustCreateList(t, "user-1", "Doomed")
	kept := env.mustCreateList(t, "user-1", "Kept")
	env.mustCreateTask(t, "user-1", doomed.ID, "one")
	env.mustCreateTask(t, "user-1", doomed.ID, "two")
	survivor := env.mustCreateTask(t, "user-1", kept.ID, "stay")

	err := env.lists.DeleteList(ctx, "user-1", doomed.ID)
	if err != nil {
		t.Fatalf("delete list: %v", err)
	}

	remaining, err := env.store.Tasks().ListByList(ctx, "user-1", doomed.ID)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("tasks left in deleted list = %d, want 0", len(remaining))
	}

	lists := env.listPositions(t, "user-1")
	if _, ok := lists[doomed.ID]; ok {
		t.Fatal("deleted list still returned")
	}
	// No compaction: the kept list stays at position 1.
	if lists[kept.ID] != 1 {
		t.Fatalf("kept list position = %d, want 1", lists[kept.ID])
	}

	if _, err := env.tasks.GetTask(ctx, "user-1", survivor.ID); err != nil {
		t.Fatalf("task in other list was affected: %v", err)
	}
}

func TestDeleteListNotOwned(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	list := env.mustCreateList(t, "user-1", "Mine")
	env.mustCreateTask(t, "user-1", list.ID, "keep me")

	err := env.lists.DeleteList(context.Background(), "user-2", list.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete error = %v, want %v", err, ErrNotFound)
	}
	if got := env.taskPositions(t, "user-1", list.ID); len(got) != 1 {
		t.Fatalf("tasks after rejected delete = %d, want 1", len(got))
	}
}

func TestListTimesMatchStoredRow(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	created := env.mustCreateList(t, "user-1", "Timed")

	stored, err := env.lists.GetList(context.Background(), "user-1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !created.CreatedAt.Equal(stored.CreatedAt) || !created.UpdatedAt.Equal(stored.UpdatedAt) {
		t.Fatalf("timestamps = %v/%v, stored %v/%v",
			created.CreatedAt, created.UpdatedAt, stored.CreatedAt, stored.UpdatedAt)
	}
}
