package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/clock"
)

type repoFactory func(t *testing.T, c clock.Clock) Repo

var contractStart = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

// runRepoContract exercises the behaviour every Repo implementation shares.
func runRepoContract(t *testing.T, newRepo repoFactory) {
	t.Run("create applies defaults", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()

		got, err := repo.Create(ctx, Input{Title: "  Buy milk  "})
		require.NoError(t, err)
		assert.Equal(t, 1, got.ID)
		assert.Equal(t, "Buy milk", got.Title)
		assert.Equal(t, PriorityMedium, got.Priority)
		assert.Equal(t, DefaultProject, got.Project)
		assert.False(t, got.Completed)
		assert.Empty(t, got.Labels)
		assert.Empty(t, got.Subtasks)
		assert.Empty(t, got.Reminders)
		assert.Nil(t, got.DueDate)
		assert.True(t, got.CreatedAt.Equal(contractStart))
		assert.True(t, got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("create rejects empty title", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))

		_, err := repo.Create(context.Background(), Input{Title: "   "})
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		list, err := repo.List(context.Background(), Filter{})
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("ids are unique and never reused", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()

		a, _ := repo.Create(ctx, Input{Title: "a"})
		b, _ := repo.Create(ctx, Input{Title: "b"})
		_, err := repo.Delete(ctx, b.ID)
		require.NoError(t, err)
		c, err := repo.Create(ctx, Input{Title: "c"})
		require.NoError(t, err)

		assert.Equal(t, 1, a.ID)
		assert.Equal(t, 2, b.ID)
		assert.Equal(t, 3, c.ID)
	})

	t.Run("missing ids leave the store untouched", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()

		_, err := repo.Create(ctx, Input{Title: "a", Labels: []string{"home"}})
		require.NoError(t, err)
		_, err = repo.Create(ctx, Input{Title: "b", Subtasks: []SubtaskInput{{Title: "step"}}})
		require.NoError(t, err)
		before, err := repo.List(ctx, Filter{})
		require.NoError(t, err)

		_, err = repo.Get(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.Delete(ctx, 42)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.Update(ctx, 42, Patch{Title: strp("x")})
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.AddSubtask(ctx, 42, SubtaskInput{Title: "x"})
		assert.ErrorIs(t, err, ErrNotFound)

		after, err := repo.List(ctx, Filter{})
		require.NoError(t, err)
		assert.Equal(t, before, after)
	})

	t.Run("update merges and refreshes updatedAt", func(t *testing.T) {
		fc := clock.NewFakeClock(contractStart)
		repo := newRepo(t, fc)
		ctx := context.Background()

		created, err := repo.Create(ctx, Input{
			Title:   "Write report",
			Labels:  []string{"work", "work", " focus "},
			Section: strp("Drafts"),
			DueDate: strp("2024-03-12"),
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"work", "focus"}, created.Labels)

		fc.Advance(time.Hour)
		high := PriorityHigh
		updated, err := repo.Update(ctx, created.ID, Patch{
			Priority: &high,
			Section:  strp(""),
			DueDate:  strp(""),
		})
		require.NoError(t, err)

		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Write report", updated.Title)
		assert.Equal(t, PriorityHigh, updated.Priority)
		assert.Nil(t, updated.Section)
		assert.Nil(t, updated.DueDate)
		assert.Equal(t, created.Labels, updated.Labels)
		assert.True(t, updated.UpdatedAt.Equal(contractStart.Add(time.Hour)))
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

		got, err := repo.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, PriorityHigh, got.Priority)
	})

	t.Run("update rejects invalid fields", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()
		created, _ := repo.Create(ctx, Input{Title: "x"})

		bad := Priority("whenever")
		_, err := repo.Update(ctx, created.ID, Patch{Priority: &bad})
		assert.True(t, IsValidation(err))
		_, err = repo.Update(ctx, created.ID, Patch{Title: strp(" ")})
		assert.True(t, IsValidation(err))

		got, _ := repo.Get(ctx, created.ID)
		assert.Equal(t, "x", got.Title)
		assert.Equal(t, PriorityMedium, got.Priority)
	})

	t.Run("updatedAt never moves backwards", func(t *testing.T) {
		fc := clock.NewFakeClock(contractStart)
		repo := newRepo(t, fc)
		ctx := context.Background()
		created, _ := repo.Create(ctx, Input{Title: "x"})

		fc.Set(contractStart.Add(-time.Hour))
		updated, err := repo.Update(ctx, created.ID, Patch{Description: strp("d")})
		require.NoError(t, err)
		assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
	})

	t.Run("completion leaves subtasks and labels", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()
		created, _ := repo.Create(ctx, Input{
			Title:    "x",
			Labels:   []string{"home"},
			Subtasks: []SubtaskInput{{Title: "step"}},
		})

		done, err := repo.SetCompleted(ctx, created.ID, true)
		require.NoError(t, err)
		assert.True(t, done.Completed)
		assert.Equal(t, created.Labels, done.Labels)
		assert.Equal(t, created.Subtasks, done.Subtasks)

		reopened, err := repo.SetCompleted(ctx, created.ID, false)
		require.NoError(t, err)
		assert.False(t, reopened.Completed)
	})

	t.Run("add subtask", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()
		created, _ := repo.Create(ctx, Input{Title: "x"})

		got, err := repo.AddSubtask(ctx, created.ID, SubtaskInput{Title: "first"})
		require.NoError(t, err)
		got, err = repo.AddSubtask(ctx, created.ID, SubtaskInput{Title: "second", Completed: true})
		require.NoError(t, err)

		require.Len(t, got.Subtasks, 2)
		assert.Equal(t, "first", got.Subtasks[0].Title)
		assert.Equal(t, "second", got.Subtasks[1].Title)
		assert.False(t, got.Subtasks[1].Completed)
		assert.NotEmpty(t, got.Subtasks[0].ID)
		assert.NotEqual(t, got.Subtasks[0].ID, got.Subtasks[1].ID)

		_, err = repo.AddSubtask(ctx, created.ID, SubtaskInput{Title: ""})
		assert.True(t, IsValidation(err))
	})

	t.Run("list filters and keeps insertion order", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()
		_, _ = repo.Create(ctx, Input{Title: "a", Project: "work", Labels: []string{"x"}})
		_, _ = repo.Create(ctx, Input{Title: "b", Priority: PriorityUrgent})
		_, _ = repo.Create(ctx, Input{Title: "c", Project: "work", Priority: PriorityUrgent})

		all, err := repo.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int{1, 2, 3}, []int{all[0].ID, all[1].ID, all[2].ID})

		work, _ := repo.List(ctx, Filter{Project: "work"})
		assert.Len(t, work, 2)
		urgent, _ := repo.List(ctx, Filter{Priority: PriorityUrgent})
		assert.Len(t, urgent, 2)
		labelled, _ := repo.List(ctx, Filter{Label: "x"})
		require.Len(t, labelled, 1)
		assert.Equal(t, "a", labelled[0].Title)
	})

	t.Run("delete returns removed task", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		ctx := context.Background()
		created, _ := repo.Create(ctx, Input{Title: "x", Subtasks: []SubtaskInput{{Title: "s"}}})

		removed, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, removed.ID)
		_, err = repo.Get(ctx, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		repo := newRepo(t, clock.NewFakeClock(contractStart))
		assert.NoError(t, repo.Ping(context.Background()))
	})
}
