package task

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/clock"
)

func TestFileRepo_Contract(t *testing.T) {
	runRepoContract(t, func(t *testing.T, c clock.Clock) Repo {
		repo, err := NewFileRepo(t.TempDir(), WithClock(c))
		require.NoError(t, err)
		return repo
	})
}

func TestFileRepo_PersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	require.NoError(t, err)
	a, _ := repo.Create(ctx, Input{Title: "a", Labels: []string{"home"}})
	b, _ := repo.Create(ctx, Input{Title: "b"})
	_, err = repo.Delete(ctx, b.ID)
	require.NoError(t, err)

	reloaded, err := NewFileRepo(dir)
	require.NoError(t, err)

	got, err := reloaded.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Title)
	assert.Equal(t, []string{"home"}, got.Labels)

	// deleted ids stay retired after a restart
	c, err := reloaded.Create(ctx, Input{Title: "c"})
	require.NoError(t, err)
	assert.Equal(t, 3, c.ID)
}

func TestFileRepo_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	repo, err := NewFileRepo(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.Path(), []byte("{not json"), 0o644))

	_, err = NewFileRepo(dir)
	assert.Error(t, err)
}

func TestFileRepo_FailedSaveLeavesStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := NewFileRepo(dir)
	require.NoError(t, err)
	kept, err := repo.Create(ctx, Input{Title: "kept"})
	require.NoError(t, err)

	// a directory at the temp path makes every save fail
	require.NoError(t, os.Mkdir(repo.Path()+".tmp", 0o755))

	_, err = repo.Create(ctx, Input{Title: "lost"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = repo.Update(ctx, kept.ID, Patch{Title: strp("renamed")})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = repo.AddSubtask(ctx, kept.ID, SubtaskInput{Title: "step"})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = repo.Delete(ctx, kept.ID)
	assert.ErrorIs(t, err, ErrUnavailable)

	list, err := repo.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "kept", list[0].Title)
	assert.Empty(t, list[0].Subtasks)

	require.NoError(t, os.Remove(repo.Path()+".tmp"))
	next, err := repo.Create(ctx, Input{Title: "next"})
	require.NoError(t, err)
	assert.Equal(t, 2, next.ID)

	reloaded, err := NewFileRepo(dir)
	require.NoError(t, err)
	onDisk, err := reloaded.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Len(t, onDisk, 2)
}
