package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/clock"
	"github.com/Sharleen10/todolist/internal/config"
	"github.com/Sharleen10/todolist/internal/logging"
	"github.com/Sharleen10/todolist/internal/serverapp"
	"github.com/Sharleen10/todolist/internal/task"
	"github.com/Sharleen10/todolist/internal/telemetry"
)

func newServer(t *testing.T) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Driver = config.StoreMemory

	app, err := serverapp.New(context.Background(), serverapp.Options{
		Config: cfg,
		Logger: logging.Discard(),
		Clock:  clock.NewFakeClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(app.Handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestClient_Lifecycle(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	created, err := c.Create(ctx, task.Input{Title: "Buy milk", Labels: []string{"errand"}})
	require.NoError(t, err)
	assert.Equal(t, 1, created.ID)

	high := task.PriorityHigh
	updated, err := c.Update(ctx, created.ID, task.Patch{Priority: &high})
	require.NoError(t, err)
	assert.Equal(t, task.PriorityHigh, updated.Priority)

	withSub, err := c.AddSubtask(ctx, created.ID, "check date")
	require.NoError(t, err)
	require.Len(t, withSub.Subtasks, 1)

	done, err := c.SetCompleted(ctx, created.ID, true)
	require.NoError(t, err)
	assert.True(t, done.Completed)

	list, err := c.List(ctx, "completed", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	byLabel, err := c.FilterBy(ctx, "label", "errand")
	require.NoError(t, err)
	assert.Len(t, byLabel, 1)

	require.NoError(t, c.Delete(ctx, created.ID))
	_, err = c.Get(ctx, created.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestClient_ErrorMapping(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	_, err := c.Create(ctx, task.Input{Title: ""})
	var ve *task.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Field)
	assert.Equal(t, "is required", ve.Reason)

	_, err = c.SetCompleted(ctx, 77, true)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = c.FilterBy(ctx, "colour", "red")
	assert.True(t, task.IsValidation(err))

	_, err = c.Calendar(ctx, 77)
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestClient_CatalogAndCalendar(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	name, err := c.CreateProject(ctx, " Garden ")
	require.NoError(t, err)
	assert.Equal(t, "Garden", name)
	_, err = c.CreateLabel(ctx, "outdoor")
	require.NoError(t, err)

	projects, err := c.Projects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "Garden"}, projects)
	labels, err := c.Labels(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"outdoor"}, labels)

	due := "2024-03-12T10:00:00Z"
	created, err := c.Create(ctx, task.Input{Title: "Mow", DueDate: &due})
	require.NoError(t, err)
	ics, err := c.Calendar(ctx, created.ID)
	require.NoError(t, err)
	assert.Contains(t, ics, "SUMMARY:Mow")
}

func TestClient_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := New(url).List(context.Background(), "", "")
	assert.ErrorIs(t, err, task.ErrUnavailable)
}

func TestClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.URL).Get(context.Background(), 1)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestClient_RecordEvent(t *testing.T) {
	c := newServer(t)

	require.NoError(t, c.RecordEvent(telemetry.EventReminderFired, telemetry.EventMetadata{"task_id": 1}))

	err := c.RecordEvent(telemetry.EventTaskDeleted, nil)
	var ve *task.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "type", ve.Field)
}
