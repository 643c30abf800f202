package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sharleen10/todolist/internal/task"
)

func TestHandler_ProjectsAndLabels(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	tasks := task.NewMemoryRepo()
	_, err := tasks.Create(context.Background(), task.Input{Title: "x", Project: "Errands", Labels: []string{"quick"}})
	require.NoError(t, err)

	h := NewHandler(NewRegistry(NewMemoryStore()), tasks, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", h.Projects)
	mux.HandleFunc("/api/labels", h.Labels)

	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodPost, "/api/projects", `{"name":"Garden"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"name":"Garden"}`, rr.Body.String())

	rr = do(http.MethodGet, "/api/projects", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var projects []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &projects))
	assert.Equal(t, []string{"default", "Errands", "Garden"}, projects)

	rr = do(http.MethodPost, "/api/labels", `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodPost, "/api/labels", `{`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodGet, "/api/labels", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `["quick"]`, rr.Body.String())

	rr = do(http.MethodDelete, "/api/labels", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
