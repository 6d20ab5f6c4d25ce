package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"formprobe/runner"
)

type mockRunDeleter struct {
	err   error
	gotID string
}

func (m *mockRunDeleter) DeleteRun(id string) error {
	m.gotID = id
	return m.err
}

func deleteRunRequest(id string) *http.Request {
	req := httptest.NewRequest(http.MethodDelete, "/api/runs/"+id, nil)
	req.SetPathValue("id", id)
	return req
}

func TestDeleteRunHandler(t *testing.T) {
	deleter := &mockRunDeleter{}
	handler := NewDeleteRunHandler(deleter)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, deleteRunRequest("run-1"))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "run-1", deleter.gotID)
}

func TestDeleteRunHandler_NotFound(t *testing.T) {
	handler := NewDeleteRunHandler(&mockRunDeleter{err: runner.ErrRunNotFound})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, deleteRunRequest("ghost"))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteRunHandler_Active(t *testing.T) {
	handler := NewDeleteRunHandler(&mockRunDeleter{err: runner.ErrRunActive})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, deleteRunRequest("run-1"))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteRunHandler_StoreError(t *testing.T) {
	handler := NewDeleteRunHandler(&mockRunDeleter{err: errors.New("disk gone")})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, deleteRunRequest("run-1"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "disk gone")
}
