package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"formprobe/config"
)

type mockConfigProvider struct {
	config config.Config
}

func (m *mockConfigProvider) Config() config.Config {
	return m.config
}

func TestConfigHandler(t *testing.T) {
	var cfg config.Config
	cfg.SetDefaults()
	cfg.Server.ListenAddr = ":9090"
	cfg.Storage.Driver = config.DriverMySQL
	cfg.Storage.DSN = "probe:secret@tcp(db.internal:3306)/forms"

	provider := &mockConfigProvider{config: cfg}
	handler := NewConfigHandler(provider)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/yaml", w.Header().Get("Content-Type"))

	var resp config.Config
	err := yaml.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)

	assert.Equal(t, ":9090", resp.Server.ListenAddr)
	assert.Equal(t, config.DriverMySQL, resp.Storage.Driver)
	assert.Equal(t, "REDACTED", resp.Storage.DSN)
}
