package handlers

import (
	"net/http"

	"gopkg.in/yaml.v3"
)

// ConfigHandler returns the running configuration as YAML.
type ConfigHandler struct {
	config ConfigProvider
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(provider ConfigProvider) *ConfigHandler {
	return &ConfigHandler{config: provider}
}

// ServeHTTP implements http.Handler.
func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Credentials never leave the process.
	out, err := yaml.Marshal(h.config.Config().Redacted())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode configuration")
		return
	}

	w.Header().Set("Content-Type", "text/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
