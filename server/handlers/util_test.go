package handlers

import (
	"encoding/json"
	"net/http/httptest"
)

func decodeBody(w *httptest.ResponseRecorder, v any) error {
	return json.NewDecoder(w.Body).Decode(v)
}
