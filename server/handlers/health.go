package handlers

import "net/http"

// HandleHealth answers liveness probes. It reports only that the process is
// serving, not whether the queue or browser sessions are healthy.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
