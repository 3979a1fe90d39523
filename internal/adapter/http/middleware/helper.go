package middleware

import (
	"encoding/json"
	"net/http"
)

// errorResponse writes {"error": message} with the given status.
func errorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		// headers are already sent
		return
	}
}
