package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthCheck reports liveness for load balancers and uptime checks.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "reeltest-api",
	})
}
