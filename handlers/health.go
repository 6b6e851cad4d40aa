package handlers

import (
	"net/http"
	"time"
)

const Version = "1.0.0"

// Health check endpoint
func Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"version":   Version,
	})
}
