package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"vendtrack/service"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindValidation:      http.StatusBadRequest,
	service.KindUnauthorized:    http.StatusUnauthorized,
	service.KindProfileNotFound: http.StatusUnauthorized,
	service.KindForbidden:       http.StatusForbidden,
	service.KindNotFound:        http.StatusNotFound,
	service.KindConflict:        http.StatusConflict,
	service.KindInternal:        http.StatusInternalServerError,
}

// StatusFor maps a service error kind to its HTTP status.
func StatusFor(kind service.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeSuccess writes {"success": true} merged with fields.
func writeSuccess(w http.ResponseWriter, status int, fields map[string]interface{}) {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, message string, kind service.ErrorKind) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(kind))
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
		"code":    kind,
	})
}

// writeServiceError writes the envelope for an error returned by a service.
func writeServiceError(w http.ResponseWriter, err error) {
	kind := service.KindOf(err)
	if kind == service.KindInternal {
		log.Printf("❌ %v", err)
	}
	writeError(w, service.MessageOf(err), kind)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, "Invalid request body", service.KindValidation)
		return false
	}
	return true
}
