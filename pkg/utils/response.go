package utils

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Envelope standardizes API responses.
type Envelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// WriteData wraps data in a success envelope.
func WriteData(w http.ResponseWriter, status int, data interface{}, meta interface{}) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Meta: meta})
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}
