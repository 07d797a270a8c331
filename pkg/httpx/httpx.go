package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// WriteFailure delivers a business failure. These go out as HTTP 200 so the
// portal dialog can render userMessage directly; transport-level status codes
// are reserved for malformed requests.
func WriteFailure(w http.ResponseWriter, code, userMessage string, details any) {
	WriteJSON(w, 200, map[string]any{
		"request_id":  NewRequestID(),
		"success":     false,
		"error":       code,
		"userMessage": userMessage,
		"details":     details,
	})
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	})
}
