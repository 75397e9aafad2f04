// Package response writes the JSON result envelope shared by every endpoint.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/inkwell-be/internal/services"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success    bool        `json:"success"`
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data"`
}

// JSON writes a successful envelope.
func JSON(w http.ResponseWriter, status int, message string, data interface{}) {
	write(w, Envelope{Success: status < 400, StatusCode: status, Message: message, Data: data})
}

// Error writes a failure envelope for a service or middleware error.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := services.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	}
	write(w, Envelope{Success: false, StatusCode: status, Message: services.Message(err)})
}

// Fail writes a failure envelope with an explicit status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	write(w, Envelope{Success: false, StatusCode: status, Message: message})
}

func write(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// Decode reads a JSON request body into dst. Unknown fields are rejected.
func Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &services.Error{Kind: services.KindValidation, Message: "Invalid request body.", Err: err}
	}
	return nil
}
