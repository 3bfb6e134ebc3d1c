package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

const msgInvalidPayload = "Not all fields are valid."

// response is the JSON envelope written by every endpoint. Optional fields
// are only filled on success.
type response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Token      string `json:"token,omitempty"`
	ID         string `json:"id,omitempty"`
	UserID     string `json:"userId,omitempty"`
	Email      string `json:"email,omitempty"`
	Exists     *bool  `json:"exists,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError writes a failed envelope with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, response{StatusCode: status, Message: message})
}

// writeResult writes res as an envelope. okStatus is used when res succeeded;
// fill may add payload fields and only runs on success.
func writeResult(w http.ResponseWriter, res models.AuthResult, okStatus int, fill func(*response)) {
	if !res.Success {
		writeError(w, res.Status(), res.Message)
		return
	}
	out := response{Success: true, StatusCode: okStatus, Message: res.Message}
	if fill != nil {
		fill(&out)
	}
	writeJSON(w, okStatus, out)
}

// decoder reads and validates JSON request bodies.
type decoder struct {
	validate *validator.Validate
}

func newDecoder() *decoder {
	return &decoder{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// decode fills dst from the request body and validates its tags. It writes
// a 400 envelope and returns false on failure. An empty body decodes to the
// zero value so the orchestrator can report missing fields itself.
func (d *decoder) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object.")
		return false
	}
	if err := d.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPayload)
		return false
	}
	return true
}
