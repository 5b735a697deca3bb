package http

import (
	"encoding/json"
	"net/http"
)

// Response statuses in the API envelope. 2xx responses carry "success",
// 4xx carry "fail", 5xx carry "error".
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the JSON body shape shared by every response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Token   string      `json:"token,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	// Log-free best effort; an encode failure here has nowhere useful to go
	_ = json.NewEncoder(w).Encode(body)
}

// WriteSuccess writes a success envelope with an optional data payload.
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	writeJSON(w, statusCode, Envelope{Status: StatusSuccess, Data: data})
}

// WriteSuccessMessage writes a success envelope with a message and no data.
func WriteSuccessMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Envelope{Status: StatusSuccess, Message: message})
}

// WriteToken writes a success envelope carrying a freshly issued access token.
func WriteToken(w http.ResponseWriter, statusCode int, token string, data interface{}) {
	writeJSON(w, statusCode, Envelope{Status: StatusSuccess, Token: token, Data: data})
}

// WriteFail writes a client-error envelope (4xx).
func WriteFail(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Envelope{Status: StatusFail, Message: message})
}

// Common client-error writers for consistency
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteFail(w, http.StatusBadRequest, message)
}

func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteFail(w, http.StatusUnauthorized, message)
}

func WriteForbidden(w http.ResponseWriter, message string) {
	WriteFail(w, http.StatusForbidden, message)
}

func WriteNotFound(w http.ResponseWriter, message string) {
	WriteFail(w, http.StatusNotFound, message)
}

func WriteConflict(w http.ResponseWriter, message string) {
	WriteFail(w, http.StatusConflict, message)
}

// WriteInternalError writes a server-error envelope (5xx).
func WriteInternalError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, Envelope{Status: StatusError, Message: message})
}
