package json

import (
	"net/http"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError writes an error payload with a stable machine-readable code
// alongside the human-readable message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	Write(w, status, errorResponse{Error: code, Message: message})
}

func WriteBadRequestError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "BAD_REQUEST", message)
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong")
}
