package requests

import (
	"encoding/json"
	"net/http"

	"github.com/alessisheinman/Disk-Jockey/constants"
)

func RespondWithError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_, _ = w.Write(marshalErrorBody(message))
}

func RespondBadRequest(w http.ResponseWriter) {
	w.WriteHeader(http.StatusBadRequest)
	_, _ = w.Write(marshalErrorBody(constants.ErrorBadRequest))
}

func RespondInternalError(w http.ResponseWriter) {
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(marshalErrorBody(constants.ErrorInternal))
}

func marshalErrorBody(e string) []byte {
	body, err := json.MarshalIndent(ErrorResponse{Error: e}, "", " ")
	if err != nil {
		body, _ = json.MarshalIndent(ErrorResponse{Error: err.Error()}, "", " ")
	}
	return body
}

type ErrorResponse struct {
	Error string `json:"error"`
}
