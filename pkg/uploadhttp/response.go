package uploadhttp

import (
	"encoding/json"
	"net/http"
)

// JSONResponse is the envelope of every JSON body the API writes.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body JSONResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, JSONResponse{Data: v})
}

// writeError hides internal error text behind the status text for 5xx codes.
func writeError(w http.ResponseWriter, err error) {
	httpErr := classify(err)
	msg := err.Error()
	if httpErr.Code >= http.StatusInternalServerError {
		msg = http.StatusText(httpErr.Code)
	}
	writeJSON(w, httpErr.Code, JSONResponse{Error: &ErrorDetail{Code: httpErr.Key, Message: msg}})
}
