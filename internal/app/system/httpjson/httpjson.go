// Package httpjson holds the small JSON request/response helpers shared by
// every feature handler. Responses always carry Content-Type
// application/json; errors are rendered as {"error": code, "detail": text}.
package httpjson

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/apperr"
	"go.uber.org/zap"
)

// Write encodes v with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// OK encodes v with 200.
func OK(w http.ResponseWriter, v any) {
	Write(w, http.StatusOK, v)
}

// Created encodes v with 201.
func Created(w http.ResponseWriter, v any) {
	Write(w, http.StatusCreated, v)
}

// errorBody is the wire shape for all error responses.
type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Error maps err through the apperr taxonomy and writes the JSON error
// body. Unclassified errors become an opaque 500; the caller is expected to
// have logged the cause already.
func Error(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	body := errorBody{Error: "internal_error"}
	if ae := apperr.From(err); ae != nil {
		body.Error = ae.Code
		body.Detail = ae.Detail
	}
	Write(w, status, body)
}

// ServerError logs err and writes an opaque 500 response.
func ServerError(w http.ResponseWriter, log *zap.Logger, msg string, err error) {
	log.Error(msg, zap.Error(err))
	Write(w, http.StatusInternalServerError, errorBody{Error: "internal_error"})
}

// Decode reads the request body into v. A syntactically invalid body yields
// a validation error; an empty body leaves v zeroed (handlers validate
// their own required fields).
func Decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if err.Error() == "EOF" {
			return nil
		}
		return apperr.Validation("bad_json", "request body is not valid JSON")
	}
	return nil
}
