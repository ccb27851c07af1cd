package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

const (
	ErrCode_BadJson     = "BAD_JSON"
	ErrCode_Invalid     = "INVALID"
	ErrCode_NoIdentity  = "NO_IDENTITY"
	ErrCode_NotFound    = "NOT_FOUND"
	ErrCode_Internal    = "INTERNAL"
	ErrCode_Unavailable = "UNAVAILABLE"
)

type errorBody struct {
	RequestId string      `json:"request_id"`
	Error     errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newRequestId() string { return "req_" + uuid.NewString() }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{newRequestId(), errorDetail{code, message}})
}
