package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/MrSnakeDoc/sitesaver/internal/httpserver/deps"
	"github.com/MrSnakeDoc/sitesaver/internal/logger"
)

// maxBody bounds JSON request bodies
const maxBody = 64 << 10

// writeResult encodes res with status.
func writeResult[T any](w http.ResponseWriter, d deps.Deps, status int, res domain.Result[T]) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}

// respond answers with the Result of (v, err). Success uses okStatus; failures
// use the status of the error kind.
func respond[T any](w http.ResponseWriter, d deps.Deps, okStatus int, v T, err error) {
	res := domain.Capture(v, err)
	if err == nil {
		writeResult(w, d, okStatus, res)
		return
	}
	writeResult(w, d, res.Kind.HTTPStatus(), res)
}

// fail answers with a failed Result.
func fail(w http.ResponseWriter, d deps.Deps, err error) {
	respond[any](w, d, http.StatusOK, nil, err)
}

// decode reads a JSON body into v, reporting malformed input as invalid.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.Invalid("malformed request body", map[string]string{"body": err.Error()})
	}
	return nil
}
