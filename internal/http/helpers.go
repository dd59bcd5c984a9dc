package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"fintrack/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// writeJSON writes a success envelope with the given payload fields.
func writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   msg,
	})
}

// writeServiceError maps domain errors onto HTTP statuses. Validation
// failures become 422, a missing profile 409, anything else 500 without
// leaking internals.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	var ve *core.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, ve.Reason)
	case errors.Is(err, core.ErrNotOnboarded):
		writeError(w, http.StatusConflict, "profile not set up yet")
	default:
		slog.ErrorContext(ctx, "Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// writeDecodeError distinguishes bad field values (422, with the validation
// message) from structurally malformed bodies (400).
func writeDecodeError(w http.ResponseWriter, err error) {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		writeError(w, http.StatusUnprocessableEntity, ve.Reason)
		return
	}
	writeError(w, http.StatusBadRequest, "invalid request body")
}

// decodeJSON reads the request body into dst, rejecting oversized or
// malformed payloads.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Trailing garbage after the JSON object is malformed too.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
