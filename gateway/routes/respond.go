package routes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"voucherchain/core/host"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Default().Warn("encode gateway response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeQueryError maps contract and host errors onto HTTP statuses.
func writeQueryError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, host.ErrContractNotFound),
		errors.Is(err, host.ErrWrongInterface):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, host.ErrEntryArchived):
		writeError(w, http.StatusGone, err.Error())
	default:
		logger.Error("gateway query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
