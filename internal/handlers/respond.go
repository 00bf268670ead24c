package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Brownie44l1/agrosathi-api/internal/apperror"
)

const codeInternal apperror.Code = "INTERNAL"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

func writeStatusError(w http.ResponseWriter, status int, code apperror.Code, msg string) {
	if code == "" {
		code = codeInternal
	}
	writeJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
		"code":    code,
	})
}
