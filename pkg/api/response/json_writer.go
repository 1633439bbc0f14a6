package response

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dskvich/homework-solver-bot/pkg/logger"
)

type Status struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteSuccess(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, data)
}

func WriteError(w http.ResponseWriter, statusCode int, message string) {
	write(w, statusCode, ErrorResponse{Error: message})
}

func write(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Encoding response", "status", statusCode, logger.Err(err))
	}
}
