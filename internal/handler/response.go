package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/ingest"
	"github.com/Dan9191/payments-tracker/internal/middleware"
	"github.com/Dan9191/payments-tracker/internal/service"
)

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// writeError maps service errors onto HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve       *service.ValidationError
		pe       *ingest.ParseError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &ve):
		details := map[string]any{"field": ve.Field, "reason": ve.Reason}
		if ve.Row > 0 {
			details["row"] = ve.Row
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Error(), Details: details})
	case errors.As(err, &pe):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   pe.Error(),
			Details: map[string]any{"row": pe.Row, "field": pe.Field, "value": pe.Value},
		})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "upload too large"})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Payment not found"})
	case errors.Is(err, service.ErrUnsupportedMedia):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "File type not allowed", Details: err.Error()})
	case errors.Is(err, service.ErrBadInput):
		writeBadRequest(w, err.Error())
	default:
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).Errorf("Request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
