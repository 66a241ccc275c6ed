package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/payments-tracker/internal/service"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the payments HTTP API
type Handler struct {
	svc            *service.Service
	store          Pinger
	log            *logrus.Logger
	maxUploadBytes int64
}

// NewHandler creates a handler; uploads larger than maxUploadBytes are rejected
func NewHandler(svc *service.Service, store Pinger, log *logrus.Logger, maxUploadBytes int64) *Handler {
	return &Handler{svc: svc, store: store, log: log, maxUploadBytes: maxUploadBytes}
}

// Register mounts every route on r
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/payments/upload-csv", h.UploadCSV).Methods(http.MethodPost)
	r.HandleFunc("/payments/upload-xml", h.UploadXML).Methods(http.MethodPost)
	r.HandleFunc("/payments", h.ListPayments).Methods(http.MethodGet)
	r.HandleFunc("/payments", h.CreatePayment).Methods(http.MethodPost)
	r.HandleFunc("/payments/{id}", h.GetPayment).Methods(http.MethodGet)
	r.HandleFunc("/payments/{id}", h.UpdatePayment).Methods(http.MethodPut)
	r.HandleFunc("/payments/{id}", h.DeletePayment).Methods(http.MethodDelete)
	r.HandleFunc("/payments/{id}/evidence", h.UploadEvidence).Methods(http.MethodPost)
	r.HandleFunc("/payments/{id}/evidence", h.DownloadEvidence).Methods(http.MethodGet)
}

// Health checks store connectivity
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.log.Errorf("Health check failed: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "store unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
