package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Dan9191/payments-tracker/internal/models"
	"github.com/Dan9191/payments-tracker/internal/service"
)

type evidenceResponse struct {
	Message    string `json:"message"`
	EvidenceID string `json:"evidence_id"`
}

// UploadEvidence attaches a proof-of-payment file to a payment
func (h *Handler) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.svc.UploadEvidence(r.Context(), mux.Vars(r)["id"], models.Evidence{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, evidenceResponse{Message: "Evidence file uploaded successfully", EvidenceID: id})
}

// DownloadEvidence streams the payment's current evidence file
func (h *Handler) DownloadEvidence(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.DownloadEvidence(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, service.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Evidence file not found"})
		return
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", e.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strings.ReplaceAll(e.Filename, " ", "_"))
	w.Header().Set("Content-Length", strconv.Itoa(len(e.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(e.Data); err != nil {
		h.log.Warnf("Failed to write evidence for payment %s: %v", e.PaymentID, err)
	}
}

// writeFormError reports a missing or oversized multipart file
func (h *Handler) writeFormError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeError(w, r, err)
		return
	}
	writeBadRequest(w, "multipart field \"file\" is required")
}
