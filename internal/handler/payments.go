package handler

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/Dan9191/payments-tracker/internal/models"
)

type importResponse struct {
	Message  string `json:"message"`
	Inserted int    `json:"inserted"`
}

// UploadCSV handles bulk ingestion of a CSV file
func (h *Handler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, ".csv", "File must be a CSV")
}

// UploadXML handles bulk ingestion of an XML file
func (h *Handler) UploadXML(w http.ResponseWriter, r *http.Request) {
	h.upload(w, r, ".xml", "File must be an XML document")
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request, ext, wrongType string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeFormError(w, r, err)
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ext) {
		writeBadRequest(w, wrongType)
		return
	}

	n, err := h.svc.ImportFile(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, importResponse{Message: fmt.Sprintf("Inserted %d records", n), Inserted: n})
}

// ListPayments handles GET /payments?page&limit&status&search
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(q.Get("page"), 1)
	if err != nil {
		writeBadRequest(w, "page must be an integer")
		return
	}
	limit, err := intParam(q.Get("limit"), 10)
	if err != nil {
		writeBadRequest(w, "limit must be an integer")
		return
	}

	result, err := h.svc.ListPayments(r.Context(), models.ListQuery{
		Page:   page,
		Limit:  limit,
		Status: models.Status(q.Get("status")),
		Search: q.Get("search"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

// CreatePayment handles creation of a single payment
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	// NaN marks due_amount as absent until the body says otherwise
	p := models.Payment{DueAmount: math.NaN()}
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	id, err := h.svc.CreatePayment(r.Context(), &p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// GetPayment returns one payment
func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UpdatePayment applies a partial update
func (h *Handler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	var patch models.PaymentPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeBadRequest(w, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	if err := h.svc.UpdatePayment(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Payment updated successfully"})
}

// DeletePayment removes a payment
func (h *Handler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePayment(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Payment deleted successfully"})
}
