package handlers

import (
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dlitvinov/finledger/internal/api/middleware"
	"github.com/dlitvinov/finledger/internal/receipt"
)

// Images above this size are rejected before touching the model.
const maxReceiptBytes = 10 << 20

// ReceiptsHandler handles receipt scanning endpoints.
type ReceiptsHandler struct {
	scanner  receipt.Scanner
	archiver *receipt.Archiver // nil when archival is disabled
	log      zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(scanner receipt.Scanner, archiver *receipt.Archiver, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{scanner: scanner, archiver: archiver, log: log}
}

// ScanReceipt handles POST /api/receipts/scan. It accepts a multipart form
// with a "file" image part and returns extracted transaction fields for the
// client to prefill; nothing is written to the ledger here.
func (h *ReceiptsHandler) ScanReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxReceiptBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxReceiptBytes+1))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(image) > maxReceiptBytes {
		middleware.WriteError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	fields, err := h.scanner.Scan(ctx, image, contentType)
	if err != nil {
		h.log.Error().Err(err).Msg("Receipt scan failed")
		middleware.WriteError(w, http.StatusBadGateway, "Failed to scan receipt")
		return
	}
	if fields == nil {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"is_receipt": false,
		})
		return
	}

	resp := map[string]interface{}{
		"is_receipt":    true,
		"amount":        fields.Amount,
		"date":          fields.Date.Format("2006-01-02"),
		"description":   fields.Description,
		"merchant_name": fields.MerchantName,
		"category":      fields.Category,
	}

	if h.archiver != nil {
		uri, err := h.archiver.Archive(ctx, image, contentType)
		if err != nil {
			// The scan result is still useful without the archive copy.
			h.log.Error().Err(err).Msg("Receipt archival failed")
		} else {
			resp["archive_uri"] = uri
		}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}
