package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"receipts/internal/core"
	"receipts/internal/export"
)

// receiptForm is the create payload. The date comes over the wire as a
// string in either YYYY-MM-DD or RFC 3339 form.
type receiptForm struct {
	Title       string        `json:"title"`
	Amount      int64         `json:"amount"`
	Date        string        `json:"date"`
	Category    core.Category `json:"category"`
	StoreName   string        `json:"storeName"`
	Description string        `json:"description"`
	ImageURL    string        `json:"imageUrl"`
	Tags        []string      `json:"tags"`
}

// receiptPatchForm mirrors core.ReceiptPatch with a string date.
type receiptPatchForm struct {
	Title       *string        `json:"title"`
	Amount      *int64         `json:"amount"`
	Date        *string        `json:"date"`
	Category    *core.Category `json:"category"`
	StoreName   *string        `json:"storeName"`
	Description *string        `json:"description"`
	ImageURL    *string        `json:"imageUrl"`
	Tags        []string       `json:"tags"`
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	category := core.Category(strings.TrimSpace(r.URL.Query().Get("category")))
	if category != "" && !core.ValidCategory(category) {
		respondError(w, http.StatusUnprocessableEntity, "invalid category")
		return
	}
	query := r.URL.Query().Get("q")
	respondJSON(w, http.StatusOK, s.svc.List(category, query))
}

func (s *Server) handleCreateReceipt(w http.ResponseWriter, r *http.Request) {
	var form receiptForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := core.ParseDate(form.Date)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, core.ErrInvalidDate.Error())
		return
	}

	rec, err := s.svc.Create(r.Context(), core.ReceiptInput{
		Title:       form.Title,
		Amount:      form.Amount,
		Date:        date,
		Category:    form.Category,
		StoreName:   form.StoreName,
		Description: form.Description,
		ImageURL:    form.ImageURL,
		Tags:        form.Tags,
	})
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Create receipt failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.svc.Get(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "receipt not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateReceipt(w http.ResponseWriter, r *http.Request) {
	var form receiptPatchForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	patch := core.ReceiptPatch{
		Title:       form.Title,
		Amount:      form.Amount,
		Category:    form.Category,
		StoreName:   form.StoreName,
		Description: form.Description,
		ImageURL:    form.ImageURL,
		Tags:        form.Tags,
	}
	if form.Date != nil {
		date, err := core.ParseDate(*form.Date)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, core.ErrInvalidDate.Error())
			return
		}
		patch.Date = &date
	}

	rec, ok, err := s.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Update receipt failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !ok {
		respondError(w, http.StatusNotFound, "receipt not found")
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteReceipt(w http.ResponseWriter, r *http.Request) {
	if !s.svc.Delete(r.Context(), r.PathValue("id")) {
		respondError(w, http.StatusNotFound, "receipt not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.svc.Statistics())
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	receipts := s.svc.List("", "")
	stamp := time.Now().Format("2006-01-02")

	var (
		data        []byte
		contentType string
		ext         string
		err         error
	)
	switch format {
	case "json":
		data, err = export.JSON(receipts)
		contentType = "application/json; charset=utf-8"
		ext = "json"
	case "csv":
		data = export.CSV(receipts)
		contentType = "text/csv; charset=utf-8"
		ext = "csv"
	case "xlsx":
		data, err = export.XLSX(receipts)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		ext = "xlsx"
	default:
		respondError(w, http.StatusBadRequest, "unsupported format, use json, csv or xlsx")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err, "format", format)
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="receipts-`+stamp+`.`+ext+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, export.MaxImportSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "import payload too large (max 10 MiB)")
			return
		}
		respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	res, err := s.svc.Import(r.Context(), body)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res)
}

// handleParse accepts either raw receipt text or an image reference and
// returns the heuristically extracted fields.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.Image != "":
		parsed, err := s.svc.ParseImage(r.Context(), req.Image)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, parsed)
	case req.Text != "":
		respondJSON(w, http.StatusOK, s.svc.ParseText(req.Text))
	default:
		respondError(w, http.StatusBadRequest, "either text or image is required")
	}
}
