package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aryansanganti/receipt-wallet/internal/analytics"
	"github.com/aryansanganti/receipt-wallet/internal/receipt"
	"github.com/aryansanganti/receipt-wallet/internal/wallet"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleListReceipts returns a list of all receipts
func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.receipts.ListReceipts()
	if err != nil {
		slog.Error("Error listing receipts", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receipts)
}

// handleUploadReceipt runs the capture pipeline for one uploaded image
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	// Max 50MB to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		jsonError(w, "File is too large. Maximum size is 50MB. Please compress or resize your image.", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	rec, err := s.receipts.Ingest(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error ingesting receipt", "filename", header.Filename, "error", err)
		if receipt.IsMalformed(err) {
			jsonError(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Every accepted receipt also becomes a wallet pass; issuance remains a
	// separate, explicit step.
	if _, err := s.passes.Create(digitalReceiptPass(rec)); err != nil {
		slog.Error("Error creating digital receipt pass", "receipt_id", rec.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, rec)
}

// uploadContentType resolves the content type, falling back to the file
// extension for phone uploads that omit it
func uploadContentType(contentType, filename string) string {
	if contentType == "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	// Preserve HEIC/HEIF MIME types so conversion logic can detect them
	return strings.ToLower(strings.TrimSpace(contentType))
}

func digitalReceiptPass(rec *receipt.Receipt) wallet.Pass {
	items := make([]string, 0, len(rec.Items))
	for _, item := range rec.Items {
		items = append(items, item.Name)
	}
	total := rec.Total
	return wallet.Pass{
		Kind:        wallet.KindReceipt,
		Title:       rec.StoreName,
		Description: "Purchase on " + rec.Date.Format("January 2, 2006"),
		Items:       items,
		Amount:      &total,
		Store:       rec.StoreName,
		SourceID:    rec.ID,
	}
}

// handleGetReceipt returns a single receipt
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	rec, err := s.receipts.GetReceipt(r.PathValue("id"))
	if err != nil {
		corsError(w, "Receipt not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleGetReceiptImage returns the original source image for a receipt
func (s *Server) handleGetReceiptImage(w http.ResponseWriter, r *http.Request) {
	data, err := s.receipts.GetReceiptImage(r.PathValue("id"))
	if err != nil {
		corsError(w, "Image not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data)
}

// analyticsResponse is the combined dashboard payload
type analyticsResponse struct {
	PeriodStart time.Time                 `json:"period_start"`
	PeriodEnd   time.Time                 `json:"period_end"`
	Categories  []analytics.CategoryTotal `json:"categories"`
	Trend       []analytics.MonthTotal    `json:"trend"`
	Insights    []analytics.Insight       `json:"insights"`
}

// handleAnalytics returns the current month's category breakdown, the
// monthly trend and the derived insights
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	months := 6
	if v := r.URL.Query().Get("months"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 24 {
			corsError(w, "months must be between 1 and 24", http.StatusBadRequest)
			return
		}
		months = parsed
	}

	now := s.clock()
	period := analytics.Period{
		Start: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0),
	}

	totals, err := s.engine.Aggregate(period, period.Previous())
	if err != nil {
		slog.Error("Error aggregating spending", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	trend, err := s.engine.MonthlyTrend(months, now)
	if err != nil {
		slog.Error("Error computing trend", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, analyticsResponse{
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		Categories:  totals,
		Trend:       trend,
		Insights:    s.insights.Generate(totals),
	})
}

// handleAsk answers a single-turn assistant query
func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		corsError(w, "Query is required", http.StatusBadRequest)
		return
	}

	response, err := s.router.Ask(req.Query)
	if err != nil {
		slog.Error("Error answering query", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, response)
}

// handleListPasses returns all passes
func (s *Server) handleListPasses(w http.ResponseWriter, r *http.Request) {
	passes, err := s.passes.List()
	if err != nil {
		slog.Error("Error listing passes", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, passes)
}

// handleCreatePass persists a candidate pass
func (s *Server) handleCreatePass(w http.ResponseWriter, r *http.Request) {
	var candidate wallet.Pass
	if err := json.NewDecoder(r.Body).Decode(&candidate); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if candidate.Title == "" {
		corsError(w, "Pass title is required", http.StatusBadRequest)
		return
	}

	pass, err := s.passes.Create(candidate)
	if err != nil {
		slog.Error("Error creating pass", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, pass)
}

// handleGetPass returns a single pass
func (s *Server) handleGetPass(w http.ResponseWriter, r *http.Request) {
	pass, err := s.passes.Get(r.PathValue("id"))
	if err != nil {
		corsError(w, "Pass not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, pass)
}

// handleIssuePass sends the pass to the external wallet. Exhausted transient
// retries map to 502 so clients know to try again; permanent rejections map
// to 400.
func (s *Server) handleIssuePass(w http.ResponseWriter, r *http.Request) {
	externalID, err := s.passes.Issue(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, wallet.ErrPassNotFound) {
			corsError(w, "Pass not found", http.StatusNotFound)
			return
		}
		slog.Error("Error issuing pass", "pass_id", r.PathValue("id"), "error", err)
		if wallet.IsTransient(err) {
			jsonError(w, "Wallet issuance is temporarily unavailable. Please retry.", http.StatusBadGateway)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"external_id": externalID})
}

// handleExpirePass transitions a pass to expired
func (s *Server) handleExpirePass(w http.ResponseWriter, r *http.Request) {
	if err := s.passes.Expire(r.PathValue("id")); err != nil {
		if errors.Is(err, wallet.ErrPassNotFound) {
			corsError(w, "Pass not found", http.StatusNotFound)
			return
		}
		slog.Error("Error expiring pass", "pass_id", r.PathValue("id"), "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleDeletePass removes a pass
func (s *Server) handleDeletePass(w http.ResponseWriter, r *http.Request) {
	if err := s.passes.Delete(r.PathValue("id")); err != nil {
		if errors.Is(err, wallet.ErrPassNotFound) {
			corsError(w, "Pass not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting pass", "pass_id", r.PathValue("id"), "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
