package receipt

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aryansanganti/receipt-wallet/internal/scanning"
)

// IDGenerator generates unique IDs for receipts
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service owns the capture-to-record pipeline: store the source image, run
// the vision extractor, normalize the payload, persist the receipt.
type Service struct {
	db         DB
	scanner    scanning.Scanner
	storage    Storage
	normalizer *Normalizer
}

// NewService creates a new Service
func NewService(db DB, scanner scanning.Scanner, storage Storage, normalizer *Normalizer) *Service {
	return &Service{
		db:         db,
		scanner:    scanner,
		storage:    storage,
		normalizer: normalizer,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and
// truncating length; phone cameras generate absurdly long names.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// Ingest runs the full pipeline for one captured image and returns the
// persisted receipt. A needs_review receipt is still persisted and
// returned; only structurally malformed extractions are rejected.
func (s *Service) Ingest(filename string, data []byte, contentType string) (*Receipt, error) {
	cleanFilename := sanitizeFilename(filename)
	sourceRef, err := s.storage.Save(fmt.Sprintf("%s_%s", uuid.NewString(), cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving source image: %w", err)
	}

	extraction, err := s.scanner.ScanReceipt(data, contentType)
	if err != nil {
		slog.Error("Failed to scan receipt",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		s.storage.Delete(sourceRef)
		return nil, fmt.Errorf("scanning receipt: %w", err)
	}

	receipt, err := s.normalizer.Normalize(extraction, sourceRef)
	if err != nil {
		s.storage.Delete(sourceRef)
		return nil, fmt.Errorf("normalizing receipt: %w", err)
	}

	if receipt.NeedsReview {
		slog.Info("Receipt accepted with review flags",
			"id", receipt.ID,
			"store", receipt.StoreName,
			"reasons", receipt.ReviewReasons,
		)
	}

	if err := s.db.SaveReceipt(receipt); err != nil {
		s.storage.Delete(sourceRef)
		return nil, fmt.Errorf("saving receipt to database: %w", err)
	}

	return receipt, nil
}

// GetReceipt retrieves a receipt by ID
func (s *Service) GetReceipt(id string) (*Receipt, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}
	return receipt, nil
}

// ListReceipts returns all receipts
func (s *Service) ListReceipts() ([]*Receipt, error) {
	receipts, err := s.db.ListReceipts()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}
	return receipts, nil
}

// ListReceiptsByDate returns receipts with a transaction date in [start, end)
func (s *Service) ListReceiptsByDate(start, end time.Time) ([]*Receipt, error) {
	receipts, err := s.db.ListReceiptsByDate(start, end)
	if err != nil {
		return nil, fmt.Errorf("listing receipts by date: %w", err)
	}
	return receipts, nil
}

// GetReceiptImage retrieves the original source image for a receipt. A
// missing blob degrades to ErrReceiptNotFound semantics at the caller; the
// receipt record itself is unaffected.
func (s *Service) GetReceiptImage(id string) ([]byte, error) {
	receipt, err := s.db.GetReceipt(id)
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	data, err := s.storage.Get(receipt.SourceRef)
	if err != nil {
		return nil, fmt.Errorf("getting source image: %w", err)
	}

	return data, nil
}
