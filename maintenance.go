package folio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DeletionResult is the outcome of removing one broken gallery entry.
type DeletionResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CleanupReport summarizes a reachability sweep over the gallery.
type CleanupReport struct {
	TotalItems  int              `json:"totalItems"`
	ValidItems  int              `json:"validItems"`
	BrokenItems int              `json:"brokenItems"`
	Results     []DeletionResult `json:"deletionResults"`
}

func (r CleanupReport) Message() string {
	return fmt.Sprintf("Cleanup complete. Removed %d broken entries, kept %d valid entries.", r.BrokenItems, r.ValidItems)
}

// RepairReport summarizes a fix-invalid pass over the gallery index.
type RepairReport struct {
	// Found is false when the gallery index has never been written.
	Found          bool `json:"-"`
	TotalProcessed int  `json:"totalProcessed"`
	Removed        int  `json:"removed"`
	Remaining      int  `json:"remaining"`
}

// CleanupGallery sends a HEAD request to every gallery image URL and deletes
// the entries whose image does not answer with a 2xx status. Entries are
// deleted one at a time; a failed delete is reported and does not stop the
// sweep. Only the stored index is swept, never the fallback dataset.
func (s *Service) CleanupGallery(ctx context.Context) (CleanupReport, error) {
	if err := ctx.Err(); err != nil {
		return CleanupReport{}, fmt.Errorf("cleanup gallery: %w", err)
	}
	if s.prober == nil {
		return CleanupReport{}, NotConfigured("image validation is not configured")
	}

	items, err := s.store.RawGallery(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return CleanupReport{}, fmt.Errorf("cleanup gallery: %w", err)
	}

	report := CleanupReport{TotalItems: len(items), Results: []DeletionResult{}}
	var broken []GalleryItem
	for _, it := range items {
		if s.reachable(ctx, it) {
			report.ValidItems++
			continue
		}
		broken = append(broken, it)
	}
	report.BrokenItems = len(broken)

	for _, it := range broken {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("cleanup gallery: %w", err)
		}

		s.deleteObject(ctx, it)
		removed, err := s.store.DeleteGalleryItem(ctx, it.ID)
		switch {
		case err != nil:
			report.Results = append(report.Results, DeletionResult{ID: it.ID, Error: err.Error()})
		case !removed:
			report.Results = append(report.Results, DeletionResult{ID: it.ID, Error: "Failed to delete"})
		default:
			report.Results = append(report.Results, DeletionResult{ID: it.ID, Success: true})
		}
	}

	slog.Info("gallery cleanup finished",
		"total", report.TotalItems,
		"valid", report.ValidItems,
		"broken", report.BrokenItems)

	return report, nil
}

func (s *Service) reachable(ctx context.Context, it GalleryItem) bool {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	res, err := s.prober.Probe(probeCtx, it.ImageURL)
	if err != nil {
		slog.Info("gallery image unreachable", "id", it.ID, "title", it.Title, "err", err)
		return false
	}
	if !res.OK() {
		slog.Info("gallery image broken", "id", it.ID, "title", it.Title, "status", res.StatusCode)
		return false
	}
	return true
}

// FixInvalidGallery removes structurally invalid entries from the stored
// gallery index: entries missing an id, title, imageUrl or createdAt, and
// entries whose createdAt does not parse as a date. With probe set, entries
// whose image is unreachable are removed too.
//
// The index is rewritten with a single write, and only when something was
// removed. A never-written index yields a report with Found unset.
func (s *Service) FixInvalidGallery(ctx context.Context, probe bool) (RepairReport, error) {
	if err := ctx.Err(); err != nil {
		return RepairReport{}, fmt.Errorf("fix invalid gallery: %w", err)
	}
	if probe && s.prober == nil {
		return RepairReport{}, NotConfigured("image validation is not configured")
	}

	items, err := s.store.RawGallery(ctx)
	if errors.Is(err, ErrNotFound) {
		return RepairReport{}, nil
	}
	if err != nil {
		return RepairReport{}, fmt.Errorf("fix invalid gallery: %w", err)
	}

	valid := make([]GalleryItem, 0, len(items))
	for _, it := range items {
		if reason := invalidReason(it); reason != "" {
			slog.Info("removing invalid gallery item", "id", it.ID, "reason", reason)
			continue
		}
		if probe && !s.reachable(ctx, it) {
			continue
		}
		valid = append(valid, it)
	}

	report := RepairReport{
		Found:          true,
		TotalProcessed: len(items),
		Removed:        len(items) - len(valid),
		Remaining:      len(valid),
	}
	if report.Removed == 0 {
		return report, nil
	}

	if err := s.store.ReplaceGallery(ctx, valid, s.cfg.RepairExpiry); err != nil {
		return RepairReport{}, fmt.Errorf("fix invalid gallery: %w", err)
	}
	return report, nil
}

func invalidReason(it GalleryItem) string {
	switch {
	case it.ID == "" || it.Title == "" || it.ImageURL == "":
		return "missing fields"
	case it.CreatedAt == "":
		return "missing createdAt"
	}
	if _, ok := parseTimestamp(it.CreatedAt); !ok {
		return "invalid createdAt"
	}
	return ""
}

var timestampLayouts = []string{
	TimestampFormat,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	DateFormat,
	time.RFC1123,
	time.RFC1123Z,
}

// parseTimestamp accepts the ISO-8601 variants found in stored indexes as
// well as HTTP dates.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
