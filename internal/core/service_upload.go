package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvviz/internal/dataset"
)

// UploadInput is one received file.
type UploadInput struct {
	Filename string
	// Size is the declared byte size, or -1 when unknown.
	Size int64
	Body io.Reader
}

// Upload validates, parses and stores one CSV file.
//
// Checks run in order: filename present, extension allowed, declared size
// within the limit. The body is then parsed under an upload slot; a body
// that turns out larger than declared still fails as too large. Nothing
// is stored unless every step succeeds.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if strings.TrimSpace(in.Filename) == "" {
		return nil, kindf(ErrNoFile, "No file selected")
	}

	ev := UploadEvent{Filename: in.Filename, Bytes: max(in.Size, 0)}
	start := time.Now()

	result, ds, err := s.upload(ctx, in)
	if err != nil {
		ev.Status = UploadFailed
		ev.Error = err.Error()
		s.recordUpload(ctx, ev)
		return nil, err
	}

	ev.Status = UploadOK
	ev.DatasetID = ds.ID
	ev.Rows, ev.Columns = ds.Rows(), len(ds.Columns)
	ev.Bytes = ds.Size
	s.recordUpload(ctx, ev)

	slog.Info("dataset uploaded",
		"dataset_id", ds.ID,
		"rows", ds.Rows(),
		"columns", len(ds.Columns),
		"bytes", ds.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return result, nil
}

func (s *Service) upload(ctx context.Context, in UploadInput) (*UploadResult, *dataset.Dataset, error) {
	if !s.allowedFile(in.Filename) {
		return nil, nil, kindf(ErrUnsupportedFormat, "File type not allowed. Allowed types: %s",
			strings.Join(s.opts.AllowedExtensions, ", "))
	}
	if in.Size > s.opts.MaxFileSize {
		return nil, nil, s.TooLarge()
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	ds, err := dataset.Read(in.Body, dataset.ReadOptions{
		MaxBytes:     s.opts.MaxFileSize,
		SanitizeUTF8: s.opts.SanitizeUTF8,
	})
	if err != nil {
		var pe *dataset.ParseError
		switch {
		case errors.Is(err, dataset.ErrTooLarge):
			return nil, nil, s.TooLarge()
		case errors.As(err, &pe):
			return nil, nil, kindf(ErrParse, "Error processing file: %s", pe.Error())
		default:
			return nil, nil, fmt.Errorf("read upload: %w", err)
		}
	}

	ds.Filename = in.Filename
	ds.UploadID = uuid.NewString()
	s.store.Put(ds)

	return &UploadResult{
		DatasetID:     ds.ID,
		Filename:      ds.Filename,
		Shape:         ds.Shape(),
		Columns:       ds.ColumnNames(),
		DTypes:        ds.DTypes(),
		Preview:       ds.Head(s.opts.PreviewRows),
		MemoryUsage:   dataset.FormatKB(ds.MemoryUsage()),
		MissingValues: ds.MissingValues(),
		Message:       "File uploaded successfully",
	}, ds, nil
}

// allowedFile reports whether name has an allowed extension, case-insensitively.
func (s *Service) allowedFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range s.opts.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// TooLarge returns the error reported for a file over the size limit.
func (s *Service) TooLarge() error {
	return kindf(ErrPayloadTooLarge, "File too large. Maximum size is %s", HumanBytes(s.opts.MaxFileSize))
}

// HumanBytes renders a byte count as B, KB or MB (binary units).
func HumanBytes(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
