package core

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/csvviz/internal/config"
	"github.com/JonMunkholm/csvviz/internal/dataset"
)

// Options tunes a Service. Zero values fall back to the defaults.
type Options struct {
	MaxFileSize       int64
	AllowedExtensions []string
	PreviewRows       int
	SanitizeUTF8      bool

	MaxConcurrentUploads int
	MaxUploadWait        time.Duration

	DefaultPageLimit int
	MaxPageLimit     int
	StatsWorkers     int
}

// Defaults used when Options leave a field unset.
const (
	DefaultMaxFileSize      = 16 << 20
	DefaultPreviewRows      = 5
	DefaultPageLimit        = 100
	DefaultMaxPageLimit     = 10000
	DefaultAllowedExtension = "csv"
)

// OptionsFromConfig maps loaded configuration onto service options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MaxFileSize:          cfg.Upload.MaxFileSize,
		AllowedExtensions:    cfg.Upload.AllowedExtensions,
		PreviewRows:          cfg.Upload.PreviewRows,
		SanitizeUTF8:         cfg.Upload.SanitizeUTF8,
		MaxConcurrentUploads: cfg.Upload.MaxConcurrent,
		MaxUploadWait:        cfg.Upload.MaxWaitTime,
		DefaultPageLimit:     cfg.Data.DefaultPageLimit,
		MaxPageLimit:         cfg.Data.MaxPageLimit,
		StatsWorkers:         cfg.Data.StatsWorkers,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = DefaultMaxFileSize
	}
	if len(o.AllowedExtensions) == 0 {
		o.AllowedExtensions = []string{DefaultAllowedExtension}
	}
	exts := make([]string, 0, len(o.AllowedExtensions))
	for _, e := range o.AllowedExtensions {
		exts = append(exts, strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), ".")))
	}
	o.AllowedExtensions = exts
	if o.PreviewRows <= 0 {
		o.PreviewRows = DefaultPreviewRows
	}
	if o.DefaultPageLimit <= 0 {
		o.DefaultPageLimit = DefaultPageLimit
	}
	if o.MaxPageLimit < o.DefaultPageLimit {
		o.MaxPageLimit = max(DefaultMaxPageLimit, o.DefaultPageLimit)
	}
	return o
}

// Service provides the upload, statistics and chart operations over one
// dataset store. It has no transport dependencies and is shared by the
// HTTP server and the CLI.
type Service struct {
	store   *dataset.Store
	audit   AuditRecorder
	limiter *UploadLimiter
	opts    Options
}

// NewService creates a Service. A nil store or recorder gets an
// in-memory default.
func NewService(store *dataset.Store, audit AuditRecorder, opts Options) *Service {
	if store == nil {
		store = dataset.NewStore()
	}
	if audit == nil {
		audit = NewMemoryAuditRecorder(0)
	}
	opts = opts.withDefaults()
	return &Service{
		store:   store,
		audit:   audit,
		limiter: NewUploadLimiter(opts.MaxConcurrentUploads, opts.MaxUploadWait),
		opts:    opts,
	}
}

// Options returns the effective options.
func (s *Service) Options() Options {
	return s.opts
}

// Status returns a snapshot for the service banner.
func (s *Service) Status() ServiceStatus {
	return ServiceStatus{
		Datasets: s.store.Len(),
		Uploads:  s.limiter.Status(),
	}
}

// WaitForUploads blocks until in-flight uploads finish or ctx ends.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close releases the audit recorder.
func (s *Service) Close() {
	s.audit.Close()
}

// recordUpload stores an audit event. Failures are logged, never returned.
func (s *Service) recordUpload(ctx context.Context, ev UploadEvent) {
	ev = newUploadEvent(ctx, ev)
	if err := s.audit.Record(context.WithoutCancel(ctx), ev); err != nil {
		slog.Warn("failed to record upload event",
			"error", err,
			"filename", ev.Filename,
			"request_id", ev.RequestID,
		)
	}
}
