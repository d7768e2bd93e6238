// Package core provides the business logic of the CSV upload service.
//
// The package holds the domain operations independent of any transport.
// It is used by the HTTP server, the command-line tool and tests without
// modification.
//
// # Architecture
//
//   - Service: the entry point for upload, data paging, statistics,
//     charting and the dataset listing.
//   - Datasets: parsed tables live in a [dataset.Store] for the life of
//     the process. Each upload gets a fresh id.
//   - Upload limiting: [UploadLimiter] bounds concurrent parses and fails
//     fast with [ErrTooManyUploads] when no slot frees up in time.
//   - Audit: every upload attempt is recorded through an [AuditRecorder],
//     in memory or in PostgreSQL.
//
// # Upload Flow
//
//  1. Client calls [Service.Upload] with a filename, declared size and body
//  2. Filename, extension and declared size are checked
//  3. The body is parsed under an upload slot with a hard byte cap
//  4. The dataset is stored and a preview returned
//
// # Error Handling
//
// Errors carry a kind ([ErrNoFile], [ErrParse], [ErrNotFound] and so on)
// that transports map to status codes with errors.Is. Technical errors are
// mapped to user-friendly messages using [MapError]; each category has a
// code for support reference:
//
//   - FILE001-FILE006: File errors (size, parsing, encoding, format)
//   - DS001-DS002: Dataset lookup and paging
//   - CHT001-CHT002: Chart parameters
//   - UPL002-UPL005: Upload slots, cancellation, timeouts
//   - DB004-DB006: Audit database connectivity
//
// # Thread Safety
//
// Service is safe for concurrent use. Stored datasets are immutable after
// upload, so readers never block each other.
package core
