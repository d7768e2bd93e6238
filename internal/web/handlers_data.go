package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/logging"
)

const (
	contentTypeMsgpack = "application/msgpack"
	maxJSONBody        = 1 << 20
)

// indexResponse is the service banner.
type indexResponse struct {
	Message          string            `json:"message"`
	Version          string            `json:"version"`
	GoVersion        string            `json:"go_version"`
	UploadedDatasets int               `json:"uploaded_datasets"`
	Endpoints        map[string]string `json:"endpoints"`
	Status           indexStatus       `json:"status"`
}

type indexStatus struct {
	Server  string                   `json:"server"`
	CORS    string                   `json:"cors"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

// handleIndex reports that the service is up and where its endpoints live.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	status := s.service.Status()
	writeJSON(w, http.StatusOK, indexResponse{
		Message:          "Data Visualization API is running",
		Version:          Version,
		GoVersion:        strings.TrimPrefix(runtime.Version(), "go"),
		UploadedDatasets: status.Datasets,
		Endpoints: map[string]string{
			"upload":    "/api/upload",
			"data":      "/api/data",
			"visualize": "/api/visualize",
			"stats":     "/api/stats",
			"datasets":  "/api/datasets",
			"uploads":   "/api/uploads",
			"dashboard": "/dashboard",
		},
		Status: indexStatus{
			Server:  "running",
			CORS:    "enabled",
			Uploads: status.Uploads,
		},
	})
}

// handleData returns one page of rows. Clients that accept
// application/msgpack get the same document msgpack-encoded.
func (s *Server) handleData(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	offset, limit, err := s.service.ParsePage(r.URL.Query().Get("offset"), r.URL.Query().Get("limit"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	page, err := s.service.Data(r.Context(), id, offset, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if wantsMsgpack(r) {
		writeMsgpack(w, r, page)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleStats returns the statistics document for a dataset.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Stats(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleVisualize builds a chart from a JSON request body.
func (s *Server) handleVisualize(w http.ResponseWriter, r *http.Request) {
	var req core.VisualizeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			respondMessage(w, http.StatusBadRequest, "No data provided")
			return
		}
		respondMessage(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	log := logging.WithFields(r.Context(), "dataset_id", req.DatasetID, "chart_type", req.Type)
	res, err := s.service.Visualize(r.Context(), req)
	if err != nil {
		log.Debug("chart rejected", "error", err)
		s.respondError(w, r, err)
		return
	}

	log.Debug("chart built", "traces", len(res.ChartData.Data))
	writeJSON(w, http.StatusOK, res)
}

// handleDatasets lists the stored datasets.
func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Datasets())
}

type uploadsResponse struct {
	Uploads []core.UploadEvent `json:"uploads"`
	Count   int                `json:"count"`
}

// handleUploads returns recent upload attempts, newest first.
func (s *Server) handleUploads(w http.ResponseWriter, r *http.Request) {
	limit := core.DefaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondMessage(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.service.Uploads(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadsResponse{Uploads: events, Count: len(events)})
}

// wantsMsgpack checks if the client asked for a msgpack response.
func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), contentTypeMsgpack)
}

func writeMsgpack(w http.ResponseWriter, r *http.Request, v any) {
	body, err := msgpack.Marshal(v)
	if err != nil {
		logging.FromContext(r.Context()).Error("msgpack encode error", "error", err)
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	w.Header().Set("Content-Type", contentTypeMsgpack)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
