package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/JonMunkholm/csvviz/internal/config"
	"github.com/JonMunkholm/csvviz/internal/core"
)

const sampleCSV = "id,score,team\n1,1.5,red\n2,2.5,blue\n3,3.5,red\n4,4.5,blue\n5,5.5,red\n6,6.5,blue\n7,7.5,red\n"

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{"RATE_LIMIT_ENABLED": "false"}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(func(key string) (string, bool) {
		v, ok := base[key]
		return v, ok
	})
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, env map[string]string) *Server {
	t.Helper()
	cfg := testConfig(t, env)
	svc := core.NewService(nil, nil, core.OptionsFromConfig(cfg))
	s := NewServer(svc, cfg)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func uploadSample(t *testing.T, s *Server) string {
	t.Helper()
	rec := do(s, uploadRequest(t, "sample.csv", sampleCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode(t, rec)["dataset_id"].(string)
}

func TestIndex(t *testing.T) {
	s := newTestServer(t, nil)
	uploadSample(t, s)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Data Visualization API is running", body["message"])
	assert.Equal(t, Version, body["version"])
	assert.NotEmpty(t, body["go_version"])
	assert.EqualValues(t, 1, body["uploaded_datasets"])
	assert.Contains(t, body["endpoints"], "upload")
}

func TestUpload(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, uploadRequest(t, "sample.csv", sampleCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "sample.csv_0", body["dataset_id"])
	assert.Equal(t, "sample.csv", body["filename"])
	assert.Equal(t, []any{7.0, 3.0}, body["shape"])
	assert.Equal(t, []any{"id", "score", "team"}, body["columns"])
	assert.Len(t, body["preview"], 5)
	assert.Equal(t, "File uploaded successfully", body["message"])

	// key order follows the header
	assert.Contains(t, rec.Body.String(), `"dtypes":{"id":"integer","score":"float","team":"text"}`)
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantError  string
		wantCode   string
	}{
		{
			name: "no multipart body",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("x"))
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "No file provided",
		},
		{
			name:       "empty filename",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "", sampleCSV) },
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "wrong extension",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "notes.txt", sampleCSV) },
			wantStatus: http.StatusBadRequest,
			wantError:  "File type not allowed. Allowed types: csv",
			wantCode:   "FILE006",
		},
		{
			name:       "too large",
			env:        map[string]string{"UPLOAD_MAX_FILE_SIZE": "1KB"},
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "big.csv", "a\n"+strings.Repeat("1\n", 1024)) },
			wantStatus: http.StatusRequestEntityTooLarge,
			wantError:  "File too large. Maximum size is 1.0KB",
			wantCode:   "FILE001",
		},
		{
			name:       "ragged rows",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "bad.csv", "a,b\n1,2\n3,4,5\n") },
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error processing file: line 3: expected 2 fields, saw 3",
			wantCode:   "FILE002",
		},
		{
			name:       "empty file",
			req:        func(t *testing.T) *http.Request { return uploadRequest(t, "empty.csv", "") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   "FILE005",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.env)

			rec := do(s, tt.req(t))
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decode(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
			}
			assert.Zero(t, s.service.Status().Datasets)
		})
	}
}

func TestData(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/data/"+id+"?offset=5&limit=3", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.EqualValues(t, 7, body["total_rows"])
	assert.Len(t, body["data"], 2)
	pagination := body["pagination"].(map[string]any)
	assert.EqualValues(t, 5, pagination["offset"])
	assert.EqualValues(t, 3, pagination["limit"])
	assert.Equal(t, false, pagination["has_more"])
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["numeric_columns"])
	assert.EqualValues(t, 1, summary["categorical_columns"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/data/"+id, nil))
	assert.Len(t, decode(t, rec)["data"], 7)
}

func TestData_OffsetNearMaxInt(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	path := fmt.Sprintf("/api/data/%s?offset=%d&limit=100", id, math.MaxInt-7)
	rec := do(s, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Empty(t, body["data"])
	assert.Equal(t, false, body["pagination"].(map[string]any)["has_more"])
}

func TestData_RepeatedRequestsAreIdentical(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	for _, path := range []string{
		"/api/data/" + id + "?offset=2&limit=3",
		"/api/data/" + id,
		"/api/stats/" + id,
	} {
		first := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		second := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, first.Code, path)
		require.Equal(t, http.StatusOK, second.Code, path)
		assert.True(t, bytes.Equal(first.Body.Bytes(), second.Body.Bytes()),
			"%s differs:\n%s\n%s", path, first.Body.String(), second.Body.String())
	}
}

func TestDataErrors(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	tests := []struct {
		path string
		want int
	}{
		{"/api/data/missing_0", http.StatusNotFound},
		{"/api/data/" + id + "?offset=-1", http.StatusBadRequest},
		{"/api/data/" + id + "?limit=0", http.StatusBadRequest},
		{"/api/data/" + id + "?limit=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := do(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, tt.path)
	}

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/data/missing_0", nil))
	assert.Equal(t, "Dataset not found", decode(t, rec)["error"])
}

func TestDataMsgpack(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	req := httptest.NewRequest(http.MethodGet, "/api/data/"+id+"?limit=2", nil)
	req.Header.Set("Accept", "application/msgpack")
	rec := do(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id, body["dataset_id"])
	assert.EqualValues(t, 7, body["total_rows"])
	rows := body["data"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "red", rows[0].(map[string]any)["team"])
}

func TestStats(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/stats/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, id, body["dataset_id"])
	statistics := body["statistics"].(map[string]any)
	numeric := statistics["numeric"].(map[string]any)
	assert.Contains(t, numeric, "score")
	categorical := statistics["categorical"].(map[string]any)
	team := categorical["team"].(map[string]any)
	assert.EqualValues(t, 2, team["unique_count"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/stats/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func visualize(s *Server, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/visualize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(s, req)
}

func TestVisualize(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	rec := visualize(s, `{"dataset_id":"`+id+`","chart_type":"histogram","x_axis":"score","color":"team"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "histogram", body["chart_type"])
	params := body["parameters"].(map[string]any)
	assert.Equal(t, "score", params["x_axis"])
	assert.Equal(t, "Histogram Chart", params["title"])
	info := body["dataset_info"].(map[string]any)
	assert.EqualValues(t, 7, info["rows_used"])
	assert.Equal(t, []any{"score", "team"}, info["columns_used"])
	chartData := body["chart_data"].(map[string]any)
	assert.Len(t, chartData["data"], 2)
	assert.Contains(t, chartData, "layout")
}

func TestVisualize_ExtremeRangeHistogram(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, uploadRequest(t, "wide.csv", "v\n-1e308\n1e308\n0\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = visualize(s, `{"dataset_id":"wide.csv_0","chart_type":"histogram","x_axis":"v"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	chartData := decode(t, rec)["chart_data"].(map[string]any)
	assert.Len(t, chartData["data"], 1)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/stats/wide.csv_0", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	numeric := decode(t, rec)["statistics"].(map[string]any)["numeric"].(map[string]any)
	assert.NotNil(t, numeric["v"].(map[string]any)["std"])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"v": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, "Internal server error", body["error"])
	assert.Equal(t, "ERR000", body["code"])
}

func TestVisualizeErrors(t *testing.T) {
	s := newTestServer(t, nil)
	id := uploadSample(t, s)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
	}{
		{"empty body", "", http.StatusBadRequest, "No data provided"},
		{"invalid json", "{", http.StatusBadRequest, "Invalid JSON body"},
		{"missing dataset id", `{"chart_type":"histogram","x_axis":"score"}`, http.StatusBadRequest, "dataset_id is required"},
		{"unknown dataset", `{"dataset_id":"nope_0","x_axis":"score"}`, http.StatusNotFound, "Dataset not found"},
		{"missing x", `{"dataset_id":"` + id + `","chart_type":"histogram"}`, http.StatusBadRequest, ""},
		{"unknown column", `{"dataset_id":"` + id + `","chart_type":"histogram","x_axis":"nope"}`, http.StatusBadRequest, "Column 'nope' not found in dataset"},
		{"unsupported type", `{"dataset_id":"` + id + `","chart_type":"pie","x_axis":"score"}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := visualize(s, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			body := decode(t, rec)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestDatasetsAndUploads(t *testing.T) {
	s := newTestServer(t, nil)
	uploadSample(t, s)
	uploadSample(t, s)
	do(s, uploadRequest(t, "x.txt", "a\n1\n"))

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	list := body["datasets"].([]any)
	assert.Equal(t, "sample.csv_1", list[1].(map[string]any)["dataset_id"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/uploads?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.EqualValues(t, 2, body["count"])
	uploads := body["uploads"].([]any)
	assert.Equal(t, "failed", uploads[0].(map[string]any)["status"])
	assert.Equal(t, "ok", uploads[1].(map[string]any)["status"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/uploads?limit=-3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Endpoint not found", decode(t, rec)["error"])

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/upload", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestDashboard(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, uploadRequest(t, "<i>x.csv", sampleCSV))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(s, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	html := rec.Body.String()
	assert.Contains(t, html, "&lt;i&gt;x.csv")
	assert.NotContains(t, html, "<i>x")
	assert.Contains(t, html, `data-id="ix.csv_0"`)
	assert.Contains(t, html, `<option value="histogram">Histogram</option>`)
	assert.Contains(t, html, "/static/dashboard.js")
	assert.Contains(t, html, `href="/static/dashboard.css"`)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "cdn.plot.ly")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/static/dashboard.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#chart-area")

	rec = do(s, httptest.NewRequest(http.MethodGet, "/static/dashboard.js", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/visualize")
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "secret"})

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/datasets", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/datasets", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, do(s, req).Code)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "banner stays public")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, map[string]string{
		"RATE_LIMIT_ENABLED":             "true",
		"RATE_LIMIT_REQUESTS_PER_MINUTE": "2",
	})

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(s, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrNoFile, http.StatusBadRequest},
		{core.ErrUnsupportedFormat, http.StatusBadRequest},
		{core.ErrValidation, http.StatusBadRequest},
		{core.ErrUnknownColumn, http.StatusBadRequest},
		{core.ErrNotFound, http.StatusNotFound},
		{core.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge},
		{core.ErrTooManyUploads, http.StatusServiceUnavailable},
		{core.ErrParse, http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
