package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goclean/internal"
	"goclean/internal/config"
	"goclean/internal/session"
	"goclean/ports"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Server.GinMode = "test"
	logger := internal.NewLogger(internal.LogLevelError)
	return NewServer(cfg, session.NewStore(0), ports.NopAuditSink{}, logger)
}

func doJSON(t *testing.T, srv *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func uploadCSV(t *testing.T, srv *Server, sessionID, filename, csv string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload?session_id="+sessionID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	var decoded map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	}
	return w, decoded
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w, body := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestSessionCreateMintsID(t *testing.T) {
	srv := newTestServer(t)
	w, body := doJSON(t, srv, http.MethodPost, "/api/session/create", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, body["session_id"])
}

func TestUploadCleanUndoRedo(t *testing.T) {
	srv := newTestServer(t)
	csv := "age,name\n25,alice\n30,bob\n,carol\n35,dan\n"

	w, body := uploadCSV(t, srv, "sess-1", "survey.csv", csv)
	require.Equal(t, http.StatusOK, w.Code)
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(4), stats["total_rows"])
	assert.Equal(t, float64(2), stats["total_columns"])

	w, body = doJSON(t, srv, http.MethodPost, "/api/clean", map[string]interface{}{
		"session_id": "sess-1",
		"category":   "missing_values",
		"method":     "mean_imputation",
		"column":     "age",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), body["rows_affected"])
	assert.Equal(t, float64(1), body["missing_before"])
	assert.Equal(t, float64(0), body["missing_after"])

	w, body = doJSON(t, srv, http.MethodPost, "/api/undo/sess-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["can_undo"])
	assert.Equal(t, true, body["can_redo"])

	w, _ = doJSON(t, srv, http.MethodPost, "/api/redo/sess-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// imputed value visible in the data page
	w, body = doJSON(t, srv, http.MethodGet, "/api/data/sess-1?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rows := body["rows"].([]interface{})
	require.Len(t, rows, 4)
	third := rows[2].(map[string]interface{})
	assert.Equal(t, float64(30), third["age"])
}

func TestUndoOnFreshSessionIs400(t *testing.T) {
	srv := newTestServer(t)
	_, _ = uploadCSV(t, srv, "sess-2", "survey.csv", "x\n1\n2\n")

	w, body := doJSON(t, srv, http.MethodPost, "/api/undo/sess-2", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, body["error"])
}

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t)
	w, _ := doJSON(t, srv, http.MethodGet, "/api/data/no-such-session", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUnknownMethodIs400(t *testing.T) {
	srv := newTestServer(t)
	_, _ = uploadCSV(t, srv, "sess-3", "survey.csv", "x\n1\n2\n")

	w, _ := doJSON(t, srv, http.MethodPost, "/api/clean", map[string]interface{}{
		"session_id": "sess-3",
		"category":   "missing_values",
		"method":     "wish_imputation",
		"column":     "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMissingRequiredFieldsAre400(t *testing.T) {
	srv := newTestServer(t)
	w, body := doJSON(t, srv, http.MethodPost, "/api/clean", map[string]interface{}{
		"session_id": "sess-x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_PARAMETERS", body["code"])
}

func TestMalformedCSVIs400(t *testing.T) {
	srv := newTestServer(t)
	w, body := uploadCSV(t, srv, "sess-y", "broken.csv", "x,y\n\"unterminated,1\n2,3\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", body["code"])
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	srv := newTestServer(t)
	w, _ := uploadCSV(t, srv, "sess-4", "survey.parquet", "x\n1\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPreviewDoesNotTouchHistory(t *testing.T) {
	srv := newTestServer(t)
	_, _ = uploadCSV(t, srv, "sess-5", "survey.csv", "age\n25\n\n35\n30\n")

	w, _ := doJSON(t, srv, http.MethodPost, "/api/clean/preview", map[string]interface{}{
		"session_id": "sess-5",
		"category":   "missing_values",
		"method":     "median_imputation",
		"column":     "age",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := doJSON(t, srv, http.MethodGet, "/api/history/sess-5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["can_undo"])
}

func TestWeightColumnRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	_, _ = uploadCSV(t, srv, "sess-7", "survey.csv", "w,label\n1,a\n2,b\n3,c\n")

	w, body := doJSON(t, srv, http.MethodPost, "/api/session/sess-7/weight", map[string]interface{}{
		"column": "w",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "w", body["weight_column"])

	w, body = doJSON(t, srv, http.MethodGet, "/api/session/sess-7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "w", body["weight_column"])

	// non-numeric columns are rejected
	w, _ = doJSON(t, srv, http.MethodPost, "/api/session/sess-7/weight", map[string]interface{}{
		"column": "label",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = doJSON(t, srv, http.MethodPost, "/api/export/config/sess-7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "w", body["weight_column"])
}

func TestExportDataCSV(t *testing.T) {
	srv := newTestServer(t)
	_, _ = uploadCSV(t, srv, "sess-6", "survey.csv", "x,y\n1,a\n2,b\n")

	req := httptest.NewRequest(http.MethodGet, "/api/export/data/sess-6?format=csv", nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(w.Body.String(), "x,y\n"))
}
