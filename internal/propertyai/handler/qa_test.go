package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/propertyai/internal/propertyai/biz"
	"github.com/kart-io/propertyai/internal/propertyai/handler"
	"github.com/kart-io/propertyai/internal/propertyai/router"
	"github.com/kart-io/propertyai/internal/propertyai/store"
	"github.com/kart-io/propertyai/pkg/utils/json"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = fixedVector(t)
	}
	return out, nil
}

func (fixedEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return fixedVector(text), nil
}

func (fixedEmbedder) Name() string { return "fixed" }

func fixedVector(t string) []float32 {
	v := make([]float32, 4)
	for i, b := range []byte(t) {
		v[i%4] += float32(b)
	}
	return v
}

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	vs := store.NewMemoryStore(fixedEmbedder{})
	service := biz.NewQAService(vs, nil, biz.NewComposer(nil), biz.NewQueryCache(nil, nil))
	return router.New(handler.NewQAHandler(service), 8)
}

func uploadCSV(t *testing.T, engine *gin.Engine, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	return uploadFiles(t, engine, map[string]string{name: content})
}

func uploadFiles(t *testing.T, engine *gin.Engine, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/qa/ingest", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

const listingsCSV = "title,location,price,bhk\n" +
	"Sea Breeze Apartment,adyar,7500000,2\n" +
	"Garden View Flat,velachery,9500000,3\n"

func TestIngestEndpoint(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadCSV(t, engine, "listings.csv", listingsCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)

	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["files"])
	assert.EqualValues(t, 2, data["chunks"])
}

func TestIngestAllFilesUnusable(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadCSV(t, engine, "notes.txt", "not a table")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no usable documents")
}

func TestIngestSkipsUnusableFiles(t *testing.T) {
	engine := newTestEngine(t)

	rec := uploadFiles(t, engine, map[string]string{
		"listings.csv": listingsCSV,
		"notes.txt":    "not a table",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["files"])

	failed, ok := data["failed"].([]interface{})
	require.True(t, ok)
	require.Len(t, failed, 1)
	entry, ok := failed[0].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "notes.txt", entry["file"])
}

func TestIngestRequiresFiles(t *testing.T) {
	engine := newTestEngine(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("unused", "x"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/qa/ingest", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQueryEndpoint(t *testing.T) {
	engine := newTestEngine(t)
	require.Equal(t, http.StatusOK, uploadCSV(t, engine, "listings.csv", listingsCSV).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/qa/query",
		strings.NewReader(`{"question":"apartments in adyar"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["answer"])
	assert.NotEmpty(t, data["sources"])
}

func TestQueryRequiresQuestion(t *testing.T) {
	engine := newTestEngine(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/qa/query", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionEndpoints(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/qa/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var created handler.SuccessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	data, ok := created.Data.(map[string]interface{})
	require.True(t, ok)
	sessionID, _ := data["id"].(string)
	require.NotEmpty(t, sessionID)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/qa/sessions/"+sessionID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/v1/qa/sessions/"+sessionID, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/qa/sessions/"+sessionID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryUnknownSession(t *testing.T) {
	engine := newTestEngine(t)
	require.Equal(t, http.StatusOK, uploadCSV(t, engine, "listings.csv", listingsCSV).Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/qa/query",
		strings.NewReader(`{"question":"flats","session_id":"missing"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatsAndSuggestionsEndpoints(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/qa/stats", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/qa/suggestions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "suggestions")
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
