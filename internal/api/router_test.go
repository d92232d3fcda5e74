package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"klens/internal/api/handlers"
	"klens/internal/dto"
	"klens/internal/repository"
	"klens/internal/service"
	"klens/internal/storage"
	"klens/pkg/auth"
	"klens/pkg/config"
	"klens/pkg/sqlite"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-admin-secret"

type testServer struct {
	app   *fiber.App
	paths *storage.Paths
	store *repository.SQLiteDocumentRepository
	jwt   *auth.JWTManager
}

func newTestServer(t *testing.T, withAdmin bool) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	root := t.TempDir()
	paths, err := storage.NewPaths(filepath.Join(root, "tmp"), filepath.Join(root, "files"))
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	db, err := sqlite.Open(ctx, filepath.Join(root, "klens.db"), logger)
	require.NoError(t, err)
	store, err := repository.NewSQLiteDocumentRepository(ctx, db, logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	classifier := service.NewClassifierService(nil, logger)
	ingestion := service.NewIngestionService(paths, store, classifier, service.NewTextExtractor(false, logger), logger)
	retention := service.NewRetentionService(paths, store, 24*time.Hour, time.Hour, logger)

	var (
		adminHandler *handlers.AdminHandler
		jwtManager   *auth.JWTManager
	)
	if withAdmin {
		adminHandler = handlers.NewAdminHandler(store, retention, logger)
		jwtManager = auth.NewJWTManager(testSecret, time.Hour)
	}

	serverCfg := &config.ServerConfig{
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		AllowOrigins: "*",
	}
	app := SetupRouter(
		serverCfg,
		paths.FinalDir(),
		handlers.NewDocumentHandler(ingestion, logger),
		handlers.NewSystemHandler(classifier, store),
		adminHandler,
		jwtManager,
		logger,
	)

	return &testServer{app: app, paths: paths, store: store, jwt: jwtManager}
}

type formFile struct {
	field   string
	name    string
	content string
}

func multipartRequest(t *testing.T, target string, files ...formFile) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = part.Write([]byte(f.content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, out any) *http.Response {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		defer resp.Body.Close()
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestIndexAndHealth(t *testing.T) {
	srv := newTestServer(t, false)

	resp := doRequest(t, srv.app, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "K-Lens document service is running", string(body))

	var health dto.HealthResponse
	resp = doRequest(t, srv.app, httptest.NewRequest(http.MethodGet, "/health", nil), &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, dto.HealthResponse{OK: true, Classifier: false, MetadataStore: true}, health)
}

func TestProcessDocument(t *testing.T) {
	srv := newTestServer(t, false)
	content := "Hello world. This is a test document."

	var got struct {
		OK       bool           `json:"ok"`
		Document map[string]any `json:"document"`
	}
	resp := doRequest(t, srv.app, multipartRequest(t, "/api/process-document", formFile{"file", "hello.txt", content}), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, got.OK)
	doc := got.Document
	assert.Equal(t, "hello.txt", doc["originalName"])
	assert.Equal(t, "hello", doc["title"])
	assert.Equal(t, "general", doc["department"])
	assert.Equal(t, content, doc["contentSummary"])
	assert.Equal(t, []any{"uploaded"}, doc["tags"])
	assert.Nil(t, doc["complianceDeadline"])
	assert.Contains(t, doc, "complianceDeadline")

	id := doc["id"].(string)
	saved, err := srv.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, content, saved.ContentSummary)

	fileResp := doRequest(t, srv.app, httptest.NewRequest(http.MethodGet, doc["fileUrl"].(string), nil), nil)
	require.Equal(t, http.StatusOK, fileResp.StatusCode)
	served, err := io.ReadAll(fileResp.Body)
	require.NoError(t, err)
	assert.Equal(t, content, string(served))
}

func TestProcessDocument_NoFile(t *testing.T) {
	srv := newTestServer(t, false)

	var got dto.ErrorResponse
	resp := doRequest(t, srv.app, multipartRequest(t, "/api/process-document"), &got)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, dto.ErrorResponse{OK: false, Error: "No file uploaded"}, got)

	entries, err := os.ReadDir(srv.paths.FinalDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessDocument_StorageFailure(t *testing.T) {
	srv := newTestServer(t, false)
	require.NoError(t, os.RemoveAll(srv.paths.FinalDir()))

	var got dto.ErrorResponse
	resp := doRequest(t, srv.app, multipartRequest(t, "/api/process-document", formFile{"file", "a.txt", "x"}), &got)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.False(t, got.OK)
	assert.Contains(t, got.Error, "move upload")
}

func TestUploadFiles(t *testing.T) {
	srv := newTestServer(t, false)

	var got dto.UploadResponse
	resp := doRequest(t, srv.app, multipartRequest(t, "/api/upload",
		formFile{"files", "one.txt", "first"},
		formFile{"files", "two.md", "second"},
	), &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.True(t, got.OK)
	require.Len(t, got.Files, 2)
	assert.Equal(t, "one.txt", got.Files[0].Name)
	assert.Equal(t, int64(5), got.Files[0].Size)
	assert.Equal(t, "txt", got.Files[0].Ext)
	assert.Equal(t, "first", got.Files[0].Summary)
	assert.Equal(t, "md", got.Files[1].Ext)

	docs, err := srv.store.List(context.Background(), 10, 0)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestUploadFiles_NoFiles(t *testing.T) {
	srv := newTestServer(t, false)

	var got dto.ErrorResponse
	resp := doRequest(t, srv.app, multipartRequest(t, "/api/upload", formFile{"other", "a.txt", "x"}), &got)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "No file uploaded", got.Error)
}

func TestAdminRoutes_DisabledWithoutSecret(t *testing.T) {
	srv := newTestServer(t, false)

	resp := doRequest(t, srv.app, httptest.NewRequest(http.MethodGet, "/api/documents", nil), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminRoutes_RequireToken(t *testing.T) {
	srv := newTestServer(t, true)

	var got dto.ErrorResponse
	resp := doRequest(t, srv.app, httptest.NewRequest(http.MethodGet, "/api/documents", nil), &got)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, got.OK)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp = doRequest(t, srv.app, req, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t, true)
	token, err := srv.jwt.GenerateToken("ops-admin", 0)
	require.NoError(t, err)

	var processed dto.ProcessDocumentResponse
	doRequest(t, srv.app, multipartRequest(t, "/api/process-document", formFile{"file", "memo.txt", "memo"}), &processed)
	require.NotNil(t, processed.Document)

	authed := func(method, target string) *http.Request {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return req
	}

	var list dto.DocumentListResponse
	resp := doRequest(t, srv.app, authed(http.MethodGet, "/api/documents?limit=5"), &list)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, processed.Document.ID, list.Documents[0].ID)
	assert.Equal(t, 5, list.Limit)

	var one dto.DocumentResponse
	resp = doRequest(t, srv.app, authed(http.MethodGet, "/api/documents/"+processed.Document.ID), &one)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "memo", one.Document.Title)

	var missing dto.ErrorResponse
	resp = doRequest(t, srv.app, authed(http.MethodGet, "/api/documents/nope"), &missing)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(processed.Document.StoredPath, old, old))

	var sweep dto.SweepResponse
	resp = doRequest(t, srv.app, authed(http.MethodPost, "/api/admin/retention/run"), &sweep)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, sweep.Deleted)
	assert.NoFileExists(t, processed.Document.StoredPath)

	resp = doRequest(t, srv.app, authed(http.MethodGet, "/api/documents/"+processed.Document.ID), &missing)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	doRequest(t, srv.app, multipartRequest(t, "/api/process-document", formFile{"file", "a.txt", "x"}), nil)

	resp := doRequest(t, srv.app, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "klens_documents_ingested_total")
}
