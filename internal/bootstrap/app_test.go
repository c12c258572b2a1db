package bootstrap_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"image-gateway/internal/bootstrap"
	"image-gateway/internal/shared/config"
	"image-gateway/internal/shared/storage/object/objecttest"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Config{
		Port:            "0",
		Env:             "test",
		CORSAllowOrigin: []string{"*"},
		ObjectStoreType: "local",
		ImagesBucket:    "images",
		ProfilesBucket:  "profiles",
		SignedURLTTL:    time.Hour,
	}
	cfg.Local.Dir = t.TempDir()
	cfg.Local.PublicBaseURL = "http://localhost:8080/files"
	cfg.Upload.TmpDir = t.TempDir()
	cfg.Upload.MaxBytes = 1 << 20
	return cfg
}

func TestImageLifecycleOverLocalStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)

	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	router := app.Router

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("user_id", "user-1"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	fw, err := writer.CreateFormFile("file", "beach.jpg")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("jpeg")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ImageID  string `json:"imageId"`
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !strings.HasPrefix(created.ImageURL, "http://localhost:8080/files/images/images/") {
		t.Fatalf("unexpected image url %q", created.ImageURL)
	}

	// The local store cannot sign, so the list falls back to the public URL.
	listResp := httptest.NewRecorder()
	router.ServeHTTP(listResp, httptest.NewRequest(http.MethodGet, "/images", nil))
	if listResp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", listResp.Code)
	}
	var list []struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != created.ImageID || list[0].URL != created.ImageURL {
		t.Fatalf("unexpected list: %+v", list)
	}

	filePath := strings.TrimPrefix(created.ImageURL, "http://localhost:8080")
	fileResp := httptest.NewRecorder()
	router.ServeHTTP(fileResp, httptest.NewRequest(http.MethodGet, filePath, nil))
	if fileResp.Code != http.StatusOK || fileResp.Body.String() != "jpeg" {
		t.Fatalf("expected stored bytes at %s, got %d %q", filePath, fileResp.Code, fileResp.Body.String())
	}

	delResp := httptest.NewRecorder()
	router.ServeHTTP(delResp, httptest.NewRequest(http.MethodDelete, "/images/"+created.ImageID, nil))
	if delResp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", delResp.Code)
	}

	entries, err := os.ReadDir(cfg.Upload.TmpDir)
	if err != nil {
		t.Fatalf("read tmp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected upload buffer to be empty, found %d files", len(entries))
	}
}

func TestRouterExposesProbesAndMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	app, err := bootstrap.Build(testConfig(t))
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })

	for _, path := range []string{"/health", "/conexao", "/metrics"} {
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
	req.Header.Set("Origin", "http://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard CORS origin, got %q", got)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	if _, err := bootstrap.Build(cfg); err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestStartBackgroundSchedulesSweeper(t *testing.T) {
	cfg := testConfig(t)
	cfg.Upload.MaxAge = time.Minute
	cfg.Upload.SweepSchedule = "@every 1h"
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	if err := app.StartBackground(); err != nil {
		t.Fatalf("StartBackground: %v", err)
	}
	if app.Sweeper == nil {
		t.Fatalf("expected sweeper to be running")
	}
	if err := app.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

type closingStore struct {
	*objecttest.Store
	closed int
}

func (s *closingStore) Close() error {
	s.closed++
	return nil
}

func TestCloseStoreReleasesClients(t *testing.T) {
	store := &closingStore{Store: objecttest.New()}
	if err := bootstrap.CloseStore(store); err != nil {
		t.Fatalf("CloseStore: %v", err)
	}
	if store.closed != 1 {
		t.Fatalf("expected one Close call, got %d", store.closed)
	}

	if err := bootstrap.CloseStore(objecttest.New()); err != nil {
		t.Fatalf("stores without a client must be a no-op: %v", err)
	}
}

func TestBuildFailsWhenUploadDirUnusable(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	cfg.Upload.TmpDir = filepath.Join(blocker, "uploads")

	if _, err := bootstrap.Build(cfg); err == nil {
		t.Fatalf("expected build to fail for an unusable upload dir")
	}
}
