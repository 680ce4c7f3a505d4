package endpoints

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/directus-ops/cmsctl/pkg/config"
	"github.com/directus-ops/cmsctl/pkg/server"
)

func loadConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CMSCTL_CONFIG_PATH", dir)
	t.Setenv("CMSCTL_ENV_FILE", filepath.Join(dir, "missing.env"))
	for k, v := range env {
		t.Setenv(k, v)
	}
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestHandleStatus(t *testing.T) {
	t.Run("reports configured values", func(t *testing.T) {
		cfg := loadConfig(t, map[string]string{
			"DB_HOST":     "db.internal",
			"DB_DATABASE": "directus",
			"PUBLIC_URL":  "https://cms.example.com",
			"KEY":         "k",
			"NODE_ENV":    "production",
		})
		handler := handleStatus(cfg, "0.0.0.0", 3000)

		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()

		handler(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "OK", resp.Status)
		assert.Equal(t, StatusMessage, resp.Message)
		assert.Equal(t, 3000, resp.Port)
		assert.Equal(t, "0.0.0.0", resp.Host)
		assert.Equal(t, map[string]string{
			"DB_HOST":     "db.internal",
			"DB_DATABASE": "directus",
			"PUBLIC_URL":  "https://cms.example.com",
			"KEY":         "SET",
			"SECRET":      "NOT SET",
			"NODE_ENV":    "production",
		}, resp.Env)
	})

	t.Run("reports unset values", func(t *testing.T) {
		cfg := loadConfig(t, nil)
		handler := handleStatus(cfg, "0.0.0.0", 3000)

		w := httptest.NewRecorder()
		handler(w, httptest.NewRequest("GET", "/", nil))

		var resp StatusResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "NOT SET", resp.Env["DB_HOST"])
		assert.Equal(t, "NOT SET", resp.Env["PUBLIC_URL"])
		assert.Equal(t, "NOT SET", resp.Env["NODE_ENV"])
	})
}

func TestHandleHealth(t *testing.T) {
	w := httptest.NewRecorder()
	handleHealth()(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestRegisterAll(t *testing.T) {
	cfg := loadConfig(t, nil)
	var accessLog bytes.Buffer
	s := server.NewServer(cfg, "127.0.0.1", "3000", &accessLog)
	RegisterAll(s)

	ts := httptest.NewServer(s.Handler())

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(ts.URL+"/", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/missing")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts.Close()
	assert.Contains(t, accessLog.String(), `"GET /health HTTP/1.1" 200`)
	assert.Equal(t, "127.0.0.1:3000", s.Addr())
}
