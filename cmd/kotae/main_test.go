package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/kotae/internal/config"
	"github.com/hyperjump/kotae/internal/models"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestJoinArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"tides"}, "tides"},
		{"multiple words", []string{"how", "do", "tides", "work?"}, "how do tides work?"},
		{"single quoted phrase", []string{"how do tides work?"}, "how do tides work?"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := joinArgs(tt.args)
			if got != tt.expected {
				t.Errorf("joinArgs(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
search:
  max_results: 3
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug || cfg.Search.MaxResults != 3 {
		t.Errorf("cwd config.yaml not applied: debug=%v max_results=%d", cfg.Debug, cfg.Search.MaxResults)
	}
}

func TestLoadConfig_missingDefaultUsesDefaults(t *testing.T) {
	if _, err := os.Stat(defaultConfigPath); err == nil {
		t.Skip("a system config exists at the default path")
	}
	chdir(t, t.TempDir())

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved path = %q, want empty", resolved)
	}
	if cfg.Search.MaxResults != config.DefaultMaxResults || cfg.Retrieval.TopK != config.DefaultTopK {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func TestLoadConfig_explicitMissingPathFails(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "kotae version dev\n", out)
}

func TestRunsCommand_HistoryDisabled(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("debug: false\n"), 0600))

	_, err := execute(t, "runs", "list", "--config", configPath)
	require.ErrorIs(t, err, errHistoryDisabled)
}

func TestAskCommand_RequiresQuestion(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("debug: false\n"), 0600))

	_, err := execute(t, "ask", "--config", configPath)
	require.Error(t, err)
}

// newFakeWeb serves a search API, one HTML page and a chat completion endpoint.
func newFakeWeb(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tides explained", r.URL.Query().Get("q"))
		fmt.Fprintf(w, `{"organic_results": [{"title": "Tides", "link": %q}]}`, srv.URL+"/tides")
	})
	mux.HandleFunc("/tides", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Tides</h1><p>Tides are caused by the gravity of the Moon and the Sun.</p></body></html>")
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"choices": [{"index": 0, "message": {"role": "assistant", "content": "The Moon's gravity."}}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 5, "total_tokens": 45}}`)
	})
	return srv
}

func writeTestConfig(t *testing.T, srv *httptest.Server) (configPath, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "runs.db")
	configPath = filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`
storage:
  database_path: %q
search:
  api_key: "serp-key"
  base_url: %q
render:
  enabled: false
embedding:
  provider: hash
  dimensions: 64
llm:
  api_key: "openai-key"
  base_url: %q
`, dbPath, srv.URL+"/search.json", srv.URL+"/v1")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0600))
	return configPath, dbPath
}

func TestAskAndRunsCommands(t *testing.T) {
	srv := newFakeWeb(t)
	configPath, _ := writeTestConfig(t, srv)

	out, err := execute(t, "ask", "--config", configPath, "--no-progress", "--output", "json",
		"--query", "tides explained", "What", "causes", "tides?")
	require.NoError(t, err)

	var run models.RunResult
	require.NoError(t, json.Unmarshal([]byte(out), &run))
	assert.Equal(t, "What causes tides?", run.Question)
	assert.Equal(t, "tides explained", run.Query)
	require.NotNil(t, run.Answer)
	assert.Equal(t, "The Moon's gravity.", run.Answer.Text)
	assert.Equal(t, 45, run.Usage.TotalTokens)
	require.Len(t, run.Answer.Context, 1)
	assert.Contains(t, run.Answer.Context[0].Chunk.Content, "gravity of the Moon")

	out, err = execute(t, "runs", "list", "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, run.ID)
	assert.Contains(t, out, "45 tokens")

	out, err = execute(t, "runs", "show", run.ID, "--config", configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "The Moon's gravity.")
	assert.Contains(t, out, srv.URL+"/tides")

	out, err = execute(t, "runs", "delete", run.ID, "--config", configPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Run deleted: "+run.ID))

	_, err = execute(t, "runs", "show", run.ID, "--config", configPath)
	require.Error(t, err)
}
