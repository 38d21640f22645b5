package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-stats-sync/internal/config"
	"github.com/naka-gawa/github-stats-sync/internal/snapshot"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func newGitHubServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/alice", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"alice","name":"Alice","public_repos":2,"created_at":"2019-04-01T00:00:00Z"}`)
	})
	mux.HandleFunc("/users/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":1,"name":"alice.github.io","stargazers_count":1,"forks_count":0},
			{"id":2,"name":"tool","stargazers_count":7,"forks_count":2,"language":"Go"}
		]`)
	})
	mux.HandleFunc("/repos/alice/tool/languages", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Go":300,"Shell":100}`)
	})
	mux.HandleFunc("/repos/alice/alice.github.io/languages", func(w http.ResponseWriter, r *http.Request) {
		t.Error("site repository must not be sampled")
	})
	mux.HandleFunc("/repos/OpenBMB/MiniCPM", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})
	mux.HandleFunc("/repos/volcengine/verl", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"verl","full_name":"volcengine/verl","stargazers_count":9100,"forks_count":1200,"updated_at":"2025-06-01T00:00:00Z"}`)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestRootCmd_Sync(t *testing.T) {
	unsetEnv(t, "GITHUB_USERNAME")
	server := newGitHubServer(t)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", server.URL)
	path := filepath.Join(t.TempDir(), "data", "github-stats.json")

	out, err := execute(t, "-u", "alice", "-o", path)

	require.NoError(t, err)
	assert.Contains(t, out, "GitHub sync completed: 2 repos, 8 stars")
	assert.Contains(t, out, path)

	saved, err := snapshot.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Alice", saved.User.Name)
	assert.Equal(t, 8, saved.Summary.TotalStars)
	assert.Equal(t, 400, saved.LanguageStats["Go"].Bytes+saved.LanguageStats["Shell"].Bytes)
	assert.InDelta(t, 75.0, saved.LanguageStats["Go"].Percentage, 0.001)
	require.Len(t, saved.Pinned, 1)
	assert.Equal(t, "volcengine/verl", saved.Pinned[0].FullName)
}

func TestRootCmd_MissingToken(t *testing.T) {
	unsetEnv(t, "GITHUB_TOKEN")
	path := filepath.Join(t.TempDir(), "github-stats.json")

	_, err := execute(t, "-o", path)

	require.ErrorIs(t, err, config.ErrMissingToken)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRootCmd_RepositoryFailureWritesNothing(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/alice", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"login":"alice"}`)
	})
	mux.HandleFunc("/users/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Setenv("GITHUB_TOKEN", "bad-token")
	t.Setenv("GITHUB_API_URL", server.URL)
	path := filepath.Join(t.TempDir(), "github-stats.json")

	_, err := execute(t, "-u", "alice", "-o", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch repositories")
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestShowCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github-stats.json")
	server := newGitHubServer(t)
	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_API_URL", server.URL)
	_, err := execute(t, "-u", "alice", "-o", path)
	require.NoError(t, err)

	out, err := execute(t, "show", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Alice (@alice)")
	assert.Contains(t, out, "Repositories: 2 | Stars: 8")
	assert.Contains(t, out, "volcengine/verl (9,100 stars)")
}

func TestShowCmd_MissingSnapshot(t *testing.T) {
	_, err := execute(t, "show", filepath.Join(t.TempDir(), "missing.json"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open snapshot")
}
