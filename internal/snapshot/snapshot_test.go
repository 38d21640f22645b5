package snapshot

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
)

func sampleReport() *domain.Report {
	return &domain.Report{
		LastUpdate: domain.NewTimestamp(time.Date(2025, 7, 1, 8, 30, 0, 123000000, time.UTC)),
		User:       domain.User{Name: "Alice", Login: "alice", CreatedAt: time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)},
		Summary:    domain.Summary{TotalStars: 42, TotalForks: 7, TotalRepos: 3, ActiveYears: 9},
		LanguageStats: map[string]domain.LanguageShare{
			"Go": {Bytes: 150, Percentage: 100},
		},
		TopRepos: []domain.TopRepository{{Name: "repo-a", Language: "Go", Stars: 42, Topics: []string{}}},
		Pinned:   []domain.PinnedRepository{},
		RecentActivity: domain.RecentActivity{
			ThisYear: domain.ActivityEstimate{EstimatedCommits: 60, MonthlyAverage: 5, WeeklyAverage: 1},
		},
	}
}

func TestWriter_SaveCreatesDirectoriesAndRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "src", "data", "github-stats.json")
	writer := NewWriter(path)

	info, err := writer.Save(sampleReport())

	require.NoError(t, err)
	assert.Equal(t, path, info.Path)
	assert.Positive(t, info.Size)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, sampleReport(), loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestWriter_SaveOverwritesPreviousSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github-stats.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"legacy":true,"summary":{"totalStars":1}}`+"\n"+`padding padding padding padding padding`), 0o644))

	_, err := NewWriter(path).Save(sampleReport())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "legacy")
	assert.NotContains(t, string(raw), "padding")
}

func TestEncode_FieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	_, err := NewWriter(path).Save(sampleReport())
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	for _, key := range []string{"lastUpdate", "user", "summary", "languageStats", "topRepositories", "pinnedRepositoriesData", "recentActivity"} {
		assert.Contains(t, doc, key)
	}
	assert.NotContains(t, doc, "contributions")
	assert.Equal(t, "2025-07-01T08:30:00.123Z", doc["lastUpdate"])
	assert.Contains(t, string(raw), "\n  \"user\": {", "output should be indented with two spaces")

	activity := doc["recentActivity"].(map[string]any)["thisYear"].(map[string]any)
	assert.EqualValues(t, 60, activity["estimatedCommits"])
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open snapshot")
}

func TestEncode_LastUpdateKeepsMilliseconds(t *testing.T) {
	report := sampleReport()
	report.LastUpdate = domain.NewTimestamp(time.Date(2025, 7, 1, 8, 30, 0, 0, time.UTC))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, report))

	assert.Contains(t, buf.String(), `"lastUpdate": "2025-07-01T08:30:00.000Z"`)
}
