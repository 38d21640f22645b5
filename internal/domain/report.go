package domain

import (
	"fmt"
	"time"
)

// timestampLayout always carries three fractional digits.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a UTC instant serialised with millisecond precision.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(timestampLayout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	parsed, err := time.Parse(`"`+time.RFC3339Nano+`"`, string(data))
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	t.Time = parsed
	return nil
}

// Report is the snapshot persisted at the end of a run.
// The JSON field names are consumed by the blog and must stay stable.
type Report struct {
	LastUpdate     Timestamp                `json:"lastUpdate"`
	User           User                     `json:"user"`
	Summary        Summary                  `json:"summary"`
	LanguageStats  map[string]LanguageShare `json:"languageStats"`
	TopRepos       []TopRepository          `json:"topRepositories"`
	Pinned         []PinnedRepository       `json:"pinnedRepositoriesData"`
	RecentActivity RecentActivity           `json:"recentActivity"`
	Contributions  *ContributionCalendar    `json:"contributions,omitempty"`
}

// Summary holds the headline counters.
type Summary struct {
	TotalStars  int `json:"totalStars"`
	TotalForks  int `json:"totalForks"`
	TotalRepos  int `json:"totalRepos"`
	ActiveYears int `json:"activeYears"`
}

// LanguageShare is one language's bytes and share of the sampled total.
type LanguageShare struct {
	Bytes      int     `json:"bytes"`
	Percentage float64 `json:"percentage"`
}

// TopRepository is an entry of the most-starred repository list.
type TopRepository struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Forks       int      `json:"forks_count"`
	Topics      []string `json:"topics"`
}

// RecentActivity wraps the yearly activity estimate.
type RecentActivity struct {
	ThisYear ActivityEstimate `json:"thisYear"`
}

// ActivityEstimate is a display heuristic, not a measurement.
type ActivityEstimate struct {
	EstimatedCommits int `json:"estimatedCommits"`
	MonthlyAverage   int `json:"monthlyAverage"`
	WeeklyAverage    int `json:"weeklyAverage"`
}
