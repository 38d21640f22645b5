// Package usecase contains the business logic of the application.
package usecase

import (
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
)

const (
	// maxEstimatedCommits caps the yearly activity estimate.
	maxEstimatedCommits = 300
	// commitsPerUpdatedRepo is the weight of each repository updated this year.
	commitsPerUpdatedRepo = 5
	unknownLanguage       = "Unknown"
)

// AggregateInput is everything collected during a run.
type AggregateInput struct {
	User          domain.User
	Repositories  []domain.RepositorySummary
	Languages     domain.LanguageTally
	Pinned        []domain.PinnedRepository
	Contributions *domain.ContributionCalendar
	Now           time.Time
	// Jitter is added to the activity estimate before capping.
	Jitter int
	TopN   int
}

// Aggregate derives the report from collected data. It performs no I/O.
func Aggregate(in AggregateInput) *domain.Report {
	totalStars, totalForks := 0, 0
	for _, repo := range in.Repositories {
		totalStars += repo.Stars
		totalForks += repo.Forks
	}

	user := in.User
	if user.Name == "" {
		user.Name = user.Login
	}

	pinned := in.Pinned
	if pinned == nil {
		pinned = []domain.PinnedRepository{}
	}

	return &domain.Report{
		LastUpdate: domain.NewTimestamp(in.Now),
		User:       user,
		Summary: domain.Summary{
			TotalStars:  totalStars,
			TotalForks:  totalForks,
			TotalRepos:  len(in.Repositories),
			ActiveYears: in.Now.Year() - user.CreatedAt.In(in.Now.Location()).Year(),
		},
		LanguageStats: LanguageShares(in.Languages),
		TopRepos:      TopRepositories(in.Repositories, in.TopN),
		Pinned:        pinned,
		RecentActivity: domain.RecentActivity{
			ThisYear: EstimateActivity(in.Repositories, in.Now, in.Jitter),
		},
		Contributions: in.Contributions,
	}
}

// LanguageShares converts a tally into byte counts and percentages of the tally total.
// An empty tally yields zero percentages rather than NaN.
func LanguageShares(tally domain.LanguageTally) map[string]domain.LanguageShare {
	shares := make(map[string]domain.LanguageShare, len(tally))

	data := make(stats.Float64Data, 0, len(tally))
	for _, bytes := range tally {
		data = append(data, float64(bytes))
	}
	total, err := stats.Sum(data)
	if err != nil {
		total = 0
	}

	for lang, bytes := range tally {
		percentage := 0.0
		if total > 0 {
			percentage = float64(bytes) / total * 100
		}
		shares[lang] = domain.LanguageShare{Bytes: bytes, Percentage: percentage}
	}
	return shares
}

// TopRepositories returns up to n starred repositories, most stars first.
// Repositories with equal stars keep their fetch order.
func TopRepositories(repos []domain.RepositorySummary, n int) []domain.TopRepository {
	starred := make([]domain.RepositorySummary, 0, len(repos))
	for _, repo := range repos {
		if repo.Stars > 0 {
			starred = append(starred, repo)
		}
	}
	sort.SliceStable(starred, func(i, j int) bool {
		return starred[i].Stars > starred[j].Stars
	})
	if len(starred) > n {
		starred = starred[:n]
	}

	top := make([]domain.TopRepository, 0, len(starred))
	for _, repo := range starred {
		language := repo.Language
		if language == "" {
			language = unknownLanguage
		}
		topics := repo.Topics
		if topics == nil {
			topics = []string{}
		}
		top = append(top, domain.TopRepository{
			Name:        repo.Name,
			Description: repo.Description,
			HTMLURL:     repo.HTMLURL,
			Language:    language,
			Stars:       repo.Stars,
			Forks:       repo.Forks,
			Topics:      topics,
		})
	}
	return top
}

// EstimateActivity is a display heuristic: five commits per repository updated in
// the current calendar year plus jitter, capped at maxEstimatedCommits.
func EstimateActivity(repos []domain.RepositorySummary, now time.Time, jitter int) domain.ActivityEstimate {
	updatedThisYear := 0
	for _, repo := range repos {
		if repo.UpdatedAt.In(now.Location()).Year() == now.Year() {
			updatedThisYear++
		}
	}

	estimated := min(maxEstimatedCommits, updatedThisYear*commitsPerUpdatedRepo+jitter)
	return domain.ActivityEstimate{
		EstimatedCommits: estimated,
		MonthlyAverage:   roundDiv(estimated, 12),
		WeeklyAverage:    roundDiv(estimated, 52),
	}
}

func roundDiv(n, d int) int {
	rounded, err := stats.Round(float64(n)/float64(d), 0)
	if err != nil {
		return 0
	}
	return int(rounded)
}
