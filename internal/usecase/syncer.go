package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
	"github.com/naka-gawa/github-stats-sync/internal/gateway"
	"github.com/naka-gawa/github-stats-sync/internal/snapshot"
)

// Default pipeline limits.
const (
	DefaultPageSize           = 100
	DefaultMaxRepositories    = 200
	DefaultLanguageSampleSize = 50
	DefaultTopRepositories    = 10
	DefaultSiteSuffix         = ".github.io"
	DefaultPagePause          = 100 * time.Millisecond
	DefaultLanguagePause      = 50 * time.Millisecond
	DefaultPinnedPause        = 100 * time.Millisecond
	defaultJitterRange        = 100
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Persister stores the final report.
type Persister interface {
	Save(report *domain.Report) (snapshot.Info, error)
}

// Settings controls a single sync run.
type Settings struct {
	Username           string
	PageSize           int
	MaxRepositories    int
	LanguageSampleSize int
	TopRepositories    int
	SiteSuffix         string
	PagePause          time.Duration
	LanguagePause      time.Duration
	PinnedPause        time.Duration
	Pinned             []domain.PinnedTarget
	Contributions      bool

	Now    func() time.Time
	Jitter func() int
	Sleep  Sleeper
}

// DefaultSettings returns the settings used by the blog's daily sync.
func DefaultSettings(username string) Settings {
	return Settings{
		Username:           username,
		PageSize:           DefaultPageSize,
		MaxRepositories:    DefaultMaxRepositories,
		LanguageSampleSize: DefaultLanguageSampleSize,
		TopRepositories:    DefaultTopRepositories,
		SiteSuffix:         DefaultSiteSuffix,
		PagePause:          DefaultPagePause,
		LanguagePause:      DefaultLanguagePause,
		PinnedPause:        DefaultPinnedPause,
		Pinned: []domain.PinnedTarget{
			{Owner: "OpenBMB", Name: "MiniCPM"},
			{Owner: "volcengine", Name: "verl"},
		},
	}
}

// Result is the outcome of a successful run.
type Result struct {
	Report   *domain.Report
	Snapshot snapshot.Info
}

// Syncer runs the fetch, aggregate and persist pipeline.
// Requests are issued one at a time with fixed pauses between them.
type Syncer struct {
	fetcher   gateway.Fetcher
	persister Persister
	settings  Settings
	logger    *slog.Logger
}

// NewSyncer creates a new Syncer instance.
func NewSyncer(fetcher gateway.Fetcher, persister Persister, settings Settings, logger *slog.Logger) *Syncer {
	if settings.Now == nil {
		settings.Now = time.Now
	}
	if settings.Jitter == nil {
		settings.Jitter = func() int { return rand.IntN(defaultJitterRange) }
	}
	if settings.Sleep == nil {
		settings.Sleep = sleepContext
	}
	return &Syncer{
		fetcher:   fetcher,
		persister: persister,
		settings:  settings,
		logger:    logger,
	}
}

// Run executes the whole pipeline. Failures fetching the user or the repository
// list abort the run before anything is persisted; language, pinned repository
// and contribution failures are logged and the affected data is left out.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	login := s.settings.Username
	now := s.settings.Now()
	s.logger.Info("Starting GitHub sync", "user", login, "time", now.UTC().Format(time.RFC3339))

	s.logger.Info("[1/6] Fetching user information...")
	user, err := s.fetcher.FetchUser(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	s.logger.Info("[2/6] Fetching repositories...")
	repos, err := s.FetchRepositories(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("[3/6] Fetching language statistics...")
	languages, err := s.SampleLanguages(ctx, repos)
	if err != nil {
		return nil, err
	}

	s.logger.Info("[4/6] Fetching pinned repositories...")
	pinned, err := s.FetchPinned(ctx)
	if err != nil {
		return nil, err
	}

	var contributions *domain.ContributionCalendar
	if s.settings.Contributions {
		contributions = s.fetchContributions(ctx, now)
	}

	s.logger.Info("[5/6] Computing statistics...")
	report := Aggregate(AggregateInput{
		User:          *user,
		Repositories:  repos,
		Languages:     languages,
		Pinned:        pinned,
		Contributions: contributions,
		Now:           now,
		Jitter:        s.settings.Jitter(),
		TopN:          s.settings.TopRepositories,
	})

	s.logger.Info("[6/6] Saving data...")
	info, err := s.persister.Save(report)
	if err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	s.logger.Info("Data saved", "path", info.Path, "bytes", info.Size)

	return &Result{Report: report, Snapshot: info}, nil
}

// FetchRepositories pages through the account's repositories, most recently updated
// first. It stops at an empty page, a short page, or once MaxRepositories have been
// collected. Any failed page aborts the fetch and no partial result is returned.
func (s *Syncer) FetchRepositories(ctx context.Context) ([]domain.RepositorySummary, error) {
	var all []domain.RepositorySummary
	for page := 1; ; page++ {
		if page > 1 {
			if err := s.settings.Sleep(ctx, s.settings.PagePause); err != nil {
				return nil, err
			}
			s.logger.Debug("  Fetching next page of repositories...", "page", page)
		}

		repos, err := s.fetcher.FetchRepositoryPage(ctx, s.settings.Username, page, s.settings.PageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch repositories: %w", err)
		}
		if len(repos) == 0 {
			break
		}

		all = append(all, repos...)
		if len(all) >= s.settings.MaxRepositories || len(repos) < s.settings.PageSize {
			break
		}
	}
	if len(all) > s.settings.MaxRepositories {
		all = all[:s.settings.MaxRepositories]
	}

	s.logger.Info("  Found repositories", "count", len(all))
	return all, nil
}

// SampleLanguages merges the language breakdown of up to LanguageSampleSize
// repositories, skipping the account's site repository. A failed breakdown is
// logged and left out of the tally.
func (s *Syncer) SampleLanguages(ctx context.Context, repos []domain.RepositorySummary) (domain.LanguageTally, error) {
	tally := domain.LanguageTally{}
	for _, repo := range s.languageSample(repos) {
		languages, err := s.fetcher.FetchLanguages(ctx, s.settings.Username, repo.Name)
		if err != nil {
			s.logger.Warn("  Failed to get languages", "repo", repo.Name, "error", err)
		} else {
			tally.Merge(languages)
		}

		if err := s.settings.Sleep(ctx, s.settings.LanguagePause); err != nil {
			return nil, err
		}
	}

	s.logger.Info("  Found programming languages", "count", len(tally))
	return tally, nil
}

func (s *Syncer) languageSample(repos []domain.RepositorySummary) []domain.RepositorySummary {
	sample := make([]domain.RepositorySummary, 0, s.settings.LanguageSampleSize)
	for _, repo := range repos {
		if len(sample) == s.settings.LanguageSampleSize {
			break
		}
		if s.settings.SiteSuffix != "" && strings.Contains(repo.Name, s.settings.SiteSuffix) {
			continue
		}
		sample = append(sample, repo)
	}
	return sample
}

// FetchPinned fetches the configured pinned repositories. Failed targets are
// logged and omitted.
func (s *Syncer) FetchPinned(ctx context.Context) ([]domain.PinnedRepository, error) {
	pinned := []domain.PinnedRepository{}
	for _, target := range s.settings.Pinned {
		s.logger.Info("  Fetching pinned repository", "repo", target.String())
		repo, err := s.fetcher.FetchRepository(ctx, target.Owner, target.Name)
		if err != nil {
			s.logger.Warn("  Failed to fetch pinned repository", "repo", target.String(), "kind", gateway.KindOf(err).String(), "error", err)
		} else {
			pinned = append(pinned, *repo)
		}

		if err := s.settings.Sleep(ctx, s.settings.PinnedPause); err != nil {
			return nil, err
		}
	}

	s.logger.Info("  Found pinned repositories", "count", len(pinned))
	return pinned, nil
}

// fetchContributions fetches this calendar year's contributions. A failure is
// logged and yields nil.
func (s *Syncer) fetchContributions(ctx context.Context, now time.Time) *domain.ContributionCalendar {
	s.logger.Info("  Fetching contribution calendar...")
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), time.December, 31, 23, 59, 59, 0, time.UTC)
	calendar, err := s.fetcher.FetchContributions(ctx, s.settings.Username, from, to)
	if err != nil {
		s.logger.Warn("  Failed to fetch contributions", "error", err)
		return nil
	}
	return calendar
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
