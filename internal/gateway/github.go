// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	FetchUser(ctx context.Context, login string) (*domain.User, error)
	// FetchRepositoryPage returns one page of the repositories owned by login,
	// most recently updated first.
	FetchRepositoryPage(ctx context.Context, login string, page, perPage int) ([]domain.RepositorySummary, error)
	FetchLanguages(ctx context.Context, owner, repo string) (map[string]int, error)
	FetchRepository(ctx context.Context, owner, repo string) (*domain.PinnedRepository, error)
	FetchContributions(ctx context.Context, login string, from, to time.Time) (*domain.ContributionCalendar, error)
}

// Options configures a GitHubGateway.
type Options struct {
	Token     string
	BaseURL   string // empty means api.github.com
	UserAgent string
	Timeout   time.Duration
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *slog.Logger
}

// contributionsQuery fetches the contribution calendar for a single user.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionCalendar struct {
				TotalContributions int
				Weeks              []struct {
					ContributionDays []struct {
						Date              string
						ContributionCount int
						ContributionLevel string
					}
				}
			}
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

var contributionLevels = map[string]int{
	"NONE":            0,
	"FIRST_QUARTILE":  1,
	"SECOND_QUARTILE": 2,
	"THIRD_QUARTILE":  3,
	"FOURTH_QUARTILE": 4,
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(opts Options, logger *slog.Logger) (*GitHubGateway, error) {
	// The base transport honours HTTPS_PROXY, HTTP_PROXY and NO_PROXY.
	base := http.DefaultTransport.(*http.Transport).Clone()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
	httpClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &userAgentTransport{
			agent: opts.UserAgent,
			base: &oauth2.Transport{
				Base:   &secondaryLimitTransport{base: base},
				Source: ts,
			},
		},
	}

	restClient := github.NewClient(httpClient)
	if opts.UserAgent != "" {
		restClient.UserAgent = opts.UserAgent
	}
	graphqlClient := githubv4.NewClient(httpClient)

	if opts.BaseURL != "" {
		baseURL, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("failed to parse GitHub base URL: %w", err)
		}
		restClient.BaseURL = baseURL
		graphqlClient = githubv4.NewEnterpriseClient(baseURL.String()+"graphql", httpClient)
	}

	return &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}, nil
}

// userAgentTransport sets the User-Agent header on requests that do not carry one,
// which covers the GraphQL client.
type userAgentTransport struct {
	agent string
	base  http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.base.RoundTrip(req)
}

// logRate logs the remaining primary rate limit. The value is informational only.
func (g *GitHubGateway) logRate(resp *github.Response) {
	if resp == nil {
		return
	}
	g.logger.Info("API calls remaining", "remaining", resp.Rate.Remaining)
}

func (g *GitHubGateway) FetchUser(ctx context.Context, login string) (*domain.User, error) {
	user, resp, err := g.restClient.Users.Get(ctx, login)
	g.logRate(resp)
	if err != nil {
		return nil, classify("fetch user "+login, resp, err)
	}
	return &domain.User{
		Name:        user.GetName(),
		Login:       user.GetLogin(),
		Bio:         user.GetBio(),
		AvatarURL:   user.GetAvatarURL(),
		HTMLURL:     user.GetHTMLURL(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		CreatedAt:   user.GetCreatedAt().Time,
	}, nil
}

func (g *GitHubGateway) FetchRepositoryPage(ctx context.Context, login string, page, perPage int) ([]domain.RepositorySummary, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	repos, resp, err := g.restClient.Repositories.ListByUser(ctx, login, opts)
	g.logRate(resp)
	if err != nil {
		return nil, classify(fmt.Sprintf("list repositories of %s (page %d)", login, page), resp, err)
	}

	summaries := make([]domain.RepositorySummary, 0, len(repos))
	for _, repo := range repos {
		summaries = append(summaries, toRepositorySummary(repo))
	}
	return summaries, nil
}

func (g *GitHubGateway) FetchLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	languages, resp, err := g.restClient.Repositories.ListLanguages(ctx, owner, repo)
	g.logRate(resp)
	if err != nil {
		return nil, classify(fmt.Sprintf("list languages of %s/%s", owner, repo), resp, err)
	}
	return languages, nil
}

func (g *GitHubGateway) FetchRepository(ctx context.Context, owner, repo string) (*domain.PinnedRepository, error) {
	r, resp, err := g.restClient.Repositories.Get(ctx, owner, repo)
	g.logRate(resp)
	if err != nil {
		return nil, classify(fmt.Sprintf("get repository %s/%s", owner, repo), resp, err)
	}
	return &domain.PinnedRepository{
		Name:      r.GetName(),
		FullName:  r.GetFullName(),
		Stars:     r.GetStargazersCount(),
		Forks:     r.GetForksCount(),
		UpdatedAt: r.GetUpdatedAt().Time,
	}, nil
}

// FetchContributions fetches the contribution calendar between from and to using the GraphQL API.
func (g *GitHubGateway) FetchContributions(ctx context.Context, login string, from, to time.Time) (*domain.ContributionCalendar, error) {
	var q contributionsQuery
	variables := map[string]interface{}{
		"login": githubv4.String(login),
		"from":  githubv4.DateTime{Time: from},
		"to":    githubv4.DateTime{Time: to},
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, &APIError{Kind: KindUnexpected, Op: "fetch contributions of " + login, Err: err}
	}

	calendar := q.User.ContributionsCollection.ContributionCalendar
	result := &domain.ContributionCalendar{
		Total: calendar.TotalContributions,
		Days:  []domain.ContributionDay{},
	}
	for _, week := range calendar.Weeks {
		for _, day := range week.ContributionDays {
			result.Days = append(result.Days, domain.ContributionDay{
				Date:  day.Date,
				Count: day.ContributionCount,
				Level: contributionLevels[day.ContributionLevel],
			})
		}
	}
	return result, nil
}

func toRepositorySummary(repo *github.Repository) domain.RepositorySummary {
	return domain.RepositorySummary{
		ID:          repo.GetID(),
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		Description: repo.GetDescription(),
		HTMLURL:     repo.GetHTMLURL(),
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
		Forks:       repo.GetForksCount(),
		Watchers:    repo.GetWatchersCount(),
		Size:        repo.GetSize(),
		CreatedAt:   repo.GetCreatedAt().Time,
		UpdatedAt:   repo.GetUpdatedAt().Time,
		PushedAt:    repo.GetPushedAt().Time,
		Topics:      repo.Topics,
		Visibility:  repo.GetVisibility(),
	}
}
