package gateway

import (
	"context"
	"time"

	"github.com/naka-gawa/github-stats-sync/internal/cache"
	"github.com/naka-gawa/github-stats-sync/internal/domain"
)

// CachingFetcher wraps a Fetcher and keeps successful responses for a fixed time.
// Failed calls are never cached.
type CachingFetcher struct {
	next  Fetcher
	store *cache.TTL[cache.Key, any]
}

// NewCachingFetcher returns a Fetcher that serves repeated calls from memory for ttl.
func NewCachingFetcher(next Fetcher, ttl time.Duration) *CachingFetcher {
	return &CachingFetcher{
		next:  next,
		store: cache.NewTTL[cache.Key, any](ttl),
	}
}

// cached looks key up in store and falls back to fetch on a miss.
func cached[T any](store *cache.TTL[cache.Key, any], key cache.Key, fetch func() (T, error)) (T, error) {
	if v, ok := store.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := fetch()
	if err != nil {
		return v, err
	}
	store.Set(key, v)
	return v, nil
}

func (c *CachingFetcher) FetchUser(ctx context.Context, login string) (*domain.User, error) {
	return cached(c.store, cache.Key{Op: "user", Owner: login}, func() (*domain.User, error) {
		return c.next.FetchUser(ctx, login)
	})
}

func (c *CachingFetcher) FetchRepositoryPage(ctx context.Context, login string, page, perPage int) ([]domain.RepositorySummary, error) {
	key := cache.Key{Op: "repos", Owner: login, Page: page, PerPage: perPage}
	return cached(c.store, key, func() ([]domain.RepositorySummary, error) {
		return c.next.FetchRepositoryPage(ctx, login, page, perPage)
	})
}

func (c *CachingFetcher) FetchLanguages(ctx context.Context, owner, repo string) (map[string]int, error) {
	return cached(c.store, cache.Key{Op: "languages", Owner: owner, Name: repo}, func() (map[string]int, error) {
		return c.next.FetchLanguages(ctx, owner, repo)
	})
}

func (c *CachingFetcher) FetchRepository(ctx context.Context, owner, repo string) (*domain.PinnedRepository, error) {
	return cached(c.store, cache.Key{Op: "repository", Owner: owner, Name: repo}, func() (*domain.PinnedRepository, error) {
		return c.next.FetchRepository(ctx, owner, repo)
	})
}

// FetchContributions is not cached: its result depends on the requested window.
func (c *CachingFetcher) FetchContributions(ctx context.Context, login string, from, to time.Time) (*domain.ContributionCalendar, error) {
	return c.next.FetchContributions(ctx, login, from, to)
}
