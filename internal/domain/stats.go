// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// User is the subset of the account profile carried into the snapshot.
type User struct {
	Name        string    `json:"name"`
	Login       string    `json:"login"`
	Bio         string    `json:"bio"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// RepositorySummary holds one fetched repository's metadata.
// It is collected once per run and never mutated afterwards.
type RepositorySummary struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language"`
	Stars       int       `json:"stargazers_count"`
	Forks       int       `json:"forks_count"`
	Watchers    int       `json:"watchers_count"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
	Topics      []string  `json:"topics"`
	Visibility  string    `json:"visibility"`
}

// LanguageTally is a running byte count per language name.
type LanguageTally map[string]int

// Merge adds every entry of other into the tally. Values are summed, never overwritten.
func (t LanguageTally) Merge(other map[string]int) {
	for lang, bytes := range other {
		t[lang] += bytes
	}
}

// Total returns the number of bytes across all languages.
func (t LanguageTally) Total() int {
	total := 0
	for _, bytes := range t {
		total += bytes
	}
	return total
}

// PinnedTarget identifies an external repository of interest.
type PinnedTarget struct {
	Owner string
	Name  string
}

// String returns the target as owner/name.
func (p PinnedTarget) String() string {
	return p.Owner + "/" + p.Name
}

// PinnedRepository is the snapshot of a pinned external repository.
type PinnedRepository struct {
	Name      string    `json:"name"`
	FullName  string    `json:"full_name"`
	Stars     int       `json:"stargazers_count"`
	Forks     int       `json:"forks_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ContributionDay is one cell of the contribution calendar.
type ContributionDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
	Level int    `json:"level"`
}

// ContributionCalendar is the account's contribution history for one year.
type ContributionCalendar struct {
	Total int               `json:"total"`
	Days  []ContributionDay `json:"days"`
}
