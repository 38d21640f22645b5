// Package report prints run outcomes and snapshot summaries to the console.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
	"github.com/naka-gawa/github-stats-sync/internal/snapshot"
)

const maxLanguageRows = 10

// Console writes human-readable output.
type Console struct {
	out     io.Writer
	noColor bool
}

// NewConsole creates a Console writing to out. noColor disables ANSI colours.
func NewConsole(out io.Writer, noColor bool) *Console {
	return &Console{out: out, noColor: noColor}
}

func (c *Console) paint(attrs ...color.Attribute) *color.Color {
	painter := color.New(attrs...)
	if c.noColor {
		painter.DisableColor()
	}
	return painter
}

// Success reports a completed sync.
func (c *Console) Success(report *domain.Report, info snapshot.Info) {
	c.paint(color.FgGreen, color.Bold).Fprintf(c.out, "GitHub sync completed: %s repos, %s stars\n",
		humanize.Comma(int64(report.Summary.TotalRepos)),
		humanize.Comma(int64(report.Summary.TotalStars)))
	fmt.Fprintf(c.out, "Saved to %s (%s)\n", info.Path, humanize.Bytes(uint64(max(info.Size, 0))))
}

// Failure reports an aborted sync.
func (c *Console) Failure(err error) {
	c.paint(color.FgRed).Fprintf(c.out, "GitHub sync failed: %v\n", err)
}

// Summary prints the headline numbers, the language split and the top repositories.
func (c *Console) Summary(report *domain.Report) {
	header := c.paint(color.FgCyan, color.Bold)

	header.Fprintf(c.out, "%s (@%s)\n", report.User.Name, report.User.Login)
	fmt.Fprintf(c.out, "Last update: %s\n", report.LastUpdate.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(c.out, "Repositories: %s | Stars: %s | Forks: %s | Active years: %d\n",
		humanize.Comma(int64(report.Summary.TotalRepos)),
		humanize.Comma(int64(report.Summary.TotalStars)),
		humanize.Comma(int64(report.Summary.TotalForks)),
		report.Summary.ActiveYears)
	activity := report.RecentActivity.ThisYear
	fmt.Fprintf(c.out, "Estimated commits this year: %d (monthly %d, weekly %d)\n",
		activity.EstimatedCommits, activity.MonthlyAverage, activity.WeeklyAverage)
	if report.Contributions != nil {
		fmt.Fprintf(c.out, "Contributions this year: %s\n", humanize.Comma(int64(report.Contributions.Total)))
	}

	if len(report.LanguageStats) > 0 {
		fmt.Fprintln(c.out)
		header.Fprintln(c.out, "Languages")
		fmt.Fprintln(c.out, languageTable(report.LanguageStats))
	}

	if len(report.TopRepos) > 0 {
		fmt.Fprintln(c.out)
		header.Fprintln(c.out, "Top repositories")
		fmt.Fprintln(c.out, topRepositoryTable(report.TopRepos))
	}

	if len(report.Pinned) > 0 {
		fmt.Fprintln(c.out)
		header.Fprintln(c.out, "Pinned repositories")
		names := make([]string, 0, len(report.Pinned))
		for _, repo := range report.Pinned {
			names = append(names, fmt.Sprintf("%s (%s stars)", repo.FullName, humanize.Comma(int64(repo.Stars))))
		}
		fmt.Fprintln(c.out, strings.Join(names, "\n"))
	}
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

// languageTable lists languages by bytes, largest first.
func languageTable(stats map[string]domain.LanguageShare) string {
	languages := make([]string, 0, len(stats))
	for lang := range stats {
		languages = append(languages, lang)
	}
	sort.Slice(languages, func(i, j int) bool {
		a, b := stats[languages[i]], stats[languages[j]]
		if a.Bytes != b.Bytes {
			return a.Bytes > b.Bytes
		}
		return languages[i] < languages[j]
	})

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Language", "Bytes", "Share"})
	shown := languages
	if len(shown) > maxLanguageRows {
		shown = shown[:maxLanguageRows]
	}
	for _, lang := range shown {
		share := stats[lang]
		tbl.AppendRow(table.Row{lang, humanize.Bytes(uint64(max(share.Bytes, 0))), fmt.Sprintf("%.1f%%", share.Percentage)})
	}
	if hidden := len(languages) - len(shown); hidden > 0 {
		tbl.AppendFooter(table.Row{fmt.Sprintf("+%d more", hidden)})
	}
	return tbl.Render()
}

func topRepositoryTable(repos []domain.TopRepository) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Repository", "Language", "Stars", "Forks"})
	for i, repo := range repos {
		tbl.AppendRow(table.Row{i + 1, repo.Name, repo.Language, humanize.Comma(int64(repo.Stars)), humanize.Comma(int64(repo.Forks))})
	}
	return tbl.Render()
}
