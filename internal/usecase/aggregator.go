// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/github-traffic/internal/domain"
	"github.com/naka-gawa/github-traffic/internal/gateway"
)

// Filter narrows the enumerated repository set by name.
// Include, when non-empty, wins over everything not listed in it.
type Filter struct {
	Ignore  map[string]bool
	Include map[string]bool
}

// NewFilter builds a Filter from the raw CLI name lists.
func NewFilter(ignore, include []string) Filter {
	f := Filter{Ignore: make(map[string]bool), Include: make(map[string]bool)}
	for _, name := range ignore {
		f.Ignore[name] = true
	}
	for _, name := range include {
		f.Include[name] = true
	}
	return f
}

func (f Filter) keep(repo domain.Repository) bool {
	if f.Ignore[repo.Name] {
		return false
	}
	if len(f.Include) > 0 && !f.Include[repo.Name] {
		return false
	}
	return true
}

// TrafficData holds everything one invocation fetched: the repositories
// that were queried and their per-metric daily records.
type TrafficData struct {
	Repos   []domain.Repository
	Records map[domain.Metric][]domain.TrafficRecord
}

// Aggregator is the use case for collecting and aggregating GitHub
// traffic. It orchestrates the fetching and combining of data.
type Aggregator struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, logger *log.Logger) *Aggregator {
	return &Aggregator{
		fetcher: fetcher,
		logger:  logger,
	}
}

// repositories enumerates and filters the repositories to query.
func (a *Aggregator) repositories(ctx context.Context, filter Filter) ([]domain.Repository, error) {
	all, err := a.fetcher.ListRepositories(ctx)
	if err != nil {
		return nil, err
	}
	repos := make([]domain.Repository, 0, len(all))
	for _, repo := range all {
		if filter.keep(repo) {
			repos = append(repos, repo)
		}
	}
	return repos, nil
}

// Collect fetches the daily records for each selected metric, one
// repository at a time. Requests are issued strictly in sequence; the
// first failure aborts the whole invocation.
func (a *Aggregator) Collect(ctx context.Context, metrics []domain.Metric, filter Filter) (*TrafficData, error) {
	repos, err := a.repositories(ctx, filter)
	if err != nil {
		return nil, err
	}
	data := &TrafficData{
		Repos:   repos,
		Records: make(map[domain.Metric][]domain.TrafficRecord),
	}
	for _, metric := range metrics {
		for _, repo := range repos {
			var records []domain.TrafficRecord
			switch metric {
			case domain.MetricClones:
				records, err = a.fetcher.FetchClones(ctx, repo)
			default:
				records, err = a.fetcher.FetchViews(ctx, repo)
			}
			if err != nil {
				return nil, err
			}
			data.Records[metric] = append(data.Records[metric], records...)
		}
	}
	a.logger.Debugf("collected traffic for %d repositories", len(repos))
	return data, nil
}

// CollectReferrers fetches the top referrers of every repository.
func (a *Aggregator) CollectReferrers(ctx context.Context, filter Filter) ([]domain.ReferrerRecord, error) {
	repos, err := a.repositories(ctx, filter)
	if err != nil {
		return nil, err
	}
	var all []domain.ReferrerRecord
	for _, repo := range repos {
		records, err := a.fetcher.FetchReferrers(ctx, repo)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// CollectPaths fetches the top content paths of every repository.
func (a *Aggregator) CollectPaths(ctx context.Context, filter Filter) ([]domain.PathRecord, error) {
	repos, err := a.repositories(ctx, filter)
	if err != nil {
		return nil, err
	}
	var all []domain.PathRecord
	for _, repo := range repos {
		records, err := a.fetcher.FetchPaths(ctx, repo)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

// Summarize reduces the daily records of one metric to a total per
// repository. Every queried repository gets a row, so repositories with
// no traffic in the window show up with zero counts. Rows are sorted by
// repository name.
func Summarize(metric domain.Metric, repos []domain.Repository, records []domain.TrafficRecord) []domain.Summary {
	byRepo := make(map[string]*domain.Summary, len(repos))
	daily := make(map[string][]float64, len(repos))
	summaries := make([]domain.Summary, 0, len(repos))
	for _, repo := range repos {
		summaries = append(summaries, domain.Summary{Metric: metric, Repo: repo.FullName()})
	}
	for i := range summaries {
		byRepo[summaries[i].Repo] = &summaries[i]
	}
	for _, r := range records {
		row, ok := byRepo[r.Repo]
		if !ok {
			continue
		}
		row.Count += r.Count
		row.Uniques += r.Uniques
		daily[r.Repo] = append(daily[r.Repo], float64(r.Count))
	}
	for repo, counts := range daily {
		// stats.Mean only errors on empty input, which cannot happen here.
		mean, _ := stats.Mean(counts)
		byRepo[repo].MeanDaily = mean
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Repo < summaries[j].Repo
	})
	return summaries
}

// BreakdownByDate groups the daily records of one metric by calendar
// date across all repositories. Dates with no data from any repository
// are omitted. Rows are sorted by date ascending.
func BreakdownByDate(metric domain.Metric, records []domain.TrafficRecord) []domain.Breakdown {
	byDate := make(map[string]*domain.Breakdown)
	for _, r := range records {
		key := r.Day.Format("2006-01-02")
		row, ok := byDate[key]
		if !ok {
			row = &domain.Breakdown{Metric: metric, Date: r.Day}
			byDate[key] = row
		}
		row.Count += r.Count
		row.Uniques += r.Uniques
	}
	rows := make([]domain.Breakdown, 0, len(byDate))
	for _, row := range byDate {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Date.Before(rows[j].Date)
	})
	return rows
}

// GroupReferrers merges referrer entries across repositories, summing
// counts for identical referrer strings. Rows are sorted by total count
// descending, ties broken by referrer name.
func GroupReferrers(records []domain.ReferrerRecord) []domain.ReferrerTotal {
	byReferrer := make(map[string]*domain.ReferrerTotal)
	for _, r := range records {
		row, ok := byReferrer[r.Referrer]
		if !ok {
			row = &domain.ReferrerTotal{Referrer: r.Referrer}
			byReferrer[r.Referrer] = row
		}
		row.Count += r.Count
		row.Uniques += r.Uniques
	}
	rows := make([]domain.ReferrerTotal, 0, len(byReferrer))
	for _, row := range byReferrer {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Referrer < rows[j].Referrer
	})
	return rows
}

// GroupPaths merges content path entries across repositories, summing
// counts for identical paths. The title of the first occurrence is kept.
// Rows are sorted by total count descending, ties broken by path.
func GroupPaths(records []domain.PathRecord) []domain.PathTotal {
	byPath := make(map[string]*domain.PathTotal)
	for _, r := range records {
		row, ok := byPath[r.Path]
		if !ok {
			row = &domain.PathTotal{Path: r.Path, Title: r.Title}
			byPath[r.Path] = row
		}
		row.Count += r.Count
		row.Uniques += r.Uniques
	}
	rows := make([]domain.PathTotal, 0, len(byPath))
	for _, row := range byPath {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Path < rows[j].Path
	})
	return rows
}
