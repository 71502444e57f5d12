// Package domain contains the core data structures and domain logic for the application.
package domain

import "time"

// Metric identifies a GitHub traffic metric kind.
type Metric string

const (
	MetricViews  Metric = "views"
	MetricClones Metric = "clones"
)

// ParseMetrics converts CLI metric names into Metric values.
// The zero-length input selects both metrics.
func ParseMetrics(names []string) ([]Metric, bool) {
	if len(names) == 0 {
		return []Metric{MetricViews, MetricClones}, true
	}
	metrics := make([]Metric, 0, len(names))
	for _, name := range names {
		switch Metric(name) {
		case MetricViews, MetricClones:
			metrics = append(metrics, Metric(name))
		default:
			return nil, false
		}
	}
	return metrics, true
}

// Repository identifies a repository visible to the authenticated token.
type Repository struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName returns the owner/name form used by the GitHub API.
func (r Repository) FullName() string {
	return r.Owner + "/" + r.Name
}

// TrafficRecord is a single per-day traffic bucket for one repository.
// Timestamps from the API are normalized to UTC midnight.
type TrafficRecord struct {
	Repo    string    `json:"repo"`
	Day     time.Time `json:"day"`
	Metric  Metric    `json:"metric"`
	Count   int       `json:"count"`
	Uniques int       `json:"uniques"`
}

// ReferrerRecord is one top-referrer entry reported for a repository.
type ReferrerRecord struct {
	Repo     string `json:"repo"`
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
	Uniques  int    `json:"uniques"`
}

// PathRecord is one top-content-path entry reported for a repository.
type PathRecord struct {
	Repo    string `json:"repo"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Uniques int    `json:"uniques"`
}

// Summary is the per-repository total for one metric over the whole
// queried window. MeanDaily is the mean count over days with data.
type Summary struct {
	Metric    Metric  `json:"metric"`
	Repo      string  `json:"repo"`
	Count     int     `json:"count"`
	Uniques   int     `json:"uniques"`
	MeanDaily float64 `json:"mean_daily"`
}

// Breakdown is the per-day total for one metric across all repositories.
type Breakdown struct {
	Metric  Metric    `json:"metric"`
	Date    time.Time `json:"date"`
	Count   int       `json:"count"`
	Uniques int       `json:"uniques"`
}

// ReferrerTotal is a referrer merged across repositories.
type ReferrerTotal struct {
	Referrer string `json:"referrer"`
	Count    int    `json:"count"`
	Uniques  int    `json:"uniques"`
}

// PathTotal is a content path merged across repositories. Title keeps
// the first title seen for the path.
type PathTotal struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Count   int    `json:"count"`
	Uniques int    `json:"uniques"`
}
