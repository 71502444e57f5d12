// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/github-traffic/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching traffic
// information from GitHub.
type Fetcher interface {
	ListRepositories(ctx context.Context) ([]domain.Repository, error)
	FetchViews(ctx context.Context, repo domain.Repository) ([]domain.TrafficRecord, error)
	FetchClones(ctx context.Context, repo domain.Repository) ([]domain.TrafficRecord, error)
	FetchReferrers(ctx context.Context, repo domain.Repository) ([]domain.ReferrerRecord, error)
	FetchPaths(ctx context.Context, repo domain.Repository) ([]domain.PathRecord, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// viewerReposQuery lists the repositories visible to the token, with the
// viewer's permission so the caller can filter to those exposing traffic.
type viewerReposQuery struct {
	Viewer struct {
		Repositories struct {
			PageInfo struct {
				HasNextPage bool
				EndCursor   githubv4.String
			}
			Nodes []struct {
				Name             string
				ViewerPermission string
				Owner            struct {
					Login string
				}
			}
		} `graphql:"repositories(first: 100, after: $cursor, orderBy: {field: NAME, direction: ASC})"`
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// ListRepositories returns, in name order, every repository on which the
// token holds push, maintain, or admin permission. The traffic endpoints
// reject anything less.
func (g *GitHubGateway) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	g.logger.Debug("listing repositories visible to the token")
	variables := map[string]interface{}{"cursor": (*githubv4.String)(nil)}
	var repos []domain.Repository
	for {
		var q viewerReposQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to list repositories: %w", classify(err))
		}
		for _, node := range q.Viewer.Repositories.Nodes {
			switch node.ViewerPermission {
			case "ADMIN", "MAINTAIN", "WRITE":
				repos = append(repos, domain.Repository{Owner: node.Owner.Login, Name: node.Name})
			}
		}
		if !q.Viewer.Repositories.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Viewer.Repositories.PageInfo.EndCursor)
		g.logger.Debug("fetching next page of repositories")
	}
	g.logger.Debugf("found %d repositories with traffic access", len(repos))
	return repos, nil
}

func (g *GitHubGateway) FetchViews(ctx context.Context, repo domain.Repository) ([]domain.TrafficRecord, error) {
	g.logger.Debugf("fetching views for %s", repo.FullName())
	opts := &github.TrafficBreakdownOptions{Per: "day"}
	traffic, _, err := g.restClient.Repositories.ListTrafficViews(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch views for %s: %w", repo.FullName(), classify(err))
	}
	return trafficRecords(repo, domain.MetricViews, traffic.Views), nil
}

func (g *GitHubGateway) FetchClones(ctx context.Context, repo domain.Repository) ([]domain.TrafficRecord, error) {
	g.logger.Debugf("fetching clones for %s", repo.FullName())
	opts := &github.TrafficBreakdownOptions{Per: "day"}
	traffic, _, err := g.restClient.Repositories.ListTrafficClones(ctx, repo.Owner, repo.Name, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clones for %s: %w", repo.FullName(), classify(err))
	}
	return trafficRecords(repo, domain.MetricClones, traffic.Clones), nil
}

func (g *GitHubGateway) FetchReferrers(ctx context.Context, repo domain.Repository) ([]domain.ReferrerRecord, error) {
	g.logger.Debugf("fetching referrers for %s", repo.FullName())
	referrers, _, err := g.restClient.Repositories.ListTrafficReferrers(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch referrers for %s: %w", repo.FullName(), classify(err))
	}
	records := make([]domain.ReferrerRecord, 0, len(referrers))
	for _, r := range referrers {
		records = append(records, domain.ReferrerRecord{
			Repo:     repo.FullName(),
			Referrer: r.GetReferrer(),
			Count:    r.GetCount(),
			Uniques:  r.GetUniques(),
		})
	}
	return records, nil
}

func (g *GitHubGateway) FetchPaths(ctx context.Context, repo domain.Repository) ([]domain.PathRecord, error) {
	g.logger.Debugf("fetching paths for %s", repo.FullName())
	paths, _, err := g.restClient.Repositories.ListTrafficPaths(ctx, repo.Owner, repo.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch paths for %s: %w", repo.FullName(), classify(err))
	}
	records := make([]domain.PathRecord, 0, len(paths))
	for _, p := range paths {
		records = append(records, domain.PathRecord{
			Repo:    repo.FullName(),
			Path:    p.GetPath(),
			Title:   p.GetTitle(),
			Count:   p.GetCount(),
			Uniques: p.GetUniques(),
		})
	}
	return records, nil
}

// trafficRecords converts the API's daily buckets, normalizing each
// timestamp to UTC midnight so dates group cleanly across repositories.
func trafficRecords(repo domain.Repository, metric domain.Metric, data []*github.TrafficData) []domain.TrafficRecord {
	records := make([]domain.TrafficRecord, 0, len(data))
	for _, d := range data {
		ts := d.GetTimestamp().Time.UTC()
		records = append(records, domain.TrafficRecord{
			Repo:    repo.FullName(),
			Day:     time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Metric:  metric,
			Count:   d.GetCount(),
			Uniques: d.GetUniques(),
		})
	}
	return records
}
