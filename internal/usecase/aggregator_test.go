package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/naka-gawa/github-traffic/internal/domain"
)

// mockFetcher is a mock implementation of the gateway.Fetcher interface.
// It allows us to simulate the GitHub gateway without real API calls.
type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) ListRepositories(ctx context.Context) ([]domain.Repository, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repository), args.Error(1)
}

func (m *mockFetcher) FetchViews(ctx context.Context, repo domain.Repository) ([]domain.TrafficRecord, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrafficRecord), args.Error(1)
}

func (m *mockFetcher) FetchClones(ctx context.Context, repo domain.Repository) ([]domain.TrafficRecord, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrafficRecord), args.Error(1)
}

func (m *mockFetcher) FetchReferrers(ctx context.Context, repo domain.Repository) ([]domain.ReferrerRecord, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ReferrerRecord), args.Error(1)
}

func (m *mockFetcher) FetchPaths(ctx context.Context, repo domain.Repository) ([]domain.PathRecord, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PathRecord), args.Error(1)
}

func day(value string) time.Time {
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return d
}

var (
	repoA = domain.Repository{Owner: "me", Name: "repo-a"}
	repoB = domain.Repository{Owner: "me", Name: "repo-b"}
	repoC = domain.Repository{Owner: "me", Name: "repo-c"}
)

// recordsA/recordsB mirror the canonical aggregation example: repo A has
// views on two days, repo B on one.
var (
	recordsA = []domain.TrafficRecord{
		{Repo: "me/repo-a", Day: day("2024-05-01"), Metric: domain.MetricViews, Count: 5, Uniques: 3},
		{Repo: "me/repo-a", Day: day("2024-05-02"), Metric: domain.MetricViews, Count: 2, Uniques: 2},
	}
	recordsB = []domain.TrafficRecord{
		{Repo: "me/repo-b", Day: day("2024-05-01"), Metric: domain.MetricViews, Count: 1, Uniques: 1},
	}
)

func TestAggregator_Collect(t *testing.T) {
	testCases := []struct {
		name            string
		metrics         []domain.Metric
		filter          Filter
		mockListErr     error
		mockViewsErr    error
		expectedRepos   []domain.Repository
		expectedRecords int
		expectError     bool
	}{
		{
			name:            "happy path - collects views for every repository",
			metrics:         []domain.Metric{domain.MetricViews},
			filter:          NewFilter(nil, nil),
			expectedRepos:   []domain.Repository{repoA, repoB},
			expectedRecords: 3,
			expectError:     false,
		},
		{
			name:          "filter case - ignore drops a repository before fetching",
			metrics:       []domain.Metric{domain.MetricViews},
			filter:        NewFilter([]string{"repo-b"}, nil),
			expectedRepos: []domain.Repository{repoA},
			// repo-b is never fetched, so only repo-a's records remain.
			expectedRecords: 2,
			expectError:     false,
		},
		{
			name:        "error case - repository listing fails",
			metrics:     []domain.Metric{domain.MetricViews},
			filter:      NewFilter(nil, nil),
			mockListErr: errors.New("github api error"),
			expectError: true,
		},
		{
			name:         "error case - a single failed fetch aborts the run",
			metrics:      []domain.Metric{domain.MetricViews},
			filter:       NewFilter(nil, nil),
			mockViewsErr: errors.New("github api error"),
			expectError:  true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			fetcher := new(mockFetcher)

			if tc.mockListErr != nil {
				fetcher.On("ListRepositories", mock.Anything).Return(nil, tc.mockListErr)
			} else {
				fetcher.On("ListRepositories", mock.Anything).Return([]domain.Repository{repoA, repoB}, nil)
				if tc.mockViewsErr != nil {
					fetcher.On("FetchViews", mock.Anything, mock.Anything).Return(nil, tc.mockViewsErr)
				} else {
					fetcher.On("FetchViews", mock.Anything, repoA).Return(recordsA, nil)
					fetcher.On("FetchViews", mock.Anything, repoB).Return(recordsB, nil)
				}
			}

			aggregator := NewAggregator(fetcher, log.New(io.Discard))
			data, err := aggregator.Collect(ctx, tc.metrics, tc.filter)

			if tc.expectError {
				assert.Error(t, err)
				assert.Nil(t, data)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedRepos, data.Repos)
				assert.Len(t, data.Records[domain.MetricViews], tc.expectedRecords)
			}
		})
	}
}

func TestAggregator_CollectReferrers(t *testing.T) {
	ctx := context.Background()
	fetcher := new(mockFetcher)
	fetcher.On("ListRepositories", mock.Anything).Return([]domain.Repository{repoA, repoB}, nil)
	fetcher.On("FetchReferrers", mock.Anything, repoA).Return([]domain.ReferrerRecord{
		{Repo: "me/repo-a", Referrer: "google.com", Count: 10, Uniques: 4},
	}, nil)
	fetcher.On("FetchReferrers", mock.Anything, repoB).Return([]domain.ReferrerRecord{
		{Repo: "me/repo-b", Referrer: "google.com", Count: 5, Uniques: 2},
	}, nil)

	aggregator := NewAggregator(fetcher, log.New(io.Discard))
	records, err := aggregator.CollectReferrers(ctx, NewFilter(nil, nil))
	assert.NoError(t, err)
	assert.Len(t, records, 2)
	fetcher.AssertExpectations(t)
}

func TestSummarize(t *testing.T) {
	records := append(append([]domain.TrafficRecord{}, recordsA...), recordsB...)
	// repo-c was queried but returned no traffic: it still gets a row.
	repos := []domain.Repository{repoA, repoB, repoC}

	summaries := Summarize(domain.MetricViews, repos, records)

	assert.Equal(t, []domain.Summary{
		{Metric: domain.MetricViews, Repo: "me/repo-a", Count: 7, Uniques: 5, MeanDaily: 3.5},
		{Metric: domain.MetricViews, Repo: "me/repo-b", Count: 1, Uniques: 1, MeanDaily: 1},
		{Metric: domain.MetricViews, Repo: "me/repo-c", Count: 0, Uniques: 0, MeanDaily: 0},
	}, summaries)
}

func TestBreakdownByDate(t *testing.T) {
	records := append(append([]domain.TrafficRecord{}, recordsA...), recordsB...)

	rows := BreakdownByDate(domain.MetricViews, records)

	assert.Equal(t, []domain.Breakdown{
		{Metric: domain.MetricViews, Date: day("2024-05-01"), Count: 6, Uniques: 4},
		{Metric: domain.MetricViews, Date: day("2024-05-02"), Count: 2, Uniques: 2},
	}, rows)
}

func TestBreakdownByDate_Empty(t *testing.T) {
	assert.Empty(t, BreakdownByDate(domain.MetricViews, nil))
}

func TestGroupReferrers(t *testing.T) {
	records := []domain.ReferrerRecord{
		{Repo: "me/repo-a", Referrer: "google.com", Count: 10, Uniques: 4},
		{Repo: "me/repo-b", Referrer: "google.com", Count: 5, Uniques: 2},
		{Repo: "me/repo-a", Referrer: "news.ycombinator.com", Count: 8, Uniques: 6},
	}

	rows := GroupReferrers(records)

	assert.Equal(t, []domain.ReferrerTotal{
		{Referrer: "google.com", Count: 15, Uniques: 6},
		{Referrer: "news.ycombinator.com", Count: 8, Uniques: 6},
	}, rows)
}

func TestGroupPaths(t *testing.T) {
	records := []domain.PathRecord{
		{Repo: "me/repo-a", Path: "/me/repo-a", Title: "repo-a: demo", Count: 6, Uniques: 3},
		{Repo: "me/repo-b", Path: "/me/repo-a", Title: "other title", Count: 2, Uniques: 1},
		{Repo: "me/repo-b", Path: "/me/repo-b", Title: "repo-b", Count: 4, Uniques: 2},
	}

	rows := GroupPaths(records)

	// The title of the first occurrence wins for duplicated paths.
	assert.Equal(t, []domain.PathTotal{
		{Path: "/me/repo-a", Title: "repo-a: demo", Count: 8, Uniques: 4},
		{Path: "/me/repo-b", Title: "repo-b", Count: 4, Uniques: 2},
	}, rows)
}

func TestFilter(t *testing.T) {
	testCases := []struct {
		name     string
		filter   Filter
		expected []bool
	}{
		{
			name:     "no filter keeps everything",
			filter:   NewFilter(nil, nil),
			expected: []bool{true, true, true},
		},
		{
			name:     "ignore drops the named repository",
			filter:   NewFilter([]string{"repo-b"}, nil),
			expected: []bool{true, false, true},
		},
		{
			name:     "include keeps only the named repositories",
			filter:   NewFilter(nil, []string{"repo-a", "repo-c"}),
			expected: []bool{true, false, true},
		},
		{
			name:     "ignore wins over include",
			filter:   NewFilter([]string{"repo-a"}, []string{"repo-a"}),
			expected: []bool{false, false, false},
		},
	}
	repos := []domain.Repository{repoA, repoB, repoC}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for i, repo := range repos {
				assert.Equal(t, tc.expected[i], tc.filter.keep(repo), repo.Name)
			}
		})
	}
}
