package github

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const repoListingHTML = `<html><body>
<li itemprop="owns">
  <a itemprop="name codeRepository" href="/octocat/widget"> widget </a>
  <a href="/octocat/widget/stargazers"> 12 </a>
  <a href="/octocat/widget/forks"> 3 </a>
  <span itemprop="programmingLanguage">Go</span>
  <relative-time datetime="2026-01-02T03:04:05Z"></relative-time>
</li>
<li itemprop="owns">
  <a itemprop="name codeRepository" href="/octocat/second"> second </a>
</li>
</body></html>`

const repoPageHTML = `<html><body>
<a class="topic-tag" href="/topics/cli">cli</a>
<a class="topic-tag" href="/topics/screening">screening</a>
<article class="markdown-body">
  <img alt="build passing" src="https://example.test/badge.svg">
  <p>Install the tool and see the usage section.</p>
</article>
</body></html>`

const contributionsHTML = `<html><body>
<td class="ContributionCalendar-day" id="day-1" data-date="2026-01-02"></td>
<td class="ContributionCalendar-day" id="day-2" data-date="2026-01-05"></td>
<tool-tip for="day-1">3 contributions on January 2nd.</tool-tip>
<tool-tip for="day-2">No contributions on January 5th.</tool-tip>
</body></html>`

func newScrapeTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/octocat", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tab") == "repositories" {
			fmt.Fprint(w, repoListingHTML)
			return
		}
		fmt.Fprint(w, `<html><body><span class="p-name"> The Octocat </span><div class="p-note">Builds things</div></body></html>`)
	})
	mux.HandleFunc("/octocat/widget", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, repoPageHTML)
	})
	mux.HandleFunc("/users/octocat/contributions", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, contributionsHTML)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestHTMLCollector(t *testing.T, baseURL string, maxRepos int) *HTMLCollector {
	t.Helper()

	collector := NewHTMLCollector(5, maxRepos, 28, zap.NewNop())
	collector.BaseURL = baseURL
	collector.now = func() time.Time {
		return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	}
	return collector
}

func TestHTMLCollectorFetchSnapshot(t *testing.T) {
	server := newScrapeTestServer(t)
	collector := newTestHTMLCollector(t, server.URL, 1)

	snap := collector.FetchSnapshot(t.Context(), "octocat")
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.Source != SourceHTML {
		t.Fatalf("expected source %q, got %q", SourceHTML, snap.Source)
	}
	if snap.Profile.Name == nil || *snap.Profile.Name != "The Octocat" {
		t.Fatalf("unexpected profile name: %+v", snap.Profile)
	}
	if snap.Profile.Followers != nil {
		t.Fatal("followers are not observable from the profile page and must stay nil")
	}

	if len(snap.Repos) != 1 {
		t.Fatalf("expected maxRepos to stop the listing at 1, got %d", len(snap.Repos))
	}

	repo := snap.Repos[0]
	if repo.Name != "widget" || repo.Stars != 12 || repo.Forks != 3 {
		t.Fatalf("unexpected repo: %+v", repo)
	}
	if repo.Language == nil || *repo.Language != "Go" {
		t.Fatalf("unexpected language: %+v", repo.Language)
	}
	if repo.UpdatedAt == nil || *repo.UpdatedAt != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected updated_at: %+v", repo.UpdatedAt)
	}
	if !reflect.DeepEqual(repo.Topics, []string{"cli", "screening"}) {
		t.Fatalf("unexpected topics: %v", repo.Topics)
	}
	if repo.HasReadme == nil || !*repo.HasReadme {
		t.Fatal("rendered readme should be observed")
	}
	if repo.ReadmeHasInstall == nil || !*repo.ReadmeHasInstall {
		t.Fatal("install marker should be observed")
	}
	if repo.HasCI == nil || !*repo.HasCI {
		t.Fatal("badge should set the CI flag")
	}
	// The page cannot reveal test files, so the signal stays unknown.
	if repo.HasTests != nil {
		t.Fatalf("tests signal must stay nil, got %v", *repo.HasTests)
	}
}

func TestHTMLCollectorActivityFromCalendar(t *testing.T) {
	server := newScrapeTestServer(t)
	collector := newTestHTMLCollector(t, server.URL, 1)

	activity := collector.scrapeActivity(t.Context(), "octocat")

	if activity.RecentCommits != 3 {
		t.Fatalf("expected 3 contributions, got %d", activity.RecentCommits)
	}
	if len(activity.WeeklyActivity) != 5 {
		t.Fatalf("expected 5 buckets for a 28 day window, got %d", len(activity.WeeklyActivity))
	}
	// Jan 2 is 8 days before the fixed clock, landing in the second bucket.
	if activity.WeeklyActivity[1] != 3 || activity.WeeklyActivity[0] != 0 {
		t.Fatalf("unexpected buckets: %v", activity.WeeklyActivity)
	}
}

func TestHTMLCollectorAnnualTotalFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h2>1,234 contributions in the last year</h2></body></html>`)
	}))
	t.Cleanup(server.Close)

	collector := newTestHTMLCollector(t, server.URL, 1)

	activity := collector.scrapeActivity(t.Context(), "octocat")
	if activity.RecentCommits != 1234*28/365 {
		t.Fatalf("expected scaled annual total %d, got %d", 1234*28/365, activity.RecentCommits)
	}
	if len(activity.WeeklyActivity) != 0 {
		t.Fatalf("expected no buckets from the fallback, got %v", activity.WeeklyActivity)
	}
}

func TestHTMLCollectorDegradesOnErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	collector := newTestHTMLCollector(t, server.URL, 1)

	snap := collector.FetchSnapshot(t.Context(), "octocat")
	if snap == nil {
		t.Fatal("expected a degraded snapshot, not nil")
	}
	if len(snap.Repos) != 0 {
		t.Fatalf("expected no repos, got %d", len(snap.Repos))
	}
}

func TestHTMLCollectorNonPositiveMaxRepos(t *testing.T) {
	server := newScrapeTestServer(t)
	collector := newTestHTMLCollector(t, server.URL, 0)

	snap := collector.FetchSnapshot(t.Context(), "octocat")
	if len(snap.Repos) != 0 {
		t.Fatalf("expected no repos for max repos 0, got %d", len(snap.Repos))
	}
}

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		limit    int
		expected string
	}{
		{"shorter than limit", "abc", 5, "abc"},
		{"at limit", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 5, "abcde"},
		{"multi-byte at boundary", "abcdé", 4, "abcd"},
		{"multi-byte kept whole", "abéde", 3, "abé"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := truncateRunes(tc.in, tc.limit)
			if got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
			if !utf8.ValidString(got) {
				t.Fatalf("truncation produced invalid utf-8: %q", got)
			}
		})
	}
}

func TestParseCount(t *testing.T) {
	cases := []struct {
		in       string
		expected int
	}{
		{" 12 ", 12},
		{"1,234", 1234},
		{"", 0},
		{"n/a", 0},
	}
	for _, tc := range cases {
		if got := parseCount(tc.in); got != tc.expected {
			t.Fatalf("parseCount(%q): expected %d, got %d", tc.in, tc.expected, got)
		}
	}
}
