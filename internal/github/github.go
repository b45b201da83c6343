package github

import (
	"context"
	"strings"
	"time"
)

// Snapshot source markers. Which collector produced a snapshot matters for
// cache validity: an "html" snapshot is weaker than an "api" one.
const (
	SourceAPI  = "api"
	SourceHTML = "html"
)

// timeLayout is the wire format used for fetched_at and updated_at fields.
const timeLayout = "2006-01-02T15:04:05Z"

// Snapshot is the normalized GitHub data for one handle at one point in time.
type Snapshot struct {
	Handle    string        `json:"handle"`
	FetchedAt string        `json:"fetched_at"`
	Source    string        `json:"source"`
	Profile   Profile       `json:"profile"`
	Repos     []RepoRecord  `json:"repos"`
	Activity  ActivityStats `json:"activity"`
}

// Profile holds the user-level fields. Pointer fields are nil when the
// backend could not observe them.
type Profile struct {
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Bio         *string `json:"bio"`
	PublicRepos *int    `json:"public_repos"`
	Followers   *int    `json:"followers"`
}

// RepoRecord describes a single repository. Boolean pointers are nil when the
// HTML backend cannot observe the signal; they are never guessed as false.
type RepoRecord struct {
	Name             string   `json:"name"`
	Stars            int      `json:"stars"`
	Forks            int      `json:"forks"`
	Language         *string  `json:"language"`
	UpdatedAt        *string  `json:"updated_at"`
	HasReadme        *bool    `json:"has_readme"`
	ReadmeHasInstall *bool    `json:"readme_has_install"`
	ReadmeHasRun     *bool    `json:"readme_has_run"`
	ReadmeHasTest    *bool    `json:"readme_has_test"`
	HasTests         *bool    `json:"has_tests"`
	HasCI            *bool    `json:"has_ci"`
	HasScripts       *bool    `json:"has_scripts"`
	HasAgents        *bool    `json:"has_agents"`
	Topics           []string `json:"topics"`
}

// ActivityStats aggregates recent public activity. WeeklyActivity is ordered
// with index 0 as the most recent week.
type ActivityStats struct {
	RecentCommits  int     `json:"recent_commits"`
	RecentPRs      int     `json:"recent_prs"`
	RecentIssues   int     `json:"recent_issues"`
	SmallPRRatio   float64 `json:"small_pr_ratio"`
	WeeklyActivity []int   `json:"weekly_activity"`
}

// Collector produces a normalized snapshot for a handle. The backend is chosen
// once per run depending on token availability; callers never branch on the
// concrete type.
type Collector interface {
	// FetchSnapshot returns a snapshot for the handle. Failures of individual
	// units (profile, repo, activity) degrade to empty fields; a non-nil
	// snapshot is returned whenever anything at all was collected.
	FetchSnapshot(ctx context.Context, handle string) *Snapshot

	// Source reports which marker this collector stamps on its snapshots.
	Source() string
}

// EmptySnapshot is the degraded result used when a handle yields no data at
// all. The pipeline proceeds with it rather than aborting the candidate.
func EmptySnapshot(handle string) *Snapshot {
	return &Snapshot{
		Handle: handle,
		Repos:  []RepoRecord{},
	}
}

// NormalizeHandle strips a leading @ and lowercases the handle. Handles are
// the case-insensitive identity key for caching and deduplication.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

func nowISO() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseISO(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolPtr(b bool) *bool { return &b }
