package evaluation

import (
	"reflect"
	"testing"

	"github.com/tokamak-network/hr-candidate-screening/internal/github"
)

func truePtr() *bool  { v := true; return &v }
func falsePtr() *bool { v := false; return &v }
func langPtr(s string) *string {
	return &s
}

func TestExtractFeaturesNilSnapshot(t *testing.T) {
	f := ExtractFeatures(nil, 90)

	if len(f.TopRepos) != 0 || len(f.Languages) != 0 || len(f.WeeklyActivity) != 0 {
		t.Fatalf("expected empty vector, got %+v", f)
	}
	if f.ActivityWindowDays != 90 {
		t.Fatalf("expected window days 90, got %d", f.ActivityWindowDays)
	}
}

func TestExtractFeaturesAggregation(t *testing.T) {
	snap := &github.Snapshot{
		Handle: "octocat",
		Repos: []github.RepoRecord{
			{
				Name:             "alpha",
				Stars:            10,
				Forks:            2,
				Language:         langPtr("Go"),
				HasCI:            truePtr(),
				HasTests:         truePtr(),
				HasReadme:        truePtr(),
				ReadmeHasInstall: truePtr(),
				HasScripts:       truePtr(),
			},
			{
				Name:      "beta",
				Stars:     5,
				Forks:     1,
				Language:  langPtr("Go"),
				HasAgents: truePtr(),
			},
			{
				Name:     "gamma",
				Language: langPtr("Python"),
			},
		},
		Activity: github.ActivityStats{
			RecentCommits:  12,
			RecentPRs:      3,
			RecentIssues:   1,
			SmallPRRatio:   0.667,
			WeeklyActivity: []int{4, 0, 2},
		},
	}

	f := ExtractFeatures(snap, 90)

	if !reflect.DeepEqual(f.TopRepos, []string{"alpha", "beta", "gamma"}) {
		t.Fatalf("unexpected top repos: %v", f.TopRepos)
	}
	// First-seen order, duplicates dropped.
	if !reflect.DeepEqual(f.Languages, []string{"Go", "Python"}) {
		t.Fatalf("unexpected languages: %v", f.Languages)
	}
	if f.TotalStars != 15 || f.TotalForks != 3 {
		t.Fatalf("unexpected star/fork totals: %d/%d", f.TotalStars, f.TotalForks)
	}
	if !f.HasCI || !f.HasTests || !f.HasReadme || !f.ReadmeWithInstall {
		t.Fatalf("expected repo signals to propagate, got %+v", f)
	}
	// CI on alpha plus scripts on alpha.
	if f.AutomationSignals != 2 {
		t.Fatalf("expected 2 automation signals, got %d", f.AutomationSignals)
	}
	if f.AIArtifactBonus != 1 {
		t.Fatalf("expected AI artifact bonus, got %d", f.AIArtifactBonus)
	}
	if f.RecentCommits != 12 || f.RecentPRs != 3 || f.RecentIssues != 1 {
		t.Fatalf("unexpected activity counts: %+v", f)
	}
	if !reflect.DeepEqual(f.WeeklyActivity, []int{4, 0, 2}) {
		t.Fatalf("unexpected weekly activity: %v", f.WeeklyActivity)
	}
}

func TestExtractFeaturesUnknownSignalsAreNotEvidence(t *testing.T) {
	snap := &github.Snapshot{
		Repos: []github.RepoRecord{
			// All pointer signals nil, as the scrape backend leaves them.
			{Name: "opaque", Stars: 3},
			// Observed false is also not evidence.
			{Name: "bare", HasCI: falsePtr(), HasTests: falsePtr()},
		},
	}

	f := ExtractFeatures(snap, 90)

	if f.HasCI || f.HasTests || f.HasReadme || f.ReadmeWithInstall {
		t.Fatalf("nil signals must not count as evidence: %+v", f)
	}
	if f.AutomationSignals != 0 || f.AIArtifactBonus != 0 {
		t.Fatalf("expected zero automation signals, got %+v", f)
	}
}

func TestExtractFeaturesTopRepoLimit(t *testing.T) {
	snap := &github.Snapshot{}
	for i := 0; i < topRepoLimit+4; i++ {
		snap.Repos = append(snap.Repos, github.RepoRecord{Name: "repo"})
	}

	f := ExtractFeatures(snap, 90)
	if len(f.TopRepos) != topRepoLimit {
		t.Fatalf("expected %d top repos, got %d", topRepoLimit, len(f.TopRepos))
	}
}

func TestExtractFeaturesDeterministic(t *testing.T) {
	snap := &github.Snapshot{
		Repos: []github.RepoRecord{
			{Name: "alpha", Language: langPtr("Go"), HasCI: truePtr()},
			{Name: "beta", Language: langPtr("Rust")},
		},
		Activity: github.ActivityStats{RecentCommits: 7, WeeklyActivity: []int{1, 2}},
	}

	first := ExtractFeatures(snap, 90)
	second := ExtractFeatures(snap, 90)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("identical snapshots must yield identical vectors:\n%+v\n%+v", first, second)
	}
}
