package evaluation

import (
	"github.com/tokamak-network/hr-candidate-screening/internal/github"
)

// topRepoLimit bounds how many repo names are surfaced as evidence.
const topRepoLimit = 8

// FeatureVector is the stateless aggregate derived from one snapshot. It is
// the only input to the scoring engine.
type FeatureVector struct {
	TopRepos           []string
	Languages          []string
	TotalStars         int
	TotalForks         int
	HasCI              bool
	HasTests           bool
	HasReadme          bool
	ReadmeWithInstall  bool
	AutomationSignals  int
	AIArtifactBonus    int
	RecentCommits      int
	RecentPRs          int
	RecentIssues       int
	SmallPRRatio       float64
	WeeklyActivity     []int
	ActivityWindowDays int
	JobFitCount        int
}

// ExtractFeatures derives a feature vector from a snapshot. Pure and total:
// identical snapshots always yield identical vectors. Unknown (nil) repo
// signals contribute nothing; they are never read as false evidence of
// absence, just absence of evidence.
func ExtractFeatures(snap *github.Snapshot, activityWindowDays int) FeatureVector {
	f := FeatureVector{
		TopRepos:           []string{},
		Languages:          []string{},
		WeeklyActivity:     []int{},
		ActivityWindowDays: activityWindowDays,
	}
	if snap == nil {
		return f
	}

	seenLanguages := make(map[string]struct{})
	for _, repo := range snap.Repos {
		if repo.Name != "" && len(f.TopRepos) < topRepoLimit {
			f.TopRepos = append(f.TopRepos, repo.Name)
		}
		if repo.Language != nil && *repo.Language != "" {
			if _, ok := seenLanguages[*repo.Language]; !ok {
				seenLanguages[*repo.Language] = struct{}{}
				f.Languages = append(f.Languages, *repo.Language)
			}
		}
		f.TotalStars += repo.Stars
		f.TotalForks += repo.Forks

		if isTrue(repo.HasCI) {
			f.HasCI = true
			f.AutomationSignals++
		}
		if isTrue(repo.HasTests) {
			f.HasTests = true
		}
		if isTrue(repo.HasReadme) {
			f.HasReadme = true
			if isTrue(repo.ReadmeHasInstall) {
				f.ReadmeWithInstall = true
			}
		}
		if isTrue(repo.HasScripts) {
			f.AutomationSignals++
		}
		if isTrue(repo.HasAgents) {
			f.AIArtifactBonus = 1
		}
	}

	f.RecentCommits = snap.Activity.RecentCommits
	f.RecentPRs = snap.Activity.RecentPRs
	f.RecentIssues = snap.Activity.RecentIssues
	f.SmallPRRatio = snap.Activity.SmallPRRatio
	if snap.Activity.WeeklyActivity != nil {
		f.WeeklyActivity = snap.Activity.WeeklyActivity
	}

	return f
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
