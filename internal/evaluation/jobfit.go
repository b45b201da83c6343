package evaluation

import (
	"sort"
	"strings"

	"github.com/tokamak-network/hr-candidate-screening/internal/github"
)

// MatchJobFit returns the sorted intersection of job-description tokens and
// the candidate's technology terms (languages plus repository topics, both
// lowercased). No job tokens means no fit signal at all, which is distinct
// from zero overlap only in intent: both return an empty list.
func MatchJobFit(jobTokens []string, snap *github.Snapshot, features FeatureVector) []string {
	matched := []string{}
	if len(jobTokens) == 0 {
		return matched
	}

	terms := make(map[string]struct{})
	for _, language := range features.Languages {
		terms[strings.ToLower(language)] = struct{}{}
	}
	if snap != nil {
		for _, repo := range snap.Repos {
			for _, topic := range repo.Topics {
				terms[strings.ToLower(topic)] = struct{}{}
			}
		}
	}

	for _, token := range jobTokens {
		if _, ok := terms[token]; ok {
			matched = append(matched, token)
		}
	}
	sort.Strings(matched)

	return matched
}
