package evaluation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tokamak-network/hr-candidate-screening/internal/candidate"
)

// Evidence summarizes the observable facts backing a score.
type Evidence struct {
	TopRepos          []string `json:"top_repos"`
	Languages         []string `json:"languages"`
	ReadmeWithInstall bool     `json:"readme_with_install"`
	CIPresent         bool     `json:"ci_present"`
	TestsPresent      bool     `json:"tests_present"`
	ActivitySummary   string   `json:"activity_summary"`
}

// Profile is the per-candidate output record.
type Profile struct {
	CandidateID    string         `json:"candidate_id"`
	CandidateName  string         `json:"candidate_name"`
	SourceFile     string         `json:"source_file"`
	Handle         string         `json:"handle"`
	BatchID        int            `json:"batch_id"`
	JobFit         []string       `json:"job_fit"`
	Evidence       Evidence       `json:"evidence"`
	Scores         ScoreBreakdown `json:"scores"`
	ScoreRationale []string       `json:"score_rationale"`
}

// BuildProfile assembles the output record for one candidate.
func BuildProfile(cand candidate.Candidate, batchID int, jobFit []string, f FeatureVector, scores ScoreBreakdown) Profile {
	if jobFit == nil {
		jobFit = []string{}
	}
	return Profile{
		CandidateID:   cand.DisplayID(),
		CandidateName: cand.CandidateName,
		SourceFile:    cand.SourceFile,
		Handle:        cand.Handle,
		BatchID:       batchID,
		JobFit:        jobFit,
		Evidence: Evidence{
			TopRepos:          f.TopRepos,
			Languages:         f.Languages,
			ReadmeWithInstall: f.ReadmeWithInstall,
			CIPresent:         f.HasCI,
			TestsPresent:      f.HasTests,
			ActivitySummary: fmt.Sprintf("%d commits, %d PRs, %d issues (%dd)",
				f.RecentCommits, f.RecentPRs, f.RecentIssues, f.ActivityWindowDays),
		},
		Scores:         scores,
		ScoreRationale: buildRationale(f, scores),
	}
}

// Validate enforces the required-field schema. Candidates whose profile fails
// here are silently excluded from output.
func (p Profile) Validate() error {
	var missing []string
	if p.CandidateID == "" {
		missing = append(missing, "candidate_id")
	}
	if p.Handle == "" {
		missing = append(missing, "handle")
	}
	if p.JobFit == nil {
		missing = append(missing, "job_fit")
	}
	if len(p.ScoreRationale) == 0 {
		missing = append(missing, "score_rationale")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing fields: %s", strings.Join(missing, ", "))
	}

	s := p.Scores
	if s.Engineering < 0 || s.Engineering > engineeringCap ||
		s.Impact < 0 || s.Impact > impactCap ||
		s.Activity < 0 || s.Activity > activityCap ||
		s.AIProductivity < 0 || s.AIProductivity > aiProductivityCap ||
		s.Total < 0 || s.Total > totalCap {
		return errors.New("scores out of range")
	}

	return nil
}

func buildRationale(f FeatureVector, scores ScoreBreakdown) []string {
	rationale := make([]string, 0, 4)

	if scores.Engineering > 0 {
		var bits []string
		if f.HasCI {
			bits = append(bits, "CI")
		}
		if f.HasTests {
			bits = append(bits, "tests")
		}
		if f.ReadmeWithInstall {
			bits = append(bits, "README install/run")
		}
		if f.RecentCommits > 0 {
			bits = append(bits, "recent commits")
		}
		detail := "evidence present"
		if len(bits) > 0 {
			detail = strings.Join(bits, ", ")
		}
		rationale = append(rationale, "Engineering: "+detail)
	} else {
		rationale = append(rationale, "Engineering: insufficient evidence")
	}

	if scores.Impact > 0 {
		rationale = append(rationale, "Impact: stars/forks or meaningful PR activity")
	} else {
		rationale = append(rationale, "Impact: insufficient evidence")
	}

	if scores.Activity > 0 {
		rationale = append(rationale, "Activity: recent commits/PRs/issues")
	} else {
		rationale = append(rationale, "Activity: insufficient evidence")
	}

	if scores.AIProductivity > 0 {
		rationale = append(rationale, "AIProductivity: automation signals or doc clarity")
	} else {
		rationale = append(rationale, "AIProductivity: insufficient evidence")
	}

	return rationale
}
