package evaluation

// Dimension ceilings. These are tunable business rules, fixed for this
// version; the config's scoring weights are labels only.
const (
	engineeringCap    = 40
	impactCap         = 30
	activityCap       = 15
	aiProductivityCap = 15
	totalCap          = 100
)

// ScoreBreakdown holds the four capped sub-scores and the capped total.
type ScoreBreakdown struct {
	Engineering    int `json:"EngineeringScore"`
	Impact         int `json:"ImpactScore"`
	Activity       int `json:"ActivityScore"`
	AIProductivity int `json:"AIProductivityScore"`
	Total          int `json:"TotalScore"`
}

// ScoreCandidate computes the deterministic breakdown for a feature vector.
// All division is integer floor division.
func ScoreCandidate(f FeatureVector) ScoreBreakdown {
	eng := scoreEngineering(f)
	impact := scoreImpact(f)
	activity := scoreActivity(f)
	aiProd := scoreAIProductivity(f)

	return ScoreBreakdown{
		Engineering:    eng,
		Impact:         impact,
		Activity:       activity,
		AIProductivity: aiProd,
		Total:          capped(eng+impact+activity+aiProd, totalCap),
	}
}

func scoreEngineering(f FeatureVector) int {
	score := 0
	if f.HasCI {
		score += 10
	}
	if f.HasTests {
		score += 10
	}
	// Language diversity: 1 lang=4, 2=8, 3+=10.
	score += capped(len(f.Languages)*4, 10)
	if f.ReadmeWithInstall {
		score += 6
	}
	score += capped((f.RecentCommits+f.RecentPRs)/5, 6)
	// Tech-stack alignment with the job description.
	score += capped(f.JobFitCount*2, 6)
	return capped(score, engineeringCap)
}

func scoreImpact(f FeatureVector) int {
	score := 0
	score += capped(f.TotalStars/5, 12)
	score += capped(f.TotalForks/3, 6)
	if f.RecentPRs > 3 {
		score += 6
	}
	return capped(score, impactCap)
}

func scoreActivity(f FeatureVector) int {
	score := 0
	score += capped((f.RecentCommits+f.RecentPRs+f.RecentIssues)/3, 10)
	activeWeeks := 0
	for _, count := range f.WeeklyActivity {
		if count > 0 {
			activeWeeks++
		}
	}
	score += capped(activeWeeks/2, 5)
	return capped(score, activityCap)
}

func scoreAIProductivity(f FeatureVector) int {
	score := 0
	score += capped(f.AutomationSignals*3, 7)
	score += capped(int(f.SmallPRRatio*4), 4)
	if f.ReadmeWithInstall {
		score += 3
	}
	if f.AIArtifactBonus > 0 {
		score += 1
	}
	return capped(score, aiProductivityCap)
}

func capped(value, limit int) int {
	if value > limit {
		return limit
	}
	return value
}
