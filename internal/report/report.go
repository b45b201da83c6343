package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/tokamak-network/hr-candidate-screening/internal/evaluation"
	"github.com/tokamak-network/hr-candidate-screening/internal/pipeline"
)

// CreateRunDir creates a timestamped directory for this run's artifacts.
func CreateRunDir(baseDir string) (string, error) {
	runDir := filepath.Join(baseDir, time.Now().UTC().Format("20060102_150405"))
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	return runDir, nil
}

// WriteProfiles writes one JSON object per line to profiles.jsonl.
func WriteProfiles(runDir string, profiles []evaluation.Profile) (string, error) {
	path := filepath.Join(runDir, "profiles.jsonl")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating profiles file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, profile := range profiles {
		if err := enc.Encode(profile); err != nil {
			return "", fmt.Errorf("encoding profile: %w", err)
		}
	}
	return path, nil
}

var scoresHeader = []string{
	"candidate_id",
	"candidate_name",
	"source_file",
	"handle",
	"EngineeringScore",
	"ImpactScore",
	"ActivityScore",
	"AIProductivityScore",
	"TotalScore",
}

// WriteScoresCSV writes the flat score table to scores.csv.
func WriteScoresCSV(runDir string, profiles []evaluation.Profile) (string, error) {
	path := filepath.Join(runDir, "scores.csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating scores file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(scoresHeader); err != nil {
		return "", err
	}
	for _, p := range profiles {
		row := []string{
			p.CandidateID,
			p.CandidateName,
			p.SourceFile,
			p.Handle,
			strconv.Itoa(p.Scores.Engineering),
			strconv.Itoa(p.Scores.Impact),
			strconv.Itoa(p.Scores.Activity),
			strconv.Itoa(p.Scores.AIProductivity),
			strconv.Itoa(p.Scores.Total),
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return path, writer.Error()
}

// WriteTopReport writes a human-readable markdown ranking of the top N
// candidates by total score.
func WriteTopReport(runDir string, profiles []evaluation.Profile, topN int) (string, error) {
	path := filepath.Join(runDir, "top_report.md")

	ranked := rankByTotal(profiles)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	lines := []string{
		"# Top Candidates",
		"",
		"Generated: " + time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		"",
	}
	for idx, p := range ranked {
		lines = append(lines, fmt.Sprintf("## %d. %s (%s)", idx+1, p.CandidateID, p.Handle))
		lines = append(lines, fmt.Sprintf("- TotalScore: %d", p.Scores.Total))
		lines = append(lines, fmt.Sprintf(
			"- Subscores: Engineering %d, Impact %d, Activity %d, AIProductivity %d",
			p.Scores.Engineering, p.Scores.Impact, p.Scores.Activity, p.Scores.AIProductivity,
		))
		topRepos := "unknown"
		if len(p.Evidence.TopRepos) > 0 {
			topRepos = strings.Join(p.Evidence.TopRepos, ", ")
		}
		lines = append(lines, "- Top repos: "+topRepos)
		lines = append(lines, fmt.Sprintf(
			"- Evidence: CI %t, Tests %t, README install %t",
			p.Evidence.CIPresent, p.Evidence.TestsPresent, p.Evidence.ReadmeWithInstall,
		))
		lines = append(lines, "")
	}

	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("writing top report: %w", err)
	}
	return path, nil
}

// WriteBatchSummaries writes one summary per line to batch_summary.jsonl.
func WriteBatchSummaries(runDir string, summaries []pipeline.BatchSummary) (string, error) {
	path := filepath.Join(runDir, "batch_summary.jsonl")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating batch summary file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, summary := range summaries {
		if err := enc.Encode(summary); err != nil {
			return "", fmt.Errorf("encoding batch summary: %w", err)
		}
	}
	return path, nil
}

// PrintSummaryTable renders the top candidates and batch deviations to
// stdout.
func PrintSummaryTable(profiles []evaluation.Profile, summaries []pipeline.BatchSummary, topN int) error {
	ranked := rankByTotal(profiles)
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"Rank", "Candidate", "Handle", "Total", "Eng", "Impact", "Act", "AIProd"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for i, p := range ranked {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			p.CandidateID,
			p.Handle,
			strconv.Itoa(p.Scores.Total),
			strconv.Itoa(p.Scores.Engineering),
			strconv.Itoa(p.Scores.Impact),
			strconv.Itoa(p.Scores.Activity),
			strconv.Itoa(p.Scores.AIProductivity),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	warn := color.New(color.FgYellow).SprintfFunc()
	for _, summary := range summaries {
		if summary.DeviationFlag {
			fmt.Println(warn("batch %d: score spread exceeds deviation threshold %.2f (avg %.2f)",
				summary.BatchID, summary.DeviationThreshold, summary.AvgTotal))
		}
	}

	return nil
}

func rankByTotal(profiles []evaluation.Profile) []evaluation.Profile {
	ranked := make([]evaluation.Profile, len(profiles))
	copy(ranked, profiles)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.Total > ranked[j].Scores.Total
	})
	return ranked
}
