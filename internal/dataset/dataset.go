package dataset

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tokamak-network/hr-candidate-screening/internal/candidate"
)

// DefaultDir is where resume samples accumulate across runs.
const DefaultDir = "datasets/resume_samples"

// DerivedRow is one resume-sample record.
type DerivedRow struct {
	CandidateID     string   `json:"candidate_id"`
	ResumeSummary   string   `json:"resume_summary"`
	ExtractedSkills []string `json:"extracted_skills"`
	Labels          []string `json:"labels"`
	ReviewerNote    string   `json:"reviewer_note"`
	ResumeFullText  *string  `json:"resume_full_text"`
}

// LabelRow is one reviewer label record.
type LabelRow struct {
	CandidateID  string
	Label        string
	ReviewerNote string
}

// BuildPayload derives the dataset rows for one candidate. The label row is
// nil when the candidate carries no labels. Full resume text is stored only
// when explicitly enabled.
func BuildPayload(cand candidate.Candidate, storeFullText bool) (DerivedRow, *LabelRow) {
	derived := DerivedRow{
		CandidateID:     cand.CandidateID,
		ResumeSummary:   cand.ResumeSummary,
		ExtractedSkills: candidate.SplitList(cand.ExtractedSkills),
		Labels:          candidate.SplitList(cand.Labels),
		ReviewerNote:    cand.ReviewerNote,
	}
	if storeFullText && cand.ResumeFullText != "" {
		text := cand.ResumeFullText
		derived.ResumeFullText = &text
	}

	var label *LabelRow
	if cand.Labels != "" {
		label = &LabelRow{
			CandidateID:  cand.CandidateID,
			Label:        cand.Labels,
			ReviewerNote: cand.ReviewerNote,
		}
	}

	return derived, label
}

// AppendLabels appends label rows to labels.csv, writing the header on first
// creation.
func AppendLabels(baseDir string, rows []LabelRow) (string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("creating dataset dir: %w", err)
	}

	path := filepath.Join(baseDir, "labels.csv")
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening labels file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if writeHeader {
		if err := writer.Write([]string{"candidate_id", "label", "reviewer_note"}); err != nil {
			return "", err
		}
	}
	for _, row := range rows {
		if err := writer.Write([]string{row.CandidateID, row.Label, row.ReviewerNote}); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return path, writer.Error()
}

// AppendDerivedFeatures appends derived rows to derived_features.jsonl.
func AppendDerivedFeatures(baseDir string, rows []DerivedRow) (string, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return "", fmt.Errorf("creating dataset dir: %w", err)
	}

	path := filepath.Join(baseDir, "derived_features.jsonl")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return "", fmt.Errorf("opening derived features file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			return "", fmt.Errorf("encoding derived row: %w", err)
		}
	}
	return path, nil
}
