package candidate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Candidate is one row of the input roster. Immutable once loaded; identity is
// the handle.
type Candidate struct {
	CandidateID     string `mapstructure:"candidate_id"`
	Handle          string `mapstructure:"handle"`
	CandidateName   string `mapstructure:"candidate_name"`
	SourceFile      string `mapstructure:"source_file"`
	ResumeSummary   string `mapstructure:"resume_summary"`
	ExtractedSkills string `mapstructure:"extracted_skills"`
	Labels          string `mapstructure:"labels"`
	ReviewerNote    string `mapstructure:"reviewer_note"`
	ResumeFullText  string `mapstructure:"resume_full_text"`
}

// handleColumns are tried in order; the first non-empty one wins.
var handleColumns = []string{"handle", "github", "github_handle", "github_username"}

// Load reads the candidate roster from a CSV file. A missing file yields an
// empty roster, matching the pipeline's degrade-not-abort policy.
func Load(path string) ([]Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Candidate{}, nil
		}
		return nil, fmt.Errorf("opening candidates file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading candidates csv: %w", err)
	}
	if len(records) == 0 {
		return []Candidate{}, nil
	}

	header := records[0]
	candidates := make([]Candidate, 0, len(records)-1)

	for idx, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(record) {
				row[strings.TrimSpace(column)] = record[i]
			}
		}

		var cand Candidate
		if err := mapstructure.Decode(row, &cand); err != nil {
			return nil, fmt.Errorf("decoding candidate row %d: %w", idx+1, err)
		}

		cand.Handle = resolveHandle(row)
		if cand.CandidateID == "" {
			cand.CandidateID = fmt.Sprintf("c%03d", idx+1)
		}
		if cand.CandidateName == "" {
			cand.CandidateName = row["name"]
		}

		candidates = append(candidates, cand)
	}

	return candidates, nil
}

func resolveHandle(row map[string]string) string {
	for _, column := range handleColumns {
		if value := strings.TrimSpace(row[column]); value != "" {
			return strings.TrimPrefix(value, "@")
		}
	}
	return ""
}

// DisplayID is the identifier shown in output profiles: name, then source-file
// stem, then handle, then the row id.
func (c Candidate) DisplayID() string {
	if c.CandidateName != "" {
		return c.CandidateName
	}
	if c.SourceFile != "" {
		return strings.TrimSuffix(c.SourceFile, filepath.Ext(c.SourceFile))
	}
	if c.Handle != "" {
		return c.Handle
	}
	return c.CandidateID
}

// SplitList splits a pipe-delimited cell into trimmed items.
func SplitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, "|") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

const keywordStripSet = " ,.;:()[]{}\n\t\r\""

// LoadJobKeywords tokenizes a free-text job description: whitespace split,
// punctuation stripped, lowercased, tokens shorter than 3 discarded. A missing
// file yields no keywords (and therefore no job-fit signal).
func LoadJobKeywords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("reading job description: %w", err)
	}

	seen := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(string(data))) {
		token = strings.Trim(token, keywordStripSet)
		if len(token) >= 3 {
			seen[token] = struct{}{}
		}
	}

	keywords := make([]string, 0, len(seen))
	for token := range seen {
		keywords = append(keywords, token)
	}
	sort.Strings(keywords)

	return keywords, nil
}
