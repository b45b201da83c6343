package candidate

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	csv := "candidate_id,handle,candidate_name,source_file\n" +
		"c100,@Ada,Ada Lovelace,ada.pdf\n" +
		",grace,,\n"
	path := writeTempFile(t, "candidates.csv", csv)

	candidates, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.CandidateID != "c100" || first.Handle != "Ada" || first.CandidateName != "Ada Lovelace" {
		t.Fatalf("unexpected first candidate: %+v", first)
	}

	second := candidates[1]
	if second.CandidateID != "c002" {
		t.Fatalf("expected generated id c002, got %q", second.CandidateID)
	}
	if second.Handle != "grace" {
		t.Fatalf("unexpected handle: %q", second.Handle)
	}
}

func TestLoadHandleColumnFallbacks(t *testing.T) {
	cases := []struct {
		name   string
		header string
		row    string
		handle string
	}{
		{"github column", "github\n", "@octocat\n", "octocat"},
		{"github_handle column", "github_handle\n", "octocat\n", "octocat"},
		{"github_username column", "github_username\n", " octocat \n", "octocat"},
		{"no handle at all", "candidate_name\n", "Ada\n", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeTempFile(t, "candidates.csv", tc.header+tc.row)

			candidates, err := Load(path)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if len(candidates) != 1 {
				t.Fatalf("expected 1 candidate, got %d", len(candidates))
			}
			if candidates[0].Handle != tc.handle {
				t.Fatalf("expected handle %q, got %q", tc.handle, candidates[0].Handle)
			}
		})
	}
}

func TestLoadNameFallback(t *testing.T) {
	path := writeTempFile(t, "candidates.csv", "handle,name\nada,Ada Lovelace\n")

	candidates, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if candidates[0].CandidateName != "Ada Lovelace" {
		t.Fatalf("expected name fallback, got %q", candidates[0].CandidateName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	candidates, err := Load(filepath.Join(t.TempDir(), "absent.csv"))
	if err != nil {
		t.Fatalf("missing roster should not error: %s", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected empty roster, got %d", len(candidates))
	}
}

func TestDisplayID(t *testing.T) {
	cases := []struct {
		name      string
		candidate Candidate
		expected  string
	}{
		{"name wins", Candidate{CandidateID: "c1", Handle: "ada", SourceFile: "a.pdf", CandidateName: "Ada"}, "Ada"},
		{"source file stem", Candidate{CandidateID: "c1", Handle: "ada", SourceFile: "ada_resume.pdf"}, "ada_resume"},
		{"handle", Candidate{CandidateID: "c1", Handle: "ada"}, "ada"},
		{"row id last", Candidate{CandidateID: "c1"}, "c1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.candidate.DisplayID(); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" go | docker ||python ")
	if !reflect.DeepEqual(got, []string{"go", "docker", "python"}) {
		t.Fatalf("unexpected items: %v", got)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Fatalf("expected no items, got %v", got)
	}
}

func TestLoadJobKeywords(t *testing.T) {
	path := writeTempFile(t, "job.md", "We need Python, Kubernetes and Docker.\nDocker experience is a plus. Go\n")

	keywords, err := LoadJobKeywords(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	// Lowercased, punctuation stripped, short tokens dropped, deduplicated,
	// sorted.
	expected := []string{"and", "docker", "experience", "kubernetes", "need", "plus", "python"}
	if !reflect.DeepEqual(keywords, expected) {
		t.Fatalf("expected %v, got %v", expected, keywords)
	}
}

func TestLoadJobKeywordsMissingFile(t *testing.T) {
	keywords, err := LoadJobKeywords(filepath.Join(t.TempDir(), "absent.md"))
	if err != nil {
		t.Fatalf("missing job description should not error: %s", err)
	}
	if len(keywords) != 0 {
		t.Fatalf("expected no keywords, got %v", keywords)
	}
}
