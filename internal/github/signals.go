package github

import (
	"regexp"
	"strings"
)

// Keyword sets for README section detection. Matching is case-insensitive
// substring search.
var (
	installMarkers = []string{"install", "setup", "getting started"}
	runMarkers     = []string{"usage", "run", "quickstart"}
	testMarkers    = []string{"test", "pytest", "npm test", "go test"}

	testFilePatterns = []string{"test", "tests", "spec", "pytest", "unittest", "go test"}

	aiReadmePattern = regexp.MustCompile(`(?i)ai|prompt|agent`)
)

// readmeFlags captures what a README reveals about a repository.
type readmeFlags struct {
	HasReadme        bool
	ReadmeHasInstall bool
	ReadmeHasRun     bool
	ReadmeHasTest    bool
}

// analyzeReadme derives section markers from README text. An empty README is
// indistinguishable from an absent one.
func analyzeReadme(text string) readmeFlags {
	if text == "" {
		return readmeFlags{}
	}
	lowered := strings.ToLower(text)
	return readmeFlags{
		HasReadme:        true,
		ReadmeHasInstall: matchAny(lowered, installMarkers),
		ReadmeHasRun:     matchAny(lowered, runMarkers),
		ReadmeHasTest:    matchAny(lowered, testMarkers),
	}
}

// detectTests reports whether any filename looks like a test artifact.
func detectTests(files []string) bool {
	for _, name := range files {
		lowered := strings.ToLower(name)
		for _, pat := range testFilePatterns {
			if strings.Contains(lowered, pat) {
				return true
			}
		}
	}
	return false
}

// detectCI reports whether the file listing carries a workflow path or a
// CI-vendor marker.
func detectCI(files []string) bool {
	for _, name := range files {
		lowered := strings.ToLower(name)
		if strings.Contains(lowered, ".github/workflows") {
			return true
		}
		if strings.Contains(lowered, "circleci") || strings.Contains(lowered, "travis") ||
			strings.Contains(lowered, "github/workflows") {
			return true
		}
	}
	return false
}

// detectScripts reports whether the repo carries a Makefile or a scripts dir.
func detectScripts(files []string) bool {
	for _, name := range files {
		lowered := strings.ToLower(name)
		if strings.Contains(lowered, "makefile") || strings.Contains(lowered, "scripts/") {
			return true
		}
	}
	return false
}

// detectAIArtifacts reports whether filenames or README text hint at
// prompt/agent tooling.
func detectAIArtifacts(files []string, readmeText string) bool {
	for _, name := range files {
		lowered := strings.ToLower(name)
		if strings.Contains(lowered, "prompts") || strings.Contains(lowered, "agents") {
			return true
		}
	}
	if readmeText != "" && aiReadmePattern.MatchString(readmeText) {
		return true
	}
	return false
}

func matchAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}
