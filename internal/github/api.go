package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL = "https://api.github.com"
	acceptHeader  = "application/vnd.github+json"
	// Max page size accepted by the GitHub REST API.
	perPage = 100
)

// APICollector fetches snapshots through the authenticated GitHub REST API.
type APICollector struct {
	token      string
	logger     *zap.Logger
	maxRepos   int
	windowDays int

	APIURL     string
	HTTPClient *http.Client
	UserAgent  string

	now func() time.Time
}

// NewAPICollector builds the authenticated collector. The request timeout
// applies to every individual network call.
func NewAPICollector(token string, timeoutSec, maxRepos, windowDays int, logger *zap.Logger) *APICollector {
	return &APICollector{
		token:      token,
		logger:     logger,
		maxRepos:   maxRepos,
		windowDays: windowDays,
		APIURL:     defaultAPIURL,
		HTTPClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		UserAgent: "hr-candidate-screening",
		now:       time.Now,
	}
}

func (c *APICollector) Source() string { return SourceAPI }

type apiUser struct {
	Name        *string `json:"name"`
	Company     *string `json:"company"`
	Bio         *string `json:"bio"`
	PublicRepos *int    `json:"public_repos"`
	Followers   *int    `json:"followers"`
}

type apiRepo struct {
	Name            string   `json:"name"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	Language        *string  `json:"language"`
	UpdatedAt       string   `json:"updated_at"`
	Topics          []string `json:"topics"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
}

type apiReadme struct {
	Content string `json:"content"`
}

type apiContentItem struct {
	Path string `json:"path"`
}

type apiWorkflows struct {
	Workflows []struct {
		Path string `json:"path"`
	} `json:"workflows"`
}

type apiEvent struct {
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	Payload   struct {
		Commits     []json.RawMessage `json:"commits"`
		PullRequest *struct {
			Additions *int `json:"additions"`
			Deletions *int `json:"deletions"`
		} `json:"pull_request"`
	} `json:"payload"`
}

// FetchSnapshot collects profile, repositories and recent activity. Any unit
// that fails yields empty data for that unit only.
func (c *APICollector) FetchSnapshot(ctx context.Context, handle string) *Snapshot {
	var user apiUser
	if err := c.getJSON(ctx, fmt.Sprintf("%s/users/%s", c.APIURL, handle), &user); err != nil {
		c.logger.Debug("fetching user profile failed", zap.String("handle", handle), zap.Error(err))
		user = apiUser{}
	}

	return &Snapshot{
		Handle:    handle,
		FetchedAt: nowISO(),
		Source:    SourceAPI,
		Profile: Profile{
			Name:        user.Name,
			Company:     user.Company,
			Bio:         user.Bio,
			PublicRepos: user.PublicRepos,
			Followers:   user.Followers,
		},
		Repos:    c.collectRepos(ctx, handle),
		Activity: c.collectActivity(ctx, handle),
	}
}

func (c *APICollector) collectRepos(ctx context.Context, handle string) []RepoRecord {
	var raw []apiRepo
	url := fmt.Sprintf("%s/users/%s/repos?per_page=%d&sort=updated", c.APIURL, handle, perPage)
	if err := c.getJSON(ctx, url, &raw); err != nil {
		c.logger.Debug("listing repositories failed", zap.String("handle", handle), zap.Error(err))
		return []RepoRecord{}
	}

	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].UpdatedAt > raw[j].UpdatedAt
	})
	if len(raw) > c.maxRepos {
		raw = raw[:c.maxRepos]
	}

	repos := make([]RepoRecord, 0, len(raw))
	for _, repo := range raw {
		if repo.Name == "" {
			continue
		}
		owner := repo.Owner.Login
		if owner == "" {
			owner = handle
		}

		readmeText := c.fetchReadme(ctx, owner, repo.Name)
		flags := analyzeReadme(readmeText)

		files := c.fetchFileListing(ctx, owner, repo.Name)
		files = append(files, c.fetchWorkflowPaths(ctx, owner, repo.Name)...)

		topics := repo.Topics
		if topics == nil {
			topics = []string{}
		}

		repos = append(repos, RepoRecord{
			Name:             repo.Name,
			Stars:            repo.StargazersCount,
			Forks:            repo.ForksCount,
			Language:         repo.Language,
			UpdatedAt:        strPtr(repo.UpdatedAt),
			HasReadme:        boolPtr(flags.HasReadme),
			ReadmeHasInstall: boolPtr(flags.ReadmeHasInstall),
			ReadmeHasRun:     boolPtr(flags.ReadmeHasRun),
			ReadmeHasTest:    boolPtr(flags.ReadmeHasTest),
			HasTests:         boolPtr(detectTests(files)),
			HasCI:            boolPtr(detectCI(files)),
			HasScripts:       boolPtr(detectScripts(files)),
			HasAgents:        boolPtr(detectAIArtifacts(files, readmeText)),
			Topics:           topics,
		})
	}

	return repos
}

// fetchReadme returns the decoded README text, or empty when the repo has no
// README or the content is not valid base64.
func (c *APICollector) fetchReadme(ctx context.Context, owner, repo string) string {
	var readme apiReadme
	url := fmt.Sprintf("%s/repos/%s/%s/readme", c.APIURL, owner, repo)
	if err := c.getJSON(ctx, url, &readme); err != nil {
		return ""
	}
	if readme.Content == "" {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(readme.Content)
	if err != nil {
		return ""
	}
	return string(decoded)
}

func (c *APICollector) fetchFileListing(ctx context.Context, owner, repo string) []string {
	var items []apiContentItem
	url := fmt.Sprintf("%s/repos/%s/%s/contents/", c.APIURL, owner, repo)
	if err := c.getJSON(ctx, url, &items); err != nil {
		return nil
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if item.Path != "" {
			names = append(names, item.Path)
		}
	}
	return names
}

func (c *APICollector) fetchWorkflowPaths(ctx context.Context, owner, repo string) []string {
	var workflows apiWorkflows
	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows", c.APIURL, owner, repo)
	if err := c.getJSON(ctx, url, &workflows); err != nil {
		return nil
	}
	paths := make([]string, 0, len(workflows.Workflows))
	for _, wf := range workflows.Workflows {
		if wf.Path != "" {
			paths = append(paths, wf.Path)
		}
	}
	return paths
}

// collectActivity derives activity stats from the public event feed. Events
// land in 7-day buckets by elapsed time from now, bucket 0 being the most
// recent week.
func (c *APICollector) collectActivity(ctx context.Context, handle string) ActivityStats {
	var events []apiEvent
	url := fmt.Sprintf("%s/users/%s/events/public?per_page=%d", c.APIURL, handle, perPage)
	if err := c.getJSON(ctx, url, &events); err != nil {
		c.logger.Debug("fetching public events failed", zap.String("handle", handle), zap.Error(err))
		events = nil
	}

	now := c.now()
	window := time.Duration(c.windowDays) * 24 * time.Hour
	buckets := make([]int, c.windowDays/7+1)

	var recentCommits, recentPRs, recentIssues, smallPRs int

	for _, event := range events {
		created, ok := parseISO(event.CreatedAt)
		if !ok {
			continue
		}
		elapsed := now.Sub(created)
		if elapsed > window {
			continue
		}
		week := int(elapsed / (7 * 24 * time.Hour))
		if week >= 0 && week < len(buckets) {
			buckets[week]++
		}

		switch event.Type {
		case "PushEvent":
			recentCommits += len(event.Payload.Commits)
		case "PullRequestEvent":
			recentPRs++
			if pr := event.Payload.PullRequest; pr != nil && pr.Additions != nil && pr.Deletions != nil {
				if *pr.Additions+*pr.Deletions <= 200 {
					smallPRs++
				}
			}
		case "IssuesEvent":
			recentIssues++
		}
	}

	ratio := 0.0
	if recentPRs > 0 {
		ratio = math.Round(float64(smallPRs)/float64(recentPRs)*1000) / 1000
	}

	return ActivityStats{
		RecentCommits:  recentCommits,
		RecentPRs:      recentPRs,
		RecentIssues:   recentIssues,
		SmallPRRatio:   ratio,
		WeeklyActivity: buckets,
	}
}

func (c *APICollector) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", c.UserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("bad status: %s", resp.Status)
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
