package github

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/tokamak-network/hr-candidate-screening/internal/logger"
)

const (
	defaultHTMLURL = "https://github.com"
	// Rendered READMEs are truncated to keep scraped snapshots small.
	readmeScrapeLimit = 2000
)

var (
	whitespaceRE   = regexp.MustCompile(`\s+`)
	tooltipCountRE = regexp.MustCompile(`^([\d,]+|No)\s+contribution`)
	annualTotalRE  = regexp.MustCompile(`([\d,]+)\s+contributions?\s+in the last year`)
	ciKeywordRE    = regexp.MustCompile(`(?i)build passing|github actions|circleci|travis|\bci\b`)
)

// HTMLCollector is the unauthenticated fallback. It scrapes rendered pages
// and therefore observes less than the API backend; fields it cannot see stay
// nil rather than being guessed.
type HTMLCollector struct {
	logger     *zap.Logger
	maxRepos   int
	windowDays int

	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	now func() time.Time
}

// NewHTMLCollector builds the scraping fallback collector.
func NewHTMLCollector(timeoutSec, maxRepos, windowDays int, logger *zap.Logger) *HTMLCollector {
	return &HTMLCollector{
		logger:     logger,
		maxRepos:   maxRepos,
		windowDays: windowDays,
		BaseURL:    defaultHTMLURL,
		HTTPClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		UserAgent: "Mozilla/5.0",
		now:       time.Now,
	}
}

func (c *HTMLCollector) Source() string { return SourceHTML }

// FetchSnapshot scrapes the profile page, the repository listing, each
// repository page and the contributions calendar. Every unit degrades to
// empty on failure.
func (c *HTMLCollector) FetchSnapshot(ctx context.Context, handle string) *Snapshot {
	snap := &Snapshot{
		Handle:    handle,
		FetchedAt: nowISO(),
		Source:    SourceHTML,
		Repos:     []RepoRecord{},
	}

	if doc := c.fetchDoc(ctx, fmt.Sprintf("%s/%s", c.BaseURL, handle)); doc != nil {
		snap.Profile.Name = strPtr(cleanText(doc.Find("span.p-name").First().Text()))
		snap.Profile.Bio = strPtr(cleanText(doc.Find("div.p-note").First().Text()))
	}

	snap.Repos = c.scrapeRepos(ctx, handle)
	snap.Activity = c.scrapeActivity(ctx, handle)

	return snap
}

func (c *HTMLCollector) scrapeRepos(ctx context.Context, handle string) []RepoRecord {
	if c.maxRepos <= 0 {
		return []RepoRecord{}
	}

	doc := c.fetchDoc(ctx, fmt.Sprintf("%s/%s?tab=repositories", c.BaseURL, handle))
	if doc == nil {
		return []RepoRecord{}
	}

	repos := make([]RepoRecord, 0, c.maxRepos)
	doc.Find(`li[itemprop="owns"]`).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		name := cleanText(block.Find(`a[itemprop="name codeRepository"]`).First().Text())
		if name == "" {
			return true
		}

		record := RepoRecord{
			Name:     name,
			Stars:    parseCount(block.Find(`a[href$="/stargazers"]`).First().Text()),
			Forks:    parseCount(block.Find(`a[href$="/forks"]`).First().Text()),
			Language: strPtr(cleanText(block.Find(`span[itemprop="programmingLanguage"]`).First().Text())),
			Topics:   []string{},
		}
		if datetime, ok := block.Find("relative-time").First().Attr("datetime"); ok {
			record.UpdatedAt = strPtr(datetime)
		}

		c.scrapeRepoPage(ctx, handle, &record)
		repos = append(repos, record)

		return len(repos) < c.maxRepos
	})

	return repos
}

// scrapeRepoPage fills topics, the CI heuristic and README-derived flags from
// the repository's rendered page. Signals the page does not expose are left
// nil.
func (c *HTMLCollector) scrapeRepoPage(ctx context.Context, handle string, record *RepoRecord) {
	doc := c.fetchDoc(ctx, fmt.Sprintf("%s/%s/%s", c.BaseURL, handle, record.Name))
	if doc == nil {
		return
	}

	doc.Find("a.topic-tag").Each(func(_ int, tag *goquery.Selection) {
		if topic := cleanText(tag.Text()); topic != "" {
			record.Topics = append(record.Topics, topic)
		}
	})

	readme := truncateRunes(cleanText(doc.Find("article.markdown-body").First().Text()), readmeScrapeLimit)
	if readme != "" {
		c.logger.Debug("scraped readme",
			zap.String("repo", record.Name),
			zap.String("text", logger.TruncateForLog(readme, 120)),
		)
		flags := analyzeReadme(readme)
		record.HasReadme = boolPtr(flags.HasReadme)
		record.ReadmeHasInstall = boolPtr(flags.ReadmeHasInstall)
		record.ReadmeHasRun = boolPtr(flags.ReadmeHasRun)
		record.ReadmeHasTest = boolPtr(flags.ReadmeHasTest)
		record.HasAgents = boolPtr(aiReadmePattern.MatchString(readme))
	}

	if c.detectCIBadge(doc, readme) {
		record.HasCI = boolPtr(true)
	}
}

// detectCIBadge looks for a workflow badge image or CI keywords in the
// rendered README. Absence proves nothing, so callers only use a positive.
func (c *HTMLCollector) detectCIBadge(doc *goquery.Document, readme string) bool {
	found := false
	doc.Find("article.markdown-body img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt, _ := img.Attr("alt")
		src, _ := img.Attr("src")
		if ciKeywordRE.MatchString(alt) || strings.Contains(src, "workflows") || strings.Contains(src, "badge") {
			found = true
			return false
		}
		return true
	})
	if found {
		return true
	}
	return ciKeywordRE.MatchString(readme)
}

// scrapeActivity estimates recent activity from the contributions calendar.
// Per-day tooltip counts land in the same 7-day buckets the API backend uses;
// when the calendar exposes only an annual total, that total is scaled by
// window_days/365. The two backends intentionally disagree for the same
// handle: this one is a best-effort approximation.
func (c *HTMLCollector) scrapeActivity(ctx context.Context, handle string) ActivityStats {
	doc := c.fetchDoc(ctx, fmt.Sprintf("%s/users/%s/contributions", c.BaseURL, handle))
	if doc == nil {
		return ActivityStats{WeeklyActivity: []int{}}
	}

	tooltips := make(map[string]int)
	doc.Find("tool-tip").Each(func(_ int, tip *goquery.Selection) {
		target, ok := tip.Attr("for")
		if !ok {
			return
		}
		match := tooltipCountRE.FindStringSubmatch(cleanText(tip.Text()))
		if match == nil {
			return
		}
		if match[1] == "No" {
			tooltips[target] = 0
			return
		}
		tooltips[target] = parseCount(match[1])
	})

	now := c.now()
	window := time.Duration(c.windowDays) * 24 * time.Hour
	buckets := make([]int, c.windowDays/7+1)
	total := 0
	sawDays := false

	doc.Find("td.ContributionCalendar-day").Each(func(_ int, day *goquery.Selection) {
		date, ok := day.Attr("data-date")
		if !ok {
			return
		}
		ts, err := time.Parse("2006-01-02", date)
		if err != nil {
			return
		}
		id, _ := day.Attr("id")
		count, ok := tooltips[id]
		if !ok {
			return
		}
		sawDays = true
		elapsed := now.Sub(ts)
		if elapsed < 0 || elapsed > window {
			return
		}
		week := int(elapsed / (7 * 24 * time.Hour))
		if week >= 0 && week < len(buckets) {
			buckets[week] += count
		}
		total += count
	})

	if sawDays {
		return ActivityStats{
			RecentCommits:  total,
			WeeklyActivity: buckets,
		}
	}

	// No per-day data: fall back to scaling the annual total.
	if match := annualTotalRE.FindStringSubmatch(cleanText(doc.Text())); match != nil {
		annual := parseCount(match[1])
		return ActivityStats{
			RecentCommits:  annual * c.windowDays / 365,
			WeeklyActivity: []int{},
		}
	}

	return ActivityStats{WeeklyActivity: []int{}}
}

func (c *HTMLCollector) fetchDoc(ctx context.Context, url string) *goquery.Document {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.UserAgent)

	c.logger.Debug("scrape page", zap.String("url", url))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.logger.Debug("scrape request failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debug("scrape bad status", zap.String("url", url), zap.String("status", resp.Status))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		c.logger.Debug("parsing page failed", zap.String("url", url), zap.Error(err))
		return nil
	}
	return doc
}

func cleanText(value string) string {
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(value, " "))
}

// truncateRunes cuts on rune boundaries so a multi-byte character at the limit
// is dropped whole rather than split into an invalid tail.
func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func parseCount(text string) int {
	cleaned := strings.ReplaceAll(cleanText(text), ",", "")
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return n
}
