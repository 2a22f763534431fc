// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"
)

// =============================================================================
// PERFORMANCE: Pre-compiled regex (compiled once at startup)
// =============================================================================

var (
	ddgTitleRegex   = regexp.MustCompile(`(?s)<a[^>]+class="result__a"[^>]+href="([^"]+)"[^>]*>(.+?)</a>`)
	ddgSnippetRegex = regexp.MustCompile(`(?s)<a[^>]+class="result__snippet"[^>]*>(.+?)</a>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	DefaultBaseURL   = "https://html.duckduckgo.com/html/"
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxBodyBytes   = 5 * 1024 * 1024
	maxParseTitles = 30
)

// =============================================================================
// DUCKDUCKGO SEARCHER
// =============================================================================

// DuckDuckGo searches the DuckDuckGo HTML endpoint. No API key is needed.
type DuckDuckGo struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *slog.Logger

	policy *bluemonday.Policy
	md     *converter.Converter
}

// NewDuckDuckGo creates a searcher. An empty baseURL uses DefaultBaseURL.
func NewDuckDuckGo(baseURL string, timeout time.Duration, logger *slog.Logger) *DuckDuckGo {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Snippets keep <b> highlights long enough to become markdown emphasis.
	policy := bluemonday.NewPolicy()
	policy.AllowElements("b", "strong", "em", "i")

	return &DuckDuckGo{
		BaseURL:   baseURL,
		Timeout:   timeout,
		UserAgent: DefaultUserAgent,
		Client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
		Logger: logger,
		policy: policy,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// Search implements Searcher. count is clamped to 1..10; advanced depth
// doubles the clamp to 20.
func (d *DuckDuckGo) Search(ctx context.Context, query string, count int, depth Depth) []Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Result{}
	}

	limit := 10
	if depth == DepthAdvanced {
		limit = 20
	}
	if count < 1 {
		count = 5
	}
	if count > limit {
		count = limit
	}

	ctx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	results, err := d.fetch(ctx, query)
	if err != nil {
		d.Logger.Warn("search failed", "query", query, "error", err)
		return []Result{}
	}

	if len(results) > count {
		results = results[:count]
	}
	return results
}

func (d *DuckDuckGo) fetch(ctx context.Context, query string) ([]Result, error) {
	searchURL := d.BaseURL + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", d.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	return d.parseHTML(string(body)), nil
}

// parseHTML extracts results from the DuckDuckGo HTML layout:
//
//	<a class="result__a" href="//duckduckgo.com/l/?uddg=URL">Title</a>
//	<a class="result__snippet" href="...">Snippet text</a>
func (d *DuckDuckGo) parseHTML(html string) []Result {
	titleMatches := ddgTitleRegex.FindAllStringSubmatch(html, maxParseTitles)
	snippetMatches := ddgSnippetRegex.FindAllStringSubmatch(html, maxParseTitles)

	results := make([]Result, 0, len(titleMatches))
	for i, match := range titleMatches {
		if len(match) < 3 {
			continue
		}

		actualURL := extractActualURL(strings.ReplaceAll(match[1], "&amp;", "&"))
		title := d.toText(match[2], false)
		if actualURL == "" || title == "" {
			continue
		}

		snippet := ""
		if i < len(snippetMatches) && len(snippetMatches[i]) >= 2 {
			snippet = d.toText(snippetMatches[i][1], true)
		}

		results = append(results, Result{Title: title, URL: actualURL, Snippet: snippet})
	}
	return results
}

// toText sanitizes an HTML fragment and converts it to single-line markdown.
// Titles drop all markup.
func (d *DuckDuckGo) toText(fragment string, keepEmphasis bool) string {
	var clean string
	if keepEmphasis {
		clean = d.policy.Sanitize(fragment)
	} else {
		clean = bluemonday.StrictPolicy().Sanitize(fragment)
	}

	text, err := d.md.ConvertString(clean)
	if err != nil {
		text = clean
	}
	text = whitespaceRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractActualURL unwraps DuckDuckGo's redirect links.
func extractActualURL(ddgURL string) string {
	if strings.Contains(ddgURL, "uddg=") {
		if strings.HasPrefix(ddgURL, "//") {
			ddgURL = "https:" + ddgURL
		}
		parsed, err := url.Parse(ddgURL)
		if err != nil {
			return ""
		}
		if target := parsed.Query().Get("uddg"); target != "" {
			return target
		}
	}

	if strings.HasPrefix(ddgURL, "http://") || strings.HasPrefix(ddgURL, "https://") {
		return ddgURL
	}
	return ""
}
