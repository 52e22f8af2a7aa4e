// Package github mines open issues for small tool wishes via the search API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/SBrookhart/side-quest-generator/internal/logging"
	"github.com/SBrookhart/side-quest-generator/internal/signal"
)

const (
	DefaultBaseURL  = "https://api.github.com"
	DefaultPerQuery = 5
	sourceName      = "GitHub"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a search client. token may be empty; unauthenticated search is
// heavily rate limited but works.
func New(token string) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithBaseURL points the client at another API root.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

type searchResponse struct {
	Items []issue `json:"items"`
}

type issue struct {
	Title     string    `json:"title"`
	HTMLURL   string    `json:"html_url"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Reactions struct {
		TotalCount int `json:"total_count"`
	} `json:"reactions"`
	Comments int `json:"comments"`
}

// Search runs one issue search, most reacted first.
func (c *Client) Search(ctx context.Context, query string, perPage int) ([]signal.Signal, error) {
	if perPage <= 0 {
		perPage = DefaultPerQuery
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("sort", "reactions")
	q.Set("order", "desc")
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/issues?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github search error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("github search %d: %s", resp.StatusCode, string(b))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding github search: %w", err)
	}

	signals := make([]signal.Signal, 0, len(sr.Items))
	for _, it := range sr.Items {
		if it.HTMLURL == "" || strings.TrimSpace(it.Title) == "" {
			continue
		}
		signals = append(signals, signal.Signal{
			ID:          signal.IDFor(it.HTMLURL),
			Kind:        signal.KindGitHub,
			Source:      sourceName,
			Title:       strings.TrimSpace(it.Title),
			Description: excerpt(it.Body, 300),
			URL:         it.HTMLURL,
			Published:   it.CreatedAt,
			Reactions:   it.Reactions.TotalCount + it.Comments,
		})
	}
	return signals, nil
}

// SearchAll runs queries in order. Failed queries are returned as errors
// alongside whatever the others found.
func (c *Client) SearchAll(ctx context.Context, queries []string, perQuery int) ([]signal.Signal, []error) {
	log := logging.From(ctx)
	var (
		out  []signal.Signal
		errs []error
	)
	seen := map[string]bool{}
	for _, q := range queries {
		signals, err := c.Search(ctx, q, perQuery)
		if err != nil {
			log.Warn("github search failed", "query", q, "error", err)
			errs = append(errs, fmt.Errorf("query %q: %w", q, err))
			continue
		}
		for _, s := range signals {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			out = append(out, s)
		}
	}
	return out, errs
}

func excerpt(body string, n int) string {
	body = strings.Join(strings.Fields(body), " ")
	runes := []rune(body)
	if len(runes) <= n {
		return body
	}
	return string(runes[:n-3]) + "..."
}
