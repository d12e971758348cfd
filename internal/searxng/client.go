// ABOUTME: Client for the SearxNG metasearch JSON API.
// ABOUTME: Backs the web retrieval step of search agents.

package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Result is one search hit from SearxNG.
type Result struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Content   string `json:"content,omitempty"`
	Author    string `json:"author,omitempty"`
	ImgSrc    string `json:"img_src,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	IframeSrc string `json:"iframe_src,omitempty"`
}

// Options narrow a search request.
type Options struct {
	Categories []string
	Engines    []string
	Language   string
	PageNo     int
}

// Client queries a SearxNG instance over its JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given SearxNG base URL. A URL without a
// scheme is treated as http.
func New(baseURL string, timeout time.Duration) *Client {
	if baseURL != "" && !strings.HasPrefix(baseURL, "http") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Results     []Result `json:"results"`
	Suggestions []string `json:"suggestions"`
}

// Search runs a query and returns results plus query suggestions.
func (c *Client) Search(ctx context.Context, query string, opts Options) ([]Result, []string, error) {
	if c.baseURL == "" {
		return nil, nil, fmt.Errorf("searxng: base URL not configured")
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	if len(opts.Categories) > 0 {
		params.Set("categories", strings.Join(opts.Categories, ","))
	}
	if len(opts.Engines) > 0 {
		params.Set("engines", strings.Join(opts.Engines, ","))
	}
	if opts.Language != "" {
		params.Set("language", opts.Language)
	}
	if opts.PageNo > 0 {
		params.Set("pageno", strconv.Itoa(opts.PageNo))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("searxng: building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("searxng: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("searxng: unexpected status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, fmt.Errorf("searxng: decoding response: %w", err)
	}

	return parsed.Results, parsed.Suggestions, nil
}
