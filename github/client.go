// Package github talks to the GitHub REST API for pull request diffs and
// review actions.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/fwojciec/differ"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// API version and media types sent with every request.
const (
	apiVersion    = "2022-11-28"
	mediaJSON     = "application/vnd.github+json"
	mediaDiff     = "application/vnd.github.diff"
	userAgent     = "differ"
	pageSizeQuery = "per_page=100"
)

// client performs authenticated requests against one API base URL.
type client struct {
	baseURL string
	token   string
	http    *http.Client
	limiter *rate.Limiter
}

func (c *client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

// do sends a request and returns the response when its status is 2xx.
// Other statuses are converted to *differ.SourceError.
func (c *client) do(ctx context.Context, method, path, accept string, body any) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if accept == "" {
		accept = mediaJSON
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-GitHub-Api-Version", apiVersion)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GitHub request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, responseError(resp)
	}
	return resp, nil
}

// responseError builds a SourceError from an error response, preferring
// the JSON message and listing any detailed error messages after it.
func responseError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	detail := strings.TrimSpace(string(raw))
	var payload struct {
		Message string `json:"message"`
		Errors  []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		detail = payload.Message
		var msgs []string
		for _, e := range payload.Errors {
			if e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
		if len(msgs) > 0 {
			joined := strings.Join(msgs, ", ")
			if detail == "" {
				detail = joined
			} else {
				detail = fmt.Sprintf("%s (%s)", detail, joined)
			}
		}
	}

	msg := fmt.Sprintf("GitHub request failed (%d)", resp.StatusCode)
	if detail != "" {
		msg += ": " + detail
	}
	return &differ.SourceError{Status: resp.StatusCode, Message: msg}
}

func (c *client) getJSON(ctx context.Context, path string, v any) error {
	return c.sendJSON(ctx, http.MethodGet, path, nil, v)
}

// sendJSON sends body and decodes the response into v when v is not nil.
func (c *client) sendJSON(ctx context.Context, method, path string, body, v any) error {
	resp, err := c.do(ctx, method, path, "", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *client) getText(ctx context.Context, path, accept string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, path, accept, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// getAllPages follows rel="next" links sequentially, concatenating pages.
func getAllPages[T any](ctx context.Context, c *client, path string) ([]T, error) {
	var all []T
	next := path
	for next != "" {
		resp, err := c.do(ctx, http.MethodGet, next, "", nil)
		if err != nil {
			return nil, err
		}
		var page []T
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", next, err)
		}
		all = append(all, page...)
		next = nextLink(resp.Header.Get("Link"))
	}
	return all, nil
}

var linkPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="([^"]+)"`)

// nextLink returns the rel="next" URL of a Link header, if any.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		m := linkPattern.FindStringSubmatch(strings.TrimSpace(part))
		if m != nil && m[2] == "next" {
			return m[1]
		}
	}
	return ""
}
