package tools

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"

// validateURL checks that url is http(s) with a valid domain.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

// WebFetchCapability fetches a web page and extracts its readable text.
type WebFetchCapability struct {
	maxChars   int
	httpClient *http.Client
}

// NewWebFetchCapability creates a WebFetchCapability. maxChars caps
// the extracted text; 0 means the 20000-char default.
func NewWebFetchCapability(maxChars int) *WebFetchCapability {
	if maxChars <= 0 {
		maxChars = 20000
	}
	return &WebFetchCapability{
		maxChars:   maxChars,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *WebFetchCapability) Name() string { return "web_fetch" }

func (c *WebFetchCapability) Description() string {
	return "Fetch a web page and return its readable text content."
}

func (c *WebFetchCapability) Execute(ctx context.Context, args map[string]any) (string, error) {
	rawURL, ok := stringArg(args, "url")
	if !ok {
		return "Error: url is required", nil
	}
	if err := validateURL(rawURL); err != nil {
		return fmt.Sprintf("Error: invalid URL: %v", err), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), nil
	}
	req.Header.Set("User-Agent", webUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,*/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error fetching %s: %v", rawURL, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Error: %s returned HTTP %d", rawURL, resp.StatusCode), nil
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return fmt.Sprintf("Error reading %s: %v", rawURL, err), nil
	}

	var text string
	ctype := resp.Header.Get("Content-Type")
	if strings.Contains(ctype, "text/html") || isHTMLPrefix(bodyBytes) {
		parsedURL, _ := url.Parse(rawURL)
		article, err := readability.FromReader(bytes.NewReader(bodyBytes), parsedURL)
		if err == nil {
			text = stripHTMLTags(article.Content)
			if article.Title != "" {
				text = article.Title + "\n\n" + text
			}
		} else {
			// Fallback: just strip tags
			text = stripHTMLTags(string(bodyBytes))
		}
	} else {
		text = string(bodyBytes)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Sprintf("Fetched %s but no readable text was found.", rawURL), nil
	}
	if len(text) > c.maxChars {
		text = text[:c.maxChars] + "\n[truncated]"
	}
	return text, nil
}

func isHTMLPrefix(b []byte) bool {
	head := strings.ToLower(string(b[:min(len(b), 256)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

var (
	tagRe   = regexp.MustCompile(`<[^>]*>`)
	blankRe = regexp.MustCompile(`\n{3,}`)
)

// stripHTMLTags removes markup and collapses blank runs.
func stripHTMLTags(s string) string {
	s = tagRe.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	return blankRe.ReplaceAllString(s, "\n\n")
}
