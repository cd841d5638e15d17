package poller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Microsoft Graph OneNote page list response.

type graphPageList struct {
	Value []graphPage `json:"value"`
}

type graphPage struct {
	ID                   string    `json:"id"`
	Title                string    `json:"title"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
	ContentURL           string    `json:"contentUrl"`
}

type graphErrorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// OneNotePoller lists recently modified OneNote pages through Microsoft Graph.
// The client must attach a bearer token (see auth.ClientCredentials).
type OneNotePoller struct {
	client         *http.Client
	baseURL        string
	user           string
	top            int
	modifiedWithin time.Duration
	now            func() time.Time
}

// NewOneNotePoller creates a poller for user's pages. user "me" addresses the
// signed-in principal; anything else is used as a Graph user id or UPN.
// modifiedWithin limits the listing to pages changed within that window; zero
// returns whatever the API reports as most recently modified.
func NewOneNotePoller(client *http.Client, baseURL, user string, top int, modifiedWithin time.Duration) *OneNotePoller {
	return &OneNotePoller{
		client:         client,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		user:           user,
		top:            top,
		modifiedWithin: modifiedWithin,
		now:            time.Now,
	}
}

func (p *OneNotePoller) pagesURL() string {
	var prefix string
	if p.user == "" || p.user == "me" {
		prefix = "/me"
	} else {
		prefix = "/users/" + url.PathEscape(p.user)
	}

	query := url.Values{}
	query.Set("$select", "id,title,lastModifiedDateTime,contentUrl")
	query.Set("$orderby", "lastModifiedDateTime desc")
	if p.top > 0 {
		query.Set("$top", strconv.Itoa(p.top))
	}
	if p.modifiedWithin > 0 {
		since := p.now().Add(-p.modifiedWithin).UTC().Format(time.RFC3339)
		query.Set("$filter", "lastModifiedDateTime ge "+since)
	}
	return fmt.Sprintf("%s%s/onenote/pages?%s", p.baseURL, prefix, query.Encode())
}

func (p *OneNotePoller) ListChanges(ctx context.Context) ([]Change, error) {
	body, err := p.get(ctx, p.pagesURL())
	if err != nil {
		return nil, err
	}

	var list graphPageList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("onenote: failed to parse page list: %w", err)
	}

	changes := make([]Change, 0, len(list.Value))
	for _, pg := range list.Value {
		changes = append(changes, Change{
			ID:           pg.ID,
			Title:        strings.TrimSpace(pg.Title),
			LastModified: pg.LastModifiedDateTime,
			ContentURL:   pg.ContentURL,
		})
	}
	return changes, nil
}

// Content fetches the page HTML and reduces it to readable text.
func (p *OneNotePoller) Content(ctx context.Context, c Change) (string, error) {
	if c.ContentURL == "" {
		return "", fmt.Errorf("onenote: page %s has no content url", c.ID)
	}
	body, err := p.get(ctx, c.ContentURL)
	if err != nil {
		return "", err
	}

	pageURL, err := url.Parse(c.ContentURL)
	if err != nil {
		return "", fmt.Errorf("onenote: invalid content url: %w", err)
	}
	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return "", fmt.Errorf("onenote: failed to extract text from %s: %w", c.ID, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return c.Title, nil
	}
	return text, nil
}

func (p *OneNotePoller) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("onenote: failed to create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("onenote: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("onenote: failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var ge graphErrorBody
		if json.Unmarshal(body, &ge) == nil && ge.Error.Message != "" {
			return nil, fmt.Errorf("onenote: unexpected status %d: %s: %s", resp.StatusCode, ge.Error.Code, ge.Error.Message)
		}
		return nil, fmt.Errorf("onenote: unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
