package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ryosukesatoh/note-digest/internal/retry"
	"github.com/ryosukesatoh/note-digest/internal/summarizer"
)

type discordEmbedFooter struct {
	Text string `json:"text"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Footer      *discordEmbedFooter `json:"footer,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordWebhookPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

// DiscordPublisher publishes digests to a Discord channel via webhook.
type DiscordPublisher struct {
	webhookURL  string
	client      *http.Client
	retryConfig retry.Config
}

// NewDiscordPublisher creates a new DiscordPublisher.
func NewDiscordPublisher(webhookURL string) *DiscordPublisher {
	return &DiscordPublisher{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		retryConfig: retry.Config{
			MaxRetries: 3,
			BaseDelay:  1 * time.Second,
		},
	}
}

// Publish sends the digest to Discord as a series of rich embeds.
func (d *DiscordPublisher) Publish(ctx context.Context, digest *summarizer.Digest) error {
	batches := batchEmbeds(d.buildEmbeds(digest))

	for i, batch := range batches {
		err := retry.WithBackoff(ctx, d.retryConfig, func(ctx context.Context) error {
			return d.sendWebhook(ctx, batch)
		})
		if err != nil {
			return fmt.Errorf("discord: failed to send batch %d: %w", i+1, err)
		}

		// Delay between batches to avoid rate limits.
		if i < len(batches)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(500 * time.Millisecond):
			}
		}
	}
	return nil
}

// buildEmbeds creates a header embed and one embed per summarized page.
func (d *DiscordPublisher) buildEmbeds(digest *summarizer.Digest) []discordEmbed {
	embeds := make([]discordEmbed, 0, len(digest.Summaries)+1)

	embeds = append(embeds, discordEmbed{
		Title:     truncate(digest.Subject(), 256),
		Color:     0x7719AA, // OneNote purple
		Timestamp: digest.Date.Format(time.RFC3339),
	})

	for i, s := range digest.Summaries {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		e := discordEmbed{
			Title:       truncate(fmt.Sprintf("%d. %s", i+1, title), 256),
			Description: truncate(s.Text, 4096),
			Color:       0x7719AA,
		}
		if !s.LastModified.IsZero() {
			e.Footer = &discordEmbedFooter{Text: "Modified " + s.LastModified.UTC().Format("2006-01-02 15:04 UTC")}
		}
		embeds = append(embeds, e)
	}

	return embeds
}

// batchEmbeds splits embeds into batches respecting Discord limits:
// max 10 embeds per message, max 6000 total characters per message.
func batchEmbeds(embeds []discordEmbed) [][]discordEmbed {
	var batches [][]discordEmbed
	var current []discordEmbed
	currentChars := 0

	for _, e := range embeds {
		ec := embedCharCount(e)

		if len(current) > 0 && (len(current) >= 10 || currentChars+ec > 6000) {
			batches = append(batches, current)
			current = nil
			currentChars = 0
		}

		current = append(current, e)
		currentChars += ec
	}

	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches
}

// sendWebhook posts a batch of embeds to the Discord webhook.
func (d *DiscordPublisher) sendWebhook(ctx context.Context, embeds []discordEmbed) error {
	payload := discordWebhookPayload{Embeds: embeds}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &retry.StatusError{Code: resp.StatusCode}
	}

	return nil
}

// truncate shortens s to max characters, preferring a sentence boundary.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := strings.ToValidUTF8(s[:max-1], "")
	// Try to cut at a sentence boundary.
	if idx := strings.LastIndexAny(cut, ".!?"); idx > max/2 {
		return cut[:idx+1]
	}
	return cut + "\u2026"
}

// embedCharCount returns the total character count of an embed for batching purposes.
func embedCharCount(e discordEmbed) int {
	n := len(e.Title) + len(e.Description)
	if e.Footer != nil {
		n += len(e.Footer.Text)
	}
	return n
}
