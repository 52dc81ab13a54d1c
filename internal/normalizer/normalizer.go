// Package normalizer converts raw upstream items into the canonical
// feedback record the rest of the pipeline works with.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/jess-tech-lab/threader-ai/internal/models"
)

const untitledMaxLen = 80

// Normalize is pure and total: every optional upstream field gets a
// well-defined default, nothing downstream has to re-check for absence.
func Normalize(raw models.RawItem, companyName string, now time.Time) models.FeedbackRecord {
	return models.FeedbackRecord{
		SourceID:     raw.SourceID,
		Source:       raw.Source,
		Title:        defaultTitle(raw),
		Body:         raw.Body,
		Author:       defaultAuthor(raw.Author),
		Upvotes:      raw.Upvotes,
		CommentCount: raw.CommentCount,
		CreatedAt:    raw.CreatedAt,
		Permalink:    defaultPermalink(raw),
		CompanyName:  companyName,
		ScrapedAt:    now.UTC(),
	}
}

// NormalizeAll flattens per-source collection results in source order.
func NormalizeAll(items []models.RawItem, companyName string, now time.Time) []models.FeedbackRecord {
	records := make([]models.FeedbackRecord, 0, len(items))
	for _, item := range items {
		records = append(records, Normalize(item, companyName, now))
	}
	return records
}

func defaultTitle(raw models.RawItem) string {
	title := strings.TrimSpace(raw.Title)
	if title != "" {
		return title
	}

	body := strings.TrimSpace(raw.Body)
	if body == "" {
		return "(untitled)"
	}
	if len(body) > untitledMaxLen {
		return body[:untitledMaxLen]
	}
	return body
}

func defaultAuthor(author string) string {
	if strings.TrimSpace(author) == "" {
		return "[deleted]"
	}
	return author
}

func defaultPermalink(raw models.RawItem) string {
	if raw.Permalink != "" {
		return raw.Permalink
	}
	return fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s", raw.Source, raw.SourceID)
}
