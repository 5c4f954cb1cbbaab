// Package models defines the bookmark record and its input validation.
package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/common"
)

// Bookmark is a single saved link. ID and CreatedAt are assigned by the
// persistence layer; ID is the sole identity key used for deduplication.
type Bookmark struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

// NormalizeInput validates raw url/title strings and returns the normalized
// pair to persist. Rules, applied before any network effect:
//
//   - both fields are trimmed of surrounding whitespace;
//   - an empty url is rejected;
//   - a url without an "http" prefix gets "https://" prepended;
//   - the result must parse as an absolute http or https URL;
//   - an empty title is rejected.
func NormalizeInput(rawURL, rawTitle string) (normalizedURL string, title string, err error) {
	trimmedURL := strings.TrimSpace(rawURL)
	title = strings.TrimSpace(rawTitle)

	if trimmedURL == "" {
		return "", "", common.ErrEmptyURL
	}

	finalURL := trimmedURL
	if !strings.HasPrefix(trimmedURL, "http") {
		finalURL = "https://" + trimmedURL
	}

	parsed, parseErr := url.Parse(finalURL)
	if parseErr != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", "", common.ErrInvalidURL
	}

	if title == "" {
		return "", "", common.ErrEmptyTitle
	}

	return finalURL, title, nil
}

// Domain returns the bookmark's hostname with a leading "www." stripped,
// falling back to the raw URL when it does not parse.
func Domain(bookmarkURL string) string {
	parsed, err := url.Parse(bookmarkURL)
	if err != nil || parsed.Host == "" {
		return bookmarkURL
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}

// FaviconURL returns a lookup URL for the site's favicon, or "" when the
// bookmark URL does not parse.
func FaviconURL(bookmarkURL string) string {
	parsed, err := url.Parse(bookmarkURL)
	if err != nil || parsed.Host == "" {
		return ""
	}
	origin := parsed.Scheme + "://" + parsed.Host
	return fmt.Sprintf("https://www.google.com/s2/favicons?domain=%s&sz=32", origin)
}

// FormatTimeAgo renders a creation timestamp relative to now:
// "Just now", "Nm ago", "Nh ago", "Nd ago", then a short date.
func FormatTimeAgo(t, now time.Time) string {
	diff := now.Sub(t)

	minutes := int(diff.Minutes())
	hours := int(diff.Hours())
	days := int(diff.Hours() / 24)

	switch {
	case minutes < 1:
		return "Just now"
	case minutes < 60:
		return fmt.Sprintf("%dm ago", minutes)
	case hours < 24:
		return fmt.Sprintf("%dh ago", hours)
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 2")
	}
}
