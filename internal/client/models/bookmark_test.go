package models

import (
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/common"
	"github.com/stretchr/testify/require"
)

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name      string
		rawURL    string
		rawTitle  string
		wantURL   string
		wantTitle string
		wantErr   error
	}{
		{
			name:      "scheme auto-prepended",
			rawURL:    "example.com",
			rawTitle:  "Example",
			wantURL:   "https://example.com",
			wantTitle: "Example",
		},
		{
			name:      "existing scheme kept",
			rawURL:    "http://example.com/a",
			rawTitle:  "Example",
			wantURL:   "http://example.com/a",
			wantTitle: "Example",
		},
		{
			name:      "surrounding whitespace trimmed",
			rawURL:    "  https://go.dev  ",
			rawTitle:  "  Go  ",
			wantURL:   "https://go.dev",
			wantTitle: "Go",
		},
		{
			name:     "empty url",
			rawURL:   "   ",
			rawTitle: "Example",
			wantErr:  common.ErrEmptyURL,
		},
		{
			name:     "unparseable url",
			rawURL:   "not a url",
			rawTitle: "Example",
			wantErr:  common.ErrInvalidURL,
		},
		{
			name:     "non-http scheme",
			rawURL:   "httpx://example.com",
			rawTitle: "Example",
			wantErr:  common.ErrInvalidURL,
		},
		{
			name:     "empty title",
			rawURL:   "example.com",
			rawTitle: "   ",
			wantErr:  common.ErrEmptyTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotURL, gotTitle, err := NormalizeInput(tt.rawURL, tt.rawTitle)
			if tt.wantErr != nil {
				require.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantURL, gotURL)
			require.Equal(t, tt.wantTitle, gotTitle)
		})
	}
}

func TestDomain(t *testing.T) {
	require.Equal(t, "go.dev", Domain("https://www.go.dev/blog"))
	require.Equal(t, "example.com", Domain("http://example.com"))
	require.Equal(t, "::broken::", Domain("::broken::"))
}

func TestFaviconURL(t *testing.T) {
	require.Equal(t,
		"https://www.google.com/s2/favicons?domain=https://example.com&sz=32",
		FaviconURL("https://example.com/some/page"))
	require.Equal(t, "", FaviconURL("::broken::"))
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "just now", at: now.Add(-30 * time.Second), want: "Just now"},
		{name: "minutes", at: now.Add(-5 * time.Minute), want: "5m ago"},
		{name: "hours", at: now.Add(-3 * time.Hour), want: "3h ago"},
		{name: "days", at: now.Add(-48 * time.Hour), want: "2d ago"},
		{name: "older than a week", at: now.Add(-10 * 24 * time.Hour), want: "Aug 18"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatTimeAgo(tt.at, now))
		})
	}
}
