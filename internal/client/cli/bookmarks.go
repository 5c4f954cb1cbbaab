package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
	"github.com/dmitrijs2005/bookmarkvault/internal/common"
)

// List prints the session's bookmarks in store order: newest first, with a
// deleting marker for records whose removal is in flight.
func (a *App) List(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNoSession
	}

	st := a.session.Store
	if st.Loading() {
		fmt.Println("Loading...")
		return nil
	}

	snapshot := st.Snapshot()
	if len(snapshot) == 0 {
		fmt.Println("No bookmarks yet. Start saving your favorite links with 'add'.")
		return nil
	}

	fmt.Printf("You have %d bookmark%s saved.\n", len(snapshot), plural(len(snapshot)))
	for _, b := range snapshot {
		marker := ""
		if st.IsDeleting(b.ID) {
			marker = "  [deleting...]"
		}
		fmt.Printf("  %s  %-30s %s (%s)%s\n",
			b.ID, truncate(b.Title, 30), models.Domain(b.URL),
			models.FormatTimeAgo(b.CreatedAt, a.now()), marker)
	}
	return nil
}

// Show prints one bookmark in full.
func (a *App) Show(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		return common.ErrNoSession
	}

	for _, b := range a.session.Store.Snapshot() {
		if b.ID != id {
			continue
		}
		fmt.Println(b.Title)
		fmt.Println("  url:     ", b.URL)
		fmt.Println("  favicon: ", models.FaviconURL(b.URL))
		fmt.Println("  saved:   ", models.FormatTimeAgo(b.CreatedAt, a.now()))
		return nil
	}
	return common.ErrorNotFound
}

// Add prompts for a url and title and creates the bookmark. Validation
// failures and service rejections are surfaced as-is; the user's typed
// values are echoed back so they can adjust and retry. On success the
// prompt shows a transient saved indicator.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrNoSession
	}

	rawURL, err := getSimpleText(a.reader, "URL (e.g. https://example.com)", os.Stdout)
	if err != nil {
		return err
	}
	rawTitle, err := getSimpleText(a.reader, "Title (e.g. My favorite site)", os.Stdout)
	if err != nil {
		return err
	}

	rec, err := a.session.Bookmarks().Create(ctx, rawURL, rawTitle)
	if err != nil {
		fmt.Printf("Not saved (url=%q, title=%q): %s\n", rawURL, rawTitle, err.Error())
		return nil
	}

	a.flashSuccess()
	fmt.Printf("Bookmark saved successfully! (id %s)\n", rec.ID)
	return nil
}

// Delete requests removal of one bookmark. The record stays listed with a
// deleting marker until the change feed confirms the delete.
func (a *App) Delete(ctx context.Context, id string) error {
	if !a.isLoggedIn() {
		return common.ErrNoSession
	}

	if err := a.session.Bookmarks().Delete(ctx, id); err != nil {
		fmt.Println("Delete failed:", err.Error())
		return nil
	}
	fmt.Println("Delete requested.")
	return nil
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
