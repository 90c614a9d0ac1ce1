package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"quotewatch/internal/prefs"
)

func TestAppCloseReleasesPrefsStore(t *testing.T) {
	store, err := prefs.NewStore(filepath.Join(t.TempDir(), "prefs.db"))
	if err != nil {
		t.Fatal(err)
	}
	app := &App{Logger: zerolog.Nop(), Prefs: store}

	app.Close()

	if app.Prefs != nil {
		t.Fatal("Close must drop the store reference")
	}
	if _, err := store.GetSelection(context.Background(), "u1"); err == nil ||
		errors.Is(err, prefs.ErrNoSelection) {
		t.Fatalf("closed store still serving queries: %v", err)
	}

	// Closing again, or with no store at all, is a no-op.
	app.Close()
	(&App{Logger: zerolog.Nop()}).Close()
}
