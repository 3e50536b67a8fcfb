package cli

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/sitesaver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSitesCmd(t *testing.T) (SitesCmd, SiteStore) {
	t.Helper()
	store := newLocalStore(t)
	n := 0
	return SitesCmd{
		store: store,
		newID: func() (string, error) {
			n++
			return "site-" + string(rune('a'+n-1)), nil
		},
		owner:   func() string { return "user-1" },
		now:     func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
		confirm: func(string) bool { return true },
	}, store
}

func TestSitesAdd_NormalizesAndStamps(t *testing.T) {
	out := captureOutput(t)
	c, store := newSitesCmd(t)

	err := c.Add(context.Background(), SitesAddInput{Name: "  GitHub ", URL: "github.com", Category: "work"})
	require.NoError(t, err)

	records, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "site-a", records[0].RecordID)
	assert.Equal(t, "https://github.com", records[0].TargetURL)
	assert.Equal(t, domain.CategoryWork, records[0].Category)
	assert.Equal(t, "user-1", records[0].OwnerID)
	assert.Contains(t, out.String(), "Saved GitHub")
}

func TestSitesAdd_InvalidFormPrintsMessages(t *testing.T) {
	out := captureOutput(t)
	c, store := newSitesCmd(t)

	err := c.Add(context.Background(), SitesAddInput{Name: "", URL: "not a url", Category: "Nope"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	assert.Contains(t, out.String(), domain.MsgNameRequired)
	assert.Contains(t, out.String(), domain.MsgURLInvalid)
	assert.Contains(t, out.String(), domain.MsgCategoryRequired)

	records, err := store.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSitesAdd_RejectsUnknownOutput(t *testing.T) {
	c, _ := newSitesCmd(t)
	err := c.Add(context.Background(), SitesAddInput{Name: "a", URL: "a.com", Category: "Work", Output: "yaml"})
	assert.Error(t, err)
}

func TestSitesList(t *testing.T) {
	c, _ := newSitesCmd(t)
	ctx := context.Background()
	captureOutput(t)
	require.NoError(t, c.Add(ctx, SitesAddInput{Name: "GitHub", URL: "github.com", Category: "Work"}))
	require.NoError(t, c.Add(ctx, SitesAddInput{Name: "YouTube", URL: "youtube.com", Category: "Entertainment"}))

	t.Run("table", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, c.List(ctx, SitesListInput{}))
		assert.Contains(t, out.String(), "GitHub")
		assert.Contains(t, out.String(), "YouTube")
	})

	t.Run("filtered json", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, c.List(ctx, SitesListInput{Query: "entertain", Output: "json"}))

		var got []domain.Record
		require.NoError(t, json.Unmarshal(out.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "YouTube", got[0].DisplayName)
	})

	t.Run("no match", func(t *testing.T) {
		out := captureOutput(t)
		require.NoError(t, c.List(ctx, SitesListInput{Query: "zzz"}))
		assert.Contains(t, out.String(), "No saved sites match")
	})
}

func TestSitesFind(t *testing.T) {
	ctx := context.Background()
	out := captureOutput(t)
	c, _ := newSitesCmd(t)
	require.NoError(t, c.Add(ctx, SitesAddInput{Name: "Docs", URL: "go.dev/doc", Category: "Learning"}))
	require.NoError(t, c.Add(ctx, SitesAddInput{Name: "Docsify", URL: "docsify.js.org", Category: "Tools"}))

	require.NoError(t, c.Find(ctx, SitesFindInput{Name: " Docs ", Output: "json"}))
	var found []domain.Record
	require.NoError(t, json.Unmarshal(out.Bytes(), &found))
	require.Len(t, found, 1)
	assert.Equal(t, "https://go.dev/doc", found[0].TargetURL)

	out.Reset()
	require.NoError(t, c.Find(ctx, SitesFindInput{Name: "Doc"}))
	assert.Contains(t, out.String(), `No saved site named "Doc"`)
}

func TestSitesRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes by normalized url", func(t *testing.T) {
		out := captureOutput(t)
		c, store := newSitesCmd(t)
		require.NoError(t, c.Add(ctx, SitesAddInput{Name: "GitHub", URL: "github.com", Category: "Work"}))

		require.NoError(t, c.Remove(ctx, SitesRemoveInput{URL: "github.com"}))
		assert.Contains(t, out.String(), "Deleted GitHub")

		records, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("cancelled keeps the record", func(t *testing.T) {
		out := captureOutput(t)
		c, store := newSitesCmd(t)
		c.confirm = func(string) bool { return false }
		require.NoError(t, c.Add(ctx, SitesAddInput{Name: "GitHub", URL: "github.com", Category: "Work"}))

		require.NoError(t, c.Remove(ctx, SitesRemoveInput{URL: "https://github.com"}))
		assert.Contains(t, out.String(), "Deletion cancelled")

		records, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("not found is reported", func(t *testing.T) {
		out := captureOutput(t)
		c, _ := newSitesCmd(t)
		require.NoError(t, c.Remove(ctx, SitesRemoveInput{URL: "nowhere.com", SkipConfirm: true}))
		assert.Contains(t, out.String(), "No saved site with URL 'https://nowhere.com'")
	})

	t.Run("empty url", func(t *testing.T) {
		c, _ := newSitesCmd(t)
		err := c.Remove(ctx, SitesRemoveInput{URL: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalid)
	})
}

func TestSitesCheck(t *testing.T) {
	ctx := context.Background()
	out := captureOutput(t)
	c, _ := newSitesCmd(t)
	require.NoError(t, c.Add(ctx, SitesAddInput{Name: "Up", URL: "up.example.com", Category: "Work"}))
	require.NoError(t, c.Add(ctx, SitesAddInput{Name: "Down", URL: "down.example.com", Category: "Work"}))

	var gotTimeout time.Duration
	c.probe = func(_ context.Context, records []domain.Record, timeout time.Duration) []domain.Reachability {
		gotTimeout = timeout
		res := make([]domain.Reachability, 0, len(records))
		for _, r := range records {
			var err error
			if r.DisplayName == "Down" {
				err = errors.New("connection refused")
			}
			res = append(res, domain.Reachability{Record: r, Err: err})
		}
		return res
	}

	require.NoError(t, c.Check(ctx, SitesCheckInput{Timeout: 3 * time.Second}))
	assert.Equal(t, 3*time.Second, gotTimeout)
	assert.Contains(t, out.String(), "unreachable: connection refused")
	assert.Contains(t, out.String(), "1 of 2 sites unreachable")
}
