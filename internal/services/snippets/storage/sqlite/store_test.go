package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	sqlitemigrate "github.com/scantist-ossops-m2/wagtail/internal/platform/storage/sqlitemigrate"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
)

const testSchema = `-- +migrate Up
CREATE TABLE tests_advert (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    updated_at TEXT NOT NULL,
    url TEXT NOT NULL DEFAULT '',
    text TEXT NOT NULL DEFAULT ''
);

CREATE TABLE tests_draftsnippet (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    updated_at TEXT NOT NULL,
    latest_revision_id INTEGER,
    text TEXT NOT NULL DEFAULT '',
    country_code TEXT NOT NULL DEFAULT '',
    advert INTEGER REFERENCES tests_advert (id) ON DELETE SET NULL,
    live INTEGER NOT NULL DEFAULT 0,
    has_unpublished_changes INTEGER NOT NULL DEFAULT 0,
    first_published_at TEXT,
    last_published_at TEXT,
    locale TEXT NOT NULL DEFAULT 'en',
    translation_key TEXT NOT NULL UNIQUE
);
`

func advertModel() model.Model {
	return model.Model{
		AppLabel:     "tests",
		ModelName:    "advert",
		TitleField:   "text",
		SearchFields: []string{"text"},
		Fields: []model.Field{
			{Name: "url", Type: model.FieldURL},
			{Name: "text", Type: model.FieldText},
		},
	}
}

func draftModel() model.Model {
	return model.Model{
		AppLabel:     "tests",
		ModelName:    "draftsnippet",
		TitleField:   "text",
		DraftState:   true,
		Revisions:    true,
		Workflow:     true,
		Translatable: true,
		Fields: []model.Field{
			{Name: "text", Type: model.FieldText},
			{Name: "country_code", Type: model.FieldChoice, Choices: []model.Choice{{Value: "ID", Label: "Indonesia"}, {Value: "UK", Label: "United Kingdom"}}},
			{Name: "advert", Type: model.FieldForeignKey, Target: "tests.advert"},
		},
	}
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func openTempStore(t *testing.T) (*Store, *stepClock) {
	t.Helper()
	clock := &stepClock{now: time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)}
	source := sqlitemigrate.Source{FS: fstest.MapFS{"tests_001.sql": {Data: []byte(testSchema)}}}
	store, err := Open(filepath.Join(t.TempDir(), "snippets.db"), []sqlitemigrate.Source{source}, WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, clock
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open("", nil); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestCreateGetListRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTempStore(t)
	m := advertModel()

	first, err := store.Create(ctx, m, map[string]any{"url": "https://a.example", "text": "First advert"}, storage.SaveOptions{})
	require.NoError(t, err)
	_, err = store.Create(ctx, m, map[string]any{"url": "https://b.example", "text": "Second advert"}, storage.SaveOptions{})
	require.NoError(t, err)

	got, err := store.Get(ctx, m, first.PK)
	require.NoError(t, err)
	require.Equal(t, "First advert", got.Text("text"))
	require.False(t, got.UpdatedAt.IsZero())

	records, err := store.List(ctx, m, storage.Query{OrderBy: listing.Ordering{Key: "text"}})
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "First advert", records[0].Text("text"))

	records, err = store.List(ctx, m, storage.Query{OrderBy: listing.Ordering{Key: listing.UpdatedKey, Desc: true}, Limit: 1, Offset: 0})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Second advert", records[0].Text("text"))

	_, err = store.Get(ctx, m, 999)
	require.True(t, errors.Is(err, storage.ErrNotFound))
	require.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}

func TestCountFilterAndSearch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTempStore(t)
	m := draftModel()

	for _, v := range []map[string]any{
		{"text": "Nasi goreng from Indonesia", "country_code": "ID"},
		{"text": "Fish and chips from the UK", "country_code": "UK"},
	} {
		_, err := store.Create(ctx, m, v, storage.SaveOptions{})
		require.NoError(t, err)
	}
	byCountry := filters.SQLCondition{Clause: `"country_code" = ?`, Params: []any{"ID"}}

	tests := []struct {
		name string
		q    storage.Query
		want int
	}{
		{name: "all", q: storage.Query{}, want: 2},
		{name: "filter", q: storage.Query{Where: byCountry}, want: 1},
		{name: "search", q: storage.Query{Search: "CHIPS"}, want: 1},
		{name: "filter and search", q: storage.Query{Where: byCountry, Search: "chips"}, want: 0},
	}
	for _, tc := range tests {
		count, err := store.Count(ctx, m, tc.q)
		require.NoError(t, err, tc.name)
		require.Equal(t, tc.want, count, tc.name)
		records, err := store.List(ctx, m, tc.q)
		require.NoError(t, err, tc.name)
		require.Len(t, records, tc.want, tc.name)
	}
}

func TestDraftPublishingLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTempStore(t)
	m := draftModel()

	draft, err := store.Create(ctx, m, map[string]any{"text": "Draft", "country_code": "ID"}, storage.SaveOptions{UserID: "ada"})
	require.NoError(t, err)
	require.False(t, draft.Live())
	require.True(t, draft.Bool("has_unpublished_changes"))
	require.NotZero(t, draft.LatestRevisionID)
	require.Equal(t, DefaultLocale, draft.Text("locale"))
	require.NotEmpty(t, draft.Text("translation_key"))

	live, err := store.Update(ctx, m, draft.PK, map[string]any{"text": "Live", "country_code": "UK"}, storage.SaveOptions{Publish: true})
	require.NoError(t, err)
	require.True(t, live.Live())
	require.False(t, live.Bool("has_unpublished_changes"))
	firstPublished, ok := live.Time("first_published_at")
	require.True(t, ok)

	again, err := store.Update(ctx, m, draft.PK, map[string]any{"text": "Live again"}, storage.SaveOptions{Publish: true})
	require.NoError(t, err)
	stillFirst, _ := again.Time("first_published_at")
	require.Equal(t, firstPublished, stillFirst)

	revisions, err := store.Revisions(ctx, m, draft.PK)
	require.NoError(t, err)
	require.Len(t, revisions, 3)
	require.Equal(t, "Live again", revisions[0].Content["text"])
	require.Equal(t, "ada", revisions[2].UserID)

	require.NoError(t, store.Unpublish(ctx, m, draft.PK))
	offline, err := store.Get(ctx, m, draft.PK)
	require.NoError(t, err)
	require.False(t, offline.Live())

	require.True(t, errors.Is(store.Unpublish(ctx, advertModel(), 1), storage.ErrNotPublishable))
}

func TestScheduledPublishing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock := openTempStore(t)
	m := draftModel()

	goLive := clock.now.Add(time.Hour)
	rec, err := store.Create(ctx, m, map[string]any{"text": "Later"}, storage.SaveOptions{Publish: true, GoLiveAt: goLive})
	require.NoError(t, err)
	require.False(t, rec.Live())

	rev, err := store.Revision(ctx, m, rec.PK, rec.LatestRevisionID)
	require.NoError(t, err)
	require.True(t, rev.Scheduled())
	require.True(t, rev.ApprovedGoLiveAt.Equal(goLive))

	n, err := store.PublishScheduled(ctx, m, goLive.Add(-time.Minute))
	require.NoError(t, err)
	require.Zero(t, n)

	n, err = store.PublishScheduled(ctx, m, goLive)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	published, err := store.Get(ctx, m, rec.PK)
	require.NoError(t, err)
	require.True(t, published.Live())

	err = store.Unschedule(ctx, m, rec.PK, rec.LatestRevisionID)
	require.True(t, errors.Is(err, storage.ErrNotScheduled))
}

func TestUnschedule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, clock := openTempStore(t)
	m := draftModel()

	rec, err := store.Create(ctx, m, map[string]any{"text": "Later"}, storage.SaveOptions{Publish: true, GoLiveAt: clock.now.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.NoError(t, store.Unschedule(ctx, m, rec.PK, rec.LatestRevisionID))

	rev, err := store.Revision(ctx, m, rec.PK, rec.LatestRevisionID)
	require.NoError(t, err)
	require.False(t, rev.Scheduled())

	_, err = store.Revision(ctx, m, rec.PK, 999)
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestReferencesAndDelete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTempStore(t)
	adverts, drafts := advertModel(), draftModel()

	ad, err := store.Create(ctx, adverts, map[string]any{"text": "Shared"}, storage.SaveOptions{})
	require.NoError(t, err)
	user, err := store.Create(ctx, drafts, map[string]any{"text": "Uses advert", "advert": ad.PK}, storage.SaveOptions{})
	require.NoError(t, err)
	require.Equal(t, ad.PK, user.Ref("advert"))

	refs, err := store.References(ctx, adverts, ad.PK, []model.Model{adverts, drafts})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "advert", refs[0].Field.Name)
	require.Equal(t, user.PK, refs[0].Record.PK)

	require.NoError(t, store.Delete(ctx, drafts, user.PK))
	revisions, err := store.Revisions(ctx, drafts, user.PK)
	require.NoError(t, err)
	require.Empty(t, revisions)
	require.True(t, errors.Is(store.Delete(ctx, drafts, user.PK), storage.ErrNotFound))
}

func TestWorkflowStates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store, _ := openTempStore(t)
	m := draftModel()

	rec, err := store.Create(ctx, m, map[string]any{"text": "Moderate me"}, storage.SaveOptions{})
	require.NoError(t, err)

	first, err := store.StartWorkflow(ctx, m, rec.PK, "Moderators approval", "ada")
	require.NoError(t, err)
	require.Equal(t, storage.WorkflowInProgress, first.Status)
	require.Equal(t, rec.LatestRevisionID, first.RevisionID)

	second, err := store.StartWorkflow(ctx, m, rec.PK, "Moderators approval", "ada")
	require.NoError(t, err)

	states, err := store.WorkflowStates(ctx, m, rec.PK)
	require.NoError(t, err)
	require.Len(t, states, 2)
	require.Equal(t, second.ID, states[0].ID)
	require.Equal(t, storage.WorkflowCancelled, states[1].Status)

	_, err = store.WorkflowState(ctx, m, rec.PK, 999)
	require.True(t, errors.Is(err, storage.ErrNotFound))

	_, err = store.StartWorkflow(ctx, advertModel(), 1, "Moderators approval", "ada")
	require.Equal(t, apperrors.CodeNotPublishable, apperrors.CodeOf(err))
}
