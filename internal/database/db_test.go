package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"sdmeta/internal/database"
	"sdmeta/internal/extract"
	"sdmeta/internal/locator"
	"sdmeta/internal/parser"

	_ "github.com/mattn/go-sqlite3"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) database.Store {
	t.Helper()
	store, err := database.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(path string) database.Record {
	return database.Record{
		FilePath: path,
		Format:   "PNG",
		FoundIn:  "EmbeddedInfo",
		Prompt:   "a cat",
		Steps:    "20",
		Seed:     "5",
		RawText:  "Prompt: a cat\nSteps: 20\nSeed: 5",
	}
}

func TestFromExtract(t *testing.T) {
	rec := extract.Record{
		Format:  "PNG",
		FoundIn: locator.SourceEmbeddedInfo,
		Fields: []parser.Field{
			{Label: "Prompt", Value: "a cat"},
			{Label: "Negative Prompt", Value: "blurry"},
			{Label: "CFG Scale", Value: "7"},
			{Label: "Model hash", Value: "abc123"},
			{Label: "Foo", Value: "bar"},
		},
		RawSnippet: "raw text",
	}

	stored, err := database.FromExtract("/images/cat.png", rec)
	require.NoError(t, err)

	require.Equal(t, "/images/cat.png", stored.FilePath)
	require.Equal(t, "PNG", stored.Format)
	require.Equal(t, "EmbeddedInfo", stored.FoundIn)
	require.Equal(t, "a cat", stored.Prompt)
	require.Equal(t, "blurry", stored.NegativePrompt)
	require.Equal(t, "7", stored.CFGScale)
	require.Equal(t, "abc123", stored.ModelHash)
	require.JSONEq(t, `{"Foo":"bar"}`, stored.Extra)
	require.Equal(t, "raw text", stored.RawText)
}

func TestRecordFields(t *testing.T) {
	r := sampleRecord("/images/cat.png")
	r.Extra = `{"Foo":"bar"}`

	fields, err := r.Fields()
	require.NoError(t, err)
	require.Equal(t, []parser.Field{
		{Label: "Prompt", Value: "a cat"},
		{Label: "Steps", Value: "20"},
		{Label: "Seed", Value: "5"},
		{Label: "Foo", Value: "bar"},
	}, fields)
}

func TestInsertAndGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	batch := []database.Record{
		sampleRecord("/images/a.png"),
		sampleRecord("/images/b.png"),
	}
	require.NoError(t, store.InsertBatch(ctx, batch))

	got, err := store.GetByPath(ctx, "/images/a.png")
	require.NoError(t, err)
	require.Equal(t, batch[0], got)

	first, err := store.First(ctx)
	require.NoError(t, err)
	require.Equal(t, "/images/a.png", first.FilePath)
}

func TestInsertBatchUpserts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("/images/a.png")
	require.NoError(t, store.InsertBatch(ctx, []database.Record{rec}))

	rec.Steps = "40"
	require.NoError(t, store.InsertBatch(ctx, []database.Record{rec}))

	got, err := store.GetByPath(ctx, "/images/a.png")
	require.NoError(t, err)
	require.Equal(t, "40", got.Steps)

	existing, err := store.ExistingPaths(ctx)
	require.NoError(t, err)
	require.Len(t, existing, 1)
}

func TestExistingPaths(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	existing, err := store.ExistingPaths(ctx)
	require.NoError(t, err)
	require.Empty(t, existing)

	require.NoError(t, store.InsertBatch(ctx, []database.Record{sampleRecord("/images/a.png")}))

	existing, err = store.ExistingPaths(ctx)
	require.NoError(t, err)
	require.Contains(t, existing, "/images/a.png")
}

func TestInsertBatchEmpty(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.InsertBatch(context.Background(), nil))
}
