// Package database persists extraction records to sqlite or duckdb,
// chosen by the database file's extension.
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"

	"sdmeta/internal/extract"
	"sdmeta/internal/parser"
)

// Record is one extracted image as stored. The ten canonical labels get
// their own columns; anything else lands in the extra JSON blob.
type Record struct {
	FilePath       string `db:"file_path"`
	Format         string `db:"format"`
	FoundIn        string `db:"found_in"`
	Prompt         string `db:"prompt"`
	NegativePrompt string `db:"negative_prompt"`
	Steps          string `db:"steps"`
	Sampler        string `db:"sampler"`
	CFGScale       string `db:"cfg_scale"`
	Seed           string `db:"seed"`
	Size           string `db:"size"`
	ModelHash      string `db:"model_hash"`
	Model          string `db:"model"`
	Version        string `db:"version"`
	Extra          string `db:"extra"`
	RawText        string `db:"raw_text"`
}

// FromExtract maps an extraction result onto a storable record.
func FromExtract(path string, rec extract.Record) (Record, error) {
	r := Record{
		FilePath: path,
		Format:   rec.Format,
		FoundIn:  string(rec.FoundIn),
		RawText:  rec.RawSnippet,
	}
	extra := make(map[string]string)
	for _, f := range rec.Fields {
		switch f.Label {
		case "Prompt":
			r.Prompt = f.Value
		case "Negative Prompt":
			r.NegativePrompt = f.Value
		case "Steps":
			r.Steps = f.Value
		case "Sampler":
			r.Sampler = f.Value
		case "CFG Scale":
			r.CFGScale = f.Value
		case "Seed":
			r.Seed = f.Value
		case "Size":
			r.Size = f.Value
		case "Model hash":
			r.ModelHash = f.Value
		case "Model":
			r.Model = f.Value
		case "Version":
			r.Version = f.Value
		default:
			extra[f.Label] = f.Value
		}
	}
	if len(extra) > 0 {
		blob, err := json.Marshal(extra)
		if err != nil {
			return Record{}, fmt.Errorf("marshal extra fields: %w", err)
		}
		r.Extra = string(blob)
	}
	return r, nil
}

// Fields rebuilds the display-ordered field list from the stored columns.
// Empty columns are omitted; extra fields follow the canonical ones.
func (r Record) Fields() ([]parser.Field, error) {
	canonical := []parser.Field{
		{Label: "Prompt", Value: r.Prompt},
		{Label: "Negative Prompt", Value: r.NegativePrompt},
		{Label: "Steps", Value: r.Steps},
		{Label: "Sampler", Value: r.Sampler},
		{Label: "CFG Scale", Value: r.CFGScale},
		{Label: "Seed", Value: r.Seed},
		{Label: "Size", Value: r.Size},
		{Label: "Model hash", Value: r.ModelHash},
		{Label: "Model", Value: r.Model},
		{Label: "Version", Value: r.Version},
	}
	fields := make([]parser.Field, 0, len(canonical))
	for _, f := range canonical {
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	if r.Extra != "" {
		extra := make(map[string]string)
		if err := json.Unmarshal([]byte(r.Extra), &extra); err != nil {
			return nil, fmt.Errorf("unmarshal extra fields: %w", err)
		}
		keys := make([]string, 0, len(extra))
		for k := range extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, label := range keys {
			fields = append(fields, parser.Field{Label: label, Value: extra[label]})
		}
	}
	return fields, nil
}

// Store abstracts DB differences (sqlite vs duckdb).
type Store interface {
	ExistingPaths(ctx context.Context) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, batch []Record) error
	GetByPath(ctx context.Context, path string) (Record, error)
	First(ctx context.Context) (Record, error)
	Close() error
}

type baseStore struct {
	db *sqlx.DB
}

// common schema creation for both drivers
func (b *baseStore) ensureSchema() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS extractions (
			file_path       TEXT PRIMARY KEY,
			format          TEXT,
			found_in        TEXT,
			prompt          TEXT,
			negative_prompt TEXT,
			steps           TEXT,
			sampler         TEXT,
			cfg_scale       TEXT,
			seed            TEXT,
			size            TEXT,
			model_hash      TEXT,
			model           TEXT,
			version         TEXT,
			extra           TEXT,
			raw_text        TEXT
		)
	`)
	return err
}

func (b *baseStore) ExistingPaths(ctx context.Context) (map[string]struct{}, error) {
	var paths []string
	if err := b.db.SelectContext(ctx, &paths, "SELECT file_path FROM extractions"); err != nil {
		return nil, err
	}
	existing := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		existing[p] = struct{}{}
	}
	return existing, nil
}

var recordColumns = []string{
	"file_path", "format", "found_in", "prompt", "negative_prompt",
	"steps", "sampler", "cfg_scale", "seed", "size",
	"model_hash", "model", "version", "extra", "raw_text",
}

func buildUpsertStatement(num int) string {
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(recordColumns)), ", ") + ")"
	rows := make([]string, num)
	for i := range rows {
		rows[i] = row
	}
	updates := make([]string, 0, len(recordColumns)-1)
	for _, c := range recordColumns[1:] {
		updates = append(updates, fmt.Sprintf("%s=excluded.%s", c, c))
	}
	return fmt.Sprintf(
		"INSERT INTO extractions (%s) VALUES %s ON CONFLICT(file_path) DO UPDATE SET %s",
		strings.Join(recordColumns, ", "),
		strings.Join(rows, ","),
		strings.Join(updates, ", "),
	)
}

func (b *baseStore) InsertBatch(ctx context.Context, batch []Record) error {
	if len(batch) == 0 {
		return nil
	}
	args := make([]any, 0, len(batch)*len(recordColumns))
	for _, r := range batch {
		args = append(args,
			r.FilePath, r.Format, r.FoundIn, r.Prompt, r.NegativePrompt,
			r.Steps, r.Sampler, r.CFGScale, r.Seed, r.Size,
			r.ModelHash, r.Model, r.Version, r.Extra, r.RawText,
		)
	}
	_, err := b.db.ExecContext(ctx, buildUpsertStatement(len(batch)), args...)
	return err
}

func (b *baseStore) GetByPath(ctx context.Context, path string) (Record, error) {
	var r Record
	err := b.db.GetContext(ctx, &r, "SELECT * FROM extractions WHERE file_path = ?", path)
	if err != nil {
		return Record{}, fmt.Errorf("get record for %s: %w", path, err)
	}
	return r, nil
}

func (b *baseStore) First(ctx context.Context) (Record, error) {
	var r Record
	err := b.db.GetContext(ctx, &r, "SELECT * FROM extractions ORDER BY file_path LIMIT 1")
	if err == sql.ErrNoRows {
		return Record{}, fmt.Errorf("no records stored")
	}
	if err != nil {
		return Record{}, fmt.Errorf("get first record: %w", err)
	}
	return r, nil
}

func (b *baseStore) Close() error {
	return b.db.Close()
}

type sqliteStore struct {
	baseStore
}

type duckdbStore struct {
	baseStore
}

// Open creates or opens the store at dbPath. A .duckdb extension selects
// the duckdb driver; everything else defaults to sqlite.
func Open(dbPath string) (Store, error) {
	ext := strings.ToLower(filepath.Ext(dbPath))
	switch ext {
	case ".duckdb":
		db, err := sqlx.Open("duckdb", dbPath)
		if err != nil {
			return nil, err
		}
		s := &duckdbStore{baseStore{db: db}}
		if err := s.ensureSchema(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	default:
		dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_fk=1", dbPath)
		db, err := sqlx.Open("sqlite3", dsn)
		if err != nil {
			return nil, err
		}
		s := &sqliteStore{baseStore{db: db}}
		if err := s.ensureSchema(); err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	}
}
