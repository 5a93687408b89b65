// Package sqlite provides the SQLite-backed snippets store.
//
// Model tables are created by application migrations. Each table has an
// integer "id" primary key, an "updated_at" timestamp, a nullable
// "latest_revision_id" for revisioned models and one column per declared
// and system field. Timestamps are stored as model.TimeFormat text.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	sqlitemigrate "github.com/scantist-ossops-m2/wagtail/internal/platform/storage/sqlitemigrate"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DefaultLocale is assigned to translatable records created without one.
const DefaultLocale = "en"

// Store persists snippets in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open opens a SQLite snippets store, applies the core migrations and then
// the application migrations in order.
func Open(path string, appMigrations []sqlitemigrate.Source, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	sources := append([]sqlitemigrate.Source{{FS: migrations.FS}}, appMigrations...)
	if err := sqlitemigrate.ApplyMigrations(context.Background(), sqlDB, sources...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	s := &Store{sqlDB: sqlDB, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func quote(name string) string {
	return `"` + name + `"`
}

// selectColumns lists the columns read for every record of m.
func selectColumns(m model.Model) []string {
	cols := []string{"id", "updated_at"}
	if m.Revisions {
		cols = append(cols, "latest_revision_id")
	}
	for _, f := range m.AllFields() {
		cols = append(cols, f.Name)
	}
	for i := range cols {
		cols[i] = quote(cols[i])
	}
	return cols
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(m model.Model, row rowScanner) (model.Record, error) {
	fields := m.AllFields()
	var (
		pk        int64
		updatedAt string
		latest    sql.NullInt64
	)
	dest := []any{&pk, &updatedAt}
	if m.Revisions {
		dest = append(dest, &latest)
	}
	holders := make([]any, len(fields))
	for i, f := range fields {
		switch f.Type {
		case model.FieldBool, model.FieldForeignKey:
			holders[i] = &sql.NullInt64{}
		default:
			holders[i] = &sql.NullString{}
		}
	}
	dest = append(dest, holders...)
	if err := row.Scan(dest...); err != nil {
		return model.Record{}, err
	}

	rec := model.Record{PK: pk, Values: make(map[string]any, len(fields)), LatestRevisionID: latest.Int64}
	if t, err := model.ParseTime(updatedAt); err == nil {
		rec.UpdatedAt = t
	}
	for i, f := range fields {
		switch h := holders[i].(type) {
		case *sql.NullInt64:
			if f.Type == model.FieldBool {
				rec.Values[f.Name] = h.Valid && h.Int64 != 0
			} else if h.Valid {
				rec.Values[f.Name] = h.Int64
			}
		case *sql.NullString:
			if !h.Valid {
				if f.Type != model.FieldDateTime {
					rec.Values[f.Name] = ""
				}
				continue
			}
			if f.Type == model.FieldDateTime {
				t, err := model.ParseTime(h.String)
				if err != nil {
					return model.Record{}, fmt.Errorf("decode %s.%s: %w", m.Label(), f.Name, err)
				}
				rec.Values[f.Name] = t
				continue
			}
			rec.Values[f.Name] = h.String
		}
	}
	return rec, nil
}

// encodeValue converts a record value to its column representation.
func encodeValue(f model.Field, v any) any {
	switch f.Type {
	case model.FieldDateTime:
		if t, ok := v.(time.Time); ok && !t.IsZero() {
			return model.FormatTime(t)
		}
		return nil
	case model.FieldBool:
		if b, _ := v.(bool); b {
			return 1
		}
		return 0
	case model.FieldForeignKey:
		if pk, ok := v.(int64); ok && pk > 0 {
			return pk
		}
		return nil
	default:
		s, _ := v.(string)
		return s
	}
}

// where combines the filter condition with the search term.
func where(m model.Model, q storage.Query) filters.SQLCondition {
	cond := q.Where
	term := strings.TrimSpace(q.Search)
	if term == "" {
		return cond
	}
	searchFields := m.SearchFields
	if len(searchFields) == 0 && m.TitleField != "" {
		searchFields = []string{m.TitleField}
	}
	if len(searchFields) == 0 {
		return cond
	}
	parts := make([]string, 0, len(searchFields))
	params := make([]any, 0, len(searchFields))
	for _, name := range searchFields {
		parts = append(parts, fmt.Sprintf("instr(lower(%s), lower(?)) > 0", quote(name)))
		params = append(params, term)
	}
	search := filters.SQLCondition{Clause: "(" + strings.Join(parts, " OR ") + ")", Params: params}
	return filters.And(cond, search)
}

func orderClause(m model.Model, o listing.Ordering) string {
	key := o.Key
	if key != listing.UpdatedKey {
		if _, ok := m.Field(key); !ok {
			key, o.Desc = listing.UpdatedKey, true
		}
	}
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, \"id\" %s", quote(key), dir, dir)
}

// Count returns the number of records matching q.
func (s *Store) Count(ctx context.Context, m model.Model, q storage.Query) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	query := "SELECT COUNT(*) FROM " + quote(m.TableName())
	cond := where(m, q)
	if cond.Clause != "" {
		query += " WHERE " + cond.Clause
	}
	var count int
	if err := s.sqlDB.QueryRowContext(ctx, query, cond.Params...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count %s: %w", m.Label(), err)
	}
	return count, nil
}

// List returns records matching q in the requested order.
func (s *Store) List(ctx context.Context, m model.Model, q storage.Query) ([]model.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := "SELECT " + strings.Join(selectColumns(m), ", ") + " FROM " + quote(m.TableName())
	cond := where(m, q)
	params := append([]any(nil), cond.Params...)
	if cond.Clause != "" {
		query += " WHERE " + cond.Clause
	}
	query += orderClause(m, q.OrderBy)
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		params = append(params, q.Limit, q.Offset)
	}
	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", m.Label(), err)
	}
	defer rows.Close()

	var out []model.Record
	for rows.Next() {
		rec, err := scanRecord(m, rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", m.Label(), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", m.Label(), err)
	}
	return out, nil
}

// Get returns one record by primary key.
func (s *Store) Get(ctx context.Context, m model.Model, pk int64) (model.Record, error) {
	if err := s.ready(ctx); err != nil {
		return model.Record{}, err
	}
	return getRecord(ctx, s.sqlDB, m, pk)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func getRecord(ctx context.Context, q querier, m model.Model, pk int64) (model.Record, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+strings.Join(selectColumns(m), ", ")+" FROM "+quote(m.TableName())+" WHERE \"id\" = ?", pk)
	rec, err := scanRecord(m, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Record{}, notFound(m, pk)
		}
		return model.Record{}, fmt.Errorf("get %s: %w", m.Label(), err)
	}
	return rec, nil
}

func notFound(m model.Model, pk int64) error {
	return apperrors.WithMetadata(apperrors.CodeNotFound,
		fmt.Sprintf("%s %d not found", m.Label(), pk),
		map[string]string{"model": m.Label(), "pk": fmt.Sprint(pk)})
}

// publishState is the outcome of a save for draft-state models.
type publishState int

const (
	stateDraft publishState = iota
	stateLive
	stateScheduled
)

func (s *Store) resolveState(m model.Model, opts storage.SaveOptions, now time.Time) publishState {
	if !m.DraftState || !opts.Publish {
		return stateDraft
	}
	if !opts.GoLiveAt.IsZero() && opts.GoLiveAt.After(now) {
		return stateScheduled
	}
	return stateLive
}

// Create inserts a record and, for revisioned models, its first revision.
func (s *Store) Create(ctx context.Context, m model.Model, values map[string]any, opts storage.SaveOptions) (model.Record, error) {
	if err := s.ready(ctx); err != nil {
		return model.Record{}, err
	}
	now := s.now().UTC()
	state := s.resolveState(m, opts, now)

	cols := []string{quote("updated_at")}
	args := []any{model.FormatTime(now)}
	for _, f := range m.Fields {
		cols = append(cols, quote(f.Name))
		args = append(args, encodeValue(f, values[f.Name]))
	}
	if m.DraftState {
		live := state == stateLive
		var published any
		if live {
			published = model.FormatTime(now)
		}
		cols = append(cols, quote("live"), quote("has_unpublished_changes"), quote("first_published_at"), quote("last_published_at"))
		args = append(args, boolInt(live), boolInt(!live), published, published)
	}
	if m.Translatable {
		locale, _ := values["locale"].(string)
		if strings.TrimSpace(locale) == "" {
			locale = DefaultLocale
		}
		cols = append(cols, quote("locale"), quote("translation_key"))
		args = append(args, locale, uuid.NewString())
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Record{}, fmt.Errorf("begin create %s: %w", m.Label(), err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	res, err := tx.ExecContext(ctx,
		"INSERT INTO "+quote(m.TableName())+" ("+strings.Join(cols, ", ")+") VALUES ("+placeholders+")", args...)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Record{}, apperrors.Wrap(apperrors.CodeFormInvalid, fmt.Sprintf("%s already exists", m.Label()), err)
		}
		return model.Record{}, fmt.Errorf("create %s: %w", m.Label(), err)
	}
	pk, err := res.LastInsertId()
	if err != nil {
		return model.Record{}, fmt.Errorf("create %s: %w", m.Label(), err)
	}
	if m.Revisions {
		if err := s.saveRevision(ctx, tx, m, pk, values, opts, state, now); err != nil {
			return model.Record{}, err
		}
	}
	rec, err := getRecord(ctx, tx, m, pk)
	if err != nil {
		return model.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Record{}, fmt.Errorf("commit create %s: %w", m.Label(), err)
	}
	return rec, nil
}

// Update replaces the declared field values of a record. Saving a draft of a
// live record keeps it live and marks unpublished changes.
func (s *Store) Update(ctx context.Context, m model.Model, pk int64, values map[string]any, opts storage.SaveOptions) (model.Record, error) {
	if err := s.ready(ctx); err != nil {
		return model.Record{}, err
	}
	now := s.now().UTC()
	state := s.resolveState(m, opts, now)

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return model.Record{}, fmt.Errorf("begin update %s: %w", m.Label(), err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := getRecord(ctx, tx, m, pk); err != nil {
		return model.Record{}, err
	}
	sets := []string{quote("updated_at") + " = ?"}
	args := []any{model.FormatTime(now)}
	for _, f := range m.Fields {
		sets = append(sets, quote(f.Name)+" = ?")
		args = append(args, encodeValue(f, values[f.Name]))
	}
	if m.DraftState {
		sets = append(sets, publishSets(state)...)
		args = append(args, publishArgs(state, now)...)
	}
	args = append(args, pk)
	if _, err := tx.ExecContext(ctx,
		"UPDATE "+quote(m.TableName())+" SET "+strings.Join(sets, ", ")+" WHERE \"id\" = ?", args...); err != nil {
		return model.Record{}, fmt.Errorf("update %s: %w", m.Label(), err)
	}
	if m.Revisions {
		if err := s.saveRevision(ctx, tx, m, pk, values, opts, state, now); err != nil {
			return model.Record{}, err
		}
	}
	rec, err := getRecord(ctx, tx, m, pk)
	if err != nil {
		return model.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Record{}, fmt.Errorf("commit update %s: %w", m.Label(), err)
	}
	return rec, nil
}

func publishSets(state publishState) []string {
	if state == stateLive {
		return []string{
			`"live" = 1`,
			`"has_unpublished_changes" = 0`,
			`"first_published_at" = COALESCE("first_published_at", ?)`,
			`"last_published_at" = ?`,
		}
	}
	return []string{`"has_unpublished_changes" = 1`}
}

func publishArgs(state publishState, now time.Time) []any {
	if state == stateLive {
		ts := model.FormatTime(now)
		return []any{ts, ts}
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Delete removes a record with its revisions and workflow states.
func (s *Store) Delete(ctx context.Context, m model.Model, pk int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete %s: %w", m.Label(), err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM "+quote(m.TableName())+" WHERE \"id\" = ?", pk)
	if err != nil {
		return fmt.Errorf("delete %s: %w", m.Label(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(m, pk)
	}
	for _, table := range []string{"snippet_workflow_states", "snippet_revisions"} {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM "+table+" WHERE model_label = ? AND object_pk = ?", m.Label(), pk); err != nil {
			return fmt.Errorf("delete %s history: %w", m.Label(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete %s: %w", m.Label(), err)
	}
	return nil
}

// References lists candidate records whose foreign keys target (m, pk).
func (s *Store) References(ctx context.Context, m model.Model, pk int64, candidates []model.Model) ([]storage.Reference, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var out []storage.Reference
	for _, candidate := range candidates {
		for _, fk := range candidate.ForeignKeys(m.Label()) {
			records, err := s.List(ctx, candidate, storage.Query{
				Where:   filters.SQLCondition{Clause: quote(fk.Name) + " = ?", Params: []any{pk}},
				OrderBy: listing.Ordering{Key: listing.UpdatedKey, Desc: true},
			})
			if err != nil {
				return nil, fmt.Errorf("references to %s: %w", m.Label(), err)
			}
			for _, rec := range records {
				out = append(out, storage.Reference{Model: candidate, Field: fk, Record: rec})
			}
		}
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ storage.Store = (*Store)(nil)
