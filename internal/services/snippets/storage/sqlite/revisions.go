package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
)

func (s *Store) saveRevision(ctx context.Context, q querier, m model.Model, pk int64, values map[string]any, opts storage.SaveOptions, state publishState, now time.Time) error {
	content, err := json.Marshal(m.EncodeForm(values))
	if err != nil {
		return fmt.Errorf("encode %s revision: %w", m.Label(), err)
	}
	var goLive any
	if state == stateScheduled {
		goLive = model.FormatTime(opts.GoLiveAt)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO snippet_revisions (model_label, object_pk, content, created_at, approved_go_live_at, user_id)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Label(), pk, string(content), model.FormatTime(now), goLive, opts.UserID)
	if err != nil {
		return fmt.Errorf("create %s revision: %w", m.Label(), err)
	}
	revisionID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create %s revision: %w", m.Label(), err)
	}
	if _, err := q.ExecContext(ctx,
		"UPDATE "+quote(m.TableName())+` SET "latest_revision_id" = ? WHERE "id" = ?`, revisionID, pk); err != nil {
		return fmt.Errorf("link %s revision: %w", m.Label(), err)
	}
	return nil
}

const revisionColumns = `id, model_label, object_pk, content, created_at, approved_go_live_at, user_id`

func scanRevision(row rowScanner) (storage.Revision, error) {
	var (
		rev       storage.Revision
		content   string
		createdAt string
		goLive    sql.NullString
	)
	if err := row.Scan(&rev.ID, &rev.ModelLabel, &rev.ObjectPK, &content, &createdAt, &goLive, &rev.UserID); err != nil {
		return storage.Revision{}, err
	}
	if err := json.Unmarshal([]byte(content), &rev.Content); err != nil {
		return storage.Revision{}, fmt.Errorf("decode revision %d: %w", rev.ID, err)
	}
	t, err := model.ParseTime(createdAt)
	if err != nil {
		return storage.Revision{}, fmt.Errorf("decode revision %d: %w", rev.ID, err)
	}
	rev.CreatedAt = t
	if goLive.Valid {
		t, err := model.ParseTime(goLive.String)
		if err != nil {
			return storage.Revision{}, fmt.Errorf("decode revision %d: %w", rev.ID, err)
		}
		rev.ApprovedGoLiveAt = t
	}
	return rev, nil
}

// Revisions returns the revisions of a record, newest first.
func (s *Store) Revisions(ctx context.Context, m model.Model, pk int64) ([]storage.Revision, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+revisionColumns+` FROM snippet_revisions
		  WHERE model_label = ? AND object_pk = ?
		  ORDER BY created_at DESC, id DESC`, m.Label(), pk)
	if err != nil {
		return nil, fmt.Errorf("list %s revisions: %w", m.Label(), err)
	}
	defer rows.Close()

	var out []storage.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s revisions: %w", m.Label(), err)
	}
	return out, nil
}

// Revision returns one revision of a record.
func (s *Store) Revision(ctx context.Context, m model.Model, pk, revisionID int64) (storage.Revision, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Revision{}, err
	}
	rev, err := scanRevision(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+revisionColumns+` FROM snippet_revisions
		  WHERE model_label = ? AND object_pk = ? AND id = ?`, m.Label(), pk, revisionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Revision{}, apperrors.Wrap(apperrors.CodeNotFound,
				fmt.Sprintf("%s %d has no revision %d", m.Label(), pk, revisionID), storage.ErrNotFound)
		}
		return storage.Revision{}, fmt.Errorf("get %s revision: %w", m.Label(), err)
	}
	return rev, nil
}

// Unpublish takes a live record offline.
func (s *Store) Unpublish(ctx context.Context, m model.Model, pk int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if !m.DraftState {
		return storage.ErrNotPublishable
	}
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE "+quote(m.TableName())+` SET "live" = 0, "has_unpublished_changes" = 1, "updated_at" = ? WHERE "id" = ?`,
		model.FormatTime(s.now()), pk)
	if err != nil {
		return fmt.Errorf("unpublish %s: %w", m.Label(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(m, pk)
	}
	return nil
}

// Unschedule cancels the scheduled publishing of a revision.
func (s *Store) Unschedule(ctx context.Context, m model.Model, pk, revisionID int64) error {
	rev, err := s.Revision(ctx, m, pk, revisionID)
	if err != nil {
		return err
	}
	if !rev.Scheduled() {
		return storage.ErrNotScheduled
	}
	if _, err := s.sqlDB.ExecContext(ctx,
		`UPDATE snippet_revisions SET approved_go_live_at = NULL WHERE id = ?`, revisionID); err != nil {
		return fmt.Errorf("unschedule %s revision: %w", m.Label(), err)
	}
	return nil
}

// PublishScheduled makes due scheduled revisions live.
func (s *Store) PublishScheduled(ctx context.Context, m model.Model, now time.Time) (int, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	if !m.DraftState {
		return 0, nil
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+revisionColumns+` FROM snippet_revisions
		  WHERE model_label = ? AND approved_go_live_at IS NOT NULL AND approved_go_live_at <= ?
		  ORDER BY approved_go_live_at, id`, m.Label(), model.FormatTime(now))
	if err != nil {
		return 0, fmt.Errorf("list due %s revisions: %w", m.Label(), err)
	}
	var due []storage.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			rows.Close()
			return 0, err
		}
		due = append(due, rev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate due %s revisions: %w", m.Label(), err)
	}

	published := 0
	for _, rev := range due {
		if err := s.publishRevision(ctx, m, rev, now); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

func (s *Store) publishRevision(ctx context.Context, m model.Model, rev storage.Revision, now time.Time) error {
	values, errs := m.ParseForm(model.FormValues(rev.Content))
	if len(errs) > 0 {
		return apperrors.New(apperrors.CodeFormInvalid, fmt.Sprintf("revision %d content is invalid", rev.ID))
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin publish %s: %w", m.Label(), err)
	}
	defer func() { _ = tx.Rollback() }()

	sets := []string{quote("updated_at") + " = ?"}
	args := []any{model.FormatTime(now)}
	for _, f := range m.Fields {
		sets = append(sets, quote(f.Name)+" = ?")
		args = append(args, encodeValue(f, values[f.Name]))
	}
	sets = append(sets, publishSets(stateLive)...)
	args = append(args, publishArgs(stateLive, now)...)
	args = append(args, rev.ObjectPK)
	if _, err := tx.ExecContext(ctx,
		"UPDATE "+quote(m.TableName())+" SET "+strings.Join(sets, ", ")+` WHERE "id" = ?`, args...); err != nil {
		return fmt.Errorf("publish %s revision %d: %w", m.Label(), rev.ID, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE snippet_revisions SET approved_go_live_at = NULL WHERE id = ?`, rev.ID); err != nil {
		return fmt.Errorf("clear %s revision %d schedule: %w", m.Label(), rev.ID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish %s: %w", m.Label(), err)
	}
	return nil
}
