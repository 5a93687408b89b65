package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/storage"
)

const workflowColumns = `id, model_label, object_pk, workflow_name, status, requested_by, revision_id, created_at`

func scanWorkflowState(row rowScanner) (storage.WorkflowState, error) {
	var (
		state      storage.WorkflowState
		revisionID sql.NullInt64
		createdAt  string
	)
	if err := row.Scan(&state.ID, &state.ModelLabel, &state.ObjectPK, &state.WorkflowName,
		&state.Status, &state.RequestedBy, &revisionID, &createdAt); err != nil {
		return storage.WorkflowState{}, err
	}
	state.RevisionID = revisionID.Int64
	t, err := model.ParseTime(createdAt)
	if err != nil {
		return storage.WorkflowState{}, fmt.Errorf("decode workflow state %d: %w", state.ID, err)
	}
	state.CreatedAt = t
	return state, nil
}

// StartWorkflow submits the latest revision of a record for moderation. A
// record has at most one workflow in progress.
func (s *Store) StartWorkflow(ctx context.Context, m model.Model, pk int64, workflowName, requestedBy string) (storage.WorkflowState, error) {
	if err := s.ready(ctx); err != nil {
		return storage.WorkflowState{}, err
	}
	if !m.Workflow {
		return storage.WorkflowState{}, apperrors.New(apperrors.CodeNotPublishable, fmt.Sprintf("%s has no workflow", m.Label()))
	}
	workflowName = strings.TrimSpace(workflowName)
	if workflowName == "" {
		return storage.WorkflowState{}, fmt.Errorf("workflow name is required")
	}
	rec, err := s.Get(ctx, m, pk)
	if err != nil {
		return storage.WorkflowState{}, err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.WorkflowState{}, fmt.Errorf("begin start workflow: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE snippet_workflow_states SET status = ? WHERE model_label = ? AND object_pk = ? AND status = ?`,
		storage.WorkflowCancelled, m.Label(), pk, storage.WorkflowInProgress); err != nil {
		return storage.WorkflowState{}, fmt.Errorf("cancel previous workflows: %w", err)
	}
	var revisionID any
	if rec.LatestRevisionID > 0 {
		revisionID = rec.LatestRevisionID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO snippet_workflow_states (model_label, object_pk, workflow_name, status, requested_by, revision_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Label(), pk, workflowName, storage.WorkflowInProgress, requestedBy, revisionID, model.FormatTime(s.now()))
	if err != nil {
		return storage.WorkflowState{}, fmt.Errorf("start workflow: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return storage.WorkflowState{}, fmt.Errorf("start workflow: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.WorkflowState{}, fmt.Errorf("commit start workflow: %w", err)
	}
	return s.WorkflowState(ctx, m, pk, id)
}

// WorkflowStates returns the workflow runs of a record, newest first.
func (s *Store) WorkflowStates(ctx context.Context, m model.Model, pk int64) ([]storage.WorkflowState, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+workflowColumns+` FROM snippet_workflow_states
		  WHERE model_label = ? AND object_pk = ?
		  ORDER BY created_at DESC, id DESC`, m.Label(), pk)
	if err != nil {
		return nil, fmt.Errorf("list workflow states: %w", err)
	}
	defer rows.Close()

	var out []storage.WorkflowState
	for rows.Next() {
		state, err := scanWorkflowState(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workflow states: %w", err)
	}
	return out, nil
}

// WorkflowState returns one workflow run of a record.
func (s *Store) WorkflowState(ctx context.Context, m model.Model, pk, stateID int64) (storage.WorkflowState, error) {
	if err := s.ready(ctx); err != nil {
		return storage.WorkflowState{}, err
	}
	state, err := scanWorkflowState(s.sqlDB.QueryRowContext(ctx,
		`SELECT `+workflowColumns+` FROM snippet_workflow_states
		  WHERE model_label = ? AND object_pk = ? AND id = ?`, m.Label(), pk, stateID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.WorkflowState{}, apperrors.Wrap(apperrors.CodeNotFound,
				fmt.Sprintf("%s %d has no workflow state %d", m.Label(), pk, stateID), storage.ErrNotFound)
		}
		return storage.WorkflowState{}, fmt.Errorf("get workflow state: %w", err)
	}
	return state, nil
}
