// Package storage defines persistence contracts for snippet records,
// revisions and workflow states.
package storage

import (
	"context"
	"time"

	apperrors "github.com/scantist-ossops-m2/wagtail/internal/platform/errors"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/filters"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/listing"
	"github.com/scantist-ossops-m2/wagtail/internal/services/snippets/model"
)

var (
	// ErrNotFound indicates a requested record, revision or workflow state is missing.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")
	// ErrNotPublishable indicates a publishing operation on a model without draft state.
	ErrNotPublishable = apperrors.New(apperrors.CodeNotPublishable, "model has no draft state")
	// ErrNotScheduled indicates an unschedule request for a revision without a go-live time.
	ErrNotScheduled = apperrors.New(apperrors.CodeNotScheduled, "revision is not scheduled")
)

// Query selects records of one model.
type Query struct {
	Where filters.SQLCondition
	// Search matches records whose search fields contain the term.
	Search  string
	OrderBy listing.Ordering
	// Limit of zero returns every matching record.
	Limit  int
	Offset int
}

// SaveOptions control publishing when saving draft-state models.
type SaveOptions struct {
	// Publish makes the saved content live, unless GoLiveAt is in the future.
	Publish  bool
	GoLiveAt time.Time
	UserID   string
}

// Revision is a saved snapshot of a record's form values.
type Revision struct {
	ID               int64
	ModelLabel       string
	ObjectPK         int64
	Content          map[string]string
	CreatedAt        time.Time
	ApprovedGoLiveAt time.Time
	UserID           string
}

// Scheduled reports whether the revision waits for a go-live time.
func (r Revision) Scheduled() bool {
	return !r.ApprovedGoLiveAt.IsZero()
}

// Workflow state statuses.
const (
	WorkflowInProgress = "in_progress"
	WorkflowApproved   = "approved"
	WorkflowRejected   = "rejected"
	WorkflowCancelled  = "cancelled"
)

// WorkflowState records one moderation workflow run.
type WorkflowState struct {
	ID           int64
	ModelLabel   string
	ObjectPK     int64
	WorkflowName string
	Status       string
	RequestedBy  string
	RevisionID   int64
	CreatedAt    time.Time
}

// Reference is a record pointing at another record through a foreign key.
type Reference struct {
	Model  model.Model
	Field  model.Field
	Record model.Record
}

// RecordStore persists model records.
type RecordStore interface {
	Count(ctx context.Context, m model.Model, q Query) (int, error)
	List(ctx context.Context, m model.Model, q Query) ([]model.Record, error)
	Get(ctx context.Context, m model.Model, pk int64) (model.Record, error)
	Create(ctx context.Context, m model.Model, values map[string]any, opts SaveOptions) (model.Record, error)
	Update(ctx context.Context, m model.Model, pk int64, values map[string]any, opts SaveOptions) (model.Record, error)
	Delete(ctx context.Context, m model.Model, pk int64) error
	// References lists records of candidates whose foreign keys target (m, pk).
	References(ctx context.Context, m model.Model, pk int64, candidates []model.Model) ([]Reference, error)
}

// RevisionStore persists revisions and publishing state.
type RevisionStore interface {
	Revisions(ctx context.Context, m model.Model, pk int64) ([]Revision, error)
	Revision(ctx context.Context, m model.Model, pk, revisionID int64) (Revision, error)
	Unpublish(ctx context.Context, m model.Model, pk int64) error
	Unschedule(ctx context.Context, m model.Model, pk, revisionID int64) error
	// PublishScheduled publishes revisions whose go-live time has passed and
	// returns how many were published.
	PublishScheduled(ctx context.Context, m model.Model, now time.Time) (int, error)
}

// WorkflowStore persists workflow states.
type WorkflowStore interface {
	StartWorkflow(ctx context.Context, m model.Model, pk int64, workflowName, requestedBy string) (WorkflowState, error)
	WorkflowStates(ctx context.Context, m model.Model, pk int64) ([]WorkflowState, error)
	WorkflowState(ctx context.Context, m model.Model, pk, stateID int64) (WorkflowState, error)
}

// Store is the full persistence contract of the snippets service.
type Store interface {
	RecordStore
	RevisionStore
	WorkflowStore
	Close() error
}
