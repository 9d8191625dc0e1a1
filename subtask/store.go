package subtask

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/elmanelman/solution-judge/compare"
	"github.com/elmanelman/solution-judge/templates"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("subtask not found")

type Subtask struct {
	ID                   string
	Instruction          string
	IsSolutionVerifiable bool
	IsSolutionVisible    bool
	SchemaName           string
	Content              Content
}

// Verifiable reports whether a learner may have a solution checked against
// the recorded reference, and returns that reference.
func (s *Subtask) Verifiable() (compare.Reference, bool) {
	if !s.IsSolutionVerifiable || !s.IsSolutionVisible || s.Content == nil {
		return nil, false
	}
	return s.Content.Reference()
}

type record struct {
	ID                   string         `db:"ID"`
	Instruction          sql.NullString `db:"INSTRUCTION"`
	IsSolutionVerifiable string         `db:"IS_SOLUTION_VERIFIABLE"`
	IsSolutionVisible    string         `db:"IS_SOLUTION_VISIBLE"`
	SchemaName           sql.NullString `db:"SCHEMA_NAME"`
	Content              string         `db:"CONTENT"`
}

const (
	flagYes = "Y"
	flagNo  = "N"
)

func toFlag(b bool) string {
	if b {
		return flagYes
	}
	return flagNo
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(ctx context.Context, id string) (*Subtask, error) {
	var r record
	if err := s.db.GetContext(ctx, &r, s.db.Rebind(templates.FetchSubtask), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetch subtask %s: %w", id, err)
	}

	content, err := DecodeContent([]byte(r.Content))
	if err != nil {
		return nil, fmt.Errorf("subtask %s content: %w", id, err)
	}

	return &Subtask{
		ID:                   r.ID,
		Instruction:          r.Instruction.String,
		IsSolutionVerifiable: r.IsSolutionVerifiable == flagYes,
		IsSolutionVisible:    r.IsSolutionVisible == flagYes,
		SchemaName:           r.SchemaName.String,
		Content:              content,
	}, nil
}

// Create inserts a subtask. SQL subtasks whose solution has a query but no
// captured rows are queued for reference capture.
func (s *Store) Create(ctx context.Context, st *Subtask) error {
	if err := st.Content.Validate(); err != nil {
		return err
	}
	data, err := MarshalContent(st.Content)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(
		ctx,
		s.db.Rebind(templates.InsertSubtask),
		st.ID,
		st.Instruction,
		toFlag(st.IsSolutionVerifiable),
		toFlag(st.IsSolutionVisible),
		st.SchemaName,
		string(data),
		InitialCaptureStatus(st.Content),
	)
	if err != nil {
		return fmt.Errorf("insert subtask %s: %w", st.ID, err)
	}
	return nil
}

// UpdateContent replaces the content of a subtask and resets its capture
// status, so a new reference query is captured again.
func (s *Store) UpdateContent(ctx context.Context, id string, c Content) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := MarshalContent(c)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(templates.UpdateSubtaskContent), string(data), InitialCaptureStatus(c), id)
	if err != nil {
		return fmt.Errorf("update subtask %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
