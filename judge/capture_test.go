package judge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/elmanelman/solution-judge/compare"
	"github.com/elmanelman/solution-judge/config"
	"github.com/elmanelman/solution-judge/subtask"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var sqliteMemory = config.DBConfig{Driver: config.DriverSQLite, DSN: ":memory:"}

const usersSandbox = `
CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER);
INSERT INTO users (id, name, age) VALUES (1, 'Alice', 21), (2, 'Bob', 32), (3, 'Charlie', NULL);
`

type captureFixture struct {
	judge  *CaptureJudge
	judges *Judges
	store  *subtask.Store
	mainDB *sqlx.DB
}

func newCaptureFixture(t *testing.T) *captureFixture {
	t.Helper()

	mainDB, err := connectMainDB(sqliteMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mainDB.Close() })

	sandbox, err := connectDB(sqliteMemory)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sandbox.Close() })
	_, err = sandbox.Exec(usersSandbox)
	require.NoError(t, err)

	logger := zap.NewNop()
	cj := NewCaptureJudge(logger, mainDB, new(sync.WaitGroup), make(chan struct{}), make(chan Verdict))
	cj.sandboxDBs["USERS"] = sandbox

	return &captureFixture{
		judge:  cj,
		judges: &Judges{logger: logger, mainDB: mainDB},
		store:  subtask.NewStore(mainDB),
		mainDB: mainDB,
	}
}

func (f *captureFixture) createSQLSubtask(t *testing.T, schema, query string, allowed subtask.AllowedSQL) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, f.store.Create(context.Background(), &subtask.Subtask{
		ID:                   id,
		IsSolutionVerifiable: true,
		IsSolutionVisible:    true,
		SchemaName:           schema,
		Content: subtask.SQLContent{
			AllowedSQL: allowed,
			Solution:   &compare.SQLSolution{Query: query},
		},
	}))
	return id
}

func (f *captureFixture) captureStatus(t *testing.T, id string) (int, string) {
	t.Helper()
	var r struct {
		Status  int     `db:"CAPTURE_STATUS_ID"`
		Message *string `db:"CAPTURE_MESSAGE"`
	}
	require.NoError(t, f.mainDB.Get(&r, "SELECT CAPTURE_STATUS_ID, CAPTURE_MESSAGE FROM SUBTASKS WHERE ID = ?", id))
	if r.Message == nil {
		return r.Status, ""
	}
	return r.Status, *r.Message
}

func TestCaptureReference(t *testing.T) {
	f := newCaptureFixture(t)
	ctx := context.Background()

	id := f.createSQLSubtask(t, "USERS", "SELECT id, name, age FROM users ORDER BY id;\n", subtask.AllowedQuery)

	jobs, err := f.judge.FetchJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, id, jobs[0].SubtaskID)

	status, _ := f.captureStatus(t, id)
	assert.Equal(t, subtask.Capturing, status)

	again, err := f.judge.FetchJobs()
	require.NoError(t, err)
	assert.Empty(t, again)

	v := f.judge.Review(ctx, jobs[0])
	require.Equal(t, subtask.Captured, v.StatusID, v.Message)
	require.NoError(t, f.judges.ApplyVerdict(v))

	st, err := f.store.Get(ctx, id)
	require.NoError(t, err)
	sc := st.Content.(subtask.SQLContent)
	require.NotNil(t, sc.Solution)
	assert.Equal(t, []string{"id", "name", "age"}, sc.Solution.Columns)
	assert.Equal(t, []compare.Row{
		{"1", "Alice", "21"},
		{"2", "Bob", "32"},
		{"3", "Charlie", "NULL"},
	}, sc.Solution.Rows)

	status, message := f.captureStatus(t, id)
	assert.Equal(t, subtask.Captured, status)
	assert.Empty(t, message)

	// the captured reference grades submissions
	ref, ok := st.Verifiable()
	require.True(t, ok)
	res := compare.Compare(compare.SQLSolution{Rows: []compare.Row{{"2", "Bob", "32"}}}, ref).(compare.SQLResult)
	assert.False(t, res.Correct)
	assert.Len(t, res.MissedRows, 2)
}

func TestCaptureFailures(t *testing.T) {
	tests := []struct {
		name    string
		schema  string
		query   string
		allowed subtask.AllowedSQL
		status  int
	}{
		{"restricted statement", "USERS", "DELETE FROM users", subtask.AllowedQuery, subtask.RestrictionViolated},
		{"unknown sandbox", "ORDERS", "SELECT 1", subtask.AllowedAll, subtask.ExecutionError},
		{"broken query", "USERS", "SELECT nope FROM users", subtask.AllowedAll, subtask.ExecutionError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCaptureFixture(t)
			id := f.createSQLSubtask(t, tt.schema, tt.query, tt.allowed)

			jobs, err := f.judge.FetchJobs()
			require.NoError(t, err)
			require.Len(t, jobs, 1)

			v := f.judge.Review(context.Background(), jobs[0])
			assert.Equal(t, tt.status, v.StatusID)
			assert.NotEmpty(t, v.Message)
			assert.Empty(t, v.Content)

			require.NoError(t, f.judges.ApplyVerdict(v))
			status, message := f.captureStatus(t, id)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, v.Message, message)
		})
	}
}

func TestRequeueInterrupted(t *testing.T) {
	f := newCaptureFixture(t)
	f.createSQLSubtask(t, "USERS", "SELECT 1", subtask.AllowedAll)

	jobs, err := f.judge.FetchJobs()
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	require.NoError(t, f.judge.RequeueInterrupted())

	jobs, err = f.judge.FetchJobs()
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestCaptureRowsFormatsValues(t *testing.T) {
	f := newCaptureFixture(t)

	columns, rows, err := captureRows(context.Background(), f.judge.sandboxDBs["USERS"], "SELECT NULL AS a, 2.5 AS b, 'x' AS c, 7 AS d")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, columns)
	assert.Equal(t, []compare.Row{{"NULL", "2.5", "x", "7"}}, rows)
}

func TestCaptureJudgeWithoutReviewersLeavesJobsPending(t *testing.T) {
	f := newCaptureFixture(t)
	id := f.createSQLSubtask(t, "USERS", "SELECT 1", subtask.AllowedAll)

	require.NoError(t, f.judge.Start(config.CaptureJudgeConfig{FetchPeriod: 100}))
	time.Sleep(300 * time.Millisecond)

	f.judge.Stop()
	close(f.judge.stop)
	f.judge.waitGroup.Wait()

	status, _ := f.captureStatus(t, id)
	assert.Equal(t, subtask.PendingCapture, status)
}

func TestCaptureJudgeCapturesInBackground(t *testing.T) {
	f := newCaptureFixture(t)
	id := f.createSQLSubtask(t, "USERS", "SELECT name FROM users WHERE id = 1", subtask.AllowedQuery)

	require.NoError(t, f.judge.Start(config.CaptureJudgeConfig{FetchPeriod: 100, ReviewerCount: 1}))

	var v Verdict
	select {
	case v = <-f.judge.verdicts:
	case <-time.After(5 * time.Second):
		t.Fatal("no verdict")
	}

	f.judge.Stop()
	close(f.judge.stop)
	f.judge.waitGroup.Wait()

	assert.Equal(t, id, v.SubtaskID)
	assert.Equal(t, subtask.Captured, v.StatusID, v.Message)
}
