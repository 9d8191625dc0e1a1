package judge

import (
	"context"
	"errors"
	"fmt"
	"github.com/elmanelman/solution-judge/compare"
	"github.com/elmanelman/solution-judge/config"
	"github.com/elmanelman/solution-judge/subtask"
	"github.com/elmanelman/solution-judge/templates"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"sync"
	"time"
)

// CaptureJudge executes stored reference queries on sandbox databases and
// records their result sets as the subtasks' reference rows.
type CaptureJudge struct {
	logger    *zap.Logger
	mainDB    *sqlx.DB
	waitGroup *sync.WaitGroup
	stop      chan struct{}
	verdicts  chan Verdict

	sandboxDBs  map[string]*sqlx.DB
	fetchTicker *time.Ticker
	jobs        chan CaptureJob
}

func NewCaptureJudge(
	logger *zap.Logger,
	mainDB *sqlx.DB,
	waitGroup *sync.WaitGroup,
	stop chan struct{},
	verdicts chan Verdict,
) *CaptureJudge {
	return &CaptureJudge{
		logger:     logger,
		mainDB:     mainDB,
		waitGroup:  waitGroup,
		stop:       stop,
		verdicts:   verdicts,
		sandboxDBs: map[string]*sqlx.DB{},
		jobs:       make(chan CaptureJob),
	}
}

func (j *CaptureJudge) Start(cfg config.CaptureJudgeConfig) error {
	if err := j.ConnectSandboxDBs(cfg); err != nil {
		return err
	}
	if err := j.RequeueInterrupted(); err != nil {
		return err
	}
	// jobs would be marked capturing with nobody to review them
	if cfg.ReviewerCount == 0 {
		j.logger.Warn("reference capture disabled, no reviewers configured")
		return nil
	}

	j.fetchTicker = time.NewTicker(time.Duration(cfg.FetchPeriod) * time.Millisecond)

	j.waitGroup.Add(1 + cfg.ReviewerCount)

	go j.StartFetching()
	for id := 1; id <= cfg.ReviewerCount; id++ {
		go j.CaptureReviewer(id)
	}

	return nil
}

func (j *CaptureJudge) Stop() {
	if j.fetchTicker != nil {
		j.fetchTicker.Stop()
	}
}

func (j *CaptureJudge) Close() {
	for name, db := range j.sandboxDBs {
		if err := db.Close(); err != nil {
			j.logger.Warn("closing sandbox DB failed", zap.String("database_name", name), zap.Error(err))
		}
	}
}

func (j *CaptureJudge) ConnectSandboxDBs(cfg config.CaptureJudgeConfig) error {
	for _, c := range cfg.DBConfigs {
		db, err := connectDB(c.Config)
		if err != nil {
			return fmt.Errorf("sandbox DB %s: %w", c.Name, err)
		}

		j.sandboxDBs[c.Name] = db

		j.logger.Info(
			"sandbox DB connected",
			zap.String("database_name", c.Name),
			zap.String("driver", c.Config.DriverName()),
		)
	}

	return nil
}

// RequeueInterrupted puts jobs left in capturing state by a previous run back in the queue.
func (j *CaptureJudge) RequeueInterrupted() error {
	res, err := j.mainDB.Exec(j.mainDB.Rebind(templates.RequeueCaptureJobs), subtask.PendingCapture, subtask.Capturing)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		j.logger.Info("requeued interrupted capture jobs", zap.Int64("count", n))
	}
	return nil
}

// FetchJobs loads every subtask waiting for capture and marks it as capturing,
// so the next tick does not pick it up again.
func (j *CaptureJudge) FetchJobs() ([]CaptureJob, error) {
	var jobs []CaptureJob
	if err := j.mainDB.Select(&jobs, j.mainDB.Rebind(templates.FetchCaptureJobs), subtask.PendingCapture); err != nil {
		return nil, err
	}

	query := j.mainDB.Rebind(templates.UpdateCaptureStatus)
	for _, job := range jobs {
		if _, err := j.mainDB.Exec(query, subtask.Capturing, nil, job.SubtaskID); err != nil {
			return nil, err
		}
	}

	return jobs, nil
}

func (j *CaptureJudge) StartFetching() {
	defer func() {
		j.logger.Info("stopped fetching capture jobs")
		j.waitGroup.Done()
	}()
	for {
		select {
		case <-j.stop:
			return
		case <-j.fetchTicker.C:
			jobs, err := j.FetchJobs()
			if err != nil {
				j.logger.Error("failed fetching capture jobs", zap.Error(err))
				continue
			}
			for _, job := range jobs {
				select {
				case <-j.stop:
					return
				case j.jobs <- job:
				}
			}
		}
	}
}

func (j *CaptureJudge) CaptureReviewer(reviewerID int) {
	defer func() {
		j.logger.Info(
			"stopped capture reviewer",
			zap.Int("reviewer_id", reviewerID),
		)
		j.waitGroup.Done()
	}()
	for {
		select {
		case <-j.stop:
			return
		case job := <-j.jobs:
			v := j.Review(context.Background(), job)
			select {
			case <-j.stop:
				return
			case j.verdicts <- v:
			}
		}
	}
}

// Review captures the reference rows of a single job.
func (j *CaptureJudge) Review(ctx context.Context, job CaptureJob) Verdict {
	fail := func(status int, err error) Verdict {
		j.logger.Warn(
			"reference capture failed",
			zap.String("subtask_id", job.SubtaskID),
			zap.Int("status_id", status),
			zap.Error(err),
		)
		return Verdict{SubtaskID: job.SubtaskID, StatusID: status, Message: err.Error()}
	}

	content, err := subtask.DecodeContent([]byte(job.Content))
	if err != nil {
		return fail(subtask.ExecutionError, err)
	}
	sc, ok := content.(subtask.SQLContent)
	if !ok || sc.Solution == nil {
		return fail(subtask.ExecutionError, errors.New("subtask has no SQL reference solution"))
	}

	// check if sandbox exists
	db := j.sandboxDBs[job.SchemaName.String]
	if db == nil {
		return fail(subtask.ExecutionError, fmt.Errorf("sandbox DB %q does not exist", job.SchemaName.String))
	}

	query := prepareQuery(sc.Solution.Query)
	if err := checkRestrictions(query, sc.AllowedSQL); err != nil {
		return fail(subtask.RestrictionViolated, err)
	}

	columns, rows, err := captureRows(ctx, db, query)
	if err != nil {
		return fail(subtask.ExecutionError, err)
	}

	solution := *sc.Solution
	solution.Columns = columns
	solution.Rows = rows
	sc.Solution = &solution

	data, err := subtask.MarshalContent(sc)
	if err != nil {
		return fail(subtask.ExecutionError, err)
	}

	j.logger.Info(
		"reference captured",
		zap.String("subtask_id", job.SubtaskID),
		zap.Int("row_count", len(rows)),
	)

	return Verdict{SubtaskID: job.SubtaskID, StatusID: subtask.Captured, Content: string(data)}
}

func captureRows(ctx context.Context, db *sqlx.DB, query string) ([]string, []compare.Row, error) {
	rows, err := db.QueryxContext(ctx, query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	result := []compare.Row{}
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, nil, err
		}
		row := make(compare.Row, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return columns, result, nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(v)
	case string:
		return v
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
