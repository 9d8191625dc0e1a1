package judge

import (
	"context"
	"github.com/elmanelman/solution-judge/config"
	"github.com/elmanelman/solution-judge/server"
	"github.com/elmanelman/solution-judge/subtask"
	"github.com/elmanelman/solution-judge/templates"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"sync"
	"time"
)

const shutdownTimeout = 10 * time.Second

type Judges struct {
	logger *zap.Logger

	mainDB *sqlx.DB

	waitGroup *sync.WaitGroup
	stop      chan struct{}

	// guards server, captureJudge and stopping against a concurrent Stop
	mu           sync.Mutex
	stopping     bool
	server       *server.Server
	captureJudge *CaptureJudge

	verdicts chan Verdict
}

func NewJudges(wg *sync.WaitGroup) *Judges {
	judges := &Judges{
		logger:    nil,
		mainDB:    nil,
		waitGroup: wg,
		stop:      make(chan struct{}),
		verdicts:  make(chan Verdict),
	}

	return judges
}

func (j *Judges) Start(cfg config.JudgeConfig) error {
	// set up common dependencies
	if err := j.SetupLogger(cfg); err != nil {
		return err
	}
	if err := j.ConnectMainDB(cfg); err != nil {
		return err
	}
	j.waitGroup.Add(1)

	go j.VerdictUpdater()

	// set up reference capture
	captureJudge := NewCaptureJudge(j.logger, j.mainDB, j.waitGroup, j.stop, j.verdicts)
	if err := captureJudge.Start(cfg.CaptureJudgeConfig); err != nil {
		return err
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	j.captureJudge = captureJudge
	if j.stopping {
		captureJudge.Stop()
		return nil
	}

	// serve solution verification
	j.server = server.New(j.logger, subtask.NewStore(j.mainDB), cfg.HTTPConfig)
	if err := j.server.Start(j.waitGroup); err != nil {
		return err
	}

	return nil
}

// Stop may be called at any point of Start; a server that has not been
// started yet is never started.
func (j *Judges) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.stopping {
		return
	}
	j.stopping = true

	if j.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := j.server.Shutdown(ctx); err != nil {
			j.logger.Error("http server shutdown failed", zap.Error(err))
		}
		cancel()
	}
	if j.captureJudge != nil {
		j.captureJudge.Stop()
	}
	close(j.stop)
}

// Close releases database connections once every goroutine has returned.
func (j *Judges) Close() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.captureJudge != nil {
		j.captureJudge.Close()
	}
	if j.mainDB != nil {
		_ = j.mainDB.Close()
	}
	if j.logger != nil {
		_ = j.logger.Sync()
	}
}

func (j *Judges) SetupLogger(cfg config.JudgeConfig) error {
	logger, err := cfg.LoggerConfig.Build()
	if err != nil {
		return err
	}

	j.logger = logger

	return nil
}

func (j *Judges) ConnectMainDB(cfg config.JudgeConfig) error {
	db, err := connectMainDB(cfg.MainDBConfig)
	if err != nil {
		return err
	}

	j.mainDB = db

	j.logger.Info(
		"main database connected",
		zap.String("driver", cfg.MainDBConfig.DriverName()),
	)

	return nil
}

// ApplyVerdict stores captured content and the capture status in one transaction.
func (j *Judges) ApplyVerdict(v Verdict) error {
	tx, err := j.mainDB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if v.Content != "" {
		if _, err := tx.Exec(tx.Rebind(templates.UpdateCapturedContent), v.Content, v.SubtaskID); err != nil {
			return err
		}
	}

	var message interface{}
	if v.Message != "" {
		message = v.Message
	}
	if _, err := tx.Exec(tx.Rebind(templates.UpdateCaptureStatus), v.StatusID, message, v.SubtaskID); err != nil {
		return err
	}

	return tx.Commit()
}

func (j *Judges) VerdictUpdater() {
	defer func() {
		j.logger.Info("stopped verdict updater")
		j.waitGroup.Done()
	}()
	for {
		select {
		case <-j.stop:
			return
		case v := <-j.verdicts:
			if err := j.ApplyVerdict(v); err != nil {
				j.logger.Error(
					"subtask capture update failed",
					zap.String("subtask_id", v.SubtaskID),
					zap.Error(err),
				)
			}
		}
	}
}
