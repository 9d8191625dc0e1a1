package judge

import (
	"sync"
	"testing"
	"time"

	"github.com/elmanelman/solution-judge/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func judgesConfig() config.JudgeConfig {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)

	return config.JudgeConfig{
		LoggerConfig: loggerConfig,
		MainDBConfig: sqliteMemory,
		HTTPConfig:   config.HTTPConfig{ListenAddrs: []string{"127.0.0.1:0"}},
		CaptureJudgeConfig: config.CaptureJudgeConfig{
			FetchPeriod:   100,
			ReviewerCount: 2,
		},
	}
}

func waitOrFail(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("judges did not stop")
	}
}

func TestJudgesStartAndStop(t *testing.T) {
	wg := new(sync.WaitGroup)
	j := NewJudges(wg)

	require.NoError(t, j.Start(judgesConfig()))
	assert.NotNil(t, j.server)

	j.Stop()
	j.Stop()
	waitOrFail(t, wg)
	j.Close()
}

func TestJudgesStopDuringStart(t *testing.T) {
	wg := new(sync.WaitGroup)
	j := NewJudges(wg)

	j.Stop()
	require.NoError(t, j.Start(judgesConfig()))
	assert.Nil(t, j.server)

	waitOrFail(t, wg)
	j.Close()
}
