package logger

import (
	"context"
	"github.com/maxaizer/campus-job-board/internal/config"
	"github.com/maxaizer/campus-job-board/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func Test_ToLogrusLevel(t *testing.T) {

	assert.Equal(t, log.DebugLevel, toLogrusLevel(config.LevelDebug))
	assert.Equal(t, log.InfoLevel, toLogrusLevel(config.LevelInfo))
	assert.Equal(t, log.WarnLevel, toLogrusLevel(config.LevelWarning))
	assert.Equal(t, log.ErrorLevel, toLogrusLevel(config.LevelError))
	assert.Equal(t, log.FatalLevel, toLogrusLevel(config.LevelFatal))
}

func Test_PrometheusHook_ShouldCountByErrorType(t *testing.T) {

	hook := &prometheusHook{}
	before := testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(ErrorTypeStorage))
	unknownBefore := testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues("unknown"))

	entry := log.NewEntry(log.StandardLogger()).WithField(ErrorTypeField, ErrorTypeStorage)
	require.NoError(t, hook.Fire(entry))
	require.NoError(t, hook.Fire(log.NewEntry(log.StandardLogger())))

	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues(ErrorTypeStorage)))
	assert.Equal(t, unknownBefore+1, testutil.ToFloat64(metrics.ErrorsCounter.WithLabelValues("unknown")))
	assert.NotContains(t, hook.Levels(), log.WarnLevel)
}

func Test_LokiHook_Levels_ShouldRespectMinimalLevel(t *testing.T) {

	hook := &lokiHook{minLevel: log.WarnLevel}

	assert.Contains(t, hook.Levels(), log.ErrorLevel)
	assert.Contains(t, hook.Levels(), log.WarnLevel)
	assert.NotContains(t, hook.Levels(), log.InfoLevel)
}

func Test_Setup_ShouldWriteToOutputFile(t *testing.T) {

	previousOut, previousLevel := log.StandardLogger().Out, log.GetLevel()
	previousHooks := log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	t.Cleanup(func() {
		log.SetOutput(previousOut)
		log.SetLevel(previousLevel)
		log.StandardLogger().ReplaceHooks(previousHooks)
	})

	file := filepath.Join(t.TempDir(), "logs", "jobboard.log")
	Setup(context.Background(), config.LoggerConfig{LogLevel: config.LevelWarning, AppName: "test", OutputFile: file})

	log.Info("invisible")
	log.Warn("visible")
	Cleanup()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible")
	assert.NotContains(t, string(data), "invisible")
	assert.Equal(t, log.WarnLevel, log.GetLevel())
}
