package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/dooros/core/config"
	"github.com/josephlewis42/dooros/core/logger"
	"github.com/josephlewis42/dooros/core/ttylog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func initConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := execute(t, "--config", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Writing config.yaml")
	return dir
}

func TestBuiltinsCommand(t *testing.T) {
	out, err := execute(t, "builtins")
	require.NoError(t, err)

	assert.Contains(t, out, "declare")
	assert.Contains(t, out, "pkgman")
	assert.Regexp(t, `(?m)^awk +\(module, install with pkgman get awk\)$`, out)
}

func TestFsCommands(t *testing.T) {
	dir := initConfig(t)
	exported := filepath.Join(t.TempDir(), "root")

	_, err := execute(t, "--config", dir, "fs", "export", exported)
	require.NoError(t, err)

	greet, err := os.ReadFile(filepath.Join(exported, "bin", "greet.sh"))
	require.NoError(t, err)
	assert.Equal(t, "read name\necho Hello $name", string(greet))

	out, err := execute(t, "--config", dir, "fs", "import", filepath.Join(exported, "home"))
	require.NoError(t, err)
	assert.Contains(t, out, "operator:")
	assert.Contains(t, out, "guest: {}")
}

func TestEventsCommands(t *testing.T) {
	dir := initConfig(t)
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	fd, err := cfg.OpenAppLog()
	require.NoError(t, err)
	events := logger.NewJsonLinesLogRecorder(fd).Session("1234")
	require.NoError(t, events.LoginAttempt("guest", "local", logger.LoginSuccess))
	events.RanCommand("guest", "ls", "/", "")
	require.NoError(t, events.End("exit"))
	require.NoError(t, fd.Close())

	t.Run("report", func(t *testing.T) {
		out, err := execute(t, "--config", dir, "events", "report")
		require.NoError(t, err)
		assert.Contains(t, out, "log_entries: 3")
	})

	t.Run("session", func(t *testing.T) {
		out, err := execute(t, "--config", dir, "events", "session", "1234")
		require.NoError(t, err)
		assert.Contains(t, out, "username: guest")
		assert.Contains(t, out, "- ls /")
	})

	t.Run("unknown session", func(t *testing.T) {
		_, err := execute(t, "--config", dir, "events", "session", "nope")
		assert.ErrorContains(t, err, `no session "nope"`)
	})
}

func TestLogsCommands(t *testing.T) {
	dir := initConfig(t)
	cfg, err := config.Load(dir)
	require.NoError(t, err)

	fd, err := cfg.CreateSessionLog("s1.cast")
	require.NoError(t, err)
	sink := ttylog.NewAsciicastLogSink(fd, ttylog.NewAsciicastHeader("test session", 80, 24))
	require.NoError(t, sink(&ttylog.Entry{TimestampMicros: 1, Fd: ttylog.FDStdout, Data: []byte("hello ")}))
	require.NoError(t, sink(&ttylog.Entry{TimestampMicros: 2, Fd: ttylog.FDStdout, Data: []byte("world\n")}))
	require.NoError(t, fd.Close())

	out, err := execute(t, "--config", dir, "logs", "list")
	require.NoError(t, err)
	assert.Equal(t, "s1.cast\t1970-01-01T00:00:00Z\ttest session\n", out)

	out, err = execute(t, "--config", dir, "logs", "cat", "s1.cast")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)
}
