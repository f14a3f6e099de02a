package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/hcl"
	"github.com/vk/blockflow/internal/nodestore"
	"github.com/vk/blockflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

const echoDag = `
dag "demo.echo" {
  doc = "Echo text.\nLower cases it first."
  block "t" {
    type = "translate.translate"
    arguments {
      in_text = "HeLLo"
    }
  }
  block "p" {
    type = "print.print"
    name = "Printed"
  }
  connection "t" "p" {
    mapping {
      from = "out_text"
      to   = "value"
    }
  }
}
`

const yamlDag = `
key: demo.from_yaml
doc: From YAML.
blocks:
  - id: src
    type: translate.translate
    arguments:
      in_text: ABC
  - id: out
    type: print.print
connections:
  - source: src
    target: out
    mappings:
      - from: out_text
        to: value
`

const fastTimers = `
block "timer.progress" {
  step = "1ms"
}
block "timer.query" {
  period = 3
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewConfig_Validation(t *testing.T) {
	cfg, err := NewConfig(Config{})
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultSettingsPath, cfg.SettingsPath)

	cfg, err = NewConfig(Config{LogFormat: "JSON", LogLevel: "Debug"})
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)

	for _, bad := range []Config{
		{LogFormat: "xml"},
		{LogLevel: "verbose"},
		{HealthcheckPort: -1},
		{HealthcheckPort: 70000},
	} {
		_, err := NewConfig(bad)
		assert.Error(t, err, "%+v", bad)
	}
}

func TestNewApp_RegistersDagFiles(t *testing.T) {
	dir := t.TempDir()
	hclPath := writeFile(t, dir, "echo.hcl", echoDag)
	yamlPath := writeFile(t, dir, "echo.yaml", yamlDag)
	writeFile(t, dir, "notes.txt", "ignored")

	a, out := SetupAppTest(t, Config{DagPaths: []string{dir}})

	e, err := a.Registry().LookupDag("demo.echo")
	require.NoError(t, err)
	assert.Equal(t, "file:"+hclPath, e.Origin)
	e, err = a.Registry().LookupDag("demo.from_yaml")
	require.NoError(t, err)
	assert.Equal(t, "file:"+yamlPath, e.Origin)

	res, err := a.Run(context.Background(), "demo.echo")
	require.NoError(t, err)
	assert.Equal(t, dag.RunCompleted, res.Status)
	assert.Equal(t, []string{"t", "p"}, res.Executed)
	assert.Contains(t, out.String(), "Printed:\n      \"hello\"\n")

	_, err = a.Run(context.Background(), "demo.from_yaml")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "out:\n      \"abc\"\n")
}

func TestNewApp_BadDagFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.hcl", `dag "demo.broken" {`)

	cfg, err := NewConfig(Config{DagPaths: []string{dir}})
	require.NoError(t, err)
	_, err = NewApp(io.Discard, cfg)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "parse", cfgErr.Op)
}

func TestListBlocks(t *testing.T) {
	a, out := SetupAppTest(t, Config{})
	out.Reset()

	require.NoError(t, a.ListBlocks(context.Background(), "progress", false))
	text := out.String()
	assert.Contains(t, text, "In timer")
	assert.Contains(t, text, "timer.progress")
	assert.Contains(t, text, "Count down a period one step at a time.")
	assert.NotContains(t, text, "timer.query")
	assert.NotContains(t, text, "timer_in")

	out.Reset()
	require.NoError(t, a.ListBlocks(context.Background(), "user_input", true))
	text = out.String()
	assert.Contains(t, text, "inputs:")
	assert.Contains(t, text, "text")
	assert.Contains(t, text, "outputs:")
	assert.Contains(t, text, "out_flag")
	assert.Contains(t, text, "waits for user confirmation")
}

func TestListDags_Duplicates(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "override.hcl", `
dag "timer.stop_start" {
  doc = "Overridden."
}
`)
	a, out := SetupAppTest(t, Config{DagPaths: []string{path}})
	out.Reset()

	require.NoError(t, a.ListDags(context.Background(), "stop_start", true))
	text := out.String()
	assert.Contains(t, text, "In timer")
	assert.Contains(t, text, "In file:"+path)
	assert.Contains(t, text, "Overridden.")
	assert.Contains(t, text, "(DUPLICATE)")
	assert.Contains(t, text, "progress1 (timer.progress)")

	g, err := a.Registry().NewDag(context.Background(), "timer.stop_start")
	require.NoError(t, err)
	assert.Empty(t, g.Blocks(), "the later registration wins")
}

func TestDump(t *testing.T) {
	a, out := SetupAppTest(t, Config{})

	out.Reset()
	require.NoError(t, a.Dump(context.Background(), "timer.stop_start", "hcl"))
	assert.Contains(t, out.String(), `dag "timer.stop_start"`)
	assert.Contains(t, out.String(), `connection "query" "progress1"`)

	out.Reset()
	require.NoError(t, a.Dump(context.Background(), "timer.stop_start", "yaml"))
	assert.Contains(t, out.String(), "key: timer.stop_start")

	assert.Error(t, a.Dump(context.Background(), "timer.stop_start", "xml"))
	var nf *registry.NotFoundError
	assert.ErrorAs(t, a.Dump(context.Background(), "no.such", "hcl"), &nf)
}

func TestRun_AppliesSettings(t *testing.T) {
	settings := writeFile(t, t.TempDir(), "settings.hcl", fastTimers)
	a, _ := SetupAppTest(t, Config{SettingsPath: settings})

	res, err := a.Run(context.Background(), "timer.stop_start")
	require.NoError(t, err)
	assert.Equal(t, dag.RunCompleted, res.Status)
	assert.Equal(t, []string{"query", "progress1", "progress2"}, res.Executed)

	assert.Equal(t, 1.0, promtest.ToFloat64(a.Metrics().RunsCounter("timer.stop_start", "completed")))
	assert.Equal(t, 1.0, promtest.ToFloat64(a.Metrics().BlocksCounter("timer.stop_start", "progress2", "completed")))
}

func TestRun_ConfirmsUserInput(t *testing.T) {
	settings := writeFile(t, t.TempDir(), "settings.hcl", `
block "translate.user_input" {
  text = "Hello World"
  flag = true
}
`)
	a, out := SetupAppTest(t, Config{SettingsPath: settings})

	res, err := a.Run(context.Background(), "translate.translate")
	require.NoError(t, err)
	assert.Equal(t, dag.RunCompleted, res.Status)
	assert.Equal(t, nodestore.StatusCompleted, res.StatusOf("ui"))
	assert.Equal(t, nodestore.StatusCompleted, res.StatusOf("di"))
	assert.Contains(t, out.String(), "📺 HELLO WORLD")
}

func TestRun_Errors(t *testing.T) {
	a, _ := SetupAppTest(t, Config{})

	var nf *registry.NotFoundError
	_, err := a.Run(context.Background(), "no.such")
	assert.ErrorAs(t, err, &nf)

	settings := writeFile(t, t.TempDir(), "settings.hcl", `
block "timer.progress" {
  no_such_input = 1
}
`)
	a, _ = SetupAppTest(t, Config{SettingsPath: settings})
	var cfgErr *ConfigError
	_, err = a.Run(context.Background(), "timer.stop_start")
	assert.ErrorAs(t, err, &cfgErr)

	settings = writeFile(t, t.TempDir(), "settings.hcl", `
block "timer.progress" {
  step = "soon"
}
`)
	a, _ = SetupAppTest(t, Config{SettingsPath: settings})
	res, err := a.Run(context.Background(), "timer.stop_start")
	var execErr *dag.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "progress1", execErr.Block)
	assert.Equal(t, dag.RunFailed, res.Status)
}

func TestRun_CancelStopsGraph(t *testing.T) {
	settings := writeFile(t, t.TempDir(), "settings.hcl", `
block "timer.progress" {
  step = "10ms"
}
block "timer.query" {
  period = 1000
}
`)
	a, out := SetupAppTest(t, Config{SettingsPath: settings})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	start := time.Now()
	res, err := a.Run(ctx, "timer.stop_start")
	assert.True(t, errors.Is(err, ErrIncomplete), "got %v", err)
	assert.Equal(t, dag.RunIncomplete, res.Status)
	assert.Equal(t, nodestore.StatusStopped, res.StatusOf("progress1"))
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Contains(t, out.String(), "Stop requested.")
}

func TestUpdateConfig(t *testing.T) {
	settings := filepath.Join(t.TempDir(), "settings.hcl")
	a, _ := SetupAppTest(t, Config{SettingsPath: settings})
	ctx := context.Background()

	require.NoError(t, a.UpdateConfig(ctx, "settings.from_args", `timer.progress.step="1ms";timer.query.period=5`))
	require.NoError(t, a.UpdateConfig(ctx, "settings.from_args", `timer.query.period=2`))

	s, err := hcl.NewCodec().LoadSettings(ctx, settings)
	require.NoError(t, err)
	assert.True(t, s["timer.progress"]["step"].RawEquals(cty.StringVal("1ms")))
	assert.True(t, s["timer.query"]["period"].Equals(cty.NumberIntVal(2)).True(), "later values win")

	res, err := a.Run(ctx, "timer.stop_start")
	require.NoError(t, err)
	assert.Equal(t, dag.RunCompleted, res.Status)

	assert.ErrorIs(t, a.UpdateConfig(ctx, "timer.query", ""), ErrNotConfigBlock)
	var nf *registry.NotFoundError
	assert.ErrorAs(t, a.UpdateConfig(ctx, "no.such", ""), &nf)
}

func TestHealthMux(t *testing.T) {
	settings := writeFile(t, t.TempDir(), "settings.hcl", fastTimers)
	a, _ := SetupAppTest(t, Config{SettingsPath: settings})
	_, err := a.Run(context.Background(), "timer.stop_start")
	require.NoError(t, err)

	srv := httptest.NewServer(a.newHealthMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK\n", string(body))

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `blockflow_dag_runs_total{dag="timer.stop_start",status="completed"} 1`)
}
