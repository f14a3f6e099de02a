package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Logs and
// printed output go to the returned buffer; BLOCKFLOW_TEST_LOGS=1 echoes
// them when the test ends.
func SetupAppTest(t *testing.T, cfg Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	if cfg.SettingsPath == "" {
		cfg.SettingsPath = t.TempDir() + "/settings.hcl"
	}
	cfg.LogLevel = "debug"
	appConfig, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &testutil.SafeBuffer{}
	testApp, err := NewApp(logBuffer, appConfig, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if testutil.LogsEnabled() {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return testApp, logBuffer
}
