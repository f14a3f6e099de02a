package core_execution

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/app"
	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/vk/blockflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

// Test for: Dag file arguments, defaults and the settings file are layered
// in that order, and settings never override a connected input.
func TestCoreExecution_ArgumentsDefaultsAndSettings(t *testing.T) {
	// --- Arrange ---
	spies := map[string]*testutil.Spy{}
	module := mockModule(func(r *registry.Registry) {
		r.RegisterBlock("mock", "mock.greeter", "Greets.", func(id string) (block.Block, error) {
			s := testutil.NewSpy(id).
				WithInput("greeting", cty.String, param.WithDefault(cty.StringVal("hello"))).
				WithInput("name", cty.String, param.WithDefault(cty.StringVal("world"))).
				WithOutput("message", cty.String)
			s.Fn = func(_ context.Context, _ *stopper.Stopper, b *testutil.Spy) error {
				g, _ := param.As[string](b.In("greeting"))
				n, _ := param.As[string](b.In("name"))
				return b.Out("message").Set(cty.StringVal(g + " " + n))
			}
			spies[id] = s
			return s, nil
		})
	})

	dir := t.TempDir()
	dagHCL := `
		dag "test.layers" {
			block "first" {
				type = "mock.greeter"
				arguments {
					name = "dag file"
				}
			}
			block "second" {
				type = "mock.greeter"
			}
			connection "first" "second" {
				mapping {
					from = "message"
					to   = "name"
				}
			}
		}
	`
	settingsHCL := `
		block "mock.greeter" {
			greeting = "hi"
			name     = "settings"
		}
	`
	dagPath := filepath.Join(dir, "dag.hcl")
	settingsPath := filepath.Join(t.TempDir(), "settings.hcl")
	require.NoError(t, os.WriteFile(dagPath, []byte(dagHCL), 0o600))
	require.NoError(t, os.WriteFile(settingsPath, []byte(settingsHCL), 0o600))

	testApp, logs := app.SetupAppTest(t, app.Config{DagPaths: []string{dir}, SettingsPath: settingsPath}, module)

	// --- Act ---
	_, err := testApp.Run(context.Background(), "test.layers")

	// --- Assert ---
	require.NoError(t, err)
	// Settings override the dag file argument of the unconnected input.
	assert.Equal(t, "settings", spies["first"].Input(0, "name").AsString())
	assert.Equal(t, "hi", spies["first"].Input(0, "greeting").AsString())
	// The connected input keeps the propagated value.
	assert.Equal(t, "hi settings", spies["second"].Input(0, "name").AsString())
	assert.Equal(t, 1, strings.Count(logs.String(), "Setting ignored for connected input."))
}
