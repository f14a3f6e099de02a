package error_handling

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/app"
	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/nodestore"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/vk/blockflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

type mockModule func(r *registry.Registry)

func (m mockModule) Register(r *registry.Registry) { m(r) }

var errBoom = errors.New("boom")

func failingModule(spies map[string]*testutil.Spy) mockModule {
	return func(r *registry.Registry) {
		r.RegisterBlock("mock", "mock.ok", "Succeeds.", func(id string) (block.Block, error) {
			s := testutil.NewSpy(id).WithInput("in", cty.String).WithOutput("out", cty.String)
			s.Fn = func(_ context.Context, _ *stopper.Stopper, b *testutil.Spy) error {
				return b.Out("out").Set(cty.StringVal("ok"))
			}
			spies[id] = s
			return s, nil
		})
		r.RegisterBlock("mock", "mock.fail", "Fails.", func(id string) (block.Block, error) {
			s := testutil.NewSpy(id).WithInput("in", cty.String).WithOutput("out", cty.String)
			s.Fn = func(context.Context, *stopper.Stopper, *testutil.Spy) error { return errBoom }
			spies[id] = s
			return s, nil
		})
		r.RegisterBlock("mock", "mock.panic", "Panics.", func(id string) (block.Block, error) {
			s := testutil.NewSpy(id).WithInput("in", cty.String).WithOutput("out", cty.String)
			s.Fn = func(context.Context, *stopper.Stopper, *testutil.Spy) error { panic("kaboom") }
			spies[id] = s
			return s, nil
		})
	}
}

func writeDag(t *testing.T, failType string) string {
	t.Helper()
	content := `
		dag "test.fail" {
			block "first" {
				type = "mock.ok"
				arguments {
					in = "start"
				}
			}
			block "broken" {
				type = "` + failType + `"
			}
			block "after" {
				type = "mock.ok"
			}
			connection "first" "broken" {
				mapping {
					from = "out"
					to   = "in"
				}
			}
			connection "broken" "after" {
				mapping {
					from = "out"
					to   = "in"
				}
			}
		}
	`
	path := filepath.Join(t.TempDir(), "fail.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// Test for: A failing block halts the run and its dependents are skipped.
func TestErrorHandling_BlockFailSkipsDependents(t *testing.T) {
	for _, failType := range []string{"mock.fail", "mock.panic"} {
		t.Run(failType, func(t *testing.T) {
			// --- Arrange ---
			spies := map[string]*testutil.Spy{}
			testApp, _ := app.SetupAppTest(t, app.Config{DagPaths: []string{writeDag(t, failType)}}, failingModule(spies))

			// --- Act ---
			res, err := testApp.Run(context.Background(), "test.fail")

			// --- Assert ---
			var execErr *dag.ExecutionError
			require.ErrorAs(t, err, &execErr)
			assert.Equal(t, "broken", execErr.Block)
			assert.Equal(t, dag.RunFailed, res.Status)
			assert.Equal(t, "broken", res.Failed)
			assert.Equal(t, nodestore.StatusCompleted, res.StatusOf("first"))
			assert.Equal(t, nodestore.StatusFailed, res.StatusOf("broken"))
			assert.Equal(t, nodestore.StatusSkipped, res.StatusOf("after"))
			assert.Equal(t, 0, spies["after"].Calls())
			if failType == "mock.fail" {
				assert.ErrorIs(t, err, errBoom)
			} else {
				assert.Contains(t, err.Error(), "panic: kaboom")
			}
		})
	}
}
