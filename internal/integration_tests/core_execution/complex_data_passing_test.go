package core_execution

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/app"
	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/vk/blockflow/internal/testutil"
	"github.com/zclconf/go-cty/cty"
)

// ctyComparer lets go-cmp compare cty values structurally.
var ctyComparer = cmp.Comparer(func(a, b cty.Value) bool { return a.RawEquals(b) })

type mockModule func(r *registry.Registry)

func (m mockModule) Register(r *registry.Registry) { m(r) }

// Test for: Complex data (objects, lists) passes correctly between blocks.
func TestCoreExecution_ComplexDataPassing(t *testing.T) {
	// --- Arrange ---
	expectedData := cty.ObjectVal(map[string]cty.Value{
		"id":      cty.NumberIntVal(99),
		"name":    cty.StringVal("complex-object"),
		"enabled": cty.True,
		"metadata": cty.ObjectVal(map[string]cty.Value{
			"owner": cty.StringVal("test-suite"),
		}),
		"items": cty.ListVal([]cty.Value{
			cty.ObjectVal(map[string]cty.Value{"item_id": cty.NumberIntVal(1)}),
			cty.ObjectVal(map[string]cty.Value{"item_id": cty.NumberIntVal(2)}),
		}),
	})

	var spy *testutil.Spy
	module := mockModule(func(r *registry.Registry) {
		r.RegisterBlock("mock", "mock.source", "Emits a nested object.", func(id string) (block.Block, error) {
			s := testutil.NewSpy(id).WithOutput("data", cty.DynamicPseudoType)
			s.Fn = func(_ context.Context, _ *stopper.Stopper, b *testutil.Spy) error {
				return b.Out("data").Set(expectedData)
			}
			return s, nil
		})
		r.RegisterBlock("mock", "mock.spy", "Records its input.", func(id string) (block.Block, error) {
			spy = testutil.NewSpy(id).WithInput("input", cty.DynamicPseudoType)
			return spy, nil
		})
	})

	dagHCL := `
		dag "test.data_passing" {
			block "a" {
				type = "mock.source"
			}
			block "b" {
				type = "mock.spy"
			}
			connection "a" "b" {
				mapping {
					from = "data"
					to   = "input"
				}
			}
		}
	`
	dagPath := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(dagPath, []byte(dagHCL), 0o600))

	testApp, _ := app.SetupAppTest(t, app.Config{DagPaths: []string{dagPath}}, module)

	// --- Act ---
	_, err := testApp.Run(context.Background(), "test.data_passing")

	// --- Assert ---
	require.NoError(t, err)
	require.NotNil(t, spy)
	require.Equal(t, 1, spy.Calls())
	if diff := cmp.Diff(expectedData, spy.Input(0, "input"), ctyComparer); diff != "" {
		t.Errorf("captured input mismatch (-want +got):\n%s", diff)
	}
}
