package env_vars

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

func TestEnv_FiltersByPrefix(t *testing.T) {
	t.Setenv("BLOCKFLOW_ENVTEST_ONE", "1")
	t.Setenv("BLOCKFLOW_ENVTEST_TWO", "2")

	e := NewEnv("env")
	require.NoError(t, e.In("prefix").Set(cty.StringVal("BLOCKFLOW_ENVTEST_")))
	require.NoError(t, e.Execute(context.Background(), stopper.New()))

	all, err := param.As[map[string]string](e.Out("all"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"BLOCKFLOW_ENVTEST_ONE": "1", "BLOCKFLOW_ENVTEST_TWO": "2"}, all)
}

func TestEnv_NoMatches(t *testing.T) {
	e := NewEnv("env")
	require.NoError(t, e.In("prefix").Set(cty.StringVal("BLOCKFLOW_NOTHING_MATCHES_")))
	require.NoError(t, e.Execute(context.Background(), stopper.New()))
	assert.Equal(t, 0, e.Out("all").Value().LengthInt())
}
