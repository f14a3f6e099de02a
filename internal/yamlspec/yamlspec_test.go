package yamlspec

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockflow/internal/config"
	"github.com/zclconf/go-cty/cty"
)

var ctyEqual = cmp.Comparer(func(a, b cty.Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() == b.IsNull()
	}
	return a.Equals(b).True()
})

const stopStart = `key: timer.stop_start
doc: Query a number and count it down twice.
blocks:
  - id: query
    type: timer.query
    arguments:
      timer_out: 3
  - id: first
    type: timer.progress
    name: First bar
    arguments:
      step: 10ms
  - id: second
    type: timer.progress
connections:
  - source: query
    target: first
    mappings:
      - from: timer_out
        to: timer_in
  - source: first
    target: second
    mappings:
      - from: timer_out
        to: timer_in
`

func TestDecodeDags(t *testing.T) {
	specs, err := NewCodec().DecodeDags(context.Background(), []byte(stopStart), "stop_start.yaml")
	require.NoError(t, err)
	require.Len(t, specs, 1)

	want := &config.DagSpec{
		Key: "timer.stop_start",
		Doc: "Query a number and count it down twice.",
		Blocks: []config.BlockSpec{
			{ID: "query", Type: "timer.query", Arguments: map[string]cty.Value{"timer_out": cty.NumberIntVal(3)}},
			{ID: "first", Type: "timer.progress", Name: "First bar", Arguments: map[string]cty.Value{"step": cty.StringVal("10ms")}},
			{ID: "second", Type: "timer.progress"},
		},
		Connections: []config.ConnectionSpec{
			{Source: "query", Target: "first", Mappings: []config.MappingSpec{{From: "timer_out", To: "timer_in"}}},
			{Source: "first", Target: "second", Mappings: []config.MappingSpec{{From: "timer_out", To: "timer_in"}}},
		},
	}
	if diff := cmp.Diff(want, specs[0], ctyEqual); diff != "" {
		t.Errorf("DecodeDags() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	c := NewCodec()
	want := &config.DagSpec{
		Key:   "demo.values",
		Title: "Values",
		Blocks: []config.BlockSpec{{
			ID:   "b",
			Type: "print.print",
			Arguments: map[string]cty.Value{
				"flag":   cty.True,
				"number": cty.NumberFloatVal(1.5),
				"text":   cty.StringVal("true"),
				"nested": cty.ObjectVal(map[string]cty.Value{
					"names": cty.TupleVal([]cty.Value{cty.StringVal("a"), cty.StringVal("b")}),
				}),
				"nothing": cty.NullVal(cty.String),
			},
		}},
	}

	src, err := c.EncodeDag(want)
	require.NoError(t, err)
	assert.Contains(t, string(src), `text: "true"`, "strings that look like other scalars stay quoted")

	specs, err := c.DecodeDags(context.Background(), src, "dump.yaml")
	require.NoError(t, err)
	require.Len(t, specs, 1)
	if diff := cmp.Diff(want, specs[0], ctyEqual); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeDags_MultipleDocuments(t *testing.T) {
	src := "key: a.one\n---\nkey: a.two\n"
	specs, err := NewCodec().DecodeDags(context.Background(), []byte(src), "multi.yaml")
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "a.two", specs[1].Key)
}

func TestDecodeDags_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"unknown field", "key: a.b\nextra: 1\n", "failed to decode"},
		{"bad key", "key: plain\n", "invalid key"},
		{"missing type", "key: a.b\nblocks:\n  - id: x\n", "missing type"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewCodec().DecodeDags(context.Background(), []byte(tc.src), "bad.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
