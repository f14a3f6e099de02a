package param

import (
	"encoding/json"
	"fmt"

	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// ToGo converts v into plain Go values (maps, slices, float64, string,
// bool, nil) through its JSON form, for handing to libraries that take
// untyped data.
func ToGo(v cty.Value) (any, error) {
	if v == cty.NilVal || v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	raw, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FromGo converts untyped Go data into a cty value whose type is implied by
// its JSON form. Objects become cty objects and arrays become tuples.
func FromGo(data any) (cty.Value, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return cty.NilVal, err
	}
	var sv ctyjson.SimpleJSONValue
	if err := sv.UnmarshalJSON(raw); err != nil {
		return cty.NilVal, err
	}
	return sv.Value, nil
}
