// Package yamlspec implements the YAML dag file format. The layout mirrors
// the HCL one; argument values travel through cty's JSON encoding so any
// value a parameter can hold can be written and read back.
package yamlspec

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/vk/blockflow/internal/config"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

type dagDoc struct {
	Key         string          `yaml:"key"`
	Doc         string          `yaml:"doc,omitempty"`
	Title       string          `yaml:"title,omitempty"`
	Blocks      []blockDoc      `yaml:"blocks,omitempty"`
	Connections []connectionDoc `yaml:"connections,omitempty"`
}

type blockDoc struct {
	ID        string               `yaml:"id"`
	Type      string               `yaml:"type"`
	Name      string               `yaml:"name,omitempty"`
	Arguments map[string]yaml.Node `yaml:"arguments,omitempty"`
}

type connectionDoc struct {
	Source   string       `yaml:"source"`
	Target   string       `yaml:"target"`
	Mappings []mappingDoc `yaml:"mappings"`
}

type mappingDoc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Codec is the YAML implementation of config.Codec.
type Codec struct{}

var _ config.Codec = (*Codec)(nil)

// NewCodec creates a new YAML codec.
func NewCodec() *Codec {
	return &Codec{}
}

// DecodeDags parses every document of a YAML stream as one dag.
func (c *Codec) DecodeDags(ctx context.Context, src []byte, filename string) ([]*config.DagSpec, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Decoding YAML dag file.", "file", filename)

	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)

	var specs []*config.DagSpec
	for {
		var doc dagDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
		}
		spec, err := fromDoc(&doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		specs = append(specs, spec)
	}
	logger.Debug("Decoded YAML dag file.", "file", filename, "dags", len(specs))
	return specs, nil
}

func fromDoc(doc *dagDoc) (*config.DagSpec, error) {
	if _, err := nodeid.ParseKey(doc.Key); err != nil {
		return nil, fmt.Errorf("dag '%s': invalid key: %w", doc.Key, err)
	}
	spec := &config.DagSpec{Key: doc.Key, Doc: doc.Doc, Title: doc.Title}
	for _, b := range doc.Blocks {
		if _, err := nodeid.ParseIdentity(b.ID); err != nil {
			return nil, fmt.Errorf("dag '%s': invalid block identity '%s': %w", doc.Key, b.ID, err)
		}
		if b.Type == "" {
			return nil, fmt.Errorf("dag '%s': block '%s': missing type", doc.Key, b.ID)
		}
		bs := config.BlockSpec{ID: b.ID, Type: b.Type, Name: b.Name}
		for name, node := range b.Arguments {
			v, err := nodeToValue(&node)
			if err != nil {
				return nil, fmt.Errorf("dag '%s': block '%s': argument '%s': %w", doc.Key, b.ID, name, err)
			}
			if bs.Arguments == nil {
				bs.Arguments = make(map[string]cty.Value, len(b.Arguments))
			}
			bs.Arguments[name] = v
		}
		spec.Blocks = append(spec.Blocks, bs)
	}
	for _, conn := range doc.Connections {
		cs := config.ConnectionSpec{Source: conn.Source, Target: conn.Target}
		for _, m := range conn.Mappings {
			cs.Mappings = append(cs.Mappings, config.MappingSpec{From: m.From, To: m.To})
		}
		spec.Connections = append(spec.Connections, cs)
	}
	return spec, nil
}

// EncodeDag renders spec as a single YAML document.
func (c *Codec) EncodeDag(spec *config.DagSpec) ([]byte, error) {
	doc := dagDoc{Key: spec.Key, Doc: spec.Doc, Title: spec.Title}
	for _, b := range spec.Blocks {
		bd := blockDoc{ID: b.ID, Type: b.Type, Name: b.Name}
		for _, name := range slices.Sorted(maps.Keys(b.Arguments)) {
			node, err := valueToNode(b.Arguments[name])
			if err != nil {
				return nil, fmt.Errorf("block '%s': argument '%s': %w", b.ID, name, err)
			}
			if bd.Arguments == nil {
				bd.Arguments = make(map[string]yaml.Node, len(b.Arguments))
			}
			bd.Arguments[name] = *node
		}
		doc.Blocks = append(doc.Blocks, bd)
	}
	for _, conn := range spec.Connections {
		cd := connectionDoc{Source: conn.Source, Target: conn.Target}
		for _, m := range conn.Mappings {
			cd.Mappings = append(cd.Mappings, mappingDoc{From: m.From, To: m.To})
		}
		doc.Connections = append(doc.Connections, cd)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode dag '%s': %w", spec.Key, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// valueToNode converts v to a YAML node through its JSON form. JSON is a
// subset of YAML, so the node parses directly. Collections are switched to
// block layout; scalars keep their quoting.
func valueToNode(v cty.Value) (*yaml.Node, error) {
	if !v.IsWhollyKnown() {
		return nil, errors.New("unknown values cannot be persisted")
	}
	raw, err := ctyjson.SimpleJSONValue{Value: v}.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	node := doc.Content[0]
	resetStyle(node)
	return node, nil
}

func resetStyle(n *yaml.Node) {
	if n.Kind != yaml.ScalarNode {
		n.Style = 0
	}
	for _, c := range n.Content {
		resetStyle(c)
	}
}

// nodeToValue converts a YAML node to a cty value with the type implied by
// its JSON form.
func nodeToValue(n *yaml.Node) (cty.Value, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return cty.NilVal, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return cty.NilVal, err
	}
	var sv ctyjson.SimpleJSONValue
	if err := sv.UnmarshalJSON(raw); err != nil {
		return cty.NilVal, err
	}
	return sv.Value, nil
}
