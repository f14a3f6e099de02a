package hcl

import (
	"maps"
	"slices"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/blockflow/internal/config"
	"github.com/zclconf/go-cty/cty"
)

// EncodeDag renders spec as a single `dag` block.
func (c *Codec) EncodeDag(spec *config.DagSpec) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	d := f.Body().AppendNewBlock("dag", []string{spec.Key}).Body()
	if spec.Doc != "" {
		d.SetAttributeValue("doc", cty.StringVal(spec.Doc))
	}
	if spec.Title != "" {
		d.SetAttributeValue("title", cty.StringVal(spec.Title))
	}

	for _, b := range spec.Blocks {
		d.AppendNewline()
		body := d.AppendNewBlock("block", []string{b.ID}).Body()
		body.SetAttributeValue("type", cty.StringVal(b.Type))
		if b.Name != "" {
			body.SetAttributeValue("name", cty.StringVal(b.Name))
		}
		if len(b.Arguments) > 0 {
			writeAttributes(body.AppendNewBlock("arguments", nil).Body(), b.Arguments)
		}
	}

	for _, conn := range spec.Connections {
		d.AppendNewline()
		body := d.AppendNewBlock("connection", []string{conn.Source, conn.Target}).Body()
		for _, m := range conn.Mappings {
			mb := body.AppendNewBlock("mapping", nil).Body()
			mb.SetAttributeValue("from", cty.StringVal(m.From))
			mb.SetAttributeValue("to", cty.StringVal(m.To))
		}
	}
	return f.Bytes(), nil
}

// EncodeSettings renders settings with block keys and parameters sorted.
func (c *Codec) EncodeSettings(s config.Settings) []byte {
	f := hclwrite.NewEmptyFile()
	for i, key := range s.Keys() {
		if i > 0 {
			f.Body().AppendNewline()
		}
		writeAttributes(f.Body().AppendNewBlock("block", []string{key}).Body(), s[key])
	}
	return f.Bytes()
}

func writeAttributes(body *hclwrite.Body, attrs map[string]cty.Value) {
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		body.SetAttributeValue(name, attrs[name])
	}
}
