package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package. Out
// overrides where printers write; nil means stdout.
type Module struct {
	Out io.Writer
}

// Printer writes its input to Out, one attribute per line with keys sorted
// for maps and objects.
type Printer struct {
	block.Base
	Out io.Writer
}

// NewPrinter creates a Printer writing to stdout.
func NewPrinter(id string) *Printer {
	p := &Printer{
		Base: block.NewBase("print.print", id, block.WithDoc("Print any value.")),
		Out:  os.Stdout,
	}
	p.DeclareInput("value", cty.DynamicPseudoType, param.WithDoc("Value to print."))
	return p
}

func (p *Printer) Execute(ctx context.Context, _ *stopper.Stopper) error {
	ctxlog.FromContext(ctx).Info("Printing input", "block", p.ID())

	v := p.In("value").Value()
	fmt.Fprintf(p.Out, "%s:\n", p.Name())

	if v.IsNull() {
		fmt.Fprintln(p.Out, "      (null)")
		return nil
	}

	ty := v.Type()
	if !v.IsKnown() || !(ty.IsObjectType() || ty.IsMapType()) {
		fmt.Fprintf(p.Out, "      %s\n", param.FormatValue(v))
		return nil
	}

	// Sort keys for consistent output
	values := v.AsValueMap()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		fmt.Fprintf(p.Out, "      %s = %s\n", k, param.FormatValue(values[k]))
	}
	return nil
}

// Register registers the block with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock("print", "print.print", "Print any value.", func(id string) (block.Block, error) {
		p := NewPrinter(id)
		if m.Out != nil {
			p.Out = m.Out
		}
		return p, nil
	})
}
