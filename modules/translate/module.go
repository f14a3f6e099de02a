// Package translate provides the interactive translation example: a
// user-input block, a translator and a display.
package translate

import (
	"context"
	"strings"
	"sync"

	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/ctxlog"
	"github.com/vk/blockflow/internal/dag"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
	"github.com/vk/blockflow/internal/stopper"
	"github.com/zclconf/go-cty/cty"
)

const origin = "translate"

// Module implements the registry.Module interface for this package.
type Module struct{}

// UserInput holds text and a flag entered by a person. Its outputs are only
// passed on once the input is confirmed with a trigger.
type UserInput struct {
	block.Base
}

// NewUserInput creates a UserInput with identity id.
func NewUserInput(id string) *UserInput {
	u := &UserInput{Base: block.NewBase("translate.user_input", id,
		block.WithDoc("Text and a flag entered by a person."),
		block.WithUserInput(),
	)}
	u.DeclareInput("text", cty.String, param.WithDefault(cty.StringVal("")), param.WithDoc("Initial text."))
	u.DeclareInput("flag", cty.Bool, param.WithDefault(cty.False), param.WithDoc("Initial flag."))
	u.DeclareOutput("out_text", cty.String, param.WithDefault(cty.StringVal("")), param.WithDoc("Entered text."))
	u.DeclareOutput("out_flag", cty.Bool, param.WithDefault(cty.False), param.WithDoc("Entered flag."))
	return u
}

// Execute copies the initial values to the outputs so they can be edited
// and confirmed.
func (u *UserInput) Execute(context.Context, *stopper.Stopper) error {
	if err := u.Out("out_text").Set(u.In("text").Value()); err != nil {
		return err
	}
	return u.Out("out_flag").Set(u.In("flag").Value())
}

// Translator turns text upper case when the flag is set and lower case
// otherwise.
type Translator struct {
	block.Base
}

// NewTranslator creates a Translator with identity id.
func NewTranslator(id string) *Translator {
	t := &Translator{Base: block.NewBase("translate.translate", id, block.WithDoc("Translate text."))}
	t.DeclareInput("in_text", cty.String, param.WithDoc("Text to translate."))
	t.DeclareInput("in_flag", cty.Bool, param.WithDefault(cty.False), param.WithDoc("Upper case when set."))
	t.DeclareOutput("out_text", cty.String, param.WithDoc("Translated text."))
	return t
}

func (t *Translator) Execute(ctx context.Context, _ *stopper.Stopper) error {
	text, err := param.As[string](t.In("in_text"))
	if err != nil {
		return err
	}
	upper, err := param.As[bool](t.In("in_flag"))
	if err != nil {
		return err
	}
	if upper {
		text = strings.ToUpper(text)
	} else {
		text = strings.ToLower(text)
	}
	ctxlog.FromContext(ctx).Debug("Translated text.", "block", t.ID(), "upper", upper)
	return t.Out("out_text").Set(cty.StringVal(text))
}

// Display logs the text it receives and keeps the last one.
type Display struct {
	block.Base

	mu   sync.Mutex
	last string
}

// NewDisplay creates a Display with identity id.
func NewDisplay(id string) *Display {
	d := &Display{Base: block.NewBase("translate.display", id, block.WithDoc("Display text."))}
	d.DeclareInput("in_text", cty.String, param.WithDoc("Text to display."))
	return d
}

func (d *Display) Execute(ctx context.Context, _ *stopper.Stopper) error {
	text, err := param.As[string](d.In("in_text"))
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.last = text
	d.mu.Unlock()
	ctxlog.FromContext(ctx).Info("📺 "+text, "block", d.ID())
	return nil
}

// Last returns the most recently displayed text.
func (d *Display) Last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// NewTranslateDag builds user input -> translation -> display.
func NewTranslateDag(ctx context.Context) (*dag.Graph, error) {
	ui := NewUserInput("ui")
	ui.SetName("User input")
	tr := NewTranslator("tr")
	tr.SetName("Translation")
	di := NewDisplay("di")
	di.SetName("Display output")

	g := dag.New("translate.translate",
		dag.WithDoc("Translation"),
		dag.WithTitle("translate text"),
		dag.WithLogger(ctxlog.FromContext(ctx)),
	)
	if _, err := g.Connect(ui, tr, dag.Map("out_text", "in_text"), dag.Map("out_flag", "in_flag")); err != nil {
		return nil, err
	}
	if _, err := g.Connect(tr, di, dag.Map("out_text", "in_text")); err != nil {
		return nil, err
	}
	return g, nil
}

// Register registers the blocks and dags with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterBlock(origin, "translate.user_input", "Text and a flag entered by a person.", func(id string) (block.Block, error) {
		return NewUserInput(id), nil
	})
	r.RegisterBlock(origin, "translate.translate", "Translate text.", func(id string) (block.Block, error) {
		return NewTranslator(id), nil
	})
	r.RegisterBlock(origin, "translate.display", "Display text.", func(id string) (block.Block, error) {
		return NewDisplay(id), nil
	})
	r.RegisterDag(origin, "translate.translate", "Translation", NewTranslateDag)
}
