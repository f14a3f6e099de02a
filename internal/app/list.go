package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vk/blockflow/internal/block"
	"github.com/vk/blockflow/internal/param"
	"github.com/vk/blockflow/internal/registry"
)

// styles renders listings. On a writer that is not a terminal every style
// degrades to plain text.
type styles struct {
	origin    lipgloss.Style
	key       lipgloss.Style
	duplicate lipgloss.Style
	detail    lipgloss.Style
	failure   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		origin:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		key:       r.NewStyle().Foreground(lipgloss.Color("42")),
		duplicate: r.NewStyle().Foreground(lipgloss.Color("214")),
		detail:    r.NewStyle().Foreground(lipgloss.Color("241")),
		failure:   r.NewStyle().Foreground(lipgloss.Color("196")),
	}
}

// ListBlocks prints the block registrations whose key ends with filter,
// grouped by origin. verbose adds the full doc and the parameters of a
// freshly constructed instance.
func (a *App) ListBlocks(ctx context.Context, filter string, verbose bool) error {
	entries := a.registry.ListBlocks(filter)
	a.logger.Debug("Listing blocks.", "filter", filter, "count", len(entries))
	a.printListing(entries, verbose, func(st styles, e registry.Entry) {
		b, err := e.Probe()
		if err != nil {
			fmt.Fprintf(a.outW, "    %s\n", st.failure.Render("cannot construct: "+err.Error()))
			return
		}
		printParams(a.outW, st, "inputs", b.Inputs())
		printParams(a.outW, st, "outputs", b.Outputs())
		if block.IsUserInput(b) {
			fmt.Fprintf(a.outW, "    %s\n", st.detail.Render("waits for user confirmation"))
		}
	})
	return nil
}

// ListDags prints the dag registrations whose key ends with filter, grouped
// by origin. verbose adds the full doc and the blocks of a freshly
// constructed instance.
func (a *App) ListDags(ctx context.Context, filter string, verbose bool) error {
	ctx = a.withLogger(ctx)
	entries := a.registry.ListDags(filter)
	a.logger.Debug("Listing dags.", "filter", filter, "count", len(entries))
	a.printListing(entries, verbose, func(st styles, e registry.Entry) {
		g, err := e.NewDag(ctx)
		if err != nil {
			fmt.Fprintf(a.outW, "    %s\n", st.failure.Render("cannot construct: "+err.Error()))
			return
		}
		if g.Title() != "" {
			fmt.Fprintf(a.outW, "    title: %s\n", g.Title())
		}
		fmt.Fprintf(a.outW, "    blocks:\n")
		for _, b := range g.Blocks() {
			line := fmt.Sprintf("      %s (%s)", b.ID(), block.KeyOf(b))
			if b.Name() != "" && b.Name() != b.ID() {
				line += " " + st.detail.Render(b.Name())
			}
			fmt.Fprintln(a.outW, line)
		}
	})
	return nil
}

func (a *App) printListing(entries []registry.Entry, verbose bool, details func(styles, registry.Entry)) {
	st := newStyles(a.outW)
	for _, group := range registry.Groups(entries) {
		fmt.Fprintln(a.outW, st.origin.Render("In "+group.Origin))
		for _, e := range group.Entries {
			first, rest, _ := strings.Cut(strings.TrimSpace(e.Doc), "\n")
			line := fmt.Sprintf("  %s: %s", st.key.Render(e.Key), first)
			if e.Duplicate {
				line += " " + st.duplicate.Render("(DUPLICATE)")
			}
			fmt.Fprintln(a.outW, strings.TrimRight(line, " "))
			if !verbose {
				continue
			}
			for _, l := range strings.Split(strings.TrimSpace(rest), "\n") {
				if l != "" {
					fmt.Fprintf(a.outW, "    %s\n", l)
				}
			}
			details(st, e)
		}
	}
}

func printParams(w io.Writer, st styles, title string, set *param.Set) {
	if set.Len() == 0 {
		return
	}
	fmt.Fprintf(w, "    %s:\n", title)
	for _, p := range set.All() {
		line := fmt.Sprintf("      %s %s", p.Name(), st.detail.Render(p.Type().FriendlyName()))
		if !p.Default().IsNull() {
			line += " = " + param.FormatValue(p.Default())
		}
		if p.Doc() != "" {
			line += "  " + st.detail.Render(p.Doc())
		}
		fmt.Fprintln(w, line)
	}
}
