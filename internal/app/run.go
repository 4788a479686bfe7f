package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/vk/latticego/internal/convert"
	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/source"
)

// Run loads the lattice description, translates it into a line, and prints a
// conversion summary.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	loader := source.NewLoader()
	seq, err := loader.Load(ctx, a.config.LatticeName, a.config.LatticePath)
	if err != nil {
		return err
	}
	a.logger.Info("Lattice description loaded.",
		"name", seq.Name, "records", len(seq.Records))

	translator, err := convert.NewTranslator(seq, a.options)
	if err != nil {
		return err
	}
	line, err := translator.Translate(ctx)
	if err != nil {
		return err
	}

	a.renderSummary(seq.Name, line)
	return nil
}

// renderSummary prints the per-type element counts of the translated line.
func (a *App) renderSummary(name string, line *element.Line) {
	counts := make(map[element.Tag]int)
	for _, elName := range line.Names() {
		el, ok := line.Get(elName)
		if !ok {
			continue
		}
		counts[el.Tag()]++
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, string(tag))
	}
	sort.Strings(tags)

	t := table.NewWriter()
	t.SetOutputMirror(a.outW)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("Lattice %q", name))
	t.AppendHeader(table.Row{"Element Type", "Count"})
	for _, tag := range tags {
		t.AppendRow(table.Row{tag, counts[element.Tag(tag)]})
	}
	t.AppendFooter(table.Row{"Total", line.Len()})
	t.Render()

	fmt.Fprintf(a.outW, "Compound elements: %d\n", line.Compounds().Len())
	if line.Vars != nil {
		fmt.Fprintf(a.outW, "Expression bindings: %d\n", line.Vars.Bindings())
	}
}
