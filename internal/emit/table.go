package emit

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/soyeahso/d20stats/internal/domain"
)

// Headline lists the metrics the terminal table shows.
var Headline = []string{
	"d20_roll_count",
	"nat_20_count",
	"nat_20_ratio",
	"nat_1_ratio",
	"advantage_ratio",
	"disadvantage_ratio",
	"average_raw_d20_roll",
	"average_d20_after_modifiers",
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#74c7ec")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	labelStyle  = cellStyle.Foreground(lipgloss.Color("#b4befe"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#45475a"))
)

// TableEmitter prints the headline metrics of every slice.
type TableEmitter struct {
	Out     io.Writer
	Metrics []string
	printer *message.Printer
}

// NewTableEmitter creates a table emitter writing to w.
func NewTableEmitter(w io.Writer) *TableEmitter {
	return &TableEmitter{
		Out:     w,
		Metrics: Headline,
		printer: message.NewPrinter(language.English),
	}
}

func (e *TableEmitter) Name() string { return "table" }

func (e *TableEmitter) Emit(ctx context.Context, b *domain.Bundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(e.Out, e.Render(b))
	return err
}

// Render returns the table as a string.
func (e *TableEmitter) Render(b *domain.Bundle) string {
	headers := []string{"Player"}
	for _, m := range e.Metrics {
		pretty := b.FieldMetadata[m].Pretty
		if pretty == "" {
			pretty = m
		}
		headers = append(headers, pretty)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 0:
				return labelStyle
			default:
				return cellStyle.Align(lipgloss.Right)
			}
		}).
		Headers(headers...)

	for _, r := range b.Reports {
		row := []string{r.Label}
		for _, m := range e.Metrics {
			row = append(row, e.format(b.FieldMetadata[m], r.Get(m)))
		}
		t.Row(row...)
	}

	title := fmt.Sprintf("%s: %s d20 rolls", b.World, e.printer.Sprintf("%d", int(total(b))))
	if b.Session != nil {
		title += e.printer.Sprintf(", previous session %s (%d messages)",
			b.Session.Start.Format("2006-01-02"), b.Session.Count)
	}
	return lipgloss.JoinVertical(lipgloss.Left, headerStyle.Render(title), t.String())
}

func (e *TableEmitter) format(meta domain.FieldMeta, v float64) string {
	switch {
	case meta.IsPercent:
		return e.printer.Sprintf("%.2f%%", v*100)
	case v == float64(int64(v)):
		return e.printer.Sprintf("%d", int64(v))
	default:
		return e.printer.Sprintf("%.2f", v)
	}
}

func total(b *domain.Bundle) float64 {
	if len(b.Reports) == 0 {
		return 0
	}
	return b.Reports[0].Get("d20_roll_count")
}
