// Package console prints tabs to a terminal instead of publishing them.
package console

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"budgetsync/internal/core"
	ports "budgetsync/internal/sheets"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	tabStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	titleStyle  = lipgloss.NewStyle().Italic(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Align(lipgloss.Center).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	totalStyle  = cellStyle.Bold(true)
)

type Writer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ ports.TabWriter = (*Writer)(nil)

func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// ReplaceTab renders grid as a table under the tab name.
func (w *Writer) ReplaceTab(_ context.Context, name string, grid core.Grid) error {
	if strings.TrimSpace(name) == "" {
		return core.ErrEmptyTabName
	}
	if err := grid.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.out, "%s\n%s\n", tabStyle.Render("▸ "+name), Render(grid))
	return err
}

// Render draws the grid. The last header row becomes the table header; any
// header rows above it are printed as title lines.
func Render(grid core.Grid) string {
	if len(grid.Rows) == 0 {
		return titleStyle.Render("(empty)")
	}

	headers := min(grid.HeaderRows, len(grid.Rows))
	var b strings.Builder
	for _, row := range grid.Rows[:max(headers-1, 0)] {
		b.WriteString(titleStyle.Render(strings.TrimSpace(strings.Join(row, " "))))
		b.WriteByte('\n')
	}

	totals := make(map[int]bool, len(grid.TotalRows))
	for _, r := range grid.TotalRows {
		totals[r-headers] = true
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case totals[row]:
				return totalStyle
			default:
				return cellStyle
			}
		})
	if headers > 0 {
		t.Headers(grid.Rows[headers-1]...)
	}
	t.Rows(grid.Rows[headers:]...)

	b.WriteString(t.String())
	return b.String()
}
