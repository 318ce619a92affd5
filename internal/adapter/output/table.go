package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aurapanel/aurapanel/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// TableFormatter renders aligned, styled tables for interactive use.
type TableFormatter struct{}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(cellStyle.Render(headerStyle.Render(pad(h, widths[i]))))
	}
	b.WriteString("\n")
	for _, row := range rows {
		for i, cell := range row {
			b.WriteString(cellStyle.Render(pad(cell, widths[i])))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func pad(s string, width int) string {
	if diff := width - lipgloss.Width(s); diff > 0 {
		return s + strings.Repeat(" ", diff)
	}
	return s
}

func (f *TableFormatter) FormatMonitors(w io.Writer, monitors []model.Monitor) error {
	rows := make([][]string, 0, len(monitors))
	for _, m := range monitors {
		role := ""
		if m.Primary {
			role = "primary"
		}
		rows = append(rows, []string{
			m.Name,
			fmt.Sprintf("%gx%g", m.Width, m.Height),
			fmt.Sprintf("(%g, %g)", m.X, m.Y),
			fmt.Sprintf("%g", m.ScaleFactor),
			role,
		})
	}
	return renderTable(w, []string{"NAME", "SIZE", "ORIGIN", "SCALE", ""}, rows)
}

func (f *TableFormatter) FormatWindows(w io.Writer, windows []model.WindowRecord) error {
	rows := make([][]string, 0, len(windows))
	for _, rec := range windows {
		rows = append(rows, []string{
			rec.ID,
			string(rec.Role),
			string(rec.Status),
			fmt.Sprintf("(%g, %g) %gx%g",
				rec.Rectangle.X, rec.Rectangle.Y, rec.Rectangle.Width, rec.Rectangle.Height),
		})
	}
	return renderTable(w, []string{"ID", "ROLE", "STATUS", "RECT"}, rows)
}

func (f *TableFormatter) FormatPopovers(w io.Writer, ids []string) error {
	if len(ids) == 0 {
		_, err := io.WriteString(w, dimStyle.Render("no open popovers")+"\n")
		return err
	}
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}
