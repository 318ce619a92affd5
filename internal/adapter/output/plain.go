package output

import (
	"fmt"
	"io"

	"github.com/aurapanel/aurapanel/internal/model"
)

// PlainFormatter renders one tab-separated line per entry, for piping into
// awk or fzf.
type PlainFormatter struct{}

func (f *PlainFormatter) FormatMonitors(w io.Writer, monitors []model.Monitor) error {
	for _, m := range monitors {
		primary := ""
		if m.Primary {
			primary = "\tprimary"
		}
		if _, err := fmt.Fprintf(w, "%s\t%gx%g\t(%g,%g)\t@%gx%s\n",
			m.Name, m.Width, m.Height, m.X, m.Y, m.ScaleFactor, primary); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) FormatWindows(w io.Writer, windows []model.WindowRecord) error {
	for _, rec := range windows {
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\t(%g,%g %gx%g)\n",
			rec.ID, rec.Role, rec.Status,
			rec.Rectangle.X, rec.Rectangle.Y, rec.Rectangle.Width, rec.Rectangle.Height); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlainFormatter) FormatPopovers(w io.Writer, ids []string) error {
	for _, id := range ids {
		if _, err := fmt.Fprintln(w, id); err != nil {
			return err
		}
	}
	return nil
}
