package output

import (
	"encoding/json"
	"io"

	"github.com/aurapanel/aurapanel/internal/model"
)

// JSONFormatter renders listings as indented JSON for scripting.
type JSONFormatter struct{}

func (f *JSONFormatter) FormatMonitors(w io.Writer, monitors []model.Monitor) error {
	return encode(w, monitors)
}

func (f *JSONFormatter) FormatWindows(w io.Writer, windows []model.WindowRecord) error {
	return encode(w, windows)
}

func (f *JSONFormatter) FormatPopovers(w io.Writer, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	return encode(w, ids)
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
