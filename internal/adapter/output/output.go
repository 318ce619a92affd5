// Package output provides output formatters for CLI listings of monitors,
// windows and popovers.
package output

import (
	"io"

	"github.com/aurapanel/aurapanel/internal/model"
)

// Formatter renders engine listings for output.
type Formatter interface {
	// FormatMonitors writes the monitor table.
	FormatMonitors(w io.Writer, monitors []model.Monitor) error

	// FormatWindows writes the window records.
	FormatWindows(w io.Writer, windows []model.WindowRecord) error

	// FormatPopovers writes the open popover ids.
	FormatPopovers(w io.Writer, ids []string) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatTable FormatType = "table"
	FormatJSON  FormatType = "json"
	FormatPlain FormatType = "plain"
)

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatPlain:
		return &PlainFormatter{}
	case FormatTable:
		fallthrough
	default:
		return &TableFormatter{}
	}
}
