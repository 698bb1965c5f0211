package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mhalonen/check-speedtest/pkg/probe"
)

type Format string

const (
	FormatText	Format	= "text"
	FormatJSON	Format	= "json"
)

// Output is the JSON shape of a report, for hosts that prefer structured
// ingestion over parsing the plugin line.
type Output struct {
	Severity	string	`json:"severity"`
	ExitCode	int	`json:"exit_code"`
	Summary		string	`json:"summary"`
	PerfData	string	`json:"perfdata,omitempty"`
}

type Writer struct {
	w	io.Writer
	format	Format
}

func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{
		w:	w,
		format:	format,
	}
}

// Write emits exactly one report. Text format is the plugin contract:
// a single "summary|perfdata" line on the stream.
func (w *Writer) Write(r probe.Report) error {
	switch w.format {
	case FormatJSON:
		return w.writeJSON(r)
	default:
		return w.writeText(r)
	}
}

func (w *Writer) writeText(r probe.Report) error {
	_, err := fmt.Fprintln(w.w, r.Line())
	return err
}

func (w *Writer) writeJSON(r probe.Report) error {
	encoder := json.NewEncoder(w.w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Output{
		Severity:	r.Severity.String(),
		ExitCode:	r.Severity.ExitCode(),
		Summary:	r.Summary,
		PerfData:	r.PerfData,
	})
}
