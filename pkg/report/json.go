package report

import (
	"encoding/json"
	"io"
)

// jsonReport is the serialized form of a report.
type jsonReport struct {
	Messages   []Message `json:"messages"`
	Fatals     int       `json:"fatal_count"`
	Errors     int       `json:"error_count"`
	Warnings   int       `json:"warning_count"`
	Suppressed int       `json:"suppressed,omitempty"`
	Valid      bool      `json:"valid"`
}

// WriteJSON writes the report as JSON to w.
func (r *Report) WriteJSON(w io.Writer) error {
	out := jsonReport{
		Messages:   r.Messages,
		Fatals:     r.FatalCount(),
		Errors:     r.ErrorCount(),
		Warnings:   r.WarningCount(),
		Suppressed: r.Suppressed,
		Valid:      r.IsValid(),
	}
	if out.Messages == nil {
		out.Messages = []Message{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
