package report

import "fmt"

// Severity levels for validation messages.
type Severity string

const (
	Fatal   Severity = "FATAL"
	Error   Severity = "ERROR"
	Warning Severity = "WARNING"
	Usage   Severity = "USAGE"
	Info    Severity = "INFO"
)

// Location identifies where in the publication a message was raised.
// Line and Col are 1-based; zero means unknown.
type Location struct {
	Path string `json:"path,omitempty"`
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
}

// Loc builds a Location from a path and position.
func Loc(path string, line, col int) Location {
	return Location{Path: path, Line: line, Col: col}
}

func (l Location) String() string {
	if l.Path == "" {
		return ""
	}
	if l.Line > 0 {
		if l.Col > 0 {
			return fmt.Sprintf("%s(%d,%d)", l.Path, l.Line, l.Col)
		}
		return fmt.Sprintf("%s(%d)", l.Path, l.Line)
	}
	return l.Path
}

// Message represents a single validation finding.
type Message struct {
	Severity Severity `json:"severity"`
	ID       string   `json:"id"`
	Message  string   `json:"message"`
	Location Location `json:"location,omitempty"`
}

func (m Message) String() string {
	if loc := m.Location.String(); loc != "" {
		return fmt.Sprintf("%s(%s): %s [%s]", m.Severity, m.ID, m.Message, loc)
	}
	return fmt.Sprintf("%s(%s): %s", m.Severity, m.ID, m.Message)
}
