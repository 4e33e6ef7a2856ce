package report

// Report collects all messages from a validation run.
type Report struct {
	Messages []Message `json:"messages"`

	// limit caps the number of non-fatal messages; 0 means unlimited.
	limit      int
	Suppressed int `json:"suppressed,omitempty"`
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{}
}

// SetLimit caps non-fatal message emission at n. Fatal messages are always
// recorded; validation itself keeps running either way.
func (r *Report) SetLimit(n int) {
	r.limit = n
}

// Add appends a message, with severity from the message registry.
func (r *Report) Add(id string, msg string) {
	r.append(Message{Severity: DefaultSeverity(id), ID: id, Message: msg})
}

// AddAt appends a message with a location, with severity from the registry.
func (r *Report) AddAt(id string, msg string, loc Location) {
	r.append(Message{Severity: DefaultSeverity(id), ID: id, Message: msg, Location: loc})
}

// Override appends a message with an explicit severity instead of the
// registry default. Only for checks whose severity is context-dependent.
func (r *Report) Override(sev Severity, id string, msg string) {
	r.append(Message{Severity: sev, ID: id, Message: msg})
}

// OverrideAt is Override with a location.
func (r *Report) OverrideAt(sev Severity, id string, msg string, loc Location) {
	r.append(Message{Severity: sev, ID: id, Message: msg, Location: loc})
}

func (r *Report) append(m Message) {
	if r.limit > 0 && m.Severity != Fatal && len(r.Messages) >= r.limit {
		r.Suppressed++
		return
	}
	r.Messages = append(r.Messages, m)
}

func (r *Report) count(sev Severity) int {
	n := 0
	for _, m := range r.Messages {
		if m.Severity == sev {
			n++
		}
	}
	return n
}

// FatalCount returns the number of FATAL messages.
func (r *Report) FatalCount() int { return r.count(Fatal) }

// ErrorCount returns the number of ERROR messages.
func (r *Report) ErrorCount() int { return r.count(Error) }

// WarningCount returns the number of WARNING messages.
func (r *Report) WarningCount() int { return r.count(Warning) }

// UsageCount returns the number of USAGE messages.
func (r *Report) UsageCount() int { return r.count(Usage) }

// IsValid returns true if there are no FATAL or ERROR messages.
func (r *Report) IsValid() bool {
	return r.FatalCount() == 0 && r.ErrorCount() == 0
}

// HasID reports whether any message with the given id was recorded.
func (r *Report) HasID(id string) bool {
	for _, m := range r.Messages {
		if m.ID == id {
			return true
		}
	}
	return false
}
