package report

// defaultSeverity is the message registry: every message id the checker can
// emit, mapped to its default severity. Call sites look severities up here
// instead of choosing one ad hoc; an explicit severity is passed only where
// it is genuinely context-dependent (see Report.Override).
var defaultSeverity = map[string]Severity{
	// Container structure
	"PKG-001": Error,
	"PKG-003": Fatal,
	"PKG-004": Fatal,
	"PKG-005": Error,
	"PKG-006": Error,
	"PKG-007": Error,
	"PKG-008": Fatal,
	"PKG-009": Error,
	"PKG-010": Warning,
	"PKG-011": Error,
	"PKG-012": Usage,
	"PKG-013": Info,
	"PKG-014": Warning,
	"PKG-025": Error,
	"PKG-027": Error,

	// Container and package document well-formedness
	"RSC-002": Fatal,
	"RSC-005": Error,
	"OPF-002": Fatal,
	"OPF-011": Fatal,

	// Manifest, fallback and collection graph
	"OPF-040":  Error,
	"OPF-045":  Error,
	"OPF-060":  Error,
	"OPF-061":  Warning,
	"OPF-091":  Error,
	"OPF-092":  Error,
	"OPF-093":  Error,
	"OPF-094":  Error,
	"OPF-095":  Error,
	"OPF-096":  Error,
	"OPF-096b": Warning,
	"OPF-097":  Usage,

	// Reference classification
	"RSC-001": Error,
	"RSC-006": Error,
	"RSC-007": Error,
	"RSC-008": Error,
	"RSC-009": Error,
	"RSC-010": Error,
	"RSC-011": Error,
	"RSC-012": Error,
	"RSC-013": Error,
	"RSC-014": Error,
	"RSC-020": Error,
	"RSC-026": Error,
	"RSC-029": Error,
	"RSC-030": Error,
	"RSC-031": Warning,
	"RSC-032": Error,
	"RSC-033": Error,

	// Navigation link policy
	"NAV-010": Error,
	"NAV-011": Warning,
}

// DefaultSeverity returns the registry severity for a message id.
// Unknown ids default to Error so a missing table entry is loud, not silent.
func DefaultSeverity(id string) Severity {
	if sev, ok := defaultSeverity[id]; ok {
		return sev
	}
	return Error
}
