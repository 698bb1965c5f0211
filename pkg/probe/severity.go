package probe

// Severity follows the monitoring plugin convention: the process exit code
// is the severity, and the host maps it to an alerting level.
type Severity int

const (
	SeverityOK	Severity	= iota
	SeverityWarning
	SeverityCritical
	SeverityUnknown
)

func (s Severity) String() string {
	switch s {
	case SeverityOK:
		return "OK"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// ExitCode returns the process exit code the monitoring host expects:
// 0=OK, 1=WARNING, 2=CRITICAL, 3=UNKNOWN.
func (s Severity) ExitCode() int {
	switch s {
	case SeverityOK, SeverityWarning, SeverityCritical:
		return int(s)
	default:
		return int(SeverityUnknown)
	}
}
