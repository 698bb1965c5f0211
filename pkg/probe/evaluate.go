package probe

import (
	"fmt"
	"strconv"

	"github.com/mhalonen/check-speedtest/pkg/probe/config"
)

// Measurement is the outcome of a single speed-test run, in Mbit/s.
// Obtained is false when no measurement was performed at all.
type Measurement struct {
	Download	float64
	Upload		float64
	Obtained	bool
}

// Report is the single-line plugin output: a summary for humans and a
// perfdata segment for the monitoring host's graphing.
type Report struct {
	Severity	Severity
	Summary		string
	PerfData	string
}

// Line renders the report in plugin format: "summary|perfdata".
func (r Report) Line() string {
	if r.PerfData == "" {
		return r.Summary
	}
	return r.Summary + "|" + r.PerfData
}

// Evaluate classifies a measurement against the thresholds.
//
// The checks run in a fixed order: the two download checks are independent
// ifs (warning is not gated on the critical outcome), while the upload
// warning check is gated on the severity not already being CRITICAL. This
// asymmetry is kept for compatibility with existing deployments.
func Evaluate(m Measurement, t config.Thresholds) Report {
	if !m.Obtained {
		return Report{
			Severity:	SeverityUnknown,
			Summary:	"UNKNOWN: Download=? Upload=?",
		}
	}

	severity := SeverityOK

	if t.DownloadCritical > 0 && m.Download <= float64(t.DownloadCritical) {
		severity = SeverityCritical
	}
	if t.DownloadWarning > 0 && m.Download <= float64(t.DownloadWarning) {
		severity = SeverityWarning
	}

	if t.UploadCritical > 0 && m.Upload <= float64(t.UploadCritical) {
		severity = SeverityCritical
	}
	if t.UploadWarning > 0 && m.Upload <= float64(t.UploadWarning) && severity != SeverityCritical {
		severity = SeverityWarning
	}

	summary := fmt.Sprintf("%s: Download=%.2f Upload=%.2f", severity, m.Download, m.Upload)
	perfdata := fmt.Sprintf("Download=%.0f;%s;%s;; Upload=%.0f;%s;%s;;",
		m.Download, perfThreshold(t.DownloadWarning), perfThreshold(t.DownloadCritical),
		m.Upload, perfThreshold(t.UploadWarning), perfThreshold(t.UploadCritical))

	return Report{
		Severity:	severity,
		Summary:	summary,
		PerfData:	perfdata,
	}
}

// Disabled thresholds render as empty fields, never "0".
func perfThreshold(v int) string {
	if v <= 0 {
		return ""
	}
	return strconv.Itoa(v)
}
