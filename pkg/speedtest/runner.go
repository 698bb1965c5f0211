package speedtest

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mhalonen/check-speedtest/pkg/probe"
)

// Positions of the bits-per-second download and upload fields in the
// comma-delimited output of speedtest-cli --csv.
const (
	downloadField	= 6
	uploadField	= 7
	minFields	= uploadField + 1

	bitsPerMbit	= 1_000_000
)

// FailureKind classifies why a measurement could not be obtained.
type FailureKind int

const (
	KindExecFailure	FailureKind	= iota
	KindTimeout
	KindMissingExecutable
	KindMalformedOutput
)

func (k FailureKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindMissingExecutable:
		return "missing executable"
	case KindMalformedOutput:
		return "malformed output"
	default:
		return "execution failure"
	}
}

// RunError is the typed failure of a measurement run. The kind decides the
// exit severity, the wrapped error carries the diagnostic detail.
type RunError struct {
	Kind	FailureKind
	Err	error
}

func (e *RunError) Error() string {
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Severity maps the failure to the plugin exit contract: a tool that never
// finished or produced garbage is UNKNOWN, a tool that is absent or failed
// outright is CRITICAL.
func (e *RunError) Severity() probe.Severity {
	switch e.Kind {
	case KindTimeout, KindMalformedOutput:
		return probe.SeverityUnknown
	default:
		return probe.SeverityCritical
	}
}

// Runner invokes the external speed-test command exactly once per run.
type Runner struct {
	command	[]string
	timeout	time.Duration
	log	*zap.SugaredLogger
}

func NewRunner(command []string, timeout time.Duration, log *zap.SugaredLogger) *Runner {
	return &Runner{
		command:	command,
		timeout:	timeout,
		log:		log,
	}
}

// Run executes the command with a hard wall-clock bound, capturing stdout,
// and parses the measurement from its single delimited output line. The
// child process is killed when the bound expires or ctx is cancelled.
// Failures come back as *RunError; there are no retries.
func (r *Runner) Run(ctx context.Context) (probe.Measurement, error) {
	if len(r.command) == 0 {
		return probe.Measurement{}, &RunError{Kind: KindExecFailure, Err: errors.New("no command configured")}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.log.Debugf("running OS command line: %v ...", r.command)

	cmd := exec.CommandContext(ctx, r.command[0], r.command[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return probe.Measurement{}, &RunError{
			Kind:	KindTimeout,
			Err:	errors.Errorf("command %v did not finish within %s", r.command, r.timeout),
		}
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return probe.Measurement{}, &RunError{
				Kind:	KindMissingExecutable,
				Err:	errors.Wrapf(err, "missing program %q", r.command[0]),
			}
		}
		return probe.Measurement{}, &RunError{
			Kind:	KindExecFailure,
			Err:	errors.Wrapf(err, "command %v failed: %s", r.command, strings.TrimSpace(stderr.String())),
		}
	}

	line := strings.TrimSpace(stdout.String())
	r.log.Debug(line)

	m, err := parseMeasurement(line)
	if err != nil {
		return probe.Measurement{}, &RunError{Kind: KindMalformedOutput, Err: err}
	}

	r.log.Debugf("Download: %.2f Mbit/s; Upload: %.2f Mbit/s", m.Download, m.Upload)
	return m, nil
}

// parseMeasurement extracts the download and upload throughput from one
// comma-delimited line of speed-test output. The fields are bits/s and are
// converted to Mbit/s.
func parseMeasurement(line string) (probe.Measurement, error) {
	fields := strings.Split(line, ",")
	if len(fields) < minFields {
		return probe.Measurement{}, errors.Errorf("expected at least %d comma-separated fields, got %d", minFields, len(fields))
	}

	download, err := strconv.ParseFloat(strings.TrimSpace(fields[downloadField]), 64)
	if err != nil {
		return probe.Measurement{}, errors.Wrap(err, "failed to parse download speed")
	}

	upload, err := strconv.ParseFloat(strings.TrimSpace(fields[uploadField]), 64)
	if err != nil {
		return probe.Measurement{}, errors.Wrap(err, "failed to parse upload speed")
	}

	return probe.Measurement{
		Download:	download / bitsPerMbit,
		Upload:		upload / bitsPerMbit,
		Obtained:	true,
	}, nil
}
