package speedtest

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mhalonen/check-speedtest/pkg/probe"
)

// Shape of a real speedtest-cli --csv line: fields 6 and 7 are download
// and upload in bits/s.
const sampleLine = "10542,Example ISP,Helsinki,2024-05-01T10:00:00Z,12.5,18.2,85000000,23000000,,198.51.100.7"

func testRunner(command []string, timeout time.Duration) *Runner {
	return NewRunner(command, timeout, zap.NewNop().Sugar())
}

func TestParseMeasurement(t *testing.T) {
	m, err := parseMeasurement(sampleLine)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !m.Obtained {
		t.Error("measurement should be marked obtained")
	}
	if math.Abs(m.Download-85.0) > 1e-9 {
		t.Errorf("download = %v, want 85.0", m.Download)
	}
	if math.Abs(m.Upload-23.0) > 1e-9 {
		t.Errorf("upload = %v, want 23.0", m.Upload)
	}
}

func TestParseMeasurementErrors(t *testing.T) {
	tests := []struct {
		name	string
		line	string
	}{
		{"empty line", ""},
		{"too few fields", "a,b,c,d"},
		{"non-numeric download", "a,b,c,d,e,f,notanumber,23000000"},
		{"non-numeric upload", "a,b,c,d,e,f,85000000,notanumber"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseMeasurement(tt.line); err == nil {
				t.Error("expected a parse error")
			}
		})
	}
}

func runKind(t *testing.T, r *Runner) FailureKind {
	t.Helper()
	_, err := r.Run(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	runErr, ok := err.(*RunError)
	if !ok {
		t.Fatalf("expected *RunError, got %T: %v", err, err)
	}
	return runErr.Kind
}

func TestRunSuccess(t *testing.T) {
	r := testRunner([]string{"echo", sampleLine}, 10*time.Second)

	m, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !m.Obtained {
		t.Error("measurement should be marked obtained")
	}
	if math.Abs(m.Download-85.0) > 1e-9 || math.Abs(m.Upload-23.0) > 1e-9 {
		t.Errorf("measurement = %+v, want 85.0/23.0", m)
	}
}

func TestRunMissingExecutable(t *testing.T) {
	r := testRunner([]string{"check-speedtest-no-such-binary"}, 10*time.Second)
	if kind := runKind(t, r); kind != KindMissingExecutable {
		t.Errorf("kind = %v, want missing executable", kind)
	}
}

func TestRunNonZeroExit(t *testing.T) {
	r := testRunner([]string{"false"}, 10*time.Second)
	if kind := runKind(t, r); kind != KindExecFailure {
		t.Errorf("kind = %v, want execution failure", kind)
	}
}

func TestRunTimeout(t *testing.T) {
	start := time.Now()
	r := testRunner([]string{"sleep", "10"}, 100*time.Millisecond)
	if kind := runKind(t, r); kind != KindTimeout {
		t.Errorf("kind = %v, want timeout", kind)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("run blocked for %s past its bound", elapsed)
	}
}

func TestRunMalformedOutput(t *testing.T) {
	r := testRunner([]string{"echo", "not,a,speedtest,line"}, 10*time.Second)
	if kind := runKind(t, r); kind != KindMalformedOutput {
		t.Errorf("kind = %v, want malformed output", kind)
	}
}

func TestRunEmptyCommand(t *testing.T) {
	r := testRunner(nil, 10*time.Second)
	if kind := runKind(t, r); kind != KindExecFailure {
		t.Errorf("kind = %v, want execution failure", kind)
	}
}

func TestRunErrorSeverity(t *testing.T) {
	tests := []struct {
		kind		FailureKind
		expected	probe.Severity
	}{
		{KindTimeout, probe.SeverityUnknown},
		{KindMalformedOutput, probe.SeverityUnknown},
		{KindMissingExecutable, probe.SeverityCritical},
		{KindExecFailure, probe.SeverityCritical},
	}

	for _, tt := range tests {
		err := &RunError{Kind: tt.kind, Err: context.Canceled}
		if got := err.Severity(); got != tt.expected {
			t.Errorf("%v severity = %v, want %v", tt.kind, got, tt.expected)
		}
	}
}
