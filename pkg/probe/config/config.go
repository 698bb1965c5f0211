package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults match the speedtest-cli plugin contract: all thresholds
// disabled, a 60 second bound on the external command.
const DefaultTimeoutSeconds = 60

var DefaultCommand = []string{"speedtest-cli", "--csv"}

type Config struct {
	Thresholds	Thresholds	`yaml:"thresholds,omitempty"`
	Command		[]string	`yaml:"command,omitempty"`
	TimeoutSeconds	int		`yaml:"timeout_seconds,omitempty"`
}

// Thresholds are lower bounds on acceptable throughput in Mbit/s.
// Zero disables a bound.
type Thresholds struct {
	DownloadWarning		int	`yaml:"download_warning,omitempty"`
	DownloadCritical	int	`yaml:"download_critical,omitempty"`
	UploadWarning		int	`yaml:"upload_warning,omitempty"`
	UploadCritical		int	`yaml:"upload_critical,omitempty"`
}

// Normalize clamps negative values to zero and, per direction, raises the
// warning bound to the critical bound when it is below it: critical is the
// stricter limit and must stay the lower of the two.
func (t *Thresholds) Normalize() {
	if t.DownloadWarning < 0 {
		t.DownloadWarning = 0
	}
	if t.DownloadCritical < 0 {
		t.DownloadCritical = 0
	}
	if t.DownloadWarning < t.DownloadCritical {
		t.DownloadWarning = t.DownloadCritical
	}

	if t.UploadWarning < 0 {
		t.UploadWarning = 0
	}
	if t.UploadCritical < 0 {
		t.UploadCritical = 0
	}
	if t.UploadWarning < t.UploadCritical {
		t.UploadWarning = t.UploadCritical
	}
}

func DefaultConfig() *Config {
	return &Config{
		Command:	append([]string{}, DefaultCommand...),
		TimeoutSeconds:	DefaultTimeoutSeconds,
	}
}

// LoadConfig reads a YAML config file. A missing file is not an error:
// the defaults apply, same as running without a config at all.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Command) == 0 {
		cfg.Command = append([]string{}, DefaultCommand...)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}

	return cfg, nil
}

func SaveExample(path string) error {
	example := `# check-speedtest configuration

# Lower bounds on acceptable throughput (Mbit/s), 0 disables a bound.
# If a warning bound is below the critical bound it is raised to match.
thresholds:
  download_warning: 0
  download_critical: 0
  upload_warning: 0
  upload_critical: 0

# External speed-test command producing one comma-delimited line on stdout.
command:
  - speedtest-cli
  - --csv

# Hard wall-clock bound on the external command, in seconds.
timeout_seconds: 60
`

	return os.WriteFile(path, []byte(example), 0644)
}
