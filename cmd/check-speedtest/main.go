package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhalonen/check-speedtest/pkg/logging"
	"github.com/mhalonen/check-speedtest/pkg/probe"
	"github.com/mhalonen/check-speedtest/pkg/probe/config"
	"github.com/mhalonen/check-speedtest/pkg/probe/report"
	"github.com/mhalonen/check-speedtest/pkg/speedtest"
)

var (
	downloadWarning		int
	downloadCritical	int
	uploadWarning		int
	uploadCritical		int
	timeoutSeconds		int
	verbose			bool
	logFile			string
	configPath		string
	outputFormat		string
	initConfig		bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:		"check-speedtest",
		Short:		"Monitoring check for internet connection speed",
		Long:		"Invokes an external speed-test command, classifies the measured throughput against operator-supplied thresholds, and reports the result in monitoring plugin format (exit codes 0=OK, 1=WARNING, 2=CRITICAL, 3=UNKNOWN).",
		RunE:		run,
		SilenceUsage:	true,
	}

	rootCmd.Flags().IntVarP(&downloadWarning, "download-warning", "w", 0, "Lower download speed warning limit (Mbit/s), 0 disables")
	rootCmd.Flags().IntVarP(&downloadCritical, "download-critical", "c", 0, "Lower download speed critical limit (Mbit/s), 0 disables")
	rootCmd.Flags().IntVarP(&uploadWarning, "upload-warning", "W", 0, "Lower upload speed warning limit (Mbit/s), 0 disables")
	rootCmd.Flags().IntVarP(&uploadCritical, "upload-critical", "C", 0, "Lower upload speed critical limit (Mbit/s), 0 disables")
	rootCmd.Flags().IntVar(&timeoutSeconds, "timeout", 0, "Wall-clock bound on the speed-test command in seconds (default from config, 60)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose diagnostic output")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "File to write diagnostics to, default: <stdout>")
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	rootCmd.Flags().BoolVar(&initConfig, "init-config", false, "Create an example config file at the --config path and exit")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(probe.SeverityUnknown.ExitCode())
	}
}

func run(cmd *cobra.Command, args []string) error {
	log, closeLog := logging.New(logging.Options{
		Verbose:	verbose,
		LogFile:	logFile,
	})

	exit := func(code int) {
		closeLog()
		os.Exit(code)
	}

	if initConfig {
		if configPath == "" {
			return errors.New("--init-config requires --config")
		}
		if err := config.SaveExample(configPath); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Printf("Created example config at: %s\n", configPath)
		exit(probe.SeverityOK.ExitCode())
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			log.Warnf("failed to load config, using defaults: %v", err)
		} else {
			cfg = loaded
		}
	}

	applyFlags(cmd, cfg)
	cfg.Thresholds.Normalize()

	format := report.FormatText
	if outputFormat == "json" {
		format = report.FormatJSON
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	runner := speedtest.NewRunner(cfg.Command, time.Duration(cfg.TimeoutSeconds)*time.Second, log)

	measurement, err := runner.Run(ctx)
	if err != nil {
		var runErr *speedtest.RunError
		if !errors.As(err, &runErr) {
			runErr = &speedtest.RunError{Kind: speedtest.KindExecFailure, Err: err}
		}
		severity := runErr.Severity()
		if severity == probe.SeverityCritical {
			log.Errorf("CRITICAL: %v", runErr)
		} else {
			log.Warnf("%v", runErr)
		}
		exit(severity.ExitCode())
	}

	result := probe.Evaluate(measurement, cfg.Thresholds)
	log.Debug(result.Line())

	writer := report.NewWriter(os.Stdout, format)
	if err := writer.Write(result); err != nil {
		log.Errorf("failed to write report: %v", err)
		exit(probe.SeverityUnknown.ExitCode())
	}

	exit(result.Severity.ExitCode())
	return nil
}

// Flags override config file values only when set on the command line, so
// a config file threshold survives an unrelated flag being passed.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("download-warning") {
		cfg.Thresholds.DownloadWarning = downloadWarning
	}
	if cmd.Flags().Changed("download-critical") {
		cfg.Thresholds.DownloadCritical = downloadCritical
	}
	if cmd.Flags().Changed("upload-warning") {
		cfg.Thresholds.UploadWarning = uploadWarning
	}
	if cmd.Flags().Changed("upload-critical") {
		cfg.Thresholds.UploadCritical = uploadCritical
	}
	if cmd.Flags().Changed("timeout") && timeoutSeconds > 0 {
		cfg.TimeoutSeconds = timeoutSeconds
	}
}
