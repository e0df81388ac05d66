// cmd/payouts/main.go
//
// payouts reports claimed and unclaimed staking payouts of stash accounts
// using a Substrate API sidecar.
//
// Usage:
//
//	payouts [-s <sidecarUrl>] [-a <accountId>] [-d <depth>] [-e <era>] [-c]
//
// Exit status is 0 on success, the HTTP status code when the sidecar rejects
// a request, 2 on usage errors and 1 otherwise.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dmagro/staking-payouts/internal/config"
	"github.com/dmagro/staking-payouts/internal/display"
	"github.com/dmagro/staking-payouts/internal/format"
	"github.com/dmagro/staking-payouts/internal/payout"
	"github.com/dmagro/staking-payouts/internal/report"
	"github.com/dmagro/staking-payouts/internal/sidecar"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command with args and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := rootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return exitCode(cmd.Execute(), stderr)
}

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// reportedError marks an error whose message was already printed.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Error: %v\nRun 'payouts --help' for usage.\n", uerr.err)
		return 2
	}

	var rerr *reportedError
	if !errors.As(err, &rerr) {
		fmt.Fprintf(stderr, "Error: %v\n", err)
	}

	var serr *sidecar.StatusError
	if errors.As(err, &serr) && serr.StatusCode > 0 {
		return serr.StatusCode
	}
	return 1
}

// syncWriter serializes writes from concurrent account queries.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type options struct {
	configPath string
	sidecarURL string
	accounts   []string
	depth      int
	era        uint32
	all        bool
	symbol     string
	decimals   int32
	showEras   bool
	jsonOut    bool
	noColor    bool
	logLevel   string
}

func rootCmd(stdout, stderr io.Writer) *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:   "payouts",
		Short: "Report staking payouts of a stash account",
		Long: `Query a Substrate API sidecar for the staking payouts of one or more
stash accounts and print how much has been claimed and what is still unclaimed.

Without --accountId the author of the latest block is used.

Example:
  payouts -s http://127.0.0.1:8080 -a <stash> -d 16 -c`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{fmt.Errorf("unexpected argument %q", args[0])}
			}
			return nil
		},
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayouts(cmd, &o, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	f := cmd.Flags()
	f.StringVarP(&o.sidecarURL, "sidecar", "s", config.DefaultSidecarURL, "Sidecar base URL")
	f.StringSliceVarP(&o.accounts, "accountId", "a", nil, "Stash account id, repeat or comma separate for several (default: last block author)")
	f.IntVarP(&o.depth, "depth", "d", config.DefaultDepth, "Number of eras to query")
	f.Uint32VarP(&o.era, "era", "e", 0, "Era to query back from (default: latest completed era)")
	f.BoolVarP(&o.all, "all", "c", false, "Query all payouts instead of only unclaimed ones")
	f.StringVar(&o.configPath, "config", "", "Optional YAML config file")
	f.StringVar(&o.symbol, "symbol", config.DefaultTokenSymbol, "Token symbol used for display")
	f.Int32Var(&o.decimals, "decimals", config.DefaultTokenDecimals, "Token decimals")
	f.BoolVar(&o.showEras, "eras", false, "Show a per-era breakdown")
	f.BoolVar(&o.jsonOut, "json", false, "Write a JSON report to the reports directory")
	f.BoolVar(&o.noColor, "no-color", false, "Disable colored output")
	f.StringVar(&o.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")

	return cmd
}

// loadConfig merges the config file and environment with explicitly set flags.
func loadConfig(cmd *cobra.Command, o *options) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("sidecar") {
		cfg.SidecarURL = o.sidecarURL
	}
	if flags.Changed("depth") {
		cfg.Depth = o.depth
	}
	if flags.Changed("symbol") {
		cfg.Token.Symbol = o.symbol
	}
	if flags.Changed("decimals") {
		cfg.Token.Decimals = o.decimals
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	log := logrus.New()
	log.SetOutput(w)
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log, nil
}

func runPayouts(cmd *cobra.Command, o *options, stdout, stderr io.Writer) error {
	if cmd.Flags().Changed("depth") && o.depth <= 0 {
		return &usageError{fmt.Errorf("depth must be a positive integer (got %d)", o.depth)}
	}

	cfg, err := loadConfig(cmd, o)
	if err != nil {
		return err
	}
	errOut := &syncWriter{w: stderr}
	log, err := newLogger(cfg.LogLevel, errOut)
	if err != nil {
		return err
	}
	if o.noColor {
		format.DisableColors()
	}

	req := payout.Request{Depth: cfg.Depth, UnclaimedOnly: !o.all}
	if cmd.Flags().Changed("era") {
		era := o.era
		req.Era = &era
	}
	token := format.Token{Symbol: cfg.Token.Symbol, Decimals: cfg.Token.Decimals}

	accounts := o.accounts
	if len(accounts) == 0 {
		accounts = []string{""}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := sidecar.NewClient(cfg.SidecarURL, cfg.Timeout, cfg.MaxRetries, log)
	progress := func(msg string, args ...any) {
		fmt.Fprintf(errOut, msg+"\n", args...)
	}
	svc := payout.NewService(client, log, progress)

	outcomes := svc.QueryAll(ctx, accounts, req)

	if o.jsonOut {
		path, err := report.WriteJSON(report.DefaultDir, report.New(cfg.SidecarURL, req, token, outcomes), "payouts")
		if err != nil {
			return fmt.Errorf("failed to write JSON report: %w", err)
		}
		fmt.Fprintf(stderr, "JSON report written to: %s\n", path)
		return firstError(outcomes)
	}

	var firstErr error
	for i, out := range outcomes {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		if out.Err != nil {
			printFailure(stdout, out.Err)
			if firstErr == nil {
				firstErr = &reportedError{out.Err}
			}
			continue
		}

		summary := &display.SummaryFormatter{
			AccountID:     out.AccountID,
			Depth:         cfg.Depth,
			UnclaimedOnly: req.UnclaimedOnly,
			Token:         token,
			Result:        out.Result,
		}
		if err := summary.Format(stdout); err != nil {
			return fmt.Errorf("failed to display payouts: %w", err)
		}
		if o.showEras {
			fmt.Fprintln(stdout)
			eras := &display.EraTableFormatter{Token: token, Eras: out.Result.Eras}
			if err := eras.Format(stdout); err != nil {
				return fmt.Errorf("failed to display eras: %w", err)
			}
		}
	}

	return firstErr
}

// printFailure writes the user-facing message for a failed account query.
func printFailure(w io.Writer, err error) {
	var serr *sidecar.StatusError
	if errors.As(err, &serr) {
		fmt.Fprintf(w, "Sidecar request %s returns %d. Exiting.\n", serr.Endpoint, serr.StatusCode)
		return
	}
	fmt.Fprintf(w, "Sidecar query failed ...\n  %v\n", err)
}

func firstError(outcomes []payout.Outcome) error {
	for _, out := range outcomes {
		if out.Err != nil {
			return out.Err
		}
	}
	return nil
}
