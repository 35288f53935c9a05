// Command react is an interactive ReAct agent. Type a prompt and press
// enter twice to submit it; tools flagged for confirmation ask before
// running.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/react/kernel"
	"github.com/tailored-agentic-units/react/observability"
)

type options struct {
	configFile  string
	session     string
	metricsAddr string
	confirm     []string
	pipe        bool
	verbose     bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "react",
		Short:        "Chat with a ReAct agent; press enter twice to submit input",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to a JSON or YAML config file")
	flags.StringVarP(&opts.session, "session", "s", "cli-user", "Session key the conversation is stored under")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	flags.StringSliceVar(&opts.confirm, "confirm", nil, "Additional tools that require confirmation")
	flags.BoolVarP(&opts.pipe, "pipe", "p", false, "Read context from stdin before prompting on the terminal")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging to stderr")

	return cmd
}

func run(ctx context.Context, opts *options, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := kernel.DefaultConfig()
	if opts.configFile != "" {
		loaded, err := kernel.LoadConfig(opts.configFile)
		if err != nil {
			return err
		}
		cfg = *loaded
	}
	cfg.Tools.Confirm = append(cfg.Tools.Confirm, opts.confirm...)

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	observability.RegisterObserver("slog", observability.NewSlogObserver(logger))

	registry, err := builtinTools()
	if err != nil {
		return err
	}
	kopts := []kernel.Option{kernel.WithToolExecutor(registry)}

	if opts.metricsAddr != "" {
		observer, srv, err := serveMetrics(opts.metricsAddr, cfg.Observers, logger)
		if err != nil {
			return err
		}
		defer srv.Close()
		kopts = append(kopts, kernel.WithObserver(observer))
	}

	k, err := kernel.New(&cfg, kopts...)
	if err != nil {
		return fmt.Errorf("failed to create kernel: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	input := stdin
	var piped string
	if opts.pipe {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		piped = strings.TrimSpace(string(data))

		tty, err := os.Open("/dev/tty")
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		defer tty.Close()
		input = tty
	}

	var names []string
	for _, t := range registry.List() {
		names = append(names, t.Name)
	}
	systemColor.Fprintf(stdout, "tools: %s\n", strings.Join(names, ", "))
	systemColor.Fprintf(stdout, "tools need confirm: %s\n", strings.Join(slices.Concat(confirmedTools, cfg.Tools.Confirm), ", "))

	c := &cli{
		kernel:  k,
		session: opts.session,
		in:      bufio.NewReader(input),
		out:     stdout,
		piped:   piped,
		logger:  logger,
	}
	return c.loop(ctx)
}

// serveMetrics exposes a Prometheus event counter on addr and returns the
// configured observers combined with it.
func serveMetrics(addr string, names []string, logger *slog.Logger) (observability.Observer, *http.Server, error) {
	reg := prometheus.NewRegistry()
	counter, err := observability.NewPrometheusObserver(reg)
	if err != nil {
		return nil, nil, err
	}
	base, err := observability.Resolve(names...)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return observability.NewMultiObserver(base, counter), srv, nil
}
