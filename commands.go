package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"billworks/batch"
	"billworks/bill"
	"billworks/config"
	"billworks/ingest"
	"billworks/render"
)

type cliOptions struct {
	configPath string
	outputRoot string
	reportPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "billworks",
		Short:         "Generate contractor billing documents from measured work data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML configuration file")
	root.PersistentFlags().StringVarP(&opts.outputRoot, "output", "o", "", "output root directory (overrides config)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug-level logging")

	root.AddCommand(newRenderCmd(opts), newBatchCmd(opts), newEnginesCmd(opts))
	return root
}

func newRenderCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <input>",
		Short: "Process a single bill input into its document set",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the run report JSON to this file instead of stdout")
	return cmd
}

func newBatchCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <inputs...>",
		Short: "Process many bill inputs through the worker pool",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the run report JSON to this file instead of stdout")
	return cmd
}

func newEnginesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "Show render engine availability in attempt order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			chain := render.NewChain(zap.NewNop(), render.A4Geometry(), cfg.EnginePriorityOrder)
			for _, s := range chain.Status() {
				state := "available"
				if !s.Available {
					state = "unavailable: " + s.Detail
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %s\n", s.Name, state)
			}
			return nil
		},
	}
}

func runBatch(cmd *cobra.Command, opts *cliOptions, inputs []string) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.outputRoot != "" {
		cfg.OutputRoot = opts.outputRoot
	}

	log, err := newLogger(opts.verbose)
	if err != nil {
		return err
	}
	defer log.Sync()

	packages := make([]*bill.Package, 0, len(inputs))
	for _, path := range inputs {
		src, err := sourceFor(path)
		if err != nil {
			return err
		}
		p, err := src.Load(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		packages = append(packages, p)
	}

	// First interrupt cancels intake and lets in-flight bills finish; a
	// second one kills the process the usual way.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := batch.New(cfg, log).Run(ctx, packages)
	if err != nil {
		return err
	}
	if err := writeReport(cmd, opts.reportPath, report); err != nil {
		return err
	}
	if report.Failed > 0 {
		return fmt.Errorf("%d of %d bills failed", report.Failed, report.TotalTasks)
	}
	return nil
}

func sourceFor(path string) (ingest.Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ingest.JSONSource{}, nil
	case ".xlsx":
		return ingest.XLSXSource{}, nil
	default:
		return nil, fmt.Errorf("unsupported input format %q (want .json or .xlsx)", filepath.Ext(path))
	}
}

func writeReport(cmd *cobra.Command, path string, report *batch.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if path == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
