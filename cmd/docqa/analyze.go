package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anime-shed/doc-inspector-go/internal/analyzer"
	"github.com/anime-shed/doc-inspector-go/internal/logger"
	"github.com/anime-shed/doc-inspector-go/internal/scoring"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [image]",
		Short: "Analyze the quality of a single document image",
		Long: `Analyze scores one image and prints a report.

The image may be a local path, an http(s) URL or, when AZURE_STORAGE_ACCOUNT
and AZURE_STORAGE_KEY are set, an azblob://container/blob location.

Examples:
  # Markdown report on stdout
  docqa analyze scan.png

  # JSON report for a remote image using the lenient profile
  docqa analyze -p document_lenient -f json https://example.com/scan.jpg

  # Exit non-zero when the scan does not pass, for use in scripts
  docqa analyze --fail-on warn scan.tiff`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	addPipelineFlags(cmd)
	cmd.Flags().Bool("no-sla", false, "Skip SLA evaluation")
	cmd.Flags().String("fail-on", gateNone,
		"Return an error when the status is at least this bad: none, warn or fail")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	noSLA, err := cmd.Flags().GetBool("no-sla")
	if err != nil {
		return err
	}
	gate, err := cmd.Flags().GetString("fail-on")
	if err != nil {
		return err
	}
	if err := validateGate(gate); err != nil {
		return err
	}

	p, err := newPipeline(cmd)
	if err != nil {
		return err
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	location := args[0]
	decoded, err := p.router.Load(ctx, location)
	if err != nil {
		return fmt.Errorf("cannot load %s: %w", location, err)
	}

	opts := analyzer.DefaultOptions().
		WithSource(decoded.Name, location).
		WithMetadata(decoded.Metadata)
	if noSLA {
		opts = opts.WithoutSLA()
	}

	rec, err := p.analyzer.Analyze(ctx, decoded.Image, opts)
	if err != nil {
		return fmt.Errorf("analysis of %s failed: %w", location, err)
	}

	if p.store != nil {
		if _, err := p.store.Save(context.WithoutCancel(ctx), rec, p.profile); err != nil {
			logger.WithError(err).Warn("failed to store analysis result")
		}
	}

	w, closeOut, err := reportWriter(cmd)
	if err != nil {
		return err
	}
	if err := w.WriteRecord(rec); err != nil {
		closeOut()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := closeOut(); err != nil {
		return err
	}

	if gateTripped(gate, rec.Global.Status) {
		return gateError(gate, 1)
	}
	return nil
}

// Quality gate values for --fail-on.
const (
	gateNone = "none"
	gateWarn = "warn"
	gateFail = "fail"
)

func validateGate(gate string) error {
	switch gate {
	case gateNone, gateWarn, gateFail:
		return nil
	default:
		return fmt.Errorf("invalid --fail-on value %q (expected none, warn or fail)", gate)
	}
}

// gateTripped reports whether status is at least as bad as gate.
func gateTripped(gate string, status scoring.Status) bool {
	switch gate {
	case gateWarn:
		return status == scoring.Warn || status == scoring.Fail
	case gateFail:
		return status == scoring.Fail
	default:
		return false
	}
}

func gateError(gate string, count int) error {
	return fmt.Errorf("quality gate %q failed: %d image(s) at or below %s", gate, count, gate)
}
