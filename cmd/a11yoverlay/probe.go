package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BaSui01/a11yoverlay/analyzer"
	"github.com/BaSui01/a11yoverlay/internal/pagecapture"
	llmfactory "github.com/BaSui01/a11yoverlay/llm/factory"
)

// probeOptions probe 子命令参数
type probeOptions struct {
	command     string
	width       int
	height      int
	timeout     time.Duration
	showBrowser bool
	browserBin  string
	verbose     bool
}

// =============================================================================
// 🔍 probe 命令：无头浏览器抓取页面后本地跑一遍分析流程
// =============================================================================

func newProbeCmd(root *rootOptions) *cobra.Command {
	opts := &probeOptions{}
	defaults := pagecapture.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "probe <url>",
		Short: "Capture a live page and run the analysis pipeline against it",
		Long: `probe opens the URL in a headless browser, collects its interactive
elements and a screenshot, sends both to the configured vision model and
prints the suggested actions. With --command it also interprets a command.

Example:
  a11yoverlay probe https://example.com --command "open the first link"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProbe(cmd.Context(), root, opts, args[0], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.command, "command", "", "Command to interpret against the analysis")
	cmd.Flags().IntVar(&opts.width, "width", defaults.Width, "Viewport width")
	cmd.Flags().IntVar(&opts.height, "height", defaults.Height, "Viewport height")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall timeout")
	cmd.Flags().BoolVar(&opts.showBrowser, "show-browser", false, "Run the browser with a visible window")
	cmd.Flags().StringVar(&opts.browserBin, "browser", "", "Chrome/Chromium binary (auto-detected when empty)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Write service logs to stderr")
	return cmd
}

func runProbe(ctx context.Context, root *rootOptions, opts *probeOptions, rawURL string, out io.Writer) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if opts.verbose {
		cfg.Log.OutputPaths = []string{"stderr"}
		l, cleanup, err := initLogger(cfg.Log)
		if err != nil {
			return err
		}
		defer cleanup()
		logger = l
	}

	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(os.Stderr))

	// Step 1: 抓取页面
	captureOpts := pagecapture.DefaultOptions()
	captureOpts.Width = opts.width
	captureOpts.Height = opts.height
	captureOpts.Timeout = opts.timeout
	captureOpts.ShowBrowser = opts.showBrowser
	captureOpts.BrowserBin = opts.browserBin

	s.Suffix = " Capturing " + rawURL + "..."
	s.Start()
	page, err := pagecapture.Capture(ctx, rawURL, captureOpts, logger)
	s.Stop()
	if err != nil {
		printFailure(out, "Capture failed")
		return fmt.Errorf("capture failed: %w", err)
	}
	printSuccess(out, fmt.Sprintf("Captured %q (%d interactive elements)", page.Title, len(page.Elements)))

	// Step 2: 模型分析
	provider, err := llmfactory.NewProviderFromConfig(cfg.Model.Backend, llmfactory.ProviderConfig{
		BaseURL: cfg.Model.BaseURL,
		APIKey:  cfg.Model.APIKey,
		Model:   cfg.Model.Model,
		Timeout: cfg.Model.Timeout,
		TLS:     cfg.Model.TLS,
	}, logger)
	if err != nil {
		return fmt.Errorf("model provider init failed: %w", err)
	}
	acfg := analyzerConfig(cfg.Model)

	s.Suffix = fmt.Sprintf(" Analyzing with %s (%s)...", provider.Name(), provider.Model())
	s.Start()
	res, err := analyzer.New(provider, acfg, logger).Analyze(ctx, &analyzer.Request{
		Image:    page.Screenshot,
		Elements: page.Elements,
	})
	s.Stop()
	if err != nil {
		printFailure(out, "Analysis failed")
		return fmt.Errorf("analysis failed: %w", err)
	}
	printAnalysis(out, res)

	if opts.command == "" {
		return nil
	}

	// Step 3: 命令解释
	s.Suffix = " Interpreting command..."
	s.Start()
	interp, err := analyzer.NewInterpreter(provider, acfg, logger, nil).Interpret(ctx, opts.command, res.Analysis)
	s.Stop()
	if err != nil {
		printFailure(out, "Interpretation failed")
		return fmt.Errorf("interpretation failed: %w", err)
	}
	printInterpretation(out, opts.command, interp)
	return nil
}

// =============================================================================
// 🖨️ 输出
// =============================================================================

func printAnalysis(w io.Writer, res *analyzer.Result) {
	cyan := color.New(color.FgCyan, color.Bold)
	fmt.Fprintln(w)
	cyan.Fprintf(w, "Page type: %s\n", res.Analysis.PageType)
	fmt.Fprintf(w, "Summary:   %s\n", res.Analysis.PageSummary)
	if res.Fallback {
		color.New(color.FgYellow).Fprintf(w, "⚠ Fallback analysis (%s)\n", res.FallbackReason)
	}
	fmt.Fprintln(w)
	for _, a := range res.Analysis.Actions {
		fmt.Fprintf(w, "  [%s] %s  (%.2f)\n", a.ID, a.Label, a.Confidence)
		if a.Selector != "" {
			fmt.Fprintf(w, "      selector: %s\n", a.Selector)
		}
		if a.Description != "" {
			fmt.Fprintf(w, "      %s\n", a.Description)
		}
	}
	fmt.Fprintln(w)
}

func printInterpretation(w io.Writer, command string, in *analyzer.Interpretation) {
	fmt.Fprintf(w, "Command: %q (strategy=%s)\n", command, in.Strategy)
	switch {
	case in.Action != nil:
		printSuccess(w, fmt.Sprintf("%s → %s (%.2f)", in.Action.ID, in.Action.Label, in.Match.Confidence))
	case in.Match.ClarificationNeeded:
		color.New(color.FgYellow).Fprintf(w, "? %s\n", in.Match.ClarificationQuestion)
	default:
		printFailure(w, "No matching action")
	}
}

func printSuccess(w io.Writer, msg string) {
	color.New(color.FgGreen).Fprintf(w, "✓ %s\n", msg)
}

func printFailure(w io.Writer, msg string) {
	color.New(color.FgRed).Fprintf(w, "✗ %s\n", msg)
}
