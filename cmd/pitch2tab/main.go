// Package main is the entry point for the pitch2tab CLI
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/james-see/pitch2tab/pkg/api"
	"github.com/james-see/pitch2tab/pkg/config"
	"github.com/james-see/pitch2tab/pkg/logger"
	"github.com/james-see/pitch2tab/pkg/pipeline"
	"github.com/james-see/pitch2tab/pkg/pitch"
	"github.com/james-see/pitch2tab/pkg/tab"
	"github.com/james-see/pitch2tab/pkg/tab/tunings"
	"github.com/james-see/pitch2tab/pkg/tui"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const sentryFlushTimeout = 2 * time.Second

var (
	cfg        *config.Config
	logCloser  io.Closer
	outputFile string
	serverPort string
	saveJob    bool
	overrides  tabFlags
)

// tabFlags are the per-invocation overrides of the tab settings.
type tabFlags struct {
	tuning     string
	tempo      float64
	width      int
	threshold  float64
	minFret    int
	maxFret    int
	tolerance  float64
	hopMS      int
	noQuantize bool
}

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	sentry.Flush(sentryFlushTimeout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pitch2tab",
	Short: "Turn pitch tracks into guitar tablature",
	Long: `pitch2tab converts the pitch track of an isolated guitar stem into
ASCII guitar tablature and MIDI.

The pitch track is the CSV written by the pitch estimator (time,frequency,
confidence), a JSON array of samples, or a MIDI file.

Examples:
  pitch2tab render other.f0.csv
  pitch2tab render other.f0.csv --tuning drop-d --tempo 96 -o solo.tab.txt
  pitch2tab midi other.f0.csv -o solo.mid
  pitch2tab plan https://youtu.be/dQw4w9WgXcQ
  pitch2tab tui
  pitch2tab serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var renderCmd = &cobra.Command{
	Use:   "render <pitch-track>",
	Short: "Render a pitch track as ASCII tab",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var midiCmd = &cobra.Command{
	Use:   "midi <pitch-track>",
	Short: "Export a pitch track as a guitar MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDI,
}

var tuningsCmd = &cobra.Command{
	Use:   "tunings",
	Short: "List tuning presets",
	Args:  cobra.NoArgs,
	RunE:  runTunings,
}

var planCmd = &cobra.Command{
	Use:   "plan <url-or-audio-file>",
	Short: "Plan the file layout of a pipeline job",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&overrides.tuning, "tuning", "t", "", "Tuning preset or six notes, lowest first")
	pf.Float64Var(&overrides.tempo, "tempo", 0, "Tempo in BPM")
	pf.IntVarP(&overrides.width, "width", "w", 0, "Maximum line width")
	pf.Float64Var(&overrides.threshold, "threshold", -1, "Pitch confidence threshold (0-1)")
	pf.IntVar(&overrides.minFret, "min-fret", -1, "Lowest fret to use")
	pf.IntVar(&overrides.maxFret, "max-fret", -1, "Highest fret to use")
	pf.Float64Var(&overrides.tolerance, "tolerance", 0, "Pitch tolerance in cents")
	pf.IntVar(&overrides.hopMS, "hop-ms", 0, "Pitch track hop length in milliseconds")
	pf.BoolVar(&overrides.noQuantize, "no-quantize", false, "Keep detected onset times")

	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the tab to a file instead of stdout")
	midiCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	planCmd.Flags().BoolVar(&saveJob, "save", false, "Write the job manifest to the output directory")
	serveCmd.Flags().StringVarP(&serverPort, "port", "p", "", "Server port (default from PORT or 8080)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(midiCmd)
	rootCmd.AddCommand(tuningsCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup loads .env, the configuration, logging and Sentry.
func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	var err error
	if cfg, err = config.Load(); err != nil {
		return err
	}
	overrides.apply(cfg)

	if logCloser, err = logger.Setup(cfg.Logging.Level, logFile(cmd)); err != nil {
		return err
	}

	if cfg.Server.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Server.SentryDSN,
			Environment: cfg.Server.Environment,
			Release:     "pitch2tab@" + version,
		}); err != nil {
			logger.Warn("Failed to initialize Sentry", logger.Fields{"error": err.Error()})
		}
	}
	return nil
}

// logFile keeps one-shot commands off the log file unless it was set explicitly.
func logFile(cmd *cobra.Command) string {
	if cmd.Name() == "serve" || os.Getenv("LOG_FILE") != "" {
		return cfg.Logging.File
	}
	return ""
}

func (f tabFlags) apply(c *config.Config) {
	if f.tuning != "" {
		c.Tab.Tuning = f.tuning
	}
	if f.tempo > 0 {
		c.Tab.Tempo = f.tempo
	}
	if f.width > 0 {
		c.Tab.Width = f.width
	}
	if f.threshold >= 0 {
		c.Pitch.ConfidenceThreshold = f.threshold
	}
	if f.minFret >= 0 {
		c.Tab.MinFret = f.minFret
	}
	if f.maxFret >= 0 {
		c.Tab.MaxFret = f.maxFret
	}
	if f.tolerance > 0 {
		c.Tab.ToleranceCents = f.tolerance
	}
	if f.hopMS > 0 {
		c.Pitch.Hop = time.Duration(f.hopMS) * time.Millisecond
	}
	if f.noQuantize {
		c.Tab.Quantize = false
	}
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".f0") + defaultExt
}

// transcribe reads a pitch track and synthesizes its tab document.
func transcribe(input string) (*tab.Document, tab.Config, error) {
	tc, err := cfg.TabConfig()
	if err != nil {
		return nil, tab.Config{}, err
	}
	samples, err := pitch.ReadFile(input)
	if err != nil {
		return nil, tab.Config{}, err
	}

	if report := pitch.CheckHop(samples, tc.Hop); report.Deviates || report.Unordered > 0 {
		logger.Warn("Pitch track spacing differs from hop length", logger.Fields{
			"configured_ms": report.Configured.Milliseconds(),
			"measured_ms":   report.Measured.Milliseconds(),
			"unordered":     report.Unordered,
		})
	}

	doc, err := tab.Synthesize(tab.Samples(samples), tc)
	if err != nil {
		return nil, tab.Config{}, err
	}
	fields := logger.Fields{
		"file":    filepath.Base(input),
		"samples": len(samples),
		"events":  len(doc.Events),
		"tuning":  tc.Tuning.Name,
	}
	for kind, n := range doc.CountDiagnostics() {
		fields[string(kind)] = n
	}
	logger.Info("Pitch track transcribed", fields)
	return doc, tc, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	doc, tc, err := transcribe(args[0])
	if err != nil {
		return err
	}
	text, err := tab.RenderText(doc, tc.RenderOptions())
	if err != nil {
		return err
	}

	if outputFile == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text)
		return err
	}
	if err := os.WriteFile(outputFile, []byte(text), 0644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s -> %s\n", args[0], outputFile)
	return nil
}

func runMIDI(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")

	doc, _, err := transcribe(input)
	if err != nil {
		return err
	}
	data, err := tab.GenerateMIDI(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Converted %s -> %s\n", input, output)
	return nil
}

func runTunings(cmd *cobra.Command, args []string) error {
	for _, t := range tunings.All() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s\n", t.Name, t)
	}
	return nil
}

func runPlan(cmd *cobra.Command, args []string) error {
	job, err := pipeline.NewPlan(cfg, args[0])
	if err != nil {
		return err
	}
	if saveJob {
		if err := cfg.EnsureDirs(); err != nil {
			return err
		}
		path := filepath.Join(cfg.Paths.OutputDir, "jobs", job.ID+".json")
		if err := job.Save(path); err != nil {
			return err
		}
		logger.Info("Job saved", logger.Fields{"job_id": job.ID, "path": path})
	}
	return printJSON(cmd.OutOrStdout(), job)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		logger.Warn("Configuration is invalid", logger.Fields{"error": err.Error()})
	}
	return printJSON(cmd.OutOrStdout(), cfg)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serverPort != "" {
		cfg.Server.Port = serverPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	fmt.Printf("Starting API server on port %s...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%s/swagger/index.html\n", cfg.Server.Port)
	return api.StartServer(cfg)
}
