package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/dynrec/internal/calibrate"
	"github.com/san-kum/dynrec/internal/config"
	"github.com/san-kum/dynrec/internal/detect"
	"github.com/san-kum/dynrec/internal/dynamo"
	"github.com/san-kum/dynrec/internal/embed"
	"github.com/san-kum/dynrec/internal/export"
	"github.com/san-kum/dynrec/internal/logging"
	"github.com/san-kum/dynrec/internal/metrics"
	"github.com/san-kum/dynrec/internal/pipeline"
	"github.com/san-kum/dynrec/internal/storage"
	"github.com/san-kum/dynrec/internal/synth"
	"github.com/san-kum/dynrec/internal/tui"
	"github.com/san-kum/dynrec/internal/viz"
)

var (
	dataDir   string
	logLevel  string
	logFormat string

	// input
	timeCol  string
	valueCol string
	indexed  bool
	skipRows int

	// config
	configFile string
	preset     string
	dim        int
	tau        int
	autoTau    bool
	invertTime bool
	cutEnd     bool
	epsilon    float64
	target     float64
	tolerance  float64
	workers    int
	windowSize int
	windowStep int
	smooth     bool
	samples    int
	seed       int64

	// output
	save        bool
	label       string
	useTUI      bool
	metricsFile string
	chartWidth  int
	chartHeight int
	showPlot    bool

	// synth
	synthN      int
	synthSeed   int64
	synthSwitch int
	synthNoise  float64
	synthOut    string

	// export
	exportFormat string
	exportOut    string
	svgPath      string

	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dynrec",
		Short:         "regime change detection with recurrence networks and fisher information",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			logger, err = logging.New(logging.Config{Level: logLevel, Format: logging.Format(logFormat)})
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dynrec", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format (text, json)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [csv]",
		Short: "run the full pipeline on a series",
		Args:  cobra.ExactArgs(1),
		RunE:  analyze,
	}
	inputFlags(analyzeCmd)
	configFlags(analyzeCmd)
	analyzeCmd.Flags().BoolVar(&save, "save", false, "store the run under the data directory")
	analyzeCmd.Flags().StringVar(&label, "label", "", "run label (defaults to the file name)")
	analyzeCmd.Flags().BoolVar(&useTUI, "tui", false, "show calibration progress")
	analyzeCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this file")
	analyzeCmd.Flags().BoolVar(&showPlot, "plot", true, "draw the fisher information chart")
	analyzeCmd.Flags().StringVar(&svgPath, "recurrence-svg", "", "write the recurrence plot as svg")
	chartFlags(analyzeCmd)

	tauCmd := &cobra.Command{
		Use:   "tau [csv]",
		Short: "select the embedding delay from mutual information",
		Args:  cobra.ExactArgs(1),
		RunE:  selectTau,
	}
	inputFlags(tauCmd)
	configFlags(tauCmd)
	chartFlags(tauCmd)

	calibrateCmd := &cobra.Command{
		Use:   "calibrate [csv]",
		Short: "search the recurrence radius for a target density",
		Args:  cobra.ExactArgs(1),
		RunE:  calibrateRadius,
	}
	inputFlags(calibrateCmd)
	configFlags(calibrateCmd)
	chartFlags(calibrateCmd)

	synthCmd := &cobra.Command{
		Use:   "synth [kind]",
		Short: "generate a series with a known regime change",
		Long:  "generate a series with a known regime change\n\nkinds: " + strings.Join(synth.Kinds(), ", "),
		Args:  cobra.ExactArgs(1),
		RunE:  generate,
	}
	synthCmd.Flags().IntVar(&synthN, "n", 0, "number of samples (0 keeps the kind's default)")
	synthCmd.Flags().Int64Var(&synthSeed, "seed", 42, "random seed")
	synthCmd.Flags().IntVar(&synthSwitch, "switch", 0, "sample index of the regime change (0 means n/2)")
	synthCmd.Flags().Float64Var(&synthNoise, "noise", -1, "noise amplitude (negative keeps the kind's default)")
	synthCmd.Flags().StringVarP(&synthOut, "output", "o", "", "output file (defaults to stdout)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	chartFlags(showCmd)

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as json or svg",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format (json, svg)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "output file (defaults to stdout)")
	chartFlags(exportCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "manage configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	configFlags(configInitCmd)
	configCmd.AddCommand(configInitCmd)

	rootCmd.AddCommand(analyzeCmd, tauCmd, calibrateCmd, synthCmd, listCmd, showCmd, exportCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func inputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&timeCol, "time-col", "", "time column name")
	cmd.Flags().StringVar(&valueCol, "value-col", "", "value column name")
	cmd.Flags().BoolVar(&indexed, "indexed", false, "ignore the time column and number samples from 0")
	cmd.Flags().IntVar(&skipRows, "skip", 0, "rows to skip before the header")
}

func configFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.IntVar(&dim, "m", 0, "embedding dimension")
	f.IntVar(&tau, "tau", 0, "embedding delay")
	f.BoolVar(&autoTau, "auto-tau", false, "select tau from mutual information")
	f.BoolVar(&invertTime, "invert-time", false, "reverse the series before embedding")
	f.BoolVar(&cutEnd, "cut-end", false, "drop trailing time stamps instead of leading ones")
	f.Float64Var(&epsilon, "epsilon", 0, "use a fixed recurrence radius")
	f.Float64Var(&target, "target", 0, "target recurrence density")
	f.Float64Var(&tolerance, "tolerance", 0, "accepted distance from the target density")
	f.IntVar(&workers, "workers", 0, "parallel radius candidates (0 uses all cpus)")
	f.IntVar(&windowSize, "window", 0, "fisher window size")
	f.IntVar(&windowStep, "step", 0, "fisher window increment")
	f.BoolVar(&smooth, "smooth", false, "smooth the fisher series before detection")
	f.IntVar(&samples, "samples", 0, "bootstrap resamples")
	f.Int64Var(&seed, "seed", 0, "bootstrap seed")
}

func chartFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&chartWidth, "width", 80, "chart width")
	cmd.Flags().IntVar(&chartHeight, "height", 12, "chart height")
}

// resolveConfig layers defaults, preset, config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("m") {
		cfg.Embedding.M = dim
	}
	if f.Changed("tau") {
		cfg.Embedding.Tau, cfg.Embedding.AutoTau = tau, false
	}
	if f.Changed("auto-tau") {
		cfg.Embedding.AutoTau = autoTau
	}
	if f.Changed("invert-time") {
		cfg.Embedding.InvertTime = invertTime
	}
	if f.Changed("cut-end") {
		cfg.Embedding.CutFromEnd = cutEnd
	}
	if f.Changed("epsilon") {
		cfg.Calibration.Fixed, cfg.Calibration.Epsilon = true, epsilon
	}
	if f.Changed("target") {
		cfg.Calibration.TargetDensity = target
	}
	if f.Changed("tolerance") {
		cfg.Calibration.Tolerance = tolerance
	}
	if f.Changed("workers") {
		cfg.Calibration.Workers = workers
	}
	if f.Changed("window") {
		cfg.Fisher.WindowSize = windowSize
	}
	if f.Changed("step") {
		cfg.Fisher.WindowIncrement = windowStep
	}
	if f.Changed("smooth") {
		cfg.Fisher.Smooth = smooth
	}
	if f.Changed("samples") {
		cfg.Bootstrap.Samples = samples
	}
	if f.Changed("seed") {
		cfg.Bootstrap.Seed = seed
	}
	return cfg, cfg.Validate()
}

func loadSeries(path string) (*dynamo.Series, error) {
	opts := storage.DefaultCSVOptions()
	opts.TimeColumn = timeCol
	opts.ValueColumn = valueCol
	opts.Indexed = indexed
	opts.SkipRows = skipRows

	s, err := storage.LoadCSV(path, opts)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded series", "path", path, "samples", s.Len())
	return s, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func analyze(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := loadSeries(args[0])
	if err != nil {
		return err
	}
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
	}

	reg := prometheus.NewRegistry()
	opts := pipeline.Options{Logger: logger, Metrics: metrics.New(reg)}

	ctx, cancel := signalContext()
	defer cancel()

	var res *pipeline.Result
	if useTUI {
		res, err = tui.Run(ctx, "dynrec: "+label, s, cfg, opts)
	} else {
		res, err = pipeline.Run(ctx, s, cfg, opts)
	}
	if metricsFile != "" {
		if werr := prometheus.WriteToTextfile(metricsFile, reg); werr != nil {
			logger.Warn("writing metrics", "path", metricsFile, "err", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Println(viz.Summary(label, res))
	if showPlot {
		d := res.Detected()
		fmt.Println()
		fmt.Println(viz.FisherChart(d.Values, res.Band, chartWidth, chartHeight, "fisher information with bootstrap band"))
		fmt.Println()
		fmt.Println(viz.Subtle.Render("eigenmap, components 1 and 2"))
		fmt.Print(viz.EigenmapPortrait(res.Coordinates, 0, 1, chartWidth/2, chartHeight/2).String())
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.RecurrenceSVG(res.Matrix, 2)), 0644); err != nil {
			return err
		}
		logger.Info("wrote recurrence plot", "path", svgPath)
	}

	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(runRecord(label, args[0], s, cfg, res), fisherTable(res))
		if err != nil {
			return err
		}
		fmt.Printf("\nsaved: %s\n", id)
	}
	return nil
}

func runRecord(label, source string, s *dynamo.Series, cfg *config.Config, res *pipeline.Result) storage.RunMetadata {
	meta := storage.RunMetadata{
		Label:           label,
		Source:          source,
		Samples:         s.Len(),
		M:               res.Embedded.M,
		Tau:             res.Embedded.Tau,
		Epsilon:         res.Epsilon,
		Density:         res.Density,
		WindowSize:      res.Fisher.WindowSize,
		WindowIncrement: res.Fisher.WindowIncrement,
		Band:            res.Band,
		Transitions:     len(res.Transitions),
		Metrics:         res.Summary,
	}
	if res.Calibration != nil {
		meta.Rounds = res.Calibration.Iterations
	}
	if res.Smoothed != nil {
		meta.BlockSize = cfg.Fisher.BlockSize
	}
	return meta
}

func fisherTable(res *pipeline.Result) *storage.FisherTable {
	t := &storage.FisherTable{Time: res.Fisher.Time, Values: res.Fisher.Values}
	if res.Smoothed != nil {
		t.Smoothed = res.Smoothed.Values
	}
	return t
}

func selectTau(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := loadSeries(args[0])
	if err != nil {
		return err
	}
	if cfg.Embedding.InvertTime {
		s = s.Reversed()
	}

	ts, err := embed.TauSearch(s.Values, cfg.Embedding.NumLags, cfg.Embedding.BinWidth)
	if err != nil {
		return err
	}
	fmt.Println(viz.MutualInformationChart(ts.MI, ts.Tau, chartWidth, chartHeight))
	fmt.Printf("\ntau: %d\n", ts.Tau)
	return nil
}

func calibrateRadius(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	s, err := loadSeries(args[0])
	if err != nil {
		return err
	}
	eo := pipeline.EmbedOptions(cfg.Embedding)
	emb, err := embed.Embed(s, eo)
	if err != nil {
		return err
	}

	co := pipeline.CalibrateOptions(cfg.Calibration)
	co.Logger = logger
	cal, err := calibrate.New(co)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := cal.Run(ctx, emb)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUND\tEPSILON\tDENSITY\tMISS")
	densities := make([]float64, len(res.Rounds))
	for i, r := range res.Rounds {
		densities[i] = r.Density
		fmt.Fprintf(w, "%d\t%.6g\t%.4f\t%+.4f\n", r.Iteration, r.Epsilon, r.Density, r.Miss)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(densities) > 1 {
		fmt.Println()
		fmt.Println(viz.DensityChart(densities, co.Target, chartWidth, chartHeight))
	}
	fmt.Printf("\nepsilon: %.6g  density: %.4f  (m=%d tau=%d, %d points)\n",
		res.Epsilon, res.Density, emb.M, emb.Tau, emb.Len())
	fmt.Println()
	fmt.Print(viz.RecurrencePlot(res.Matrix, chartWidth/2).String())
	return nil
}

func generate(cmd *cobra.Command, args []string) error {
	opts, err := synth.Defaults(args[0])
	if err != nil {
		return err
	}
	if synthN > 0 {
		opts.N = synthN
	}
	opts.Seed = synthSeed
	opts.SwitchAt = synthSwitch
	if synthNoise >= 0 {
		opts.Noise = synthNoise
	}

	s, err := synth.Generate(args[0], opts)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if synthOut != "" {
		f, err := os.Create(synthOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := writeSeries(out, s); err != nil {
		return err
	}
	logger.Info("generated series", "kind", args[0], "samples", s.Len(), "switch_at", opts.SwitchAt)
	return nil
}

func writeSeries(w io.Writer, s *dynamo.Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "value"}); err != nil {
		return err
	}
	for i := range s.Values {
		row := []string{
			strconv.FormatFloat(s.Time[i], 'g', -1, 64),
			strconv.FormatFloat(s.Values[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSAMPLES\tM\tTAU\tEPSILON\tDENSITY\tFLAGGED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.4g\t%.4f\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.M,
			run.Tau,
			run.Epsilon,
			run.Density,
			run.Transitions,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	table, err := st.LoadFisher(args[0])
	if err != nil {
		return err
	}

	fmt.Println(viz.Title.Render(meta.Label) + viz.Subtle.Render("  "+meta.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Printf("m=%d tau=%d epsilon=%.4g density=%.4f band=%s flagged=%d\n\n",
		meta.M, meta.Tau, meta.Epsilon, meta.Density, meta.Band, meta.Transitions)

	values, caption := table.Values, "fisher information"
	if len(table.Smoothed) > 0 {
		values, caption = table.Smoothed, "smoothed fisher information"
	}
	fmt.Println(viz.FisherChart(values, meta.Band, chartWidth, chartHeight, caption))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	var out io.Writer = os.Stdout
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	st := storage.New(dataDir)
	switch exportFormat {
	case "json":
		return st.ExportJSON(args[0], out)
	case "svg":
		meta, err := st.Load(args[0])
		if err != nil {
			return err
		}
		table, err := st.LoadFisher(args[0])
		if err != nil {
			return err
		}
		values := table.Values
		if len(table.Smoothed) > 0 {
			values = table.Smoothed
		}
		flagged := detect.Intervals(detect.Transitions(table.Time, values, meta.Band))
		_, err = io.WriteString(out, export.FisherSVG(table.Time, values, meta.Band, flagged, chartWidth*10, chartHeight*30))
		return err
	default:
		return fmt.Errorf("unknown export format %q", exportFormat)
	}
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tM\tTAU\tTARGET\tWINDOW\tSAMPLES")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		tauDesc := strconv.Itoa(p.Embedding.Tau)
		if p.Embedding.AutoTau {
			tauDesc = "auto"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%.3f\t%d/%d\t%d\n",
			name, p.Embedding.M, tauDesc, p.Calibration.TargetDensity,
			p.Fisher.WindowSize, p.Fisher.WindowIncrement, p.Bootstrap.Samples)
	}
	return w.Flush()
}
