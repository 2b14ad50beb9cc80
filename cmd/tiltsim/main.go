package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tiltsim/internal/analysis"
	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/experiment"
	"github.com/san-kum/tiltsim/internal/export"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/optim"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/server"
	"github.com/san-kum/tiltsim/internal/storage"
	"github.com/san-kum/tiltsim/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	width       float64
	height      float64
	particles   int
	stepper     string
	duration    float64
	frameRate   int
	sensorKind  string
	replayPath  string
	scriptPath  string
	amplitude   float64
	period      float64
	seed        int64
	recordEvery int
	save        bool

	addr        string
	wsPath      string
	maxSessions int
	origins     []string

	outPath     string
	format      string
	frameIndex  int
	sweepParams []string
	sweepMetric string
	maximize    bool
	workers     int
)

// main wires the tiltsim commands and exits with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:          "tiltsim",
		Short:        "tilt-driven particle glass",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tiltsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the simulator to browser workers over websocket",
		Args:  cobra.NoArgs,
		RunE:  serve,
	}
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")
	serveCmd.Flags().StringVar(&wsPath, "path", config.DefaultPath, "websocket path")
	serveCmd.Flags().IntVar(&maxSessions, "max-sessions", config.DefaultMaxSessions, "concurrent session limit (0 = unlimited)")
	serveCmd.Flags().StringSliceVar(&origins, "origin", nil, "allowed browser origins (default same-origin, * for any)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	glassFlags(serveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a headless session from a sensor source",
		Args:  cobra.NoArgs,
		RunE:  runSession,
	}
	glassFlags(runCmd)
	sensorFlags(runCmd)
	runCmd.Flags().IntVar(&recordEvery, "record-every", 1, "keep every n-th frame")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "tilt the glass in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	glassFlags(liveCmd)
	sensorFlags(liveCmd)
	liveCmd.Flags().BoolVar(&save, "save", false, "store the session on exit")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot tilt and energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run data to JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.<ext>)")
	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "json, svg (one frame of the glass) or tilt-svg (tilt z over time)")
	exportCmd.Flags().IntVar(&frameIndex, "frame", -1, "frame to draw for svg, negative counts from the end")

	sweepCmd := &cobra.Command{
		Use:     "sweep",
		Short:   "run a grid of headless sessions and rank them by a metric",
		Example: "  tiltsim sweep --param sensitivity=1,3,5 --param amplitude=2,6 --metric peak_tilt",
		Args:    cobra.NoArgs,
		RunE:    runSweep,
	}
	glassFlags(sweepCmd)
	sensorFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVar(&sweepParams, "param", nil, "name=v1,v2,... (repeatable)")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "peak_tilt", "metric to rank by")
	sweepCmd.Flags().BoolVar(&maximize, "maximize", false, "prefer the largest metric")
	sweepCmd.Flags().IntVar(&workers, "workers", 4, "concurrent runs")

	greetCmd := &cobra.Command{
		Use:   "greet [name]",
		Short: "print the simulator greeting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			sim, err := cfg.NewSimulator()
			if err != nil {
				return err
			}
			name := "CLI"
			if len(args) > 0 {
				name = args[0]
			}
			fmt.Println(sim.Greet(name))
			return nil
		},
	}
	glassFlags(greetCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tPARTICLES\tSTEPPER\tMAX X\tMAX Z\tSENS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%gx%g\t%d\t%s\t%g\t%g\t%g\n",
					name, p.Width, p.Height, p.Particles, p.Stepper,
					p.Constants.MaxTiltX, p.Constants.MaxTiltZ, p.Constants.Sensitivity)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(serveCmd, runCmd, liveCmd, listCmd, plotCmd, exportCmd, sweepCmd, greetCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func glassFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&width, "width", config.DefaultWidth, "glass width")
	cmd.Flags().Float64Var(&height, "height", config.DefaultHeight, "glass height")
	cmd.Flags().IntVar(&particles, "particles", 10, "particle count")
	cmd.Flags().StringVar(&stepper, "stepper", config.DefaultStepper, "integration stepper (fixed, scaled)")
}

func sensorFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	cmd.Flags().IntVar(&frameRate, "fps", config.DefaultFrameRate, "frame rate")
	cmd.Flags().StringVar(&sensorKind, "sensor", config.DefaultSensor, "sensor source (sway, jitter, manual, replay, script)")
	cmd.Flags().StringVar(&replayPath, "replay", "", "csv of t,x,y,z samples for the replay sensor")
	cmd.Flags().StringVar(&scriptPath, "script", "", "yaml gesture script for the script sensor")
	cmd.Flags().Float64Var(&amplitude, "amplitude", config.DefaultAmplitude, "sensor amplitude (m/s^2)")
	cmd.Flags().Float64Var(&period, "period", config.DefaultPeriod, "sensor period (s)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "noise seed (jitter)")
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			apply()
		}
	}
	set("width", func() { cfg.Width = width })
	set("height", func() { cfg.Height = height })
	set("particles", func() { cfg.Particles = particles })
	set("stepper", func() { cfg.Stepper = stepper })
	set("time", func() { cfg.Duration = duration })
	set("fps", func() { cfg.FrameRate = frameRate })
	set("sensor", func() { cfg.Sensor.Kind = sensorKind })
	set("replay", func() {
		cfg.Sensor.Path = replayPath
		if !flags.Changed("sensor") {
			cfg.Sensor.Kind = "replay"
		}
	})
	set("script", func() {
		cfg.Sensor.Path = scriptPath
		if !flags.Changed("sensor") {
			cfg.Sensor.Kind = "script"
		}
	})
	set("amplitude", func() { cfg.Sensor.Amplitude = amplitude })
	set("period", func() { cfg.Sensor.Period = period })
	set("seed", func() { cfg.Sensor.Seed = seed })
	set("addr", func() { cfg.Server.Addr = addr })
	set("path", func() { cfg.Server.Path = wsPath })
	set("max-sessions", func() { cfg.Server.MaxSessions = maxSessions })
	set("origin", func() { cfg.Server.Origins = origins })

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fitDuration runs a recording or script to its end unless --time was given.
func fitDuration(cmd *cobra.Command, cfg *config.Config, src sensor.Source) {
	if cmd.Flags().Changed("time") {
		return
	}
	if d, ok := sensor.DurationOf(src); ok {
		cfg.Duration = d
	}
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, logger).ListenAndServe(ctx)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := sensor.FromConfig(cfg.Sensor)
	if err != nil {
		return err
	}
	fitDuration(cmd, cfg, src)

	every := 0
	if save {
		every = recordEvery
	}
	exp, err := experiment.New(cfg, src, every)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %gx%g glass, %d particles, %s stepper, %s sensor for %.1fs\n",
		cfg.Width, cfg.Height, cfg.Particles, cfg.Stepper, cfg.Sensor.Kind, cfg.Duration)

	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}

	printMetrics(res.Metrics)
	fmt.Printf("final tilt: x=%+.1f° z=%+.1f°\n", res.Final.TiltXDeg, res.Final.TiltZDeg)

	if !save {
		return nil
	}
	return saveRun(cfg, res.Frames, res.Metrics)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("sensor") && cfg.Sensor.Path == "" {
		cfg.Sensor.Kind = "manual"
	}
	src, err := sensor.FromConfig(cfg.Sensor)
	if err != nil {
		return err
	}
	sim, err := cfg.NewSimulator()
	if err != nil {
		return err
	}

	title := preset
	if title == "" {
		title = "tiltsim"
	}
	model := viz.NewModel(sim, src, cfg.FrameRate, title)
	var rec *storage.Recorder
	if save {
		rec = storage.NewRecorder(1)
		model = model.WithRecorder(rec)
	}

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}

	if rec == nil {
		return nil
	}
	m, ok := final.(viz.Model)
	if !ok {
		return fmt.Errorf("unexpected model type %T", final)
	}
	cfg.Duration = m.Elapsed()
	return saveRun(cfg, rec.Frames(), m.Metrics())
}

func saveRun(cfg *config.Config, frames []storage.Frame, ms map[string]float64) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(storage.RunMetadata{
		Preset:    preset,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Particles: cfg.Particles,
		Stepper:   cfg.Stepper,
		Sensor:    cfg.Sensor.Kind,
		Dt:        cfg.Dt(),
		Duration:  cfg.Duration,
		Metrics:   ms,
	}, frames)
	if err != nil {
		return err
	}
	fmt.Printf("saved run: %s\n", runID)
	return nil
}

func printMetrics(ms map[string]float64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range sortedKeys(ms) {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, ms[name])
	}
	w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSIZE\tPARTICLES\tSTEPPER\tSENSOR\tDURATION\tFRAMES\tPEAK TILT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%gx%g\t%d\t%s\t%s\t%.2fs\t%d\t%.1f°\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Particles,
			run.Stepper,
			run.Sensor,
			run.Duration,
			run.Frames,
			run.Metrics["peak_tilt"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("run %s has too few frames to plot", runID)
	}

	series := []struct {
		caption string
		value   func(storage.Frame) float64
	}{
		{"tilt x (deg)", func(f storage.Frame) float64 { return f.State.TiltXDeg }},
		{"tilt z (deg)", func(f storage.Frame) float64 { return f.State.TiltZDeg }},
		{"kinetic energy", func(f storage.Frame) float64 { return metrics.Energy(f.State.Particles) }},
	}

	fmt.Printf("run %s: %gx%g, %d particles, %s stepper, %s sensor\n\n",
		meta.ID, meta.Width, meta.Height, meta.Particles, meta.Stepper, meta.Sensor)

	for _, s := range series {
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = s.value(f)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	tiltZ := make([]float64, len(frames))
	centroid := make([]float64, len(frames))
	xs := make([]float64, 0, meta.Particles)
	for i, f := range frames {
		tiltZ[i] = f.State.TiltZDeg
		xs = xs[:0]
		for _, p := range f.State.Particles {
			xs = append(xs, p.X)
		}
		centroid[i] = analysis.Centroid(xs)
	}
	step := frames[1].Time - frames[0].Time
	fmt.Printf("dominant period: tilt z %.2fs, particle centroid %.2fs\n",
		analysis.DominantPeriod(tiltZ, step), analysis.DominantPeriod(centroid, step))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}

	ext := "json"
	if format != "json" {
		ext = "svg"
	}
	path := outPath
	if path == "" {
		path = runID + "." + ext
	}

	switch format {
	case "json":
		if err := storage.ExportJSON(path, *meta, frames); err != nil {
			return err
		}
		fmt.Printf("exported %d frames to %s\n", len(frames), path)
		return nil
	case "svg":
		if len(frames) == 0 {
			return fmt.Errorf("run %s has no frames", runID)
		}
		i := frameIndex
		if i < 0 {
			i += len(frames)
		}
		if i < 0 || i >= len(frames) {
			return fmt.Errorf("frame %d out of range (run has %d)", frameIndex, len(frames))
		}
		svg := export.GlassSVG(frames[i].State, meta.Width, meta.Height, math.Max(2, meta.Width/60))
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("exported frame %d (t=%.2fs) to %s\n", i, frames[i].Time, path)
		return nil
	case "tilt-svg":
		values := make([]float64, len(frames))
		for i, f := range frames {
			values[i] = f.State.TiltZDeg
		}
		svg := export.SeriesToSVG(values, 800, 200, "#f5a623")
		if svg == "" {
			return fmt.Errorf("run %s has too few frames to plot", runID)
		}
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return err
		}
		fmt.Printf("exported tilt series to %s\n", path)
		return nil
	default:
		return fmt.Errorf("unknown format %q (json, svg, tilt-svg)", format)
	}
}

// parseParam reads name=v1,v2,...
func parseParam(s string) (string, []float64, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("invalid --param %q, want name=v1,v2", s)
	}
	var vals []float64
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid value in --param %q: %w", s, err)
		}
		vals = append(vals, v)
	}
	return name, vals, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(sweepParams) == 0 {
		return fmt.Errorf("at least one --param is required (available: %v)", optim.Params)
	}

	var names []string
	var ranges [][]float64
	for _, p := range sweepParams {
		name, vals, err := parseParam(p)
		if err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		if err := optim.Apply(&cfg, params); err != nil {
			return nil, err
		}
		src, err := sensor.FromConfig(cfg.Sensor)
		if err != nil {
			return nil, err
		}
		fitDuration(cmd, &cfg, src)
		return experiment.New(&cfg, src, 0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	g := optim.NewGridSearch(names, ranges).WithWorkers(workers)
	trials, best, err := g.Search(ctx, build, sweepMetric, maximize)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t\n", strings.ToUpper(strings.Join(names, "\t")), sweepMetric)
	for i, tr := range trials {
		mark := ""
		if i == best {
			mark = "*"
		}
		cols := make([]string, len(names))
		for j, n := range names {
			cols[j] = strconv.FormatFloat(tr.Params[n], 'g', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%.4f\t%s\n", strings.Join(cols, "\t"), tr.Metrics[sweepMetric], mark)
	}
	return w.Flush()
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
