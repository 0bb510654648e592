package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/kitesim/internal/analysis"
	"github.com/san-kum/kitesim/internal/automation"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/metrics"
	"github.com/san-kum/kitesim/internal/optim"
	"github.com/san-kum/kitesim/internal/sim"
	"github.com/san-kum/kitesim/internal/viz"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	dt         float64
	duration   float64
	preset     string
	configFile string
	pilotName  string
	bar        float64
	kp         float64
	ki         float64
	kd         float64
	target     float64
	windSpeed  float64
	direction  float64
	turbulence float64
	lineLength float64
	winds      []float64
	plot       bool
	window     bool
	verbose    bool
	scenario   string
	trials     int
	seed       int64
	jitter     float64
	kpRange    []float64
	kdRange    []float64
	steps      int
	logFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "kitesim",
		Short:         "two-line kite flight simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(true)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return viz.Run(viz.NewMenu(sim.WithLogger(logger)))
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log safety warnings to stderr")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write JSON logs to this file")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and print metrics",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	runCmd.Flags().BoolVar(&plot, "plot", true, "plot altitude and tension")
	runCmd.Flags().BoolVar(&window, "window", false, "plot the path through the wind window")
	runCmd.Flags().StringVar(&scenario, "scenario", "", "scripted wind and line events (yaml)")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly the kite in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run the same setup across several wind speeds in parallel",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	sweepCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	sweepCmd.Flags().Float64SliceVar(&winds, "winds", []float64{4, 6, 8, 10, 12}, "wind speeds (m/s)")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "fly randomly perturbed winds and count how many stay airborne",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	monteCarloCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration (s)")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	monteCarloCmd.Flags().Float64Var(&jitter, "jitter", 2, "wind speed standard deviation (m/s)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search PID gains for holding the target azimuth",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep (s)")
	tuneCmd.Flags().Float64Var(&duration, "time", 15, "duration (s)")
	tuneCmd.Flags().Float64SliceVar(&kpRange, "kp-range", []float64{0.01, 0.1}, "kp search bounds")
	tuneCmd.Flags().Float64SliceVar(&kdRange, "kd-range", []float64{0, 0.05}, "kd search bounds")
	tuneCmd.Flags().IntVar(&steps, "steps", 4, "grid points per gain")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "  %s\t%s\n", name, config.Presets[name].Description)
			}
			w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "inspect and write configuration files",
	}
	configInitCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file with the selected preset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "kitesim.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	addSimFlags(configInitCmd)
	configShowCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd)
			if err != nil {
				return err
			}
			return config.Write(os.Stdout, cfg)
		},
	}
	addSimFlags(configShowCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)

	rootCmd.AddCommand(runCmd, liveCmd, sweepCmd, monteCarloCmd, tuneCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "start from a preset ("+strings.Join(config.ListPresets(), ", ")+")")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&pilotName, "pilot", "none", "pilot ("+strings.Join(control.ListPilots(), ", ")+")")
	cmd.Flags().Float64Var(&bar, "bar", 0, "fixed bar rotation for the manual pilot (rad)")
	cmd.Flags().Float64Var(&kp, "kp", 0.04, "pid kp")
	cmd.Flags().Float64Var(&ki, "ki", 0, "pid ki")
	cmd.Flags().Float64Var(&kd, "kd", 0.01, "pid kd")
	cmd.Flags().Float64Var(&target, "target", 0, "pid target azimuth (deg)")
	cmd.Flags().Float64Var(&windSpeed, "wind", config.DefaultWindSpeed, "wind speed (m/s)")
	cmd.Flags().Float64Var(&direction, "direction", 0, "wind direction (deg)")
	cmd.Flags().Float64Var(&turbulence, "turbulence", config.DefaultWindTurbulence, "turbulence (%)")
	cmd.Flags().Float64Var(&lineLength, "line-length", config.DefaultLineLength, "line length (m)")
}

// buildConfig layers defaults, preset, config file and changed flags in
// that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		p, err := config.LookupPreset(preset)
		if err != nil {
			return nil, err
		}
		cfg = p
	}
	if configFile != "" {
		loaded, err := config.LoadOnto(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("wind") {
		cfg.Wind.Speed = windSpeed
	}
	if flags.Changed("direction") {
		cfg.Wind.Direction = direction
	}
	if flags.Changed("turbulence") {
		cfg.Wind.Turbulence = turbulence
	}
	if flags.Changed("line-length") {
		cfg.Lines.Length = lineLength
	}
	if f := flags.Lookup("dt"); f != nil && f.Changed {
		cfg.Run.Dt = dt
	}
	if f := flags.Lookup("time"); f != nil && f.Changed {
		cfg.Run.Duration = duration
	}
	return cfg, cfg.Validate()
}

func buildPilot(cmd *cobra.Command, cfg *config.Config) (func() dynamo.Pilot, error) {
	params := map[string]float64{
		"limit":  cfg.Bar.MaxRotation,
		"bar":    bar,
		"target": target,
		"ki":     ki,
	}
	if cmd.Flags().Changed("kp") {
		params["kp"] = kp
	}
	if cmd.Flags().Changed("kd") {
		params["kd"] = kd
	}
	if _, err := control.NewPilot(pilotName, params); err != nil {
		return nil, err
	}
	return func() dynamo.Pilot {
		p, _ := control.NewPilot(pilotName, params)
		return p
	}, nil
}

// newLogger returns a logger that stays off the terminal when a full
// screen view owns it.
func newLogger(fullscreen bool) (*zap.Logger, error) {
	switch {
	case logFile != "":
		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{logFile}
		zc.ErrorOutputPaths = []string{logFile}
		return zc.Build()
	case verbose && !fullscreen:
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	newPilot, err := buildPilot(cmd, cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	stepper, err := sim.NewStepper(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	runner := sim.NewRunner(stepper, newPilot())
	for _, m := range metrics.Standard(cfg.Kite.Mass, cfg.Integration.Gravity) {
		runner.AddMetric(m)
	}
	if scenario != "" {
		sc, err := automation.LoadScenario(scenario)
		if err != nil {
			return err
		}
		runner.AddObserver(automation.NewDirector(stepper, sc))
		fmt.Printf("scenario %q: %d events\n", sc.Name, len(sc.Events))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("flying %.1fs at %.1f m/s wind, pilot %s...\n", cfg.Run.Duration, cfg.Wind.Speed, pilotName)
	start := time.Now()
	result, err := runner.Run(ctx, cfg.Run)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("steps: %d  warning ticks: %d\n", result.StepsTaken, result.WarningTicks)
	printMetrics(result.Metrics)

	total := func(f dynamo.Frame) float64 { return f.Tensions.Total() }
	if hz, mag := analysis.DominantFrequency(result.Series(total), cfg.Run.Dt); hz > 0 {
		fmt.Printf("  tension_oscillation  %.3f Hz (±%.2f N)\n", hz, 2*mag)
	}

	if plot && len(result.Frames) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(downsample(result.Series(dynamo.Frame.Altitude), 70),
			asciigraph.Height(10), asciigraph.Caption("altitude (m)")))
		fmt.Println()
		fmt.Println(asciigraph.Plot(downsample(result.Series(total), 70),
			asciigraph.Height(10), asciigraph.Caption("total line tension (N)")))
	}
	if window {
		fmt.Println("\nwind window (azimuth -90..90, elevation 0..90):")
		fmt.Print(analysis.WindowToASCII(analysis.FlightWindow(result.Frames, cfg.Bar.Position), 61, 16))
	}
	return nil
}

func printMetrics(values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", name, values[name])
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	newPilot, err := buildPilot(cmd, cfg)
	if err != nil {
		return err
	}
	logger, err := newLogger(true)
	if err != nil {
		return err
	}
	defer logger.Sync()

	stepper, err := sim.NewStepper(cfg, sim.WithLogger(logger))
	if err != nil {
		return err
	}
	title := preset
	if title == "" {
		title = "kitesim"
	}
	return viz.Run(viz.NewModel(stepper, newPilot(), title))
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	newPilot, err := buildPilot(cmd, base)
	if err != nil {
		return err
	}
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	configs := make([]*config.Config, len(winds))
	for i, speed := range winds {
		cfg := base.Clone()
		cfg.Wind.Speed = speed
		configs[i] = cfg
	}
	newMetrics := func() []dynamo.Metric {
		return metrics.Standard(base.Kite.Mass, base.Integration.Gravity)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := sim.NewEnsemble(configs, newPilot, newMetrics).WithLogger(logger).Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "wind\tmean_alt\tmax_tension\tslack\twarnings")
	for i, r := range results {
		fmt.Fprintf(w, "%.1f\t%.2f\t%.2f\t%.3f\t%.3f\n", winds[i],
			r.Metrics["mean_altitude"], r.Metrics["max_tension"],
			r.Metrics["slack_fraction"], r.Metrics["warning_rate"])
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	base, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	newPilot, err := buildPilot(cmd, base)
	if err != nil {
		return err
	}
	logger, err := newLogger(false)
	if err != nil {
		return err
	}
	defer logger.Sync()

	mc := automation.MonteCarlo{
		Trials:           trials,
		Seed:             seed,
		SpeedJitter:      jitter,
		DirectionJitter:  10,
		TurbulenceJitter: 5,
	}
	configs := mc.Configs(base)
	newMetrics := func() []dynamo.Metric {
		return metrics.Standard(base.Kite.Mass, base.Integration.Gravity)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := sim.NewEnsemble(configs, newPilot, newMetrics).WithLogger(logger).Run(ctx)
	if err != nil {
		return err
	}

	summaries := automation.Summarize(configs, results, 1)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "trial\twind\tdir\tturb\tmin_alt\twarnings\tairborne")
	for _, t := range summaries {
		fmt.Fprintf(w, "%d\t%.1f\t%.0f\t%.0f\t%.2f\t%d\t%v\n",
			t.Trial, t.WindSpeed, t.Direction, t.Turbulence, t.MinAltitude, t.WarningTicks, t.Airborne)
	}
	w.Flush()
	up, down := automation.Stats(summaries)
	fmt.Printf("\nairborne: %d  grounded: %d\n", up, down)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if len(kpRange) != 2 || len(kdRange) != 2 {
		return fmt.Errorf("ranges take two values: %w", dynamo.ErrParameterBounds)
	}

	grid := optim.NewGridSearch([]string{"kp", "kd"}, [][]float64{
		optim.Range(kpRange[0], kpRange[1], steps),
		optim.Range(kdRange[0], kdRange[1], steps),
	})
	build := func(params map[string]float64) (*sim.Runner, error) {
		stepper, err := sim.NewStepper(cfg)
		if err != nil {
			return nil, err
		}
		pilot, err := control.NewPilot("pid", map[string]float64{
			"kp":     params["kp"],
			"kd":     params["kd"],
			"ki":     ki,
			"target": target,
			"limit":  cfg.Bar.MaxRotation,
		})
		if err != nil {
			return nil, err
		}
		r := sim.NewRunner(stepper, pilot)
		r.AddMetric(metrics.NewAzimuthError(target))
		return r, nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, all, err := grid.Search(ctx, build, cfg.Run, "azimuth_error")
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "kp\tkd\tazimuth_error")
	for _, t := range all {
		fmt.Fprintf(w, "%.4f\t%.4f\t%.3f\n", t.Params["kp"], t.Params["kd"], t.Value)
	}
	w.Flush()
	fmt.Printf("\nbest: --kp %.4f --kd %.4f (rms %.2f°)\n", best.Params["kp"], best.Params["kd"], best.Value)
	return nil
}

func downsample(data []float64, width int) []float64 {
	if len(data) <= width {
		return data
	}
	out := make([]float64, width)
	step := float64(len(data)-1) / float64(width-1)
	for i := range out {
		out[i] = data[int(float64(i)*step)]
	}
	return out
}
