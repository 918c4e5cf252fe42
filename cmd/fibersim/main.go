package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/logger"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFormat  string

	side      int
	dt        float32
	damping   float32
	gravity   bool
	backend   string
	workers   int
	initMode  string
	seed      int64
	amplitude float32
	policy    string
	ticks     int
	interval  time.Duration
	probeX    int
	probeY    int
	theme     string
	tps       int
)

// main registers the commands and runs the window when no subcommand is
// given. It exits with status 1 if the command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "fibersim",
		Short:         "driven membrane simulation with a custom camera projection",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel, logFormat)
		},
		RunE: runGUI,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json (default $LOG_FORMAT or text)")
	addSimFlags(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save its trace",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&ensembleRuns, "ensemble", 1, "run this many noise seeds in parallel")
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "print the saved run as JSON")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch the membrane in the terminal",
		Long:  "watch the membrane in the terminal; without --preset or --config a preset menu opens first",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "open the simulation window",
		Args:  cobra.NoArgs,
		RunE:  runGUI,
	}
	addSimFlags(guiCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved trace",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&series, "series", "center", "column to plot: center, probe, energy, max_abs")
	plotCmd.Flags().StringVar(&svgOut, "svg", "", "also write the plot as SVG to this file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a saved run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	rootCmd.AddCommand(runCmd, liveCmd, guiCmd, listCmd, plotCmd, exportCmd,
		newAnalyzeCmd(), newPresetsCmd(), newProjectCmd(), newExportSVGCmd(),
		newScenarioCmd(), newConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		logger.Log.WithError(err).Error("command failed")
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&side, "side", 0, "grid side length")
	f.Float32Var(&dt, "dt", 0, "oscillator time step per tick")
	f.Float32Var(&damping, "damping", 0, "velocity damping divisor")
	f.BoolVar(&gravity, "gravity", false, "start with gravity switched on")
	f.StringVar(&backend, "backend", "", "compute backend: cpu, opencl, auto")
	f.IntVar(&workers, "workers", 0, "CPU workers (0 = GOMAXPROCS)")
	f.StringVar(&initMode, "init", "", "initial condition: flat, noise")
	f.Int64Var(&seed, "seed", 0, "noise seed")
	f.Float32Var(&amplitude, "amplitude", 0, "noise amplitude")
	f.StringVar(&policy, "instability", "", "instability policy: error, clamp")
	f.IntVar(&ticks, "ticks", 0, "number of ticks")
	f.DurationVar(&interval, "interval", 0, "wall time per tick (0 = as fast as possible)")
	f.IntVar(&probeX, "probe-x", -1, "probe node x (-1 with probe-y -1 = center)")
	f.IntVar(&probeY, "probe-y", -1, "probe node y")
	f.StringVar(&theme, "theme", "", "terminal theme")
	f.IntVar(&tps, "tps", 0, "window ticks per second")
}

// resolveConfig builds the effective configuration: preset, then config
// file, then any flag the user actually set.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	name := preset
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		var err error
		if cfg, err = config.LoadOver(configFile, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("data") {
		cfg.Run.DataDir = dataDir
	}
	if changed("side") {
		cfg.Grid.Side = side
	}
	if changed("dt") {
		cfg.Sim.TimeStep = dt
	}
	if changed("damping") {
		cfg.Sim.Damping = damping
	}
	if changed("gravity") {
		cfg.Sim.Gravity = gravity
	}
	if changed("backend") {
		cfg.Sim.Backend = backend
	}
	if changed("workers") {
		cfg.Sim.Workers = workers
	}
	if changed("init") {
		cfg.Grid.Init = initMode
	}
	if changed("seed") {
		cfg.Grid.Seed = seed
	}
	if changed("amplitude") {
		cfg.Grid.Amplitude = amplitude
	}
	if changed("instability") {
		cfg.Sim.Instability = policy
	}
	if changed("ticks") {
		cfg.Run.Ticks = ticks
	}
	if changed("interval") {
		cfg.Run.Interval = interval
	}
	if changed("probe-x") {
		cfg.Run.ProbeX = probeX
	}
	if changed("probe-y") {
		cfg.Run.ProbeY = probeY
	}
	if changed("theme") {
		cfg.Render.Theme = theme
	}
	if changed("tps") {
		cfg.Render.TPS = tps
	}
}

// storeDir is the run directory: the resolved config's data_dir, which
// --data overrides, or the --data flag for commands without a config.
func storeDir(cfg *config.Config) string {
	if cfg != nil && cfg.Run.DataDir != "" {
		return cfg.Run.DataDir
	}
	return dataDir
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
