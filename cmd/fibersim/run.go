package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/export"
	"github.com/san-kum/fibersim/internal/logger"
	"github.com/san-kum/fibersim/internal/metrics"
	"github.com/san-kum/fibersim/internal/sim"
	"github.com/san-kum/fibersim/internal/storage"
)

var (
	ensembleRuns int
	jsonOut      bool
	series       string
	svgOut       string
)

func runMetrics(cfg *config.Config) []sim.Metric {
	px, py, _ := cfg.Probe()
	return []sim.Metric{
		metrics.NewEnergy(),
		metrics.NewAmplitude(),
		metrics.NewRoughness(),
		metrics.NewProbe(px, py),
		metrics.NewDriveEffort(),
		metrics.NewStability(float64(cfg.Sim.Bound)),
	}
}

func runMetadata(cfg *config.Config, name, backendName string) storage.RunMetadata {
	px, py, _ := cfg.Probe()
	return storage.RunMetadata{
		Preset:   name,
		Side:     cfg.Grid.Side,
		TimeStep: cfg.Sim.TimeStep,
		Damping:  cfg.Sim.Damping,
		Gravity:  cfg.Sim.Gravity,
		Backend:  backendName,
		Init:     cfg.Grid.Init,
		Seed:     cfg.Grid.Seed,
		ProbeX:   px,
		ProbeY:   py,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.Component("run")

	st := storage.New(storeDir(cfg))
	if err := st.Init(); err != nil {
		return err
	}

	if ensembleRuns > 1 {
		return runEnsemble(cfg, name, st)
	}

	ctx, cancel := signalContext()
	defer cancel()

	eng, backend, err := sim.NewEngine(cfg, log)
	if err != nil {
		return err
	}
	defer backend.Cleanup()

	s := sim.New(eng, log)
	for _, m := range runMetrics(cfg) {
		s.AddMetric(m)
	}

	fmt.Printf("running %dx%d membrane for %d ticks on %s...\n", cfg.Grid.Side, cfg.Grid.Side, cfg.Run.Ticks, backend.Name())
	result, runErr := s.Run(ctx, sim.RunConfig(cfg))
	if result == nil {
		return runErr
	}

	runID, err := st.Save(runMetadata(cfg, name, backend.Name()), result)
	if err != nil {
		return err
	}
	if runErr != nil {
		fmt.Printf("stopped after %d ticks: %v\n", result.TicksTaken, runErr)
	}

	if jsonOut {
		meta, err := st.Load(runID)
		if err != nil {
			return err
		}
		return storage.ExportJSON(os.Stdout, meta, result.Trace)
	}

	fmt.Printf("completed in %v\n", result.Elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d\n", result.TicksTaken)
	if result.Stats.ClampedNodes > 0 {
		fmt.Printf("clamped nodes: %d over %d ticks\n", result.Stats.ClampedNodes, result.Stats.ClampedTicks)
	}
	printMetrics(result.Metrics)
	return runErr
}

func runEnsemble(cfg *config.Config, name string, st *storage.Store) error {
	ctx, cancel := signalContext()
	defer cancel()

	log := logger.Component("ensemble")
	ens := sim.NewEnsemble(cfg, ensembleRuns, cfg.Grid.Seed, log)
	fmt.Printf("running %d seeds from %d...\n", ensembleRuns, cfg.Grid.Seed)
	results, err := ens.Run(ctx, func() []sim.Metric { return runMetrics(cfg) })
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tRUN\tENERGY\tPEAK\tROUGHNESS")
	for i, res := range results {
		meta := runMetadata(cfg, name, cfg.Sim.Backend)
		meta.Seed = cfg.Grid.Seed + int64(i)
		meta.ID = fmt.Sprintf("%s_seed%d_%d", orDefault(name, "run"), meta.Seed, time.Now().UnixMilli())
		id, err := st.Save(meta, res)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%.4f\t%.4f\t%.4f\n", meta.Seed, id,
			res.Metrics["energy"], res.Metrics["max_amplitude"], res.Metrics["roughness"])
	}
	return w.Flush()
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(storeDir(nil))
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tSIDE\tTICKS\tDT\tGRAVITY\tBACKEND\tCLAMPED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.3f\t%v\t%s\t%d\n",
			run.ID,
			orDefault(run.Preset, "-"),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Side,
			run.Ticks,
			run.TimeStep,
			run.Gravity,
			run.Backend,
			run.ClampedNodes,
		)
	}
	return w.Flush()
}

func traceColumn(trace []sim.Sample, name string) ([]float64, error) {
	out := make([]float64, len(trace))
	for i, s := range trace {
		switch name {
		case "center":
			out[i] = float64(s.Center)
		case "probe":
			out[i] = float64(s.Probe)
		case "energy":
			out[i] = s.Energy
		case "max_abs":
			out[i] = s.MaxAbs
		default:
			return nil, fmt.Errorf("unknown series %q (center, probe, energy, max_abs)", name)
		}
	}
	return out, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(storeDir(nil))
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(trace) < 2 {
		return fmt.Errorf("run %s has too few samples to plot", runID)
	}
	data, err := traceColumn(trace, series)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  side: %d  ticks: %d  gravity: %v\n\n", meta.ID, meta.Side, meta.Ticks, meta.Gravity)
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(series+" vs tick"),
	)
	fmt.Println(graph)

	if svgOut != "" {
		if err := os.WriteFile(svgOut, []byte(export.SeriesToSVG(data, 800, 300, "#8080ff")), 0644); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", svgOut)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(storeDir(nil))
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, trace)
}
