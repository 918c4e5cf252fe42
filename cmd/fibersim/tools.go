package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fibersim/internal/analysis"
	"github.com/san-kum/fibersim/internal/automation"
	"github.com/san-kum/fibersim/internal/compute"
	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/export"
	"github.com/san-kum/fibersim/internal/logger"
	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/mesh"
	"github.com/san-kum/fibersim/internal/projection"
	"github.com/san-kum/fibersim/internal/sim"
	"github.com/san-kum/fibersim/internal/storage"
)

var (
	spectrumOf string
	eps        float32
	sweepMin   float32
	sweepMax   float32
	sweepSteps int
	transient  int
	fromRun    string
)

// engineFactory builds engines from cfg and remembers their backends so the
// caller can release them.
type engineFactory struct {
	backends []compute.Backend
}

func (f *engineFactory) build(cfg *config.Config) (*membrane.Engine, error) {
	eng, backend, err := sim.NewEngine(cfg, logger.Component("analyze"))
	if err != nil {
		return nil, err
	}
	f.backends = append(f.backends, backend)
	return eng, nil
}

func (f *engineFactory) cleanup() {
	for _, b := range f.backends {
		b.Cleanup()
	}
}

func probeIndex(cfg *config.Config) int {
	x, y, _ := cfg.Probe()
	return y*cfg.Grid.Side + x
}

func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "frequency, sensitivity, damping and phase analysis",
	}

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "power spectrum of a saved trace",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeSpectrum,
	}
	spectrumCmd.Flags().StringVar(&spectrumOf, "series", "probe", "column to analyze: center, probe, energy, max_abs")

	sensitivityCmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "growth rate of a small height perturbation at the probe",
		Args:  cobra.NoArgs,
		RunE:  analyzeSensitivity,
	}
	addSimFlags(sensitivityCmd)
	sensitivityCmd.Flags().Float32Var(&eps, "eps", 1e-3, "initial perturbation")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "probe response across damping values",
		Args:  cobra.NoArgs,
		RunE:  analyzeSweep,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float32Var(&sweepMin, "min", 1.001, "smallest damping")
	sweepCmd.Flags().Float32Var(&sweepMax, "max", 1.1, "largest damping")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 10, "number of damping values")
	sweepCmd.Flags().IntVar(&transient, "transient", 200, "ticks discarded before recording")

	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "height/velocity portrait of the probe node",
		Args:  cobra.NoArgs,
		RunE:  analyzePhase,
	}
	addSimFlags(phaseCmd)

	analyzeCmd.AddCommand(spectrumCmd, sensitivityCmd, sweepCmd, phaseCmd)
	return analyzeCmd
}

func analyzeSpectrum(cmd *cobra.Command, args []string) error {
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
	data, err := traceColumn(trace, spectrumOf)
	if err != nil {
		return err
	}

	step := float64(meta.TimeStep)
	freqs, power, err := analysis.Spectrum(data, step)
	if err != nil {
		return err
	}
	freq, _, err := analysis.DominantFrequency(data, step)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s (%s)\n\n", meta.ID, spectrumOf)
	plot := power[1:]
	if len(plot) > 8 {
		plot = plot[:len(plot)/2]
	}
	fmt.Println(asciigraph.Plot(plot,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("power spectrum, bin %.4f per time unit", freqs[1]-freqs[0])),
	))
	fmt.Println()
	fmt.Printf("dominant frequency: %.4f per time unit\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f time units (%.1f ticks)\n", 1/freq, 1/(freq*step))
	}
	fmt.Printf("drive frequency: %.4f per time unit\n", 1/(2*math.Pi))
	return nil
}

func analyzeSensitivity(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	var f engineFactory
	defer f.cleanup()

	node := probeIndex(cfg)
	rate, err := analysis.SeparationRate(func() (*membrane.Engine, error) { return f.build(cfg) }, node, eps, cfg.Run.Ticks)
	if err != nil {
		return err
	}
	fmt.Printf("node %d, eps %g, %d ticks\n", node, eps, cfg.Run.Ticks)
	fmt.Printf("separation rate: %.6f per tick\n", rate)
	if rate < 0 {
		fmt.Println("the membrane forgets the perturbation")
	}
	return nil
}

func analyzeSweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	var f engineFactory
	defer f.cleanup()

	points, err := analysis.DampingSweep(func(d float32) (*membrane.Engine, error) {
		c := *cfg
		c.Sim.Damping = d
		return f.build(&c)
	}, sweepMin, sweepMax, sweepSteps, transient, cfg.Run.Ticks, probeIndex(cfg))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAMPING\tPEAK\tRMS")
	peaks := make([]float64, len(points))
	for i, p := range points {
		fmt.Fprintf(w, "%.4f\t%.5f\t%.5f\n", p.Damping, p.Peak, p.RMS)
		peaks[i] = p.Peak
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(peaks) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(peaks, asciigraph.Height(8), asciigraph.Caption("peak |h| vs damping")))
	}
	return nil
}

func analyzePhase(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	var f engineFactory
	defer f.cleanup()

	eng, err := f.build(cfg)
	if err != nil {
		return err
	}
	portrait, err := analysis.GeneratePhasePortrait(eng, probeIndex(cfg), cfg.Run.Ticks)
	if err != nil {
		return err
	}
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 70, 25))
	return nil
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list configuration presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, name := range config.ListPresets() {
				fmt.Fprintf(w, "%s\t%s\n", name, config.Presets[name].Description)
			}
			return w.Flush()
		},
	}
}

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project [x] [y] [z]",
		Short: "project a world point with the configured camera",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var v [3]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("coordinate %d: %w", i+1, err)
				}
				v[i] = f
			}
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			p, err := projection.NewProjector(cfg.View())
			if err != nil {
				return err
			}
			pt, err := p.Project(r3.Vec{X: v[0], Y: v[1], Z: v[2]})
			if errors.Is(err, projection.ErrDegenerateProjection) {
				fmt.Printf("(%g, %g, %g) has no projection: %v\n", v[0], v[1], v[2], err)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("(%g, %g, %g) -> (%.6f, %.6f)\n", v[0], v[1], v[2], pt.X, pt.Y)
			return nil
		},
	}
	addSimFlags(cmd)
	return cmd
}

func newExportSVGCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-svg [file]",
		Short: "write the projected mesh as SVG after --ticks ticks, or from a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	addSimFlags(cmd)
	cmd.Flags().StringVar(&fromRun, "from", "", "use the final frame of this saved run")
	return cmd
}

func exportSVG(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	var g *membrane.Grid
	if fromRun != "" {
		st := storage.New(storeDir(cfg))
		if g, err = st.LoadFrame(fromRun); err != nil {
			return err
		}
	} else {
		var f engineFactory
		defer f.cleanup()
		eng, err := f.build(cfg)
		if err != nil {
			return err
		}
		for i := 0; i < cfg.Run.Ticks; i++ {
			if _, err := eng.Advance(); err != nil {
				return err
			}
		}
		g = eng.Snapshot()
	}

	p, err := projection.NewProjector(cfg.View())
	if err != nil {
		return err
	}
	m := mesh.Build(g, p)
	svg := export.MeshToSVG(m, cfg.Render.Width, cfg.Render.Height, cfg.Render.ClearColor)
	if err := os.WriteFile(args[0], []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d triangles, %d dropped)\n", args[0], len(m.Triangles()), m.Dropped)
	return nil
}

func newScenarioCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted scenario (the stock gravity pulse without a file)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(cmd)

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the stock scenario as a starting point",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := automation.GravityPulse().Marshal()
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	cmd.AddCommand(initCmd)
	return cmd
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc := automation.GravityPulse()
	if len(args) == 1 {
		var err error
		if sc, err = automation.LoadScenario(args[0]); err != nil {
			return err
		}
	}
	if preset == "" {
		preset = sc.Preset
	}
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.Component("scenario")
	eng, backend, err := sim.NewEngine(cfg, log)
	if err != nil {
		return err
	}
	defer backend.Cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("scenario %s: %d segments, %d ticks\n", sc.Name, len(sc.Segments), sc.TotalTicks())
	results, runErr := automation.RunScenario(ctx, sc, eng, cfg, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tLABEL\tTICKS\tGRAVITY\tSIDE\tSTART\tEND\tPEAK\tENERGY")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%v\t%d\t%.2f\t%.2f\t%.4f\t%.4f\n",
			r.Index+1, orDefault(r.Label, "-"), r.Ticks, r.Gravity, r.Side, r.StartTime, r.EndTime, r.Peak, r.Energy)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "inspect or write configuration files",
	}

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the effective configuration to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
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
	addSimFlags(initCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		},
	}
	addSimFlags(showCmd)

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}
