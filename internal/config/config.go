package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/projection"
)

const (
	DefaultInterval = 10 * time.Millisecond
	DefaultTicks    = 600
	DefaultTPS      = 100
	DefaultWidth    = 800
	DefaultHeight   = 800
	DefaultBackend  = "cpu"
	DefaultTheme    = "fiber"
	DefaultDataDir  = "data"
)

type Config struct {
	Grid   GridConfig   `yaml:"grid"`
	Sim    SimConfig    `yaml:"sim"`
	Camera CameraConfig `yaml:"camera"`
	Screen ScreenConfig `yaml:"screen"`
	Render RenderConfig `yaml:"render"`
	Run    RunConfig    `yaml:"run"`
}

type GridConfig struct {
	Side      int     `yaml:"side"`
	Init      string  `yaml:"init"`
	Seed      int64   `yaml:"seed"`
	Amplitude float32 `yaml:"amplitude"`
}

type SimConfig struct {
	TimeStep    float32 `yaml:"time_step"`
	Damping     float32 `yaml:"damping"`
	Gravity     bool    `yaml:"gravity"`
	Backend     string  `yaml:"backend"`
	Workers     int     `yaml:"workers"`
	Instability string  `yaml:"instability"`
	Bound       float32 `yaml:"bound"`
}

type CameraConfig struct {
	Position  [3]float64 `yaml:"position,flow"`
	Direction [3]float64 `yaml:"direction,flow"`
}

type ScreenConfig struct {
	Size   float64    `yaml:"size"`
	Indent float64    `yaml:"indent"`
	Top    [3]float64 `yaml:"top,flow"`
}

type RenderConfig struct {
	Width      int        `yaml:"width"`
	Height     int        `yaml:"height"`
	TPS        int        `yaml:"tps"`
	Theme      string     `yaml:"theme"`
	ClearColor [4]float32 `yaml:"clear_color,flow"`
}

type RunConfig struct {
	Ticks    int           `yaml:"ticks"`
	Interval time.Duration `yaml:"interval"`
	// ProbeX and ProbeY pick the node traced for analysis; -1 means the
	// driven center.
	ProbeX  int    `yaml:"probe_x"`
	ProbeY  int    `yaml:"probe_y"`
	DataDir string `yaml:"data_dir"`
}

func DefaultConfig() *Config {
	cam := projection.DefaultCamera()
	scr := projection.DefaultScreen()
	return &Config{
		Grid: GridConfig{
			Side:      membrane.DefaultSide,
			Init:      string(membrane.InitFlat),
			Seed:      1,
			Amplitude: 0.5,
		},
		Sim: SimConfig{
			TimeStep:    membrane.DefaultTimeStep,
			Damping:     membrane.DefaultDamping,
			Backend:     DefaultBackend,
			Instability: string(membrane.PolicyError),
			Bound:       membrane.DefaultBound,
		},
		Camera: CameraConfig{
			Position:  vecArray(cam.Position),
			Direction: vecArray(cam.Direction),
		},
		Screen: ScreenConfig{
			Size:   scr.Size,
			Indent: scr.Indent,
			Top:    vecArray(scr.Top),
		},
		Render: RenderConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			TPS:        DefaultTPS,
			Theme:      DefaultTheme,
			ClearColor: [4]float32{0.3, 0.1, 0.3, 1},
		},
		Run: RunConfig{
			Ticks:    DefaultTicks,
			Interval: DefaultInterval,
			ProbeX:   -1,
			ProbeY:   -1,
			DataDir:  DefaultDataDir,
		},
	}
}

// Load reads a YAML file over DefaultConfig, so omitted keys keep defaults.
func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a YAML file over base, e.g. a preset, and returns base.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports the first setting that cannot start a run.
// All failures wrap membrane.ErrConfiguration.
func (c *Config) Validate() error {
	switch {
	case c.Grid.Side < membrane.MinSide:
		return fmt.Errorf("%w: grid side %d is below minimum %d", membrane.ErrConfiguration, c.Grid.Side, membrane.MinSide)
	case !positive(c.Sim.TimeStep):
		return fmt.Errorf("%w: time step must be positive, got %g", membrane.ErrConfiguration, c.Sim.TimeStep)
	case !positive(c.Sim.Damping):
		return fmt.Errorf("%w: damping must be positive, got %g", membrane.ErrConfiguration, c.Sim.Damping)
	case !positive(c.Sim.Bound):
		return fmt.Errorf("%w: instability bound must be positive, got %g", membrane.ErrConfiguration, c.Sim.Bound)
	case c.Sim.Workers < 0:
		return fmt.Errorf("%w: workers must not be negative", membrane.ErrConfiguration)
	case c.Run.Ticks <= 0:
		return fmt.Errorf("%w: ticks must be positive, got %d", membrane.ErrConfiguration, c.Run.Ticks)
	case c.Run.Interval < 0:
		return fmt.Errorf("%w: interval must not be negative", membrane.ErrConfiguration)
	case c.Render.TPS <= 0:
		return fmt.Errorf("%w: tps must be positive", membrane.ErrConfiguration)
	}

	switch membrane.InitMode(c.Grid.Init) {
	case membrane.InitFlat, membrane.InitNoise, "":
	default:
		return fmt.Errorf("%w: unknown init mode %q", membrane.ErrConfiguration, c.Grid.Init)
	}
	switch c.Sim.Backend {
	case "auto", "cpu", "opencl", "":
	default:
		return fmt.Errorf("%w: unknown backend %q", membrane.ErrConfiguration, c.Sim.Backend)
	}
	if _, err := membrane.ParsePolicy(c.Sim.Instability); err != nil {
		return err
	}
	if _, _, err := c.Probe(); err != nil {
		return err
	}
	_, err := projection.NewProjector(c.View())
	return err
}

// View returns the projection camera and screen.
func (c *Config) View() (projection.Camera, projection.Screen) {
	return projection.Camera{
			Position:  arrayVec(c.Camera.Position),
			Direction: arrayVec(c.Camera.Direction),
		}, projection.Screen{
			Size:   c.Screen.Size,
			Indent: c.Screen.Indent,
			Top:    arrayVec(c.Screen.Top),
		}
}

// Guard returns the instability guard described by the sim section.
func (c *Config) Guard() membrane.Guard {
	policy, err := membrane.ParsePolicy(c.Sim.Instability)
	if err != nil {
		policy = membrane.PolicyError
	}
	return membrane.Guard{Bound: c.Sim.Bound, Policy: policy}
}

// Probe returns the traced node index.
func (c *Config) Probe() (int, int, error) {
	side := c.Grid.Side
	if c.Run.ProbeX < 0 && c.Run.ProbeY < 0 {
		center := membrane.CenterIndex(side)
		return center % side, center / side, nil
	}
	if c.Run.ProbeX < 0 || c.Run.ProbeX >= side || c.Run.ProbeY < 0 || c.Run.ProbeY >= side {
		return 0, 0, fmt.Errorf("%w: probe (%d,%d) outside %dx%d grid",
			membrane.ErrConfiguration, c.Run.ProbeX, c.Run.ProbeY, side, side)
	}
	return c.Run.ProbeX, c.Run.ProbeY, nil
}

func positive(v float32) bool {
	f := float64(v)
	return f > 0 && !math.IsInf(f, 0)
}

func vecArray(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func arrayVec(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }
