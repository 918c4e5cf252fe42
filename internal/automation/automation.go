// Package automation runs scripted scenarios: a sequence of segments, each
// setting the gravity toggle (and optionally resetting or resizing the grid)
// before running a number of ticks.
package automation

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/metrics"
	"github.com/san-kum/fibersim/internal/sim"
)

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Preset names the configuration the scenario starts from.
	Preset   string        `yaml:"preset,omitempty"`
	Interval time.Duration `yaml:"interval,omitempty"`
	Segments []Segment     `yaml:"segments"`
}

// Segment changes the engine at a tick boundary and then runs Ticks ticks.
// A nil Gravity keeps the current toggle.
type Segment struct {
	Label   string `yaml:"label,omitempty"`
	Ticks   int    `yaml:"ticks"`
	Gravity *bool  `yaml:"gravity,omitempty"`
	Reset   bool   `yaml:"reset,omitempty"`
	Resize  int    `yaml:"resize,omitempty"`
}

type SegmentResult struct {
	Index     int
	Label     string
	Gravity   bool
	Side      int
	StartTime float32
	EndTime   float32
	Ticks     int
	Peak      float64
	Energy    float64
	Trace     []sim.Sample
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

func (s *Scenario) Marshal() ([]byte, error) { return yaml.Marshal(s) }

func (s *Scenario) Validate() error {
	if len(s.Segments) == 0 {
		return fmt.Errorf("%w: scenario %q has no segments", membrane.ErrConfiguration, s.Name)
	}
	if s.Interval < 0 {
		return fmt.Errorf("%w: negative interval %v", membrane.ErrConfiguration, s.Interval)
	}
	if s.Preset != "" {
		if _, ok := config.Presets[s.Preset]; !ok {
			return fmt.Errorf("%w: unknown preset %q", membrane.ErrConfiguration, s.Preset)
		}
	}
	for i, seg := range s.Segments {
		if seg.Ticks <= 0 {
			return fmt.Errorf("%w: segment %d: ticks must be positive, got %d", membrane.ErrConfiguration, i+1, seg.Ticks)
		}
		if seg.Resize != 0 && seg.Resize < membrane.MinSide {
			return fmt.Errorf("%w: segment %d: resize to %d below minimum %d", membrane.ErrConfiguration, i+1, seg.Resize, membrane.MinSide)
		}
	}
	return nil
}

// TotalTicks sums the ticks of every segment.
func (s *Scenario) TotalTicks() int {
	n := 0
	for _, seg := range s.Segments {
		n += seg.Ticks
	}
	return n
}

// GravityPulse is the stock scenario: rest, fall under gravity, recover.
func GravityPulse() *Scenario {
	on, off := true, false
	return &Scenario{
		Name:        "gravity-pulse",
		Description: "toggle gravity on for a while, then let the membrane recover",
		Preset:      "fiber",
		Segments: []Segment{
			{Label: "settle", Ticks: 200, Gravity: &off},
			{Label: "gravity", Ticks: 200, Gravity: &on},
			{Label: "recover", Ticks: 200, Gravity: &off},
		},
	}
}

// RunScenario plays sc on eng. cfg is the configuration eng was built from;
// its initial condition is reloaded on reset and resize. Results for the
// segments completed so far are returned with any error.
func RunScenario(ctx context.Context, sc *Scenario, eng *membrane.Engine, cfg *config.Config, log logrus.FieldLogger) ([]SegmentResult, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	log = log.WithField("scenario", sc.Name)
	results := make([]SegmentResult, 0, len(sc.Segments))

	for i, seg := range sc.Segments {
		if err := applySegment(eng, cfg, seg); err != nil {
			return results, fmt.Errorf("segment %d: %w", i+1, err)
		}

		runCfg := sim.RunConfig(cfg)
		runCfg.Ticks = seg.Ticks
		runCfg.Interval = sc.Interval
		if runCfg.ProbeX >= eng.Side() || runCfg.ProbeY >= eng.Side() {
			runCfg.ProbeX, runCfg.ProbeY = -1, -1
		}

		amp := metrics.NewAmplitude()
		s := sim.New(eng, log)
		s.AddMetric(amp)

		start := eng.Time()
		res, err := s.Run(ctx, runCfg)
		sr := SegmentResult{
			Index:     i,
			Label:     seg.Label,
			Gravity:   eng.GravityEnabled(),
			Side:      eng.Side(),
			StartTime: start,
			EndTime:   eng.Time(),
		}
		if res != nil {
			sr.Ticks = res.TicksTaken
			sr.Peak = amp.Value()
			sr.Trace = res.Trace
			if n := len(res.Trace); n > 0 {
				sr.Energy = res.Trace[n-1].Energy
			}
		}
		results = append(results, sr)
		if err != nil {
			return results, fmt.Errorf("segment %d: %w", i+1, err)
		}

		log.WithFields(logrus.Fields{
			"segment": i + 1,
			"label":   seg.Label,
			"gravity": sr.Gravity,
			"peak":    sr.Peak,
		}).Info("segment done")
	}
	return results, nil
}

func applySegment(eng *membrane.Engine, cfg *config.Config, seg Segment) error {
	switch {
	case seg.Resize != 0 && seg.Resize != eng.Side():
		if err := eng.Resize(seg.Resize); err != nil {
			return err
		}
		if err := sim.SeedEngine(eng, cfg); err != nil {
			return err
		}
	case seg.Reset:
		eng.Reset()
		if err := sim.SeedEngine(eng, cfg); err != nil {
			return err
		}
	}
	if seg.Gravity != nil {
		eng.SetAcceleration(*seg.Gravity)
	}
	return nil
}
