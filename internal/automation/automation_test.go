package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/fibersim/internal/config"
	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/sim"
)

const sample = `
name: pulse
preset: fiber
interval: 0s
segments:
  - label: rest
    ticks: 20
    gravity: false
  - label: fall
    ticks: 20
    gravity: true
  - label: again
    ticks: 10
    reset: true
  - label: big
    ticks: 5
    resize: 8
`

func newEngine(t *testing.T, cfg *config.Config) *membrane.Engine {
	t.Helper()
	eng, backend, err := sim.NewEngine(cfg, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(backend.Cleanup)
	return eng
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(sample))
	if err != nil {
		t.Fatalf("ParseScenario: %v", err)
	}
	if sc.Name != "pulse" || len(sc.Segments) != 4 {
		t.Fatalf("got %+v", sc)
	}
	if sc.Segments[0].Gravity == nil || *sc.Segments[0].Gravity {
		t.Error("first segment should switch gravity off")
	}
	if sc.Segments[2].Gravity != nil {
		t.Error("unset gravity should stay nil")
	}
	if sc.TotalTicks() != 55 {
		t.Errorf("TotalTicks() = %d, want 55", sc.TotalTicks())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		sc   Scenario
	}{
		{"no segments", Scenario{Name: "x"}},
		{"zero ticks", Scenario{Segments: []Segment{{Ticks: 0}}}},
		{"tiny resize", Scenario{Segments: []Segment{{Ticks: 1, Resize: 2}}}},
		{"unknown preset", Scenario{Preset: "nope", Segments: []Segment{{Ticks: 1}}}},
		{"negative interval", Scenario{Interval: -time.Second, Segments: []Segment{{Ticks: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sc.Validate(); !errors.Is(err, membrane.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
	if err := GravityPulse().Validate(); err != nil {
		t.Errorf("GravityPulse should be valid: %v", err)
	}
}

func TestLoadScenarioRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	data, err := GravityPulse().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.TotalTicks() != GravityPulse().TotalTicks() {
		t.Errorf("TotalTicks() = %d", sc.TotalTicks())
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(sample))
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.DefaultConfig()
	eng := newEngine(t, cfg)

	results, err := RunScenario(context.Background(), sc, eng, cfg, nil)
	if err != nil {
		t.Fatalf("RunScenario: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	for i, r := range results {
		if r.Ticks != sc.Segments[i].Ticks || len(r.Trace) != r.Ticks {
			t.Errorf("segment %d ran %d ticks with %d samples", i, r.Ticks, len(r.Trace))
		}
	}
	if results[0].Gravity || !results[1].Gravity || !results[2].Gravity {
		t.Error("gravity toggle not applied or not carried over")
	}
	if results[1].StartTime != results[0].EndTime {
		t.Error("segments without reset should continue the clock")
	}
	if results[2].StartTime != 0 {
		t.Errorf("reset segment started at %v", results[2].StartTime)
	}
	if results[3].Side != 8 || eng.Side() != 8 {
		t.Errorf("resize segment side = %d", results[3].Side)
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	eng := newEngine(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := RunScenario(ctx, GravityPulse(), eng, cfg, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(results) != 1 || results[0].Ticks != 0 {
		t.Errorf("expected one empty segment result, got %+v", results)
	}
}
