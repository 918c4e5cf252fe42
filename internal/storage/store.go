package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/san-kum/fibersim/internal/membrane"
	"github.com/san-kum/fibersim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
	frameFile    = "frame.csv"
)

// Store keeps one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string             `json:"id"`
	Preset       string             `json:"preset,omitempty"`
	Timestamp    time.Time          `json:"timestamp"`
	Side         int                `json:"side"`
	TimeStep     float32            `json:"time_step"`
	Damping      float32            `json:"damping"`
	Gravity      bool               `json:"gravity"`
	Backend      string             `json:"backend"`
	Init         string             `json:"init"`
	Seed         int64              `json:"seed"`
	Ticks        int                `json:"ticks"`
	ProbeX       int                `json:"probe_x"`
	ProbeY       int                `json:"probe_y"`
	ClampedNodes int                `json:"clamped_nodes"`
	Metrics      map[string]float64 `json:"metrics"`
}

// FrameRow is one node of a saved grid.
type FrameRow struct {
	X        int     `csv:"x"`
	Y        int     `csv:"y"`
	Height   float32 `csv:"height"`
	Velocity float32 `csv:"velocity"`
}

// Save writes metadata.json, trace.csv and frame.csv for result. An empty
// meta.ID is filled from the preset name and the current time.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if meta.ID == "" {
		prefix := meta.Preset
		if prefix == "" {
			prefix = "run"
		}
		meta.ID = fmt.Sprintf("%s_%d", prefix, meta.Timestamp.UnixMilli())
	}
	meta.Ticks = result.TicksTaken
	meta.ClampedNodes = result.Stats.ClampedNodes
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeCSV(filepath.Join(runDir, traceFile), &result.Trace); err != nil {
		return "", fmt.Errorf("write trace: %w", err)
	}
	if result.Final != nil {
		rows := FrameRows(result.Final)
		if err := writeCSV(filepath.Join(runDir, frameFile), &rows); err != nil {
			return "", fmt.Errorf("write frame: %w", err)
		}
	}
	return meta.ID, nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadTrace(runID string) ([]sim.Sample, error) {
	var trace []sim.Sample
	if err := readCSV(filepath.Join(s.baseDir, runID, traceFile), &trace); err != nil {
		return nil, err
	}
	return trace, nil
}

// LoadFrame rebuilds the final grid of a run.
func (s *Store) LoadFrame(runID string) (*membrane.Grid, error) {
	var rows []FrameRow
	if err := readCSV(filepath.Join(s.baseDir, runID, frameFile), &rows); err != nil {
		return nil, err
	}
	return GridFromRows(rows)
}

func FrameRows(g *membrane.Grid) []FrameRow {
	rows := make([]FrameRow, 0, len(g.Nodes))
	for i, n := range g.Nodes {
		rows = append(rows, FrameRow{X: i % g.Side, Y: i / g.Side, Height: n.Height, Velocity: n.Velocity})
	}
	return rows
}

// GridFromRows places rows by their coordinates; the side is inferred from
// the row count, which must be a perfect square.
func GridFromRows(rows []FrameRow) (*membrane.Grid, error) {
	side := int(math.Round(math.Sqrt(float64(len(rows)))))
	if side*side != len(rows) {
		return nil, fmt.Errorf("%w: %d frame rows do not form a square grid", membrane.ErrDimensionMismatch, len(rows))
	}
	g, err := membrane.NewGrid(side)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		if r.X < 0 || r.X >= side || r.Y < 0 || r.Y >= side {
			return nil, fmt.Errorf("%w: frame row (%d,%d) outside %dx%d grid", membrane.ErrDimensionMismatch, r.X, r.Y, side, side)
		}
		g.Nodes[g.Index(r.X, r.Y)] = membrane.Node{Height: r.Height, Velocity: r.Velocity}
	}
	return g, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, rows any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(rows, f)
}

func readCSV(path string, out any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.UnmarshalFile(f, out)
}

// ExportJSON writes a run and its trace as one JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, trace []sim.Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		*RunMetadata
		Trace []sim.Sample `json:"trace"`
	}{meta, trace})
}
