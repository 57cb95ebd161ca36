package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	summaryFile  = "summary.csv"
	configFile   = "config.yaml"
)

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
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Start      float64            `json:"start"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Dataset    string             `json:"dataset"`
	Coastline  string             `json:"coastline"`
	Actions    []string           `json:"actions"`
	Steps      int                `json:"steps"`
	Released   int                `json:"released"`
	Causes     map[string]int     `json:"causes"`
	Metrics    map[string]float64 `json:"metrics"`
	Trajectory string             `json:"trajectory,omitempty"`
}

// Save records a finished run: its metadata, the config that produced it
// and the alive count per observation. trajectory is the NetCDF output of
// the run, if any.
func (s *Store) Save(cfg *config.Config, result *sim.Result, trajectory string) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	actions := make([]string, 0, len(cfg.Actions)+len(cfg.Traits))
	for _, a := range cfg.Actions {
		actions = append(actions, a.Name)
	}
	for _, tr := range cfg.Traits {
		actions = append(actions, tr.Name)
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       cfg.Name,
		Timestamp:  now,
		Seed:       cfg.Seed,
		Start:      cfg.Start,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Dataset:    cfg.Dataset.Type,
		Coastline:  cfg.Coastline,
		Actions:    actions,
		Steps:      result.StepsTaken,
		Released:   result.Released,
		Causes:     result.Causes,
		Metrics:    result.Metrics,
		Trajectory: trajectory,
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writeSummary(filepath.Join(runDir, summaryFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeSummary(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "alive"}); err != nil {
		return err
	}
	for i, t := range result.Times {
		row := []string{strconv.FormatFloat(t, 'f', 1, 64), strconv.Itoa(result.Alive[i])}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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

// LoadConfig reads back the config a run was made with.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, configFile))
}

// LoadSummary returns the observation times and alive counts of a run.
func (s *Store) LoadSummary(runID string) ([]float64, []int, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, summaryFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return []float64{}, []int{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	alive := make([]int, 0, len(records)-1)
	for _, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("summary %s: %w", runID, err)
		}
		n, err := strconv.Atoi(record[1])
		if err != nil {
			return nil, nil, fmt.Errorf("summary %s: %w", runID, err)
		}
		times = append(times, t)
		alive = append(alive, n)
	}
	return times, alive, nil
}
