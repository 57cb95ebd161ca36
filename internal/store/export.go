package store

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/driftsim/internal/config"
	"github.com/san-kum/driftsim/internal/output"
	"github.com/san-kum/driftsim/internal/sim"
)

type ExportData struct {
	Name      string             `json:"name"`
	Dataset   string             `json:"dataset"`
	Coastline string             `json:"coastline"`
	Start     float64            `json:"start"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Steps     int                `json:"steps"`
	Released  int                `json:"released"`
	Times     []float64          `json:"times"`
	Alive     []int              `json:"alive"`
	Causes    map[string]int     `json:"causes"`
	Metrics   map[string]float64 `json:"metrics"`
	Tracks    []output.Track     `json:"tracks,omitempty"`
}

// NewExportData collects a run for export. tracks may be nil.
func NewExportData(cfg *config.Config, result *sim.Result, tracks []output.Track) *ExportData {
	return &ExportData{
		Name:      cfg.Name,
		Dataset:   cfg.Dataset.Type,
		Coastline: cfg.Coastline,
		Start:     cfg.Start,
		Dt:        cfg.Dt,
		Duration:  cfg.Duration,
		Steps:     result.StepsTaken,
		Released:  result.Released,
		Times:     result.Times,
		Alive:     result.Alive,
		Causes:    result.Causes,
		Metrics:   result.Metrics,
		Tracks:    tracks,
	}
}

func Encode(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return Encode(file, data)
}

func ExportJSONStdout(data *ExportData) error {
	return Encode(os.Stdout, data)
}
