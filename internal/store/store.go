// Package store persists tracking runs: one directory per run with a
// JSON metadata file and the trajectory as CSV.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/askival/ringtrack/internal/beam"
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
	ID        string    `json:"id"`
	Lattice   string    `json:"lattice"`
	Timestamp time.Time `json:"timestamp"`
	Turns     int       `json:"turns"`
	Status    string    `json:"status"`
	LostPlane string    `json:"lost_plane,omitempty"`
	LostTurn  int       `json:"lost_turn,omitempty"`
	NuX       float64   `json:"nux,omitempty"`
	NuY       float64   `json:"nuy,omitempty"`
}

var csvHeader = []string{"rx", "px", "ry", "py", "de", "dl"}

// Save writes the run directory and returns the run ID.
func (s *Store) Save(meta RunMetadata, trajectory []beam.Pos) (string, error) {
	runID := fmt.Sprintf("%s_%d", filepath.Base(meta.Lattice), time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	trajFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return "", err
	}
	defer trajFile.Close()
	w := csv.NewWriter(trajFile)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	row := make([]string, 6)
	for _, p := range trajectory {
		for i := 0; i < 6; i++ {
			row[i] = strconv.FormatFloat(p.Get(i), 'E', 17, 64)
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	return runID, w.Error()
}

// List returns the metadata of all stored runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, err
	}
	var runs []RunMetadata
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// Load reads one run's metadata.
func (s *Store) Load(runID string) (RunMetadata, error) {
	var meta RunMetadata
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

// Trajectory reads one run's trajectory back.
func (s *Store) Trajectory(runID string) ([]beam.Pos, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "trajectory.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	var traj []beam.Pos
	for i, rec := range records {
		if i == 0 {
			continue // header
		}
		var p beam.Pos
		for j := 0; j < 6 && j < len(rec); j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, err
			}
			p.Set(j, v)
		}
		traj = append(traj, p)
	}
	return traj, nil
}
