// Package storage persists batch runs under a data directory, one
// directory per run.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/growthfit/internal/batch"
	"github.com/san-kum/growthfit/internal/config"
)

const (
	metadataFile     = "metadata.json"
	resultsFile      = "results.csv"
	trajectoriesFile = "trajectories.json.zst"
)

var ErrRunNotFound = errors.New("storage: run not found")

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
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Source    string         `json:"source"`
	Timestamp time.Time      `json:"timestamp"`
	Curves    int            `json:"curves"`
	Duration  string         `json:"duration"`
	Summary   batch.Summary  `json:"summary"`
	Config    *config.Config `json:"config,omitempty"`
}

// RunID builds "<name>_<unix>_<hash>" where hash is the low 32 bits of the
// xxhash of the source and curve IDs.
func RunID(name, source string, ts time.Time, curveIDs []string) string {
	h := xxhash.Sum64String(source + "\x00" + strings.Join(curveIDs, "\x00") + "\x00" + strconv.FormatInt(ts.UnixNano(), 10))
	return fmt.Sprintf("%s_%d_%08x", name, ts.Unix(), uint32(h))
}

// Save writes a batch report and returns its run ID.
func (s *Store) Save(name, source string, cfg *config.Config, report *batch.Report) (string, error) {
	now := time.Now()
	ids := make([]string, len(report.Results))
	for i, r := range report.Results {
		ids[i] = r.CurveID
	}
	runID := RunID(name, source, now, ids)
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Source:    source,
		Timestamp: now,
		Curves:    len(report.Results),
		Duration:  report.Duration.String(),
		Summary:   report.Summary,
		Config:    cfg,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", fmt.Errorf("write metadata: %w", err)
	}

	records := make([]Record, len(report.Results))
	trajectories := make([]Trajectory, 0, len(report.Results))
	for i, r := range report.Results {
		records[i] = NewRecord(r)
		if r.Success {
			trajectories = append(trajectories, NewTrajectory(r))
		}
	}
	if err := writeResults(filepath.Join(runDir, resultsFile), records); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	if err := writeTrajectories(filepath.Join(runDir, trajectoriesFile), trajectories); err != nil {
		return "", fmt.Errorf("write trajectories: %w", err)
	}

	return runID, nil
}

// List returns the stored runs, newest first.
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
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadResults(runID string) ([]Record, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, resultsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}
	defer f.Close()
	return readResults(f)
}

func (s *Store) LoadTrajectories(runID string) ([]Trajectory, error) {
	compressed, err := os.ReadFile(filepath.Join(s.baseDir, runID, trajectoriesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
		}
		return nil, err
	}

	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	defer decoder.Close()

	data, err := decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompression failed: %w", err)
	}

	var out []Trajectory
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadTrajectory returns the stored trajectory for one curve.
func (s *Store) LoadTrajectory(runID, curveID string) (*Trajectory, error) {
	all, err := s.LoadTrajectories(runID)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].CurveID == curveID {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("curve %q not in run %s", curveID, runID)
}

type ExportData struct {
	Metadata     RunMetadata  `json:"metadata"`
	Results      []Record     `json:"results"`
	Trajectories []Trajectory `json:"trajectories"`
}

// ExportJSON writes a run's metadata, results and trajectories as one
// indented JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	results, err := s.LoadResults(runID)
	if err != nil {
		return err
	}
	trajectories, err := s.LoadTrajectories(runID)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Metadata: *meta, Results: results, Trajectories: trajectories})
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

func writeTrajectories(path string, trajectories []Trajectory) error {
	data, err := json.Marshal(trajectories)
	if err != nil {
		return err
	}

	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer encoder.Close()

	return os.WriteFile(path, encoder.EncodeAll(data, nil), 0644)
}
