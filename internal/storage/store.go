// Package storage keeps solved runs on disk. Each run is a directory named
// by its id holding metadata.json (the descriptor and solver statistics) and
// trajectory.csv (t followed by one column per variable).
package storage

import (
	"encoding/csv"
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

	"github.com/google/uuid"

	"github.com/san-kum/odelab/internal/dynamo"
	"github.com/san-kum/odelab/internal/model"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrAmbiguousRun = errors.New("storage: run id prefix is ambiguous")
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

func (s *Store) Dir() string { return s.baseDir }

// RunDir returns the directory of a run.
func (s *Store) RunDir(runID string) string { return filepath.Join(s.baseDir, runID) }

type Parameter struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type RunMetadata struct {
	ID                string      `json:"id"`
	Model             string      `json:"model"`
	Description       string      `json:"description,omitempty"`
	Timestamp         time.Time   `json:"timestamp"`
	Variables         []string    `json:"variables"`
	Parameters        []Parameter `json:"parameters"`
	Equations         []string    `json:"equations"`
	TimeSpan          [2]float64  `json:"time_span"`
	InitialConditions []float64   `json:"initial_conditions"`
	Resolution        int         `json:"resolution"`
	Method            string      `json:"method"`
	RTol              float64     `json:"rtol"`
	ATol              float64     `json:"atol"`
	Steps             int         `json:"steps"`
	Rejected          int         `json:"rejected"`
	Evaluations       int         `json:"evaluations"`
}

// NewMetadata describes a solved descriptor. The id is left empty.
func NewMetadata(d *model.Descriptor, traj *dynamo.Trajectory) RunMetadata {
	t0, t1 := d.TimeSpan()
	rtol, atol := d.Tolerance()
	meta := RunMetadata{
		Model:             d.Name(),
		Description:       d.Description(),
		Variables:         d.Variables(),
		Equations:         d.Field().Equations(),
		TimeSpan:          [2]float64{t0, t1},
		InitialConditions: d.InitialConditions(),
		Resolution:        d.Resolution(),
		Method:            string(d.Method()),
		RTol:              rtol,
		ATol:              atol,
	}
	names := d.ParameterNames()
	for i, v := range d.Parameters() {
		meta.Parameters = append(meta.Parameters, Parameter{Name: names[i], Value: v})
	}
	if traj != nil {
		meta.Steps = traj.Steps
		meta.Rejected = traj.Rejected
		meta.Evaluations = traj.Evaluations
	}
	return meta
}

// Descriptor rebuilds the model that produced the run.
func (m *RunMetadata) Descriptor() (*model.Descriptor, error) {
	names := make([]string, len(m.Parameters))
	vals := make([]float64, len(m.Parameters))
	for i, p := range m.Parameters {
		names[i] = p.Name
		vals[i] = p.Value
	}
	field, err := model.ParseField(strings.Join(m.Equations, ", "), m.Variables, names)
	if err != nil {
		return nil, err
	}
	return model.Build(m.Model, field, m.TimeSpan, m.InitialConditions, model.Options{
		Resolution:  m.Resolution,
		Parameters:  model.Literal(vals...),
		Description: m.Description,
		Method:      model.Method(m.Method),
		RTol:        m.RTol,
		ATol:        m.ATol,
	})
}

// Save writes a new run and returns its metadata. A run that fails to write
// is removed.
func (s *Store) Save(d *model.Descriptor, traj *dynamo.Trajectory) (*RunMetadata, error) {
	meta := NewMetadata(d, traj)
	meta.ID = uuid.NewString()
	meta.Timestamp = time.Now().UTC()

	runDir := s.RunDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, err
	}

	err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	})
	if err == nil {
		err = writeFile(filepath.Join(runDir, trajectoryFile), func(w io.Writer) error {
			return WriteCSV(w, traj)
		})
	}
	if err != nil {
		os.RemoveAll(runDir)
		return nil, fmt.Errorf("storage: save run %s: %w", meta.ID, err)
	}
	return &meta, nil
}

// createFile is swapped in tests to simulate write failures.
var createFile = os.Create

func writeFile(path string, write func(io.Writer) error) error {
	f, err := createFile(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes a header "t,<name>..." followed by one row per sample.
func WriteCSV(out io.Writer, traj *dynamo.Trajectory) error {
	w := csv.NewWriter(out)

	header := []string{"t"}
	for i := range traj.Y {
		header = append(header, traj.Label(i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, len(traj.Y)+1)
	for k, t := range traj.T {
		row[0] = strconv.FormatFloat(t, 'g', -1, 64)
		for i := range traj.Y {
			row[i+1] = strconv.FormatFloat(traj.Y[i][k], 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

// Resolve expands a unique id prefix to a full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", ErrRunNotFound
	}
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
		}
		return "", err
	}
	var match string
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if entry.Name() == prefix {
			return prefix, nil
		}
		if match != "" {
			return "", fmt.Errorf("%w: %s", ErrAmbiguousRun, prefix)
		}
		match = entry.Name()
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	}
	return match, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadTrajectory reads a run's samples back.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Trajectory, error) {
	file, err := os.Open(filepath.Join(s.RunDir(runID), trajectoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadCSV parses the format written by WriteCSV.
func ReadCSV(in io.Reader) (*dynamo.Trajectory, error) {
	r := csv.NewReader(in)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 || len(records[0]) < 2 || records[0][0] != "t" {
		return nil, errors.New("storage: trajectory has no t,<variable> header")
	}

	dim := len(records[0]) - 1
	n := len(records) - 1
	traj := &dynamo.Trajectory{
		Names: append([]string(nil), records[0][1:]...),
		T:     make([]float64, n),
		Y:     make([][]float64, dim),
	}
	for i := range traj.Y {
		traj.Y[i] = make([]float64, n)
	}

	for k, record := range records[1:] {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: row %d column %d: %w", k+2, j+1, err)
			}
			if j == 0 {
				traj.T[k] = v
			} else {
				traj.Y[j-1][k] = v
			}
		}
	}
	return traj, nil
}
