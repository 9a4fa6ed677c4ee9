package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/dynrec/internal/bootstrap"
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
	Label     string    `json:"label"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	Samples int     `json:"samples"`
	M       int     `json:"m"`
	Tau     int     `json:"tau"`
	Epsilon float64 `json:"epsilon"`
	Density float64 `json:"density"`
	Rounds  int     `json:"rounds"`

	WindowSize      int `json:"window_size"`
	WindowIncrement int `json:"window_increment"`
	BlockSize       int `json:"block_size,omitempty"`

	Band        bootstrap.Band     `json:"band"`
	Transitions int                `json:"transitions"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// FisherTable is the persisted Fisher series. Smoothed is empty when the run
// was not smoothed.
type FisherTable struct {
	Time     []float64 `json:"time"`
	Values   []float64 `json:"values"`
	Smoothed []float64 `json:"smoothed,omitempty"`
}

// Save writes metadata.json and fisher.csv into a new run directory and
// returns the run ID.
func (s *Store) Save(meta RunMetadata, table *FisherTable) (string, error) {
	if len(table.Time) != len(table.Values) {
		return "", fmt.Errorf("storage: %d times, %d values", len(table.Time), len(table.Values))
	}
	if meta.Label == "" {
		meta.Label = "run"
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	meta.ID = fmt.Sprintf("%s_%d", slug(meta.Label), meta.Timestamp.UnixNano())

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeFisher(filepath.Join(runDir, "fisher.csv"), table); err != nil {
		return "", err
	}
	return meta.ID, nil
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

func writeFisher(path string, table *FisherTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	smoothed := len(table.Smoothed) == len(table.Values) && len(table.Smoothed) > 0

	header := []string{"time", "fisher"}
	if smoothed {
		header = append(header, "smoothed")
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range table.Values {
		row := []string{
			strconv.FormatFloat(table.Time[i], 'g', -1, 64),
			strconv.FormatFloat(table.Values[i], 'g', -1, 64),
		}
		if smoothed {
			row = append(row, strconv.FormatFloat(table.Smoothed[i], 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
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
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFisher(runID string) (*FisherTable, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, "fisher.csv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	table := &FisherTable{}
	if len(records) < 2 {
		return table, nil
	}

	for i, rec := range records[1:] {
		nums := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("fisher.csv line %d: %w", i+2, err)
			}
			nums[j] = v
		}
		if len(nums) < 2 {
			return nil, fmt.Errorf("fisher.csv line %d: want at least 2 columns", i+2)
		}
		table.Time = append(table.Time, nums[0])
		table.Values = append(table.Values, nums[1])
		if len(nums) > 2 {
			table.Smoothed = append(table.Smoothed, nums[2])
		}
	}
	return table, nil
}

type ExportData struct {
	RunMetadata
	Fisher *FisherTable `json:"fisher"`
}

// ExportJSON writes a run's metadata and Fisher series as one JSON document.
func (s *Store) ExportJSON(runID string, w io.Writer) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	table, err := s.LoadFisher(runID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: *meta, Fisher: table})
}

func slug(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0:
			b.WriteByte('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "run"
	}
	return out
}
