package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonesrussell/gohoops/internal/logger"
)

// ErrNoData is returned when a named dataset is absent or has zero
// rows. Downstream consumers treat the two identically: missing data.
var ErrNoData = errors.New("dataset has no data")

// Store reads and writes named tables as flat CSV files under a data
// directory. One file per dataset, no metadata beyond the header row.
type Store struct {
	dir string
	log logger.Interface
}

// NewStore creates a store rooted at dir, creating it if needed.
func NewStore(dir string, log logger.Interface) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Path returns the file path backing a named dataset.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".csv")
}

// Exists reports whether a named dataset file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// WriteTable writes a header and rows to the named dataset,
// overwriting any previous contents.
func (s *Store) WriteTable(name string, header []string, rows [][]string) error {
	path := s.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row to %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}

	s.log.Debug("wrote dataset", "name", name, "rows", len(rows))
	return nil
}

// ReadTable reads the named dataset. Returns ErrNoData when the file
// is absent or contains a header with zero rows.
func (s *Store) ReadTable(name string) ([]string, [][]string, error) {
	path := s.Path(name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%s: %w", name, ErrNoData)
		}
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%s: %w", name, ErrNoData)
	}

	return records[0], records[1:], nil
}

// WriteDataset persists a dataset under the given name.
func (s *Store) WriteDataset(name string, d *Dataset) error {
	header, rows := d.ToTable()
	return s.WriteTable(name, header, rows)
}

// ReadDataset loads a named dataset. Returns ErrNoData when absent or
// empty.
func (s *Store) ReadDataset(name string) (*Dataset, error) {
	header, rows, err := s.ReadTable(name)
	if err != nil {
		return nil, err
	}
	return FromTable(header, rows), nil
}

// ReadOrCompute returns the named dataset if it exists and has rows;
// otherwise it calls fn, persists a non-empty result, and returns it.
func (s *Store) ReadOrCompute(name string, fn func() (*Dataset, error)) (*Dataset, error) {
	d, err := s.ReadDataset(name)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrNoData) {
		return nil, err
	}

	s.log.Debug("dataset not cached, computing", "name", name)
	d, err = fn()
	if err != nil {
		return nil, err
	}
	if d.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrNoData)
	}
	if err := s.WriteDataset(name, d); err != nil {
		return nil, err
	}
	return d, nil
}
