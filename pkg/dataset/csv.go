package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Loader reads labeled datasets from CSV files. The label column is
// selected by name, by index, or defaults to the last column.
type Loader struct {
	hasHeader bool
	labelName string
	labelIdx  int
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHeader indicates whether the CSV has a header row.
func WithHeader(has bool) LoaderOption {
	return func(l *Loader) {
		l.hasHeader = has
	}
}

// WithLabelColumn selects the label column by header name.
func WithLabelColumn(name string) LoaderOption {
	return func(l *Loader) {
		l.labelName = name
	}
}

// WithLabelIndex selects the label column by position.
func WithLabelIndex(i int) LoaderOption {
	return func(l *Loader) {
		l.labelIdx = i
	}
}

// NewLoader creates a Loader. By default the CSV is expected to have a
// header row and the last column holds the label.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		hasHeader: true,
		labelIdx:  -1,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load reads the whole file into a Dataset. Rows with unparseable values
// are skipped, matching the tolerant ingestion of the capture path.
func (l *Loader) Load(filename string) (*Dataset, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open")
	}
	defer f.Close()

	ds, err := l.read(csv.NewReader(f))
	return ds, errors.Wrapf(err, "dataset: load %s", filename)
}

// LoadClassSource reads a feature-only CSV and assigns every row the same
// label. Used for sources that hold a single class, such as a file of
// known-normal flow records.
func LoadClassSource(filename string, label int, opts ...LoaderOption) (*Dataset, error) {
	l := NewLoader(opts...)

	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "dataset: open")
	}
	defer f.Close()

	ds, err := l.readFeatures(csv.NewReader(f), label)
	return ds, errors.Wrapf(err, "dataset: load %s", filename)
}

func (l *Loader) read(r *csv.Reader) (*Dataset, error) {
	header, labelIdx, err := l.resolveLabel(r)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if labelIdx < 0 {
			labelIdx = len(record) - 1
		}
		if labelIdx >= len(record) {
			continue
		}

		row := make([]float64, 0, len(record)-1)
		label := 0
		ok := true
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			if i == labelIdx {
				label = int(math.Round(v))
			} else {
				row = append(row, v)
			}
		}
		if !ok {
			continue // skip malformed rows
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}

	if len(ds.X) == 0 {
		return nil, errors.New("no usable rows")
	}
	if len(header) > 0 {
		ds.Cols = featureNames(header, labelIdx)
	}
	return ds, ds.Validate()
}

func (l *Loader) readFeatures(r *csv.Reader, label int) (*Dataset, error) {
	var header []string
	if l.hasHeader {
		h, err := r.Read()
		if err != nil {
			return nil, err
		}
		header = h
	}

	ds := &Dataset{Cols: header}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]float64, len(record))
		ok := true
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			row[i] = v
		}
		if !ok {
			continue
		}
		ds.X = append(ds.X, row)
		ds.Y = append(ds.Y, label)
	}

	if len(ds.X) == 0 {
		return nil, errors.New("no usable rows")
	}
	return ds, ds.Validate()
}

// resolveLabel reads the header (when present) and determines the label
// column index. A negative return means "last column", decided per row.
func (l *Loader) resolveLabel(r *csv.Reader) ([]string, int, error) {
	var header []string
	if l.hasHeader {
		h, err := r.Read()
		if err != nil {
			return nil, 0, err
		}
		header = h
	}

	if l.labelName != "" {
		if len(header) == 0 {
			return nil, 0, errors.New("label column by name requires a header")
		}
		for i, name := range header {
			if name == l.labelName {
				return header, i, nil
			}
		}
		return nil, 0, errors.Errorf("label column %q not found", l.labelName)
	}

	if l.labelIdx >= 0 {
		return header, l.labelIdx, nil
	}
	if len(header) > 0 {
		return header, len(header) - 1, nil
	}
	return header, -1, nil
}

func featureNames(header []string, labelIdx int) []string {
	names := make([]string, 0, len(header)-1)
	for i, name := range header {
		if i == labelIdx {
			continue
		}
		names = append(names, name)
	}
	return names
}
