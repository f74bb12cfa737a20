// Package dataset loads growth curves from CSV files and generates
// synthetic RAP curves.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/growthfit/internal/batch"
)

var (
	ErrNoTimeColumn = errors.New("dataset: no time column")
	ErrNoCurves     = errors.New("dataset: no curve columns")
	ErrEmpty        = errors.New("dataset: no rows")
)

// missing lists the cell values read as no-data markers.
var missing = map[string]bool{
	"": true, "na": true, "nan": true, "-": true, "null": true, "n/a": true,
}

// Dataset is a set of curves sharing one time axis.
type Dataset struct {
	Name   string
	Times  []float64
	Curves []batch.Curve
}

func (d *Dataset) Curve(id string) (batch.Curve, bool) {
	for _, c := range d.Curves {
		if c.ID == id {
			return c, true
		}
	}
	return batch.Curve{}, false
}

func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return LoadCSV(f, name)
}

// LoadCSV reads a header row followed by numeric rows. The first column
// whose name contains "time" is the time axis; every other column is a
// curve.
func LoadCSV(r io.Reader, name string) (*Dataset, error) {
	rd := csv.NewReader(r)
	rd.TrimLeadingSpace = true

	header, err := rd.Read()
	if err == io.EOF {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	timeCol := -1
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "time") {
			timeCol = i
			break
		}
	}
	if timeCol < 0 {
		return nil, ErrNoTimeColumn
	}

	ds := &Dataset{Name: name}
	cols := make([]int, 0, len(header)-1)
	for i, h := range header {
		if i == timeCol {
			continue
		}
		cols = append(cols, i)
		ds.Curves = append(ds.Curves, batch.Curve{ID: strings.TrimSpace(h)})
	}
	if len(cols) == 0 {
		return nil, ErrNoCurves
	}

	line := 1
	for {
		rec, err := rd.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		t, err := parseCell(rec[timeCol])
		if err != nil {
			return nil, fmt.Errorf("line %d, column %q: %w", line, header[timeCol], err)
		}
		ds.Times = append(ds.Times, t)

		for k, col := range cols {
			v, err := parseCell(rec[col])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %q: %w", line, header[col], err)
			}
			ds.Curves[k].Values = append(ds.Curves[k].Values, v)
		}
	}

	if len(ds.Times) == 0 {
		return nil, ErrEmpty
	}
	return ds, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if missing[strings.ToLower(s)] {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// WriteCSV writes the dataset with a "time" column first. NaN cells are
// written empty.
func (d *Dataset) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(d.Curves)+1)
	header = append(header, "time")
	for _, c := range d.Curves {
		header = append(header, c.ID)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i, t := range d.Times {
		row[0] = formatCell(t)
		for k, c := range d.Curves {
			v := math.NaN()
			if i < len(c.Values) {
				v = c.Values[i]
			}
			row[k+1] = formatCell(v)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func (d *Dataset) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
