package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

var resultsHeader = []string{
	"curve_id", "success", "error",
	"r", "d", "K", "P0",
	"sse", "baseline", "baseline_sse", "superior", "improvement", "sse_ratio",
	"final_utilization", "distance", "converged", "stable_points", "tight_stable_85",
	"converged_100", "tight_stable_100", "regime", "evaluations",
}

func writeResults(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(resultsHeader); err != nil {
		return err
	}

	for _, r := range records {
		baseSSE := ""
		if r.BaselineSSE != nil {
			baseSSE = formatFloat(*r.BaselineSSE)
		}
		row := []string{
			r.CurveID, strconv.FormatBool(r.Success), r.Error,
			formatFloat(r.R), formatFloat(r.D), formatFloat(r.K), formatFloat(r.P0),
			formatFloat(r.SSE), r.Baseline, baseSSE, strconv.FormatBool(r.Superior),
			formatFloat(r.Improvement), formatFloat(r.SSERatio),
			formatFloat(r.FinalUtilization), formatFloat(r.Distance), strconv.FormatBool(r.Converged),
			strconv.Itoa(r.StablePoints), strconv.Itoa(r.TightStable85),
			strconv.FormatBool(r.Converged100), strconv.Itoa(r.TightStable100),
			r.Regime, strconv.Itoa(r.Evaluations),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func readResults(r io.Reader) ([]Record, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return []Record{}, nil
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(resultsHeader) {
			return nil, fmt.Errorf("results row %d: %d fields, want %d", i+1, len(row), len(resultsHeader))
		}

		p := rowParser{row: row}
		rec := Record{
			CurveID:          row[0],
			Success:          p.boolean(1),
			Error:            row[2],
			R:                p.number(3),
			D:                p.number(4),
			K:                p.number(5),
			P0:               p.number(6),
			SSE:              p.number(7),
			Baseline:         row[8],
			Superior:         p.boolean(10),
			Improvement:      p.number(11),
			SSERatio:         p.number(12),
			FinalUtilization: p.number(13),
			Distance:         p.number(14),
			Converged:        p.boolean(15),
			StablePoints:     p.integer(16),
			TightStable85:    p.integer(17),
			Converged100:     p.boolean(18),
			TightStable100:   p.integer(19),
			Regime:           row[20],
			Evaluations:      p.integer(21),
		}
		if row[9] != "" {
			v := p.number(9)
			rec.BaselineSSE = &v
		}
		if p.err != nil {
			return nil, fmt.Errorf("results row %d: %w", i+1, p.err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// rowParser keeps the first conversion error so a row can be decoded
// without checking every field.
type rowParser struct {
	row []string
	err error
}

func (p *rowParser) number(i int) float64 {
	v, err := strconv.ParseFloat(p.row[i], 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", resultsHeader[i], err)
	}
	return v
}

func (p *rowParser) integer(i int) int {
	v, err := strconv.Atoi(p.row[i])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", resultsHeader[i], err)
	}
	return v
}

func (p *rowParser) boolean(i int) bool {
	v, err := strconv.ParseBool(p.row[i])
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("column %s: %w", resultsHeader[i], err)
	}
	return v
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
