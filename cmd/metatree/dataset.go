package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/bayesgo/metatree/core/model"
	"github.com/bayesgo/metatree/preprocessing"
)

// dataset holds one CSV batch split into the column blocks the model
// expects: continuous features first, categorical features next, and
// (for training and evaluation data) the target last.
type dataset struct {
	n    int
	xc   *mat.Dense
	xcat [][]int
	y    []float64
}

// readDataset parses the CSV at path. withTarget selects whether the
// last column is read as the target. A non-numeric first row is
// skipped as a header.
func readDataset(path string, dimContinuous, dimCategorical int, withTarget bool) (*dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data at %s: %w", path, err)
	}
	defer f.Close()
	return parseDataset(f, dimContinuous, dimCategorical, withTarget)
}

func parseDataset(r io.Reader, dimContinuous, dimCategorical int, withTarget bool) (*dataset, error) {
	want := dimContinuous + dimCategorical
	if withTarget {
		want++
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = want
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) > 0 {
		if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
			records = records[1:]
		}
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no data rows")
	}

	n := len(records)
	ds := &dataset{n: n}
	var xcData []float64
	if dimContinuous > 0 {
		xcData = make([]float64, 0, n*dimContinuous)
	}
	if dimCategorical > 0 {
		ds.xcat = make([][]int, n)
	}
	if withTarget {
		ds.y = make([]float64, n)
	}

	for i, rec := range records {
		col := 0
		for j := 0; j < dimContinuous; j++ {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, col+1, err)
			}
			xcData = append(xcData, v)
			col++
		}
		if dimCategorical > 0 {
			row := make([]int, dimCategorical)
			for j := 0; j < dimCategorical; j++ {
				v, err := strconv.Atoi(rec[col])
				if err != nil {
					return nil, fmt.Errorf("row %d column %d: %w", i+1, col+1, err)
				}
				row[j] = v
				col++
			}
			ds.xcat[i] = row
		}
		if withTarget {
			v, err := strconv.ParseFloat(rec[col], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", i+1, col+1, err)
			}
			ds.y[i] = v
		}
	}
	if dimContinuous > 0 {
		ds.xc = mat.NewDense(n, dimContinuous, xcData)
	}
	return ds, nil
}

// writePredictions writes one prediction per input row as CSV.
func writePredictions(path string, preds []float64) error {
	var f *os.File
	var err error
	if path == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output at %s: %w", path, err)
		}
		defer f.Close()
	}
	w := csv.NewWriter(f)
	for _, p := range preds {
		if err := w.Write([]string{strconv.FormatFloat(p, 'g', -1, 64)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writePredictionsWithVariance writes prediction,variance rows as CSV.
func writePredictionsWithVariance(path string, preds, vars []float64) error {
	var f *os.File
	var err error
	if path == "" {
		f = os.Stdout
	} else {
		f, err = os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output at %s: %w", path, err)
		}
		defer f.Close()
	}
	w := csv.NewWriter(f)
	for i, p := range preds {
		rec := []string{
			strconv.FormatFloat(p, 'g', -1, 64),
			strconv.FormatFloat(vars[i], 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// newScaler maps the config's scale option to a transform for the
// continuous features. Returns nil when no scaling is requested or
// there are no continuous features.
func newScaler(cfg *modelConfig) (model.Transformer, error) {
	if cfg.Model.DimContinuous == 0 {
		return nil, nil
	}
	switch cfg.Scale {
	case "", "none":
		return nil, nil
	case "standard":
		return preprocessing.NewStandardScaler(), nil
	case "minmax":
		return preprocessing.NewMinMaxScaler(0, 1)
	}
	return nil, fmt.Errorf("unknown scale %q", cfg.Scale)
}
