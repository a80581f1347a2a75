package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("dataset: missing header row")

// WarnKind identifies a row that was accepted with an adjustment.
type WarnKind int

const (
	// WarnMultipleNames: more than one non-numeric field; the last one is the name.
	WarnMultipleNames WarnKind = iota
	// WarnNoName: no non-numeric field; the row is skipped.
	WarnNoName
	// WarnNoValues: no numeric field; the record has no values.
	WarnNoValues
	// WarnFlatRow: all numeric values are equal; they normalize to 0.
	WarnFlatRow
	// WarnDuplicate: the name was already present; the row replaces it.
	WarnDuplicate
	// WarnDuplicateColumn: a header name repeats; the rightmost column wins.
	WarnDuplicateColumn
)

func (k WarnKind) String() string {
	switch k {
	case WarnMultipleNames:
		return "multiple name fields"
	case WarnNoName:
		return "no name field"
	case WarnNoValues:
		return "no numeric fields"
	case WarnFlatRow:
		return "zero variance"
	case WarnDuplicate:
		return "duplicate name"
	case WarnDuplicateColumn:
		return "duplicate column"
	default:
		return "unknown"
	}
}

// Warning describes one adjusted row.
type Warning struct {
	Line   int
	Entity string
	Kind   WarnKind
}

func (w Warning) String() string {
	if w.Entity == "" {
		return fmt.Sprintf("line %d: %s", w.Line, w.Kind)
	}
	return fmt.Sprintf("line %d (%s): %s", w.Line, w.Entity, w.Kind)
}

// Report collects the warnings raised while parsing.
type Report struct {
	Rows     int
	Warnings []Warning
}

func (r *Report) warn(line int, entity string, kind WarnKind) {
	r.Warnings = append(r.Warnings, Warning{Line: line, Entity: entity, Kind: kind})
}

// Parse reads a CSV table with a header row and normalizes every row by its
// own minimum and maximum.
func Parse(r io.Reader) (*Dataset, *Report, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrNoHeader
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}

	ds := newDataset()
	report := &Report{}
	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if seen[col] {
			report.warn(1, col, WarnDuplicateColumn)
		}
		seen[col] = true
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		report.Rows++

		rec, kinds := normalizeRow(header, row)
		for _, k := range kinds {
			report.warn(line, rec.Name, k)
		}
		if rec.Name == "" {
			continue
		}
		if ds.put(rec) {
			report.warn(line, rec.Name, WarnDuplicate)
		}
	}
	return ds, report, nil
}

// normalizeRow maps each numeric field of row to (v - min) / (max - min).
// A repeated column keeps its rightmost value, and min and max are taken
// over the kept values. A row whose values are all equal maps them all to 0.
func normalizeRow(header, row []string) (*Record, []WarnKind) {
	var kinds []WarnKind
	rec := &Record{Values: make(map[string]float64)}

	raw := make(map[string]float64, len(row))
	names := 0
	for i, field := range row {
		field = strings.TrimSpace(field)
		if field == "" || i >= len(header) {
			continue
		}
		v, ok := parseNumber(field)
		if !ok {
			rec.Name = field
			names++
			continue
		}
		raw[header[i]] = v
	}

	switch {
	case names == 0:
		return rec, append(kinds, WarnNoName)
	case names > 1:
		kinds = append(kinds, WarnMultipleNames)
	}
	if len(raw) == 0 {
		return rec, append(kinds, WarnNoValues)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range raw {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	// Halved operands keep the span finite for values near MaxFloat64.
	span := hi/2 - lo/2
	if span == 0 {
		kinds = append(kinds, WarnFlatRow)
	}
	for col, v := range raw {
		if span == 0 {
			rec.Values[col] = 0
			continue
		}
		rec.Values[col] = (v/2 - lo/2) / span
	}
	return rec, kinds
}

// parseNumber accepts finite decimal numbers only.
func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
