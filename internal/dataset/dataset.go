// Package dataset loads per-entity numeric tables and normalizes each row
// into the [0,1] range.
package dataset

import "strings"

// Record is one dataset row after normalization.
type Record struct {
	Name   string
	Values map[string]float64
}

// Dataset maps entity names to records. It keeps the row order of names so
// listings are stable. A Dataset is not modified after Parse returns.
type Dataset struct {
	records map[string]*Record
	names   []string
}

func newDataset() *Dataset {
	return &Dataset{records: make(map[string]*Record)}
}

func (d *Dataset) put(rec *Record) bool {
	_, dup := d.records[rec.Name]
	if !dup {
		d.names = append(d.names, rec.Name)
	}
	d.records[rec.Name] = rec
	return dup
}

// Len returns the number of entities.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Names returns entity names in row order.
func (d *Dataset) Names() []string {
	if d == nil {
		return nil
	}
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Lookup returns the record for name.
func (d *Dataset) Lookup(name string) (*Record, bool) {
	if d == nil {
		return nil, false
	}
	rec, ok := d.records[name]
	return rec, ok
}

// Values returns the normalized values of name. It lets a Dataset serve as
// the record source of a material binding.
func (d *Dataset) Values(name string) (map[string]float64, bool) {
	rec, ok := d.Lookup(name)
	if !ok {
		return nil, false
	}
	return rec.Values, true
}

// Filter returns the names containing query, ignoring case, in row order.
// An empty query returns every name.
func (d *Dataset) Filter(query string) []string {
	if query == "" {
		return d.Names()
	}
	q := strings.ToLower(query)
	var out []string
	for _, name := range d.Names() {
		if strings.Contains(strings.ToLower(name), q) {
			out = append(out, name)
		}
	}
	return out
}
