package material

import "sort"

// Tint is how strongly a value of 1 removes green and blue.
const Tint = 0.7

// Source provides normalized values per entity. *dataset.Dataset implements it.
type Source interface {
	Values(entity string) (map[string]float64, bool)
}

// Selection is the entity currently shown and its visibility filter.
type Selection struct {
	Entity    string
	HideCells bool
	Threshold float64
}

// Status tells what a Bind call did.
type Status int

const (
	StatusApplied Status = iota
	StatusNoData
	StatusUnknownEntity
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusNoData:
		return "no data"
	case StatusUnknownEntity:
		return "unknown entity"
	default:
		return "unknown"
	}
}

// Result lists the keys a Bind call touched and the record keys that had no
// material. Both lists are sorted.
type Result struct {
	Entity    string
	Status    Status
	Applied   []string
	Unmatched []string
}

// Bind writes the selected entity's values onto the registry: green and
// blue become 1 - value*Tint and visibility follows the threshold. Materials
// the record does not name are left untouched. Binding the same selection
// twice gives the same state.
func Bind(src Source, reg *Registry, sel Selection) Result {
	res := Result{Entity: sel.Entity}
	if src == nil || reg == nil {
		res.Status = StatusNoData
		return res
	}
	values, ok := src.Values(sel.Entity)
	if !ok {
		res.Status = StatusUnknownEntity
		return res
	}

	for key, v := range values {
		m, ok := reg.Get(key)
		if !ok {
			res.Unmatched = append(res.Unmatched, key)
			continue
		}
		c := float32(1 - v*Tint)
		m.Color[1] = c
		m.Color[2] = c
		m.Visible = !sel.HideCells || v > sel.Threshold
		res.Applied = append(res.Applied, key)
	}
	sort.Strings(res.Applied)
	sort.Strings(res.Unmatched)
	res.Status = StatusApplied
	return res
}
