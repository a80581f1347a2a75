package dataset

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `gene,Leaf,Root,Stem
AT1G01220-FKGP,2,10,6
AT1G01010,5,1,3
`

func TestParseNormalizesPerRow(t *testing.T) {
	ds, report, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, []string{"AT1G01220-FKGP", "AT1G01010"}, ds.Names())

	rec, ok := ds.Lookup("AT1G01220-FKGP")
	require.True(t, ok)
	assert.InDelta(t, 0.0, rec.Values["Leaf"], 1e-9)
	assert.InDelta(t, 1.0, rec.Values["Root"], 1e-9)
	assert.InDelta(t, 0.5, rec.Values["Stem"], 1e-9)

	rec, ok = ds.Lookup("AT1G01010")
	require.True(t, ok)
	assert.InDelta(t, 1.0, rec.Values["Leaf"], 1e-9)
	assert.InDelta(t, 0.0, rec.Values["Root"], 1e-9)
	assert.InDelta(t, 0.5, rec.Values["Stem"], 1e-9)
	assert.NotContains(t, rec.Values, "gene")
}

func TestParseValuesInUnitRange(t *testing.T) {
	in := "name,a,b,c,d\nx,-4,17.5,3,0.25\ny,100,-100,0,1e3\n"
	ds, _, err := Parse(strings.NewReader(in))
	require.NoError(t, err)

	for _, name := range ds.Names() {
		rec, _ := ds.Lookup(name)
		var sawMin, sawMax bool
		for _, v := range rec.Values {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
			sawMin = sawMin || v == 0
			sawMax = sawMax || v == 1
		}
		assert.True(t, sawMin, name)
		assert.True(t, sawMax, name)
	}
}

func TestParseNegativeRowUsesTrueMaximum(t *testing.T) {
	ds, _, err := Parse(strings.NewReader("name,a,b\nneg,-3,-1\n"))
	require.NoError(t, err)
	rec, _ := ds.Lookup("neg")
	assert.InDelta(t, 0.0, rec.Values["a"], 1e-9)
	assert.InDelta(t, 1.0, rec.Values["b"], 1e-9)
}

func TestParseDuplicateColumnKeepsRightmost(t *testing.T) {
	ds, report, err := Parse(strings.NewReader("name,a,a,b\nx,0,10,5\n"))
	require.NoError(t, err)
	rec, ok := ds.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"a": 1, "b": 0}, rec.Values)

	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnDuplicateColumn, report.Warnings[0].Kind)
	assert.Equal(t, "a", report.Warnings[0].Entity)
	assert.Equal(t, 1, report.Warnings[0].Line)
}

func TestParseExtremeRangeStaysFinite(t *testing.T) {
	ds, _, err := Parse(strings.NewReader("name,a,b,c\nx,-1e308,1e308,0\n"))
	require.NoError(t, err)
	rec, _ := ds.Lookup("x")
	assert.Equal(t, 0.0, rec.Values["a"])
	assert.Equal(t, 1.0, rec.Values["b"])
	assert.InDelta(t, 0.5, rec.Values["c"], 1e-12)
}

func TestParseEdgeCases(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		entity string
		values map[string]float64
		warn   WarnKind
	}{
		{
			name:   "single numeric column",
			in:     "name,a\nsolo,42\n",
			entity: "solo",
			values: map[string]float64{"a": 0},
			warn:   WarnFlatRow,
		},
		{
			name:   "constant row",
			in:     "name,a,b,c\nflat,3,3,3\n",
			entity: "flat",
			values: map[string]float64{"a": 0, "b": 0, "c": 0},
			warn:   WarnFlatRow,
		},
		{
			name:   "no numeric columns",
			in:     "name,a\nbare,\n",
			entity: "bare",
			values: map[string]float64{},
			warn:   WarnNoValues,
		},
		{
			name:   "last name wins",
			in:     "first,second,a,b\nalpha,beta,1,2\n",
			entity: "beta",
			values: map[string]float64{"a": 0, "b": 1},
			warn:   WarnMultipleNames,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, report, err := Parse(strings.NewReader(tt.in))
			require.NoError(t, err)
			rec, ok := ds.Lookup(tt.entity)
			require.True(t, ok)
			assert.Equal(t, tt.values, rec.Values)
			require.Len(t, report.Warnings, 1)
			assert.Equal(t, tt.warn, report.Warnings[0].Kind)
			assert.Equal(t, 2, report.Warnings[0].Line)
		})
	}
}

func TestParseSkipsRowWithoutName(t *testing.T) {
	ds, report, err := Parse(strings.NewReader("name,a,b\n1,2,3\nok,1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ds.Names())
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnNoName, report.Warnings[0].Kind)
}

func TestParseDuplicateReplaces(t *testing.T) {
	ds, report, err := Parse(strings.NewReader("name,a,b\ndup,1,2\ndup,2,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
	rec, _ := ds.Lookup("dup")
	assert.InDelta(t, 1.0, rec.Values["a"], 1e-9)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, WarnDuplicate, report.Warnings[0].Kind)
	assert.Equal(t, 3, report.Warnings[0].Line)
}

func TestParseErrors(t *testing.T) {
	_, _, err := Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, _, err = Parse(strings.NewReader("name,a,b\nx,1\n"))
	assert.Error(t, err)
}

func TestFilter(t *testing.T) {
	ds, _, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, ds.Names(), ds.Filter(""))
	assert.Equal(t, []string{"AT1G01220-FKGP"}, ds.Filter("fkgp"))
	assert.Equal(t, []string{"AT1G01220-FKGP", "AT1G01010"}, ds.Filter("at1g"))
	assert.Empty(t, ds.Filter("zzz"))
}

func TestNilDataset(t *testing.T) {
	var ds *Dataset
	assert.Equal(t, 0, ds.Len())
	assert.Empty(t, ds.Names())
	_, ok := ds.Values("x")
	assert.False(t, ok)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	ds, _, err := Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, _, err = Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	ds, _, err := Load(context.Background(), srv.URL+"/data.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	_, _, err = Load(context.Background(), srv.URL+"/nope.csv")
	assert.ErrorContains(t, err, "404")
}
