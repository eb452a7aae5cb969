package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/datascribe-cli/datascribe/internal/dataset"
)

// ColumnStats captures the describe-style summary of a single column.
// Numeric columns carry the moment/quantile fields; other kinds carry
// Unique/Top/Freq instead.
type ColumnStats struct {
	Name  string
	Kind  dataset.Kind
	Count int

	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64

	Unique int
	Top    string
	Freq   int
}

// MissingCount is the number of absent entries of one column.
type MissingCount struct {
	Column string
	Count  int
}

// CorrMatrix is a square Pearson correlation matrix over the numeric
// columns of a dataset, in their original order. Values is symmetric with
// 1.0 on the diagonal.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64
}

// Empty reports whether the matrix covers no columns.
func (m *CorrMatrix) Empty() bool {
	return m == nil || len(m.Columns) == 0
}

// Result bundles the three derived tables of a dataset analysis.
type Result struct {
	Stats   []ColumnStats
	Missing []MissingCount
	Corr    *CorrMatrix
}

// Analyze derives summary statistics, per-column missing counts and a
// numeric-only correlation matrix from the dataset. Pure: the dataset is
// not modified and repeated calls yield identical results.
func Analyze(ds *dataset.Dataset) *Result {
	res := &Result{}
	for i := range ds.Columns {
		c := &ds.Columns[i]
		res.Stats = append(res.Stats, describeColumn(c))
		res.Missing = append(res.Missing, MissingCount{Column: c.Name, Count: c.Missing()})
	}
	res.Corr = correlations(ds)
	return res
}

func describeColumn(c *dataset.Column) ColumnStats {
	s := ColumnStats{Name: c.Name, Kind: c.Kind}
	if c.Kind == dataset.KindNumeric {
		vals := c.NonMissing()
		s.Count = len(vals)
		if len(vals) == 0 {
			s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan7()
			return s
		}
		sort.Float64s(vals)
		s.Mean = stat.Mean(vals, nil)
		if len(vals) > 1 {
			s.Std = stat.StdDev(vals, nil)
		}
		s.Min = vals[0]
		s.Max = vals[len(vals)-1]
		s.Q1 = quantile(vals, 0.25)
		s.Median = quantile(vals, 0.5)
		s.Q3 = quantile(vals, 0.75)
		return s
	}

	freq := map[string]int{}
	for _, v := range c.Cells {
		if v == "" {
			continue
		}
		s.Count++
		freq[v]++
	}
	s.Unique = len(freq)
	for v, n := range freq {
		if n > s.Freq || (n == s.Freq && v < s.Top) {
			s.Top = v
			s.Freq = n
		}
	}
	return s
}

func nan7() (a, b, c, d, e, f, g float64) {
	n := math.NaN()
	return n, n, n, n, n, n, n
}

// correlations computes pairwise-complete Pearson correlations across the
// numeric columns. Zero numeric columns yield nil. Pairs without enough
// complete observations, or with zero variance, get 0; the diagonal is
// always 1 and the matrix is symmetric by construction.
func correlations(ds *dataset.Dataset) *CorrMatrix {
	num := ds.NumericColumns()
	if len(num) == 0 {
		return nil
	}
	names := make([]string, len(num))
	for i, c := range num {
		names[i] = c.Name
	}
	vals := make([][]float64, len(num))
	for i := range vals {
		vals[i] = make([]float64, len(num))
		vals[i][i] = 1
	}
	for i := 0; i < len(num); i++ {
		for j := i + 1; j < len(num); j++ {
			r := pairCorrelation(num[i].Nums, num[j].Nums)
			vals[i][j] = r
			vals[j][i] = r
		}
	}
	return &CorrMatrix{Columns: names, Values: vals}
}

// quantile interpolates linearly between order statistics; sorted must be
// ascending and non-empty.
func quantile(sorted []float64, q float64) float64 {
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func pairCorrelation(xs, ys []float64) float64 {
	var px, py []float64
	for k := range xs {
		if math.IsNaN(xs[k]) || math.IsNaN(ys[k]) {
			continue
		}
		px = append(px, xs[k])
		py = append(py, ys[k])
	}
	if len(px) < 2 {
		return 0
	}
	r := stat.Correlation(px, py, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	// numeric noise can push r marginally outside [-1, 1]
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}
