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

	"golang.org/x/text/encoding/charmap"
)

// Kind classifies a column by its non-missing values.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindBoolean Kind = "boolean"
	KindText    Kind = "text"
)

// Column holds one named column of the dataset. Cells keeps the raw string
// values ("" marks a missing entry); for numeric columns Nums carries the
// parsed values aligned with Cells, with NaN at missing positions.
type Column struct {
	Name  string
	Kind  Kind
	Cells []string
	Nums  []float64
}

// Missing counts the absent entries in the column.
func (c *Column) Missing() int {
	n := 0
	for _, v := range c.Cells {
		if v == "" {
			n++
		}
	}
	return n
}

// NonMissing returns the numeric values of the column with NaNs dropped.
// Only meaningful for numeric columns.
func (c *Column) NonMissing() []float64 {
	out := make([]float64, 0, len(c.Nums))
	for _, v := range c.Nums {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is the immutable in-memory table produced by Load. Row and column
// counts are fixed once loaded.
type Dataset struct {
	Name     string
	RowCount int
	Columns  []Column
}

// Column returns the column with the given name, or nil.
func (d *Dataset) Column(name string) *Column {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i]
		}
	}
	return nil
}

// NumericColumns returns the numeric columns in their original order.
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for i := range d.Columns {
		if d.Columns[i].Kind == KindNumeric {
			out = append(out, &d.Columns[i])
		}
	}
	return out
}

// Load reads a delimited file into a Dataset. Bytes are decoded as
// ISO-8859-1 so that undecodable input never aborts the read; delimiter is
// sniffed from the extension (.tsv means tab). Short rows are padded so
// every column has RowCount cells.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(f))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.Comma = sniffDelimiter(path)

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty dataset: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make([]Column, len(header))
	for i, h := range header {
		cols[i] = Column{Name: strings.TrimSpace(h)}
	}

	rows := 0
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", rows+1, err)
		}
		rows++
		for i := range cols {
			v := ""
			if i < len(rec) {
				v = strings.TrimSpace(rec[i])
			}
			cols[i].Cells = append(cols[i].Cells, v)
		}
	}

	for i := range cols {
		inferKind(&cols[i])
	}

	return &Dataset{
		Name:     filepath.Base(path),
		RowCount: rows,
		Columns:  cols,
	}, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

// inferKind decides the column kind: numeric if every non-missing cell
// parses as a float, boolean if every non-missing cell is a true/false
// token, text otherwise. A column with no values at all stays text.
func inferKind(c *Column) {
	numeric := true
	boolean := true
	seen := 0
	for _, v := range c.Cells {
		if v == "" {
			continue
		}
		seen++
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			numeric = false
		}
		if !isBoolToken(v) {
			boolean = false
		}
		if !numeric && !boolean {
			break
		}
	}
	switch {
	case seen > 0 && numeric:
		c.Kind = KindNumeric
	case seen > 0 && boolean:
		c.Kind = KindBoolean
	default:
		c.Kind = KindText
	}
	if c.Kind == KindNumeric {
		c.Nums = make([]float64, len(c.Cells))
		for i, v := range c.Cells {
			if v == "" {
				c.Nums[i] = math.NaN()
				continue
			}
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				x = math.NaN()
			}
			c.Nums[i] = x
		}
	}
}

func isBoolToken(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}
