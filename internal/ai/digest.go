package ai

import (
	"fmt"
	"strings"

	"github.com/datascribe-cli/datascribe/internal/analysis"
	"github.com/datascribe-cli/datascribe/internal/dataset"
)

// SystemPersona is the fixed system role sent with every insight request.
const SystemPersona = "You are a data analyst."

// digestHead bounds how many rows of each table go into the prompt.
const digestHead = 5

// BuildDigest condenses the dataset schema and analysis tables into the
// prompt text for the insight request. Each table is truncated to its first
// few rows to bound prompt size.
func BuildDigest(ds *dataset.Dataset, res *analysis.Result) string {
	var b strings.Builder
	b.WriteString("Here is a dataset summary:\n\n")

	b.WriteString("Columns and types:\n")
	for _, c := range ds.Columns {
		fmt.Fprintf(&b, "%s: %s\n", c.Name, c.Kind)
	}
	b.WriteString("\n")

	b.WriteString("Top summary:\n")
	for i, s := range res.Stats {
		if i >= digestHead {
			break
		}
		if s.Kind == dataset.KindNumeric {
			fmt.Fprintf(&b, "%s: count=%d mean=%.4g std=%.4g min=%.4g max=%.4g\n",
				s.Name, s.Count, s.Mean, s.Std, s.Min, s.Max)
		} else {
			fmt.Fprintf(&b, "%s: count=%d unique=%d top=%s freq=%d\n",
				s.Name, s.Count, s.Unique, s.Top, s.Freq)
		}
	}
	b.WriteString("\n")

	b.WriteString("Missing values:\n")
	for i, m := range res.Missing {
		if i >= digestHead {
			break
		}
		fmt.Fprintf(&b, "%s: %d\n", m.Column, m.Count)
	}
	b.WriteString("\n")

	if !res.Corr.Empty() {
		b.WriteString("Correlation matrix:\n")
		for i, name := range res.Corr.Columns {
			if i >= digestHead {
				break
			}
			vals := make([]string, 0, len(res.Corr.Columns))
			for _, v := range res.Corr.Values[i] {
				vals = append(vals, fmt.Sprintf("%.3f", v))
			}
			fmt.Fprintf(&b, "%s: %s\n", name, strings.Join(vals, " "))
		}
		b.WriteString("\n")
	}

	b.WriteString("Write a narrative-style story with insights, trends, and what actions could be taken based on this data.")
	return b.String()
}
