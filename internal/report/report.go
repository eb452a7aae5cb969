package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/datascribe-cli/datascribe/internal/analysis"
	"github.com/datascribe-cli/datascribe/internal/dataset"
	"github.com/datascribe-cli/datascribe/internal/utils"
)

// FileName is the report file written inside the output directory.
const FileName = "README.md"

// Chart file names the writer probes for when embedding images.
const (
	HeatmapFile   = "chart1.png"
	HistogramFile = "chart2.png"
)

// statRows is the fixed row order of the summary-statistics table,
// mirroring a describe-style summary over mixed column kinds.
var statRows = []string{"count", "unique", "top", "freq", "mean", "std", "min", "25%", "50%", "75%", "max"}

// Write composes the Markdown report in a fixed section order and writes it
// atomically as README.md in dir. Image embeds are included only when the
// corresponding chart file already exists on disk. Output is deterministic
// for identical inputs.
func Write(dir, datasetName string, res *analysis.Result, insights string) error {
	var b strings.Builder
	b.WriteString("# Automated Data Analysis Report\n\n")
	fmt.Fprintf(&b, "## Dataset: `%s`\n\n", datasetName)

	b.WriteString("### Summary Statistics\n\n")
	writeSummaryTable(&b, res.Stats)
	b.WriteString("\n")

	b.WriteString("### Missing Values\n\n")
	writeMissingTable(&b, res.Missing)
	b.WriteString("\n")

	b.WriteString("### Correlation Matrix\n\n")
	writeCorrTable(&b, res.Corr)
	b.WriteString("\n")

	b.WriteString("### AI-Generated Insights\n\n")
	b.WriteString(insights)
	b.WriteString("\n\n")

	b.WriteString("### Visualizations\n\n")
	if fileExists(filepath.Join(dir, HeatmapFile)) {
		fmt.Fprintf(&b, "![Correlation Heatmap](%s)\n\n", HeatmapFile)
	}
	if fileExists(filepath.Join(dir, HistogramFile)) {
		fmt.Fprintf(&b, "![Rating Distribution](%s)\n", HistogramFile)
	}

	path := filepath.Join(dir, FileName)
	if err := utils.SafeWriteFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// newMarkdownTable configures a tablewriter for pipe-table output that
// common Markdown renderers accept.
func newMarkdownTable(w io.Writer, header []string) *tablewriter.Table {
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	t.SetAutoWrapText(false)
	t.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	t.SetCenterSeparator("|")
	t.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	return t
}

func writeSummaryTable(w io.Writer, stats []analysis.ColumnStats) {
	header := make([]string, 0, len(stats)+1)
	header = append(header, "")
	for _, s := range stats {
		header = append(header, s.Name)
	}
	t := newMarkdownTable(w, header)
	for _, row := range statRows {
		cells := make([]string, 0, len(stats)+1)
		cells = append(cells, row)
		for _, s := range stats {
			cells = append(cells, summaryCell(row, s))
		}
		t.Append(cells)
	}
	t.Render()
}

func summaryCell(row string, s analysis.ColumnStats) string {
	numeric := s.Kind == dataset.KindNumeric
	switch row {
	case "count":
		return strconv.Itoa(s.Count)
	case "unique":
		if numeric {
			return ""
		}
		return strconv.Itoa(s.Unique)
	case "top":
		if numeric {
			return ""
		}
		return s.Top
	case "freq":
		if numeric {
			return ""
		}
		return strconv.Itoa(s.Freq)
	}
	if !numeric {
		return ""
	}
	var v float64
	switch row {
	case "mean":
		v = s.Mean
	case "std":
		v = s.Std
	case "min":
		v = s.Min
	case "25%":
		v = s.Q1
	case "50%":
		v = s.Median
	case "75%":
		v = s.Q3
	case "max":
		v = s.Max
	}
	return formatNum(v)
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func writeMissingTable(w io.Writer, missing []analysis.MissingCount) {
	t := newMarkdownTable(w, []string{"", "missing_count"})
	for _, m := range missing {
		t.Append([]string{m.Column, strconv.Itoa(m.Count)})
	}
	t.Render()
}

func writeCorrTable(w io.Writer, corr *analysis.CorrMatrix) {
	if corr.Empty() {
		return
	}
	header := make([]string, 0, len(corr.Columns)+1)
	header = append(header, "")
	header = append(header, corr.Columns...)
	t := newMarkdownTable(w, header)
	for i, name := range corr.Columns {
		cells := make([]string, 0, len(corr.Columns)+1)
		cells = append(cells, name)
		for _, v := range corr.Values[i] {
			cells = append(cells, strconv.FormatFloat(v, 'f', 4, 64))
		}
		t.Append(cells)
	}
	t.Render()
}
